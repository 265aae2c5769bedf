/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package js runs JavaScript functions with goja.
//
// A GojaJsEngine compiles a script once and keeps a pool of runtimes that already
// evaluated it, so concurrent callers never share a runtime.
// GojaJsEngine 编译一次脚本，并使用 goja 虚拟机池供并发调用。
package js

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rulego/weaver/api/types"
)

// GojaJsEngine goja js engine
type GojaJsEngine struct {
	vmPool           sync.Pool
	logger           types.Logger
	maxExecutionTime time.Duration
	jsScript         *goja.Program
}

// NewGojaJsEngine compiles jsScript. vars are set as globals of every runtime.
// maxExecutionTime interrupts scripts running longer, 0 disables the limit.
func NewGojaJsEngine(config types.Config, jsScript string, vars map[string]interface{}) (*GojaJsEngine, error) {
	program, err := goja.Compile("", jsScript, true)
	if err != nil {
		return nil, err
	}
	jsEngine := &GojaJsEngine{
		logger:           types.NewLogger(config.Logger),
		maxExecutionTime: config.ScriptMaxExecutionTime,
		jsScript:         program,
	}
	// 验证脚本可以在虚拟机中执行
	vm, err := jsEngine.newVm(vars)
	if err != nil {
		return nil, err
	}
	jsEngine.vmPool.Put(vm)
	jsEngine.vmPool.New = func() interface{} {
		vm, err := jsEngine.newVm(vars)
		if err != nil {
			jsEngine.logger.Printf("js vm error: %s", err.Error())
		}
		return vm
	}
	return jsEngine, nil
}

func (g *GojaJsEngine) newVm(vars map[string]interface{}) (*goja.Runtime, error) {
	vm := goja.New()
	for k, v := range vars {
		if err := vm.Set(k, v); err != nil {
			return nil, fmt.Errorf("set var %s error: %w", k, err)
		}
	}
	timer := g.startTimeout(vm)
	_, err := vm.RunProgram(g.jsScript)
	g.stopTimeout(timer)
	if err != nil {
		return nil, err
	}
	vm.ClearInterrupt()
	return vm, nil
}

// Execute calls the script function functionName with argumentList and exports its result.
func (g *GojaJsEngine) Execute(functionName string, argumentList ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm, _ := g.vmPool.Get().(*goja.Runtime)
	if vm == nil {
		return nil, errors.New("js vm is not available")
	}
	// 被中断的虚拟机需要清除中断标志后才能复用
	defer func() {
		vm.ClearInterrupt()
		g.vmPool.Put(vm)
	}()

	timer := g.startTimeout(vm)
	defer g.stopTimeout(timer)

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}

	params := make([]goja.Value, len(argumentList))
	for i, v := range argumentList {
		params[i] = vm.ToValue(v)
	}

	res, err := f(goja.Undefined(), params...)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}

// HasFunction reports whether the script declares a global function name.
func (g *GojaJsEngine) HasFunction(name string) bool {
	vm, ok := g.vmPool.Get().(*goja.Runtime)
	if !ok || vm == nil {
		return false
	}
	defer g.vmPool.Put(vm)
	_, ok = goja.AssertFunction(vm.Get(name))
	return ok
}

// interruptTimer interrupts a runtime once its deadline passed.
// fired is closed after the interrupt was delivered.
type interruptTimer struct {
	timer *time.Timer
	fired chan struct{}
}

func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *interruptTimer {
	if g.maxExecutionTime <= 0 {
		return nil
	}
	t := &interruptTimer{fired: make(chan struct{})}
	t.timer = time.AfterFunc(g.maxExecutionTime, func() {
		vm.Interrupt("execution timeout")
		close(t.fired)
	})
	return t
}

// stopTimeout cancels the timer. If the timer already fired it waits for the
// interrupt to land, so a following ClearInterrupt cannot be overtaken by it.
func (g *GojaJsEngine) stopTimeout(t *interruptTimer) {
	if t == nil {
		return
	}
	if !t.timer.Stop() {
		<-t.fired
	}
}
