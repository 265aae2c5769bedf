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

// Package test provides fixtures shared by the package tests: a standalone call
// context and recording actions.
package test

import (
	"fmt"
	"sync"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/utils/maps"
)

// NodeTestCallContext
// 只为测试单个增强点，临时创建的上下文
type NodeTestCallContext struct {
	id        string
	key       types.MatchKey
	target    types.ComponentRef
	phase     types.AdviceKind
	mu        sync.RWMutex
	settings  map[string]interface{}
	failure   error
	response  interface{}
	responded bool
}

// NewCallContext creates a call context for key and target.
func NewCallContext(key types.MatchKey, target types.ComponentRef) *NodeTestCallContext {
	return &NodeTestCallContext{
		id:       fmt.Sprintf("test-%s", key),
		key:      key,
		target:   target,
		settings: make(map[string]interface{}),
	}
}

func (ctx *NodeTestCallContext) Id() string                      { return ctx.id }
func (ctx *NodeTestCallContext) Key() types.MatchKey             { return ctx.key }
func (ctx *NodeTestCallContext) Target() types.ComponentRef      { return ctx.target }
func (ctx *NodeTestCallContext) Phase() types.AdviceKind         { return ctx.phase }
func (ctx *NodeTestCallContext) SetPhase(phase types.AdviceKind) { ctx.phase = phase }

func (ctx *NodeTestCallContext) Setting(name string) (interface{}, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	v, ok := ctx.settings[name]
	return v, ok
}

func (ctx *NodeTestCallContext) PutSetting(name string, value interface{}) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.settings[name] = value
}

func (ctx *NodeTestCallContext) Settings() map[string]interface{} {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	out := make(map[string]interface{}, len(ctx.settings))
	for k, v := range ctx.settings {
		out[k] = v
	}
	return out
}

func (ctx *NodeTestCallContext) DecodeSettings(out interface{}) error {
	return maps.Map2StructWeak(ctx.Settings(), out)
}

func (ctx *NodeTestCallContext) Failure() error        { return ctx.failure }
func (ctx *NodeTestCallContext) SetFailure(err error)  { ctx.failure = err }
func (ctx *NodeTestCallContext) Response() interface{} { return ctx.response }
func (ctx *NodeTestCallContext) Responded() bool       { return ctx.responded }
func (ctx *NodeTestCallContext) Respond(v interface{}) { ctx.response, ctx.responded = v, true }

var _ types.CallContext = (*NodeTestCallContext)(nil)
