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

// Package interceptor drives a call through the plan of its MatchKey.
//
// Execution order of one intercepted call:
//
//	settings -> before -> target -> after -> finally -> failure rules
//
// A before advice that produces a response short-circuits the call: the remaining
// before advice, the target and the after advice are skipped. Finally advice always
// runs, every entry of it even if an earlier one failed. The first failure rule
// compatible with the raised failure handles it and suppresses it by producing a response.
//
// 拦截调用的执行顺序：settings -> before -> 目标方法 -> after -> finally -> 异常处理规则。
// 增强点永远不会作用于提供该增强点的组件本身。
package interceptor

import (
	"reflect"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/api/types/metrics"
	"github.com/rulego/weaver/engine"
	reflectutil "github.com/rulego/weaver/utils/reflect"
	"github.com/rulego/weaver/utils/runtime"
)

// Target is the intercepted operation.
type Target func(ctx types.CallContext) error

// Invoker executes intercepted calls through the plans of an AspectEngine.
type Invoker struct {
	engine  *engine.AspectEngine
	logger  types.Logger
	metrics *metrics.EngineMetrics
}

// NewInvoker creates an invoker sharing the engine's logger and metrics.
func NewInvoker(e *engine.AspectEngine) *Invoker {
	return &Invoker{
		engine:  e,
		logger:  e.Config().Logger,
		metrics: e.Metrics(),
	}
}

// Engine returns the engine plans are looked up from.
func (inv *Invoker) Engine() *engine.AspectEngine {
	return inv.engine
}

// KeyOf builds the match key of an operation on a component instance.
func KeyOf(route, id string, component interface{}, operation string) types.MatchKey {
	var typeName string
	if component != nil {
		typeName = reflectutil.TypeName(reflect.TypeOf(component))
	}
	return types.NewMatchKey(route, id, typeName, operation)
}

// Call intercepts operation on component. The key's literalness is decided by the route.
func (inv *Invoker) Call(route, id string, component interface{}, operation string, target Target) (types.CallContext, error) {
	key := KeyOf(route, id, component, operation)
	ctx := NewCallContext(key, types.RefOf(id, component))
	return ctx, inv.Invoke(ctx, types.IsLiteralRoute(route), target)
}

// Invoke executes target through the plan of ctx.Key(). literal selects the plan cache tier.
func (inv *Invoker) Invoke(ctx types.CallContext, literal bool, target Target) error {
	if target == nil {
		return types.ErrNilTarget
	}
	key := ctx.Key()
	plan, err := inv.engine.Plan(key, literal)
	if err != nil {
		return err
	}
	plan = inv.engine.Resolve(plan, key)
	if plan.IsEmpty() {
		return invokeTarget(ctx, target)
	}

	inv.metrics.IncrementCurrent()
	defer inv.metrics.DecrementCurrent()

	err = inv.run(ctx, plan, target)
	if err != nil {
		ctx.SetFailure(err)
	}
	finallyErrs := inv.runFinally(ctx, plan.Finally())

	if err != nil {
		if inv.handle(ctx, plan.Failures(), err) {
			inv.metrics.IncrementHandled()
			err = nil
		} else {
			inv.metrics.IncrementFailed()
			for _, fe := range finallyErrs {
				inv.logger.Printf("finally advice failed key=%s id=%s err=%v", key, ctx.Id(), fe)
			}
			return err
		}
	}
	if len(finallyErrs) > 0 {
		inv.metrics.IncrementFailed()
		return &types.FinallyError{Errs: finallyErrs}
	}
	return nil
}

// run executes settings, before, the target and after advice, stopping at the first failure.
func (inv *Invoker) run(ctx types.CallContext, plan *types.Plan, target Target) error {
	ctx.SetPhase(types.Settings)
	for _, advice := range plan.Settings() {
		if err := inv.invokeAdvice(ctx, advice); err != nil {
			return err
		}
	}

	ctx.SetPhase(types.Before)
	for _, advice := range plan.Before() {
		if err := inv.invokeAdvice(ctx, advice); err != nil {
			return err
		}
		if ctx.Responded() {
			inv.metrics.IncrementShortCircuit()
			return nil
		}
	}

	if err := invokeTarget(ctx, target); err != nil {
		return err
	}

	ctx.SetPhase(types.After)
	for _, advice := range plan.After() {
		if err := inv.invokeAdvice(ctx, advice); err != nil {
			return err
		}
	}
	return nil
}

// runFinally executes every finally advice and collects their failures.
func (inv *Invoker) runFinally(ctx types.CallContext, finally []*types.Advice) []error {
	ctx.SetPhase(types.Finally)
	var errs []error
	for _, advice := range finally {
		if err := inv.invokeAdvice(ctx, advice); err != nil {
			inv.metrics.IncrementFinallyFailure()
			errs = append(errs, err)
		}
	}
	return errs
}

// handle runs the first failure rule compatible with err. It reports whether the
// failure is suppressed, which requires the handler to produce a response.
func (inv *Invoker) handle(ctx types.CallContext, failures []*types.FailureRule, err error) bool {
	for _, rule := range failures {
		if !rule.Handles(err) {
			continue
		}
		hctx := &handlerContext{CallContext: ctx}
		if herr := invokeAction(hctx, rule.Action); herr != nil {
			inv.logger.Printf("failure rule failed key=%s id=%s err=%v", ctx.Key(), ctx.Id(), herr)
			return false
		}
		return hctx.responded
	}
	return false
}

// handlerContext records whether a failure rule itself produced a response.
// A response left by the target or by earlier advice does not count.
type handlerContext struct {
	types.CallContext
	responded bool
}

func (c *handlerContext) Respond(response interface{}) {
	c.responded = true
	c.CallContext.Respond(response)
}

// invokeAdvice runs one advice entry unless it is supplied by the intercepted component.
func (inv *Invoker) invokeAdvice(ctx types.CallContext, advice *types.Advice) error {
	if advice.SuppliedBy(ctx.Target()) {
		inv.metrics.IncrementSkippedSelf()
		return nil
	}
	return invokeAction(ctx, advice.Entry.ActionFor(ctx.Phase()))
}

func invokeAction(ctx types.CallContext, action types.Action) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = runtime.PanicError(e)
		}
	}()
	return action.Invoke(ctx)
}

func invokeTarget(ctx types.CallContext, target Target) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = runtime.PanicError(e)
		}
	}()
	return target(ctx)
}
