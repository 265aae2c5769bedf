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

package aspect

import (
	"github.com/rulego/weaver/api/types"
)

// DebugOrder is the order of the debug rule. Its before advice runs after the
// other built-in rules and its finally advice first, closest to the target.
const DebugOrder = 900

// Debug reports every intercepted call twice: types.In before the target runs,
// types.Out once it completed, with the failure if any.
//
// Debug 调试切面，目标方法执行前输出 In 日志，执行后输出 Out 日志及错误信息。
//
// Reports go to config.OnDebug, falling back to the global types.OnDebug, and
// to config.Logger when no callback is configured.
// 调试信息通过 config.OnDebug 回调输出，未配置时使用全局 types.OnDebug，
// 两者都没有则输出到 config.Logger。
type Debug struct {
	id      string
	onDebug func(flowType string, key types.MatchKey, ruleId string, err error)
	logger  types.Logger
}

// NewDebugRule creates the debug rule.
func NewDebugRule(id string, config types.Config, pointcut *types.Pointcut) *types.Rule {
	d := &Debug{id: id, onDebug: config.OnDebug, logger: types.NewLogger(config.Logger)}
	if d.onDebug == nil {
		d.onDebug = types.OnDebug
	}
	return &types.Rule{
		Id:       id,
		Order:    DebugOrder,
		Pointcut: pointcut,
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(types.ActionFunc(d.Before)),
			types.FinallyAdvice(types.ActionFunc(d.Finally)),
		},
		Description: "debug logging",
	}
}

// Before reports the incoming call.
func (d *Debug) Before(ctx types.CallContext) error {
	d.report(ctx, types.In, nil)
	return nil
}

// Finally reports the outcome of the call.
func (d *Debug) Finally(ctx types.CallContext) error {
	d.report(ctx, types.Out, ctx.Failure())
	return nil
}

func (d *Debug) report(ctx types.CallContext, flowType string, err error) {
	if d.onDebug != nil {
		d.onDebug(flowType, ctx.Key(), d.id, err)
		return
	}
	if err != nil {
		d.logger.Printf("[%s] id=%s key=%s err=%v", flowType, ctx.Id(), ctx.Key(), err)
	} else {
		d.logger.Printf("[%s] id=%s key=%s", flowType, ctx.Id(), ctx.Key())
	}
}
