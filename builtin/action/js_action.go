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

// Package action provides script-backed advice actions.
//
//   - JsAction runs a JavaScript function `advise(ctx)` with goja.
//   - ExprAction evaluates an expr-lang expression and stores or returns its result.
//   - ErrorExpr is a failure kind defined by an expr-lang predicate.
//
// Package action 提供基于脚本的增强点执行逻辑。
package action

import (
	"fmt"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/utils/js"
)

// JsFuncName is the script function invoked by JsAction.
const JsFuncName = "advise"

// JsAction runs the `advise(ctx)` function of a script. The ctx argument exposes:
//
//	ctx.id                   invocation id
//	ctx.phase                "settings", "before", "after" or "finally"
//	ctx.key                  {route, component, type, operation}
//	ctx.setting(name)        ambient setting, undefined if unset
//	ctx.putSetting(name, v)  stores an ambient setting
//	ctx.respond(v)           produces a response
//	ctx.failure()            the raised failure message, null if none
//
// A thrown exception fails the action.
type JsAction struct {
	jsEngine *js.GojaJsEngine
}

// NewJsAction compiles script, which must declare `function advise(ctx)`.
func NewJsAction(config types.Config, script string) (*JsAction, error) {
	jsEngine, err := js.NewGojaJsEngine(config, script, nil)
	if err != nil {
		return nil, err
	}
	if !jsEngine.HasFunction(JsFuncName) {
		return nil, fmt.Errorf("script must declare function %s(ctx)", JsFuncName)
	}
	return &JsAction{jsEngine: jsEngine}, nil
}

func (a *JsAction) Invoke(ctx types.CallContext) error {
	_, err := a.jsEngine.Execute(JsFuncName, jsContext(ctx))
	return err
}

func jsContext(ctx types.CallContext) map[string]interface{} {
	key := ctx.Key()
	return map[string]interface{}{
		"id":    ctx.Id(),
		"phase": ctx.Phase().String(),
		"key": map[string]interface{}{
			"route":     key.Route,
			"component": key.Component,
			"type":      key.Type,
			"operation": key.Operation,
		},
		"setting": func(name string) interface{} {
			v, _ := ctx.Setting(name)
			return v
		},
		"putSetting": func(name string, value interface{}) {
			ctx.PutSetting(name, value)
		},
		"respond": func(value interface{}) {
			ctx.Respond(value)
		},
		"failure": func() interface{} {
			if err := ctx.Failure(); err != nil {
				return err.Error()
			}
			return nil
		},
	}
}

var _ types.Action = (*JsAction)(nil)
