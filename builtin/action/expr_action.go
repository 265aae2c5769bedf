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

package action

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rulego/weaver/api/types"
)

// ExprAction evaluates an expr-lang expression over the call:
//
//	key       {route, component, type, operation}
//	phase     the advice kind being executed
//	settings  the ambient settings
//	failure   the raised failure message, nil if none
//
// The result is stored as the setting named Setting, or produced as the call's
// response when Setting is empty and the result is not nil.
type ExprAction struct {
	Expr    string
	Setting string
	program *vm.Program
}

// NewExprAction compiles expression. Undefined variables evaluate to nil.
func NewExprAction(expression string, setting string) (*ExprAction, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return &ExprAction{Expr: expression, Setting: setting, program: program}, nil
}

func (a *ExprAction) Invoke(ctx types.CallContext) error {
	out, err := expr.Run(a.program, exprEnv(ctx))
	if err != nil {
		return fmt.Errorf("expr %q: %w", a.Expr, err)
	}
	if a.Setting != "" {
		ctx.PutSetting(a.Setting, out)
	} else if out != nil {
		ctx.Respond(out)
	}
	return nil
}

func exprEnv(ctx types.CallContext) map[string]interface{} {
	key := ctx.Key()
	var failure interface{}
	if err := ctx.Failure(); err != nil {
		failure = err.Error()
	}
	return map[string]interface{}{
		"key": map[string]interface{}{
			"route":     key.Route,
			"component": key.Component,
			"type":      key.Type,
			"operation": key.Operation,
		},
		"phase":    ctx.Phase().String(),
		"settings": ctx.Settings(),
		"failure":  failure,
	}
}

// ErrorExpr is a failure kind matching failures for which a boolean expr-lang
// predicate holds. The predicate sees `err`, the failure message, and `kind`,
// the failure's Go type, e.g. `err contains "timeout"` or `kind == "*net.OpError"`.
type ErrorExpr struct {
	Expr    string
	program *vm.Program
}

// NewErrorExpr compiles predicate.
func NewErrorExpr(predicate string) (*ErrorExpr, error) {
	program, err := expr.Compile(predicate, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &ErrorExpr{Expr: predicate, program: program}, nil
}

// Matches reports whether the predicate holds for err. Evaluation errors never match.
func (e *ErrorExpr) Matches(err error) bool {
	if err == nil {
		return false
	}
	out, runErr := expr.Run(e.program, map[string]interface{}{
		"err":  err.Error(),
		"kind": fmt.Sprintf("%T", err),
	})
	if runErr != nil {
		return false
	}
	matched, _ := out.(bool)
	return matched
}

var (
	_ types.Action    = (*ExprAction)(nil)
	_ types.ErrorKind = (*ErrorExpr)(nil)
)
