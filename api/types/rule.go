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

package types

// The types in this file describe AOP (Aspect Oriented Programming) rules. A rule declares
// where it applies (Pointcut) and what runs there (advice entries).
//
//   - Rules are built by an external rule source and registered into an engine.
//   - The engine decides, per intercepted operation, which advice runs and in which order.
//
// 本文件定义AOP(面向切面编程)规则。规则通过切入点声明作用范围，通过增强点声明执行逻辑。
//
//   - 规则由外部规则源构建并注册到引擎。
//   - 引擎针对每个被拦截的操作决定执行哪些增强点以及执行顺序。

// AdviceKind is the tag of an advice entry.
// AdviceKind 增强点类型
type AdviceKind int

const (
	// Before runs before the target operation, ascending by rule order.
	Before AdviceKind = iota + 1
	// After runs after the target operation when it did not fail, descending by rule order.
	After
	// Around is both a Before and an After entry.
	Around
	// Finally always runs after the target operation, descending by rule order.
	Finally
	// Settings mutates the call's ambient settings before any Before advice runs.
	Settings
)

func (k AdviceKind) String() string {
	switch k {
	case Before:
		return "before"
	case After:
		return "after"
	case Around:
		return "around"
	case Finally:
		return "finally"
	case Settings:
		return "settings"
	default:
		return "unknown"
	}
}

// JoinPointTarget is the level a rule is resolved at.
type JoinPointTarget int

const (
	// OperationTarget rules apply to method calls on managed components.
	OperationTarget JoinPointTarget = iota
	// RouteTarget rules apply to named routed requests.
	RouteTarget
)

func (t JoinPointTarget) String() string {
	if t == RouteTarget {
		return "route"
	}
	return "operation"
}

// AdviceEntry is one piece of cross-cutting behavior of a rule.
// AdviceEntry 规则的一个增强点
type AdviceEntry struct {
	// Kind decides which plan lists receive the entry.
	Kind AdviceKind `validate:"min=1,max=5"`
	// Action is invoked by the intercepting mechanism. For Around entries it runs in the before phase.
	Action Action `validate:"required"`
	// AfterAction optionally replaces Action in the after phase of an Around entry.
	AfterAction Action
}

// ActionFor returns the action to run for the given phase.
func (e AdviceEntry) ActionFor(phase AdviceKind) Action {
	if e.Kind == Around && phase == After && e.AfterAction != nil {
		return e.AfterAction
	}
	return e.Action
}

// BeforeAdvice creates a before entry.
func BeforeAdvice(action Action) AdviceEntry {
	return AdviceEntry{Kind: Before, Action: action}
}

// AfterAdvice creates an after entry.
func AfterAdvice(action Action) AdviceEntry {
	return AdviceEntry{Kind: After, Action: action}
}

// AroundAdvice creates an around entry. after may be nil, in which case before runs in both phases.
func AroundAdvice(before, after Action) AdviceEntry {
	return AdviceEntry{Kind: Around, Action: before, AfterAction: after}
}

// FinallyAdvice creates a finally entry.
func FinallyAdvice(action Action) AdviceEntry {
	return AdviceEntry{Kind: Finally, Action: action}
}

// SettingsAdvice creates a settings entry.
func SettingsAdvice(action Action) AdviceEntry {
	return AdviceEntry{Kind: Settings, Action: action}
}

// FailureRule handles failures raised while a plan executes.
// FailureRule 异常处理规则
type FailureRule struct {
	// Kinds lists the failure kinds handled by this rule. Empty handles every failure.
	Kinds []ErrorKind
	// Action handles the failure. It suppresses propagation by producing a response.
	Action Action `validate:"required"`
}

// Handles reports whether the rule declares a kind compatible with err.
func (f *FailureRule) Handles(err error) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, kind := range f.Kinds {
		if kind.Matches(err) {
			return true
		}
	}
	return false
}

// Rule is a registered cross-cutting concern. It is immutable once registered.
// Rule 切面规则，注册后不可修改
type Rule struct {
	// Id is globally unique within a registry.
	Id string `validate:"required,max=512"`
	// Order is the precedence; the smaller the value, the earlier its before advice runs.
	// Order 执行顺序，值越小，优先级越高
	Order int
	// Target is the join point level the rule is resolved at.
	Target JoinPointTarget `validate:"min=0,max=1"`
	// Pointcut selects the operations the rule applies to. Nil matches everything.
	Pointcut *Pointcut
	// Advice lists the entries of this rule.
	Advice []AdviceEntry `validate:"dive"`
	// Failure optionally handles failures raised during execution.
	Failure *FailureRule
	// Component is the component supplying the advice actions. Advice is never
	// applied to the component that supplied it.
	Component *ComponentRef
	// Description is free text for diagnostics.
	Description string
}

// ComponentRelevant reports whether the rule can match at the operation level.
// It is true for operation-level rules and for rules whose pointcut constrains
// the component, type or operation.
func (r *Rule) ComponentRelevant() bool {
	if r.Target == OperationTarget {
		return true
	}
	if r.Pointcut == nil {
		return false
	}
	for _, p := range r.Pointcut.Patterns {
		if p.Component != "" || p.Type != "" || p.Operation != "" {
			return true
		}
	}
	return false
}

// Advice is an entry bound to the rule that owns it.
// Plans hold Advice values so ordering and self-reference checks can reach the rule.
type Advice struct {
	Rule  *Rule
	Entry AdviceEntry
}

// Order returns the owning rule's order.
func (a *Advice) Order() int {
	return a.Rule.Order
}

// SuppliedBy reports whether the owning rule's component is the given component,
// compared by id and by concrete type.
func (a *Advice) SuppliedBy(target ComponentRef) bool {
	if a.Rule.Component == nil {
		return false
	}
	return a.Rule.Component.Same(target)
}
