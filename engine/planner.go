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

package engine

import (
	"github.com/rulego/weaver/api/types"
)

// planBuilder fans advice entries out into ordered plan lists.
//
//   - before: ascending by rule order, equal orders keep discovery order
//   - after, finally: the mirror image of before, so a rule that runs first runs last
//   - settings, failures: prepended, most recently discovered first
type planBuilder struct {
	before   []*types.Advice
	after    []*types.Advice
	finally  []*types.Advice
	settings []*types.Advice
	failures []*types.FailureRule
	dynamic  []*types.Rule
}

// newPlanBuilderFrom starts from a copy of an existing plan's lists.
func newPlanBuilderFrom(plan *types.Plan) *planBuilder {
	return &planBuilder{
		before:   append([]*types.Advice(nil), plan.Before()...),
		after:    append([]*types.Advice(nil), plan.After()...),
		finally:  append([]*types.Advice(nil), plan.Finally()...),
		settings: append([]*types.Advice(nil), plan.Settings()...),
		failures: append([]*types.FailureRule(nil), plan.Failures()...),
	}
}

func (b *planBuilder) addRule(rule *types.Rule) {
	for i := range rule.Advice {
		advice := &types.Advice{Rule: rule, Entry: rule.Advice[i]}
		switch advice.Entry.Kind {
		case types.Before:
			b.before = insertAscending(b.before, advice)
		case types.After:
			b.after = insertDescending(b.after, advice)
		case types.Around:
			b.before = insertAscending(b.before, advice)
			b.after = insertDescending(b.after, advice)
		case types.Finally:
			b.finally = insertDescending(b.finally, advice)
		case types.Settings:
			b.settings = prepend(b.settings, advice)
		}
	}
	if rule.Failure != nil {
		b.failures = append([]*types.FailureRule{rule.Failure}, b.failures...)
	}
}

func (b *planBuilder) addDynamic(rule *types.Rule) {
	b.dynamic = append(b.dynamic, rule)
}

func (b *planBuilder) build() *types.Plan {
	return types.NewPlan(b.before, b.after, b.finally, b.settings, b.failures, b.dynamic)
}

// insertAscending inserts advice before the first element with a greater order.
func insertAscending(list []*types.Advice, advice *types.Advice) []*types.Advice {
	i := 0
	for ; i < len(list); i++ {
		if advice.Order() < list[i].Order() {
			break
		}
	}
	return insertAt(list, i, advice)
}

// insertDescending inserts advice after the last element with a greater order,
// or at the head when there is none.
func insertDescending(list []*types.Advice, advice *types.Advice) []*types.Advice {
	i := len(list) - 1
	for ; i >= 0; i-- {
		if advice.Order() < list[i].Order() {
			break
		}
	}
	return insertAt(list, i+1, advice)
}

func insertAt(list []*types.Advice, i int, advice *types.Advice) []*types.Advice {
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = advice
	return list
}

func prepend(list []*types.Advice, advice *types.Advice) []*types.Advice {
	return insertAt(list, 0, advice)
}

// buildPlan computes the plan of key over a registry snapshot.
//
// Route-level keys see only route-level rules that are not component-relevant.
// Operation-level keys see only component-relevant rules: operation-level rules are
// resolved here, route-level ones are deferred to the plan's dynamic list because their
// route patterns must be checked against the literal route at execution.
func buildPlan(key types.MatchKey, entries []*ruleEntry) *types.Plan {
	b := &planBuilder{}
	if key.IsRouteLevel() {
		for _, e := range entries {
			if e.componentRelevant || e.rule.Target != types.RouteTarget {
				continue
			}
			if e.pointcut.matchesRoute(key.Route, true) {
				b.addRule(e.rule)
			}
		}
		return b.build()
	}
	for _, e := range entries {
		if !e.componentRelevant {
			continue
		}
		if e.rule.Target == types.RouteTarget {
			if e.pointcut.mayMatch(key) {
				b.addDynamic(e.rule)
			}
			continue
		}
		if e.pointcut.matches(key, false, true) {
			b.addRule(e.rule)
		}
	}
	return b.build()
}
