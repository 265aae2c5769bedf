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

// Plan is the ordered set of advice and failure rules that applies to a MatchKey.
// Plans are immutable once built and are shared between goroutines without locking.
// The slices returned by the accessors must not be modified.
// Plan 执行计划，构建后不可修改，可在多个协程间共享
type Plan struct {
	before   []*Advice
	after    []*Advice
	finally  []*Advice
	settings []*Advice
	failures []*FailureRule
	dynamic  []*Rule
}

var emptyPlan = &Plan{}

// EmptyPlan returns the plan shared by every key no advice applies to.
func EmptyPlan() *Plan {
	return emptyPlan
}

// NewPlan wraps already ordered lists into a plan. It returns EmptyPlan when
// no advice list and no dynamic rule list is populated.
func NewPlan(before, after, finally, settings []*Advice, failures []*FailureRule, dynamic []*Rule) *Plan {
	if len(before) == 0 && len(after) == 0 && len(finally) == 0 && len(settings) == 0 && len(dynamic) == 0 {
		if len(failures) == 0 {
			return emptyPlan
		}
	}
	return &Plan{
		before:   before,
		after:    after,
		finally:  finally,
		settings: settings,
		failures: failures,
		dynamic:  dynamic,
	}
}

// Before returns before advice, ascending by rule order.
func (p *Plan) Before() []*Advice {
	return p.before
}

// After returns after advice, descending by rule order.
func (p *Plan) After() []*Advice {
	return p.after
}

// Finally returns finally advice, descending by rule order.
func (p *Plan) Finally() []*Advice {
	return p.finally
}

// Settings returns settings advice, most recently added first.
func (p *Plan) Settings() []*Advice {
	return p.settings
}

// Failures returns failure rules, most recently matched rule first.
func (p *Plan) Failures() []*FailureRule {
	return p.failures
}

// Dynamic returns route-level rules that are resolved against the literal route at execution.
func (p *Plan) Dynamic() []*Rule {
	return p.dynamic
}

// IsEmpty reports whether nothing applies.
func (p *Plan) IsEmpty() bool {
	return p == emptyPlan || (len(p.before) == 0 && len(p.after) == 0 && len(p.finally) == 0 &&
		len(p.settings) == 0 && len(p.failures) == 0 && len(p.dynamic) == 0)
}
