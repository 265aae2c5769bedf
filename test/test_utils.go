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

package test

import (
	"sync"

	"github.com/rulego/weaver/api/types"
)

// Recorder collects the names of invoked actions in invocation order.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// Action returns an action that records name.
func (r *Recorder) Action(name string) types.Action {
	return types.ActionFunc(func(ctx types.CallContext) error {
		r.Record(name)
		return nil
	})
}

// Failing returns an action that records name and fails with err.
func (r *Recorder) Failing(name string, err error) types.Action {
	return types.ActionFunc(func(ctx types.CallContext) error {
		r.Record(name)
		return err
	})
}

// Responding returns an action that records name and produces response.
func (r *Recorder) Responding(name string, response interface{}) types.Action {
	return types.ActionFunc(func(ctx types.CallContext) error {
		r.Record(name)
		ctx.Respond(response)
		return nil
	})
}

// Record appends name.
func (r *Recorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

// Calls returns a copy of the recorded names.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how often name was recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Reset clears the recorded names.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Noop is an action doing nothing.
var Noop = types.ActionFunc(func(ctx types.CallContext) error { return nil })

// AroundRule creates a rule with one around entry recording "<id>.before" and "<id>.after".
func AroundRule(r *Recorder, id string, order int, pointcut *types.Pointcut) *types.Rule {
	return &types.Rule{
		Id:       id,
		Order:    order,
		Pointcut: pointcut,
		Advice:   []types.AdviceEntry{types.AroundAdvice(r.Action(id+".before"), r.Action(id+".after"))},
	}
}

// Ids returns the owning rule ids of advice, in order.
func Ids(advice []*types.Advice) []string {
	ids := make([]string, 0, len(advice))
	for _, a := range advice {
		ids = append(ids, a.Rule.Id)
	}
	return ids
}
