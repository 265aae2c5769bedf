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

package interceptor

import (
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/utils/maps"
)

// DefaultCallContext is the call-scoped store used by the Invoker.
// DefaultCallContext 默认的调用上下文
type DefaultCallContext struct {
	id     string
	key    types.MatchKey
	target types.ComponentRef
	// phase is only touched by the goroutine driving the call.
	phase types.AdviceKind

	mu        sync.RWMutex
	settings  map[string]interface{}
	failure   error
	response  interface{}
	responded bool
}

// NewCallContext creates a call context with a random id.
func NewCallContext(key types.MatchKey, target types.ComponentRef) *DefaultCallContext {
	id, _ := uuid.NewV4()
	return &DefaultCallContext{
		id:       id.String(),
		key:      key,
		target:   target,
		settings: make(map[string]interface{}),
	}
}

func (ctx *DefaultCallContext) Id() string {
	return ctx.id
}

func (ctx *DefaultCallContext) Key() types.MatchKey {
	return ctx.key
}

func (ctx *DefaultCallContext) Target() types.ComponentRef {
	return ctx.target
}

func (ctx *DefaultCallContext) Phase() types.AdviceKind {
	return ctx.phase
}

func (ctx *DefaultCallContext) SetPhase(phase types.AdviceKind) {
	ctx.phase = phase
}

func (ctx *DefaultCallContext) Setting(name string) (interface{}, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	v, ok := ctx.settings[name]
	return v, ok
}

func (ctx *DefaultCallContext) PutSetting(name string, value interface{}) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.settings[name] = value
}

func (ctx *DefaultCallContext) Settings() map[string]interface{} {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	out := make(map[string]interface{}, len(ctx.settings))
	for k, v := range ctx.settings {
		out[k] = v
	}
	return out
}

// DecodeSettings decodes the settings into out with weakly typed conversion,
// so "5s" decodes into a time.Duration and "10" into an int.
func (ctx *DefaultCallContext) DecodeSettings(out interface{}) error {
	return maps.Map2StructWeak(ctx.Settings(), out)
}

func (ctx *DefaultCallContext) Failure() error {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.failure
}

func (ctx *DefaultCallContext) SetFailure(err error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.failure = err
}

func (ctx *DefaultCallContext) Respond(response interface{}) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.response = response
	ctx.responded = true
}

func (ctx *DefaultCallContext) Response() interface{} {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.response
}

func (ctx *DefaultCallContext) Responded() bool {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.responded
}

var _ types.CallContext = (*DefaultCallContext)(nil)
