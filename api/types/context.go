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

import "reflect"

// Action is the opaque behavior behind an advice entry or a failure rule.
// It produces a response by calling CallContext.Respond.
// Action 增强点执行逻辑，通过 CallContext.Respond 产生响应
type Action interface {
	Invoke(ctx CallContext) error
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ctx CallContext) error

func (f ActionFunc) Invoke(ctx CallContext) error {
	return f(ctx)
}

// CallContext is the call-scoped store owned by the intercepting mechanism.
// Settings advice writes into it, failure rules read from it.
// CallContext 单次调用的上下文，由拦截机制持有
type CallContext interface {
	// Id returns the invocation id.
	Id() string
	// Key returns the match key of the intercepted operation.
	Key() MatchKey
	// Target returns the intercepted component.
	Target() ComponentRef
	// Phase returns the advice kind currently executing.
	Phase() AdviceKind
	// SetPhase is called by the intercepting mechanism before each advice list.
	SetPhase(phase AdviceKind)
	// Setting returns an ambient setting.
	Setting(name string) (interface{}, bool)
	// PutSetting stores an ambient setting.
	PutSetting(name string, value interface{})
	// Settings returns a copy of all ambient settings.
	Settings() map[string]interface{}
	// DecodeSettings decodes the ambient settings into out.
	DecodeSettings(out interface{}) error
	// Failure returns the raised failure, if any.
	Failure() error
	// SetFailure records the raised failure.
	SetFailure(err error)
	// Respond records a response, short-circuiting before advice and suppressing handled failures.
	Respond(response interface{})
	// Response returns the recorded response.
	Response() interface{}
	// Responded reports whether a response was produced.
	Responded() bool
}

// ComponentRef identifies a managed component by id and concrete type.
type ComponentRef struct {
	Id   string
	Type reflect.Type
}

// RefOf creates a reference to a component instance.
func RefOf(id string, component interface{}) ComponentRef {
	ref := ComponentRef{Id: id}
	if component != nil {
		ref.Type = reflect.TypeOf(component)
	}
	return ref
}

// Same reports whether both references denote the same component, by id or by concrete type.
func (r ComponentRef) Same(other ComponentRef) bool {
	if r.Id != "" && r.Id == other.Id {
		return true
	}
	return r.Type != nil && r.Type == other.Type
}

// ComponentDescriptor describes a component to the advisability check and the proxy dispatch selector.
type ComponentDescriptor struct {
	Id string
	// Type is the declared implementation type.
	Type reflect.Type
	// Capabilities lists the interfaces the component is exposed through.
	Capabilities []reflect.Type
	// Operations returns the distinct operation names of the component.
	// Nil falls back to the exported method set of Type.
	Operations func() []string
}
