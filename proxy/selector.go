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

// Package proxy decides how a managed component is intercepted. The decision is
// reported to the proxy generator; nothing here generates proxies.
package proxy

import (
	"reflect"

	"github.com/rulego/weaver/api/types"
	reflectutil "github.com/rulego/weaver/utils/reflect"
)

// Mode is the interception mechanism selected for a component.
type Mode int

const (
	// None means no rule applies to the component, it is used as is.
	None Mode = iota
	// Capability intercepts the component through the capability interfaces it implements.
	Capability
	// Subclass intercepts the concrete type because it has no usable interface surface.
	Subclass
)

func (m Mode) String() string {
	switch m {
	case Capability:
		return "capability"
	case Subclass:
		return "subclass"
	default:
		return "none"
	}
}

// Decision is the outcome for one component.
type Decision struct {
	Mode Mode
	// Capabilities lists the interfaces to intercept through when Mode is Capability.
	Capabilities []reflect.Type
}

// Advisor reports whether any rule can apply to a component.
// *engine.AspectEngine implements it.
type Advisor interface {
	Advisable(desc types.ComponentDescriptor) bool
}

// Selector is the dispatch decision table.
//
//	advisable | proxyTargetType | usable capabilities | mode
//	no        | -               | -                   | None
//	yes       | true            | -                   | Subclass
//	yes       | false           | yes                 | Capability
//	yes       | false           | no, interface type  | Capability (the type itself)
//	yes       | false           | no                  | Subclass
type Selector struct {
	advisor         Advisor
	proxyTargetType bool
}

// NewSelector creates a selector. proxyTargetType forces subclass dispatch.
func NewSelector(advisor Advisor, proxyTargetType bool) *Selector {
	return &Selector{advisor: advisor, proxyTargetType: proxyTargetType}
}

// Select decides the interception mode of the described component.
func (s *Selector) Select(desc types.ComponentDescriptor) Decision {
	if s.advisor != nil && !s.advisor.Advisable(desc) {
		return Decision{Mode: None}
	}
	if s.proxyTargetType {
		return Decision{Mode: Subclass}
	}
	if caps := reflectutil.Implements(desc.Type, desc.Capabilities); len(caps) > 0 {
		return Decision{Mode: Capability, Capabilities: caps}
	}
	if desc.Type != nil && desc.Type.Kind() == reflect.Interface && desc.Type.NumMethod() > 0 {
		return Decision{Mode: Capability, Capabilities: []reflect.Type{desc.Type}}
	}
	return Decision{Mode: Subclass}
}
