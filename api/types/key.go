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

import (
	"strings"

	"github.com/rulego/weaver/utils/str"
)

// MatchKey identifies an intercepted operation. It is the plan cache key:
// two keys are equal iff all four fields are equal.
// MatchKey 匹配键，用于查找缓存的执行计划
type MatchKey struct {
	// Route is the route name, empty outside a routed request.
	Route string
	// Component is the component id.
	Component string
	// Type is the type name of the component implementation.
	Type string
	// Operation is the operation (method) name.
	Operation string
}

// NewMatchKey creates an operation-level key.
func NewMatchKey(route, component, typeName, operation string) MatchKey {
	return MatchKey{Route: route, Component: component, Type: typeName, Operation: operation}
}

// RouteKey creates a route-level key.
func RouteKey(route string) MatchKey {
	return MatchKey{Route: route}
}

// IsRouteLevel reports whether the key carries only a route name.
func (k MatchKey) IsRouteLevel() bool {
	return k.Component == "" && k.Type == "" && k.Operation == ""
}

// String renders the key as route@component#type^operation. It is unique per key
// because the separators never appear unescaped in the rendered fields.
func (k MatchKey) String() string {
	var b strings.Builder
	b.Grow(len(k.Route) + len(k.Component) + len(k.Type) + len(k.Operation) + 3)
	writeEscaped(&b, k.Route)
	b.WriteByte('@')
	writeEscaped(&b, k.Component)
	b.WriteByte('#')
	writeEscaped(&b, k.Type)
	b.WriteByte('^')
	writeEscaped(&b, k.Operation)
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '@', '#', '^', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
}

// IsLiteralRoute reports whether a route name has no unresolved path variables.
// An empty route is literal.
func IsLiteralRoute(route string) bool {
	return !str.HasPathVars(route)
}
