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

// Package reflect provides reflection helpers used to describe managed components.
//
// Key features:
// - OperationNames: the distinct exported operation names of a type
// - TypeName: the package-qualified name of a type, pointers dereferenced
// - Implements: the subset of capability interfaces a type satisfies
package reflect

import (
	"reflect"
	"sort"
)

// OperationNames returns the sorted distinct exported method names of t.
// For a non-pointer, non-interface type the pointer method set is included.
func OperationNames(t reflect.Type) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	collect := func(t reflect.Type) {
		for i := 0; i < t.NumMethod(); i++ {
			seen[t.Method(i).Name] = struct{}{}
		}
	}
	collect(t)
	if t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface {
		collect(reflect.PtrTo(t))
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeName returns the package-qualified name of t, e.g. "svc.OrderService".
// Pointer types are dereferenced.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// Implements returns the capability interfaces implemented by t or, for a
// non-pointer type, by a pointer to t. Interfaces without methods are skipped
// because they expose nothing to intercept.
func Implements(t reflect.Type, capabilities []reflect.Type) []reflect.Type {
	if t == nil {
		return nil
	}
	var result []reflect.Type
	for _, c := range capabilities {
		if c == nil || c.Kind() != reflect.Interface || c.NumMethod() == 0 {
			continue
		}
		if t.Implements(c) || (t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface && reflect.PtrTo(t).Implements(c)) {
			result = append(result, c)
		}
	}
	return result
}
