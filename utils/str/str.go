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

// Package str provides string helpers shared by the engine.
// Key features:
// - CheckHasVar: detects ${} placeholders
// - HasPathVars / PathVars: detect and list unresolved path variables in route names
package str

import (
	"strings"
)

const varPatternLeft = "${"
const varPatternRight = "}"

// CheckHasVar 检查字符串是否有占位符
func CheckHasVar(str string) bool {
	return strings.Contains(str, varPatternLeft) && strings.Contains(str, varPatternRight)
}

// HasPathVars reports whether a route name has unresolved path variables:
// ${name} placeholders, or segments starting with ':' or '*' (httprouter style).
func HasPathVars(route string) bool {
	if route == "" {
		return false
	}
	if CheckHasVar(route) {
		return true
	}
	for _, segment := range strings.Split(route, "/") {
		if len(segment) > 1 && (segment[0] == ':' || segment[0] == '*') {
			return true
		}
	}
	return false
}

// PathVars returns the variable names of a route, in order of appearance.
// Example: PathVars("/orders/:id/${part}") returns [id part].
func PathVars(route string) []string {
	var vars []string
	for _, segment := range strings.Split(route, "/") {
		if len(segment) > 1 && (segment[0] == ':' || segment[0] == '*') {
			vars = append(vars, segment[1:])
			continue
		}
		rest := segment
		for {
			start := strings.Index(rest, varPatternLeft)
			if start < 0 {
				break
			}
			end := strings.Index(rest[start:], varPatternRight)
			if end < 0 {
				break
			}
			name := strings.TrimSpace(rest[start+len(varPatternLeft) : start+end])
			if name != "" {
				vars = append(vars, name)
			}
			rest = rest[start+end+1:]
		}
	}
	return vars
}
