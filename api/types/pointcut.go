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
	"errors"
	"strings"
)

// PatternOp tells whether a pattern rule includes or excludes what it matches.
type PatternOp int

const (
	// Include selects what the pattern matches.
	Include PatternOp = iota
	// Exclude rejects what the pattern matches. Exclusion always wins.
	Exclude
)

func (op PatternOp) String() string {
	if op == Exclude {
		return "exclude"
	}
	return "include"
}

// PatternRule carries up to four optional wildcard sub-patterns.
// An empty sub-pattern is absent and imposes no constraint.
//
// Wildcards: "*" matches within one segment, "**" spans separators, "?" matches one character,
// "[a-z]" and "{a,b}" are character classes and alternatives.
type PatternRule struct {
	Op PatternOp
	// Route matches the route name. Only route-level rules consult it.
	Route string
	// Component matches the component id, split on the component separators.
	Component string
	// Type matches the type name, split on the type separators.
	Type string
	// Operation matches the operation name.
	Operation string
}

// String renders the pattern as route@component#type^operation, omitting absent parts.
func (p PatternRule) String() string {
	var b strings.Builder
	if p.Op == Exclude {
		b.WriteString("!")
	}
	b.WriteString(p.Route)
	if p.Component != "" {
		b.WriteString("@")
		b.WriteString(p.Component)
	}
	if p.Type != "" {
		b.WriteString("#")
		b.WriteString(p.Type)
	}
	if p.Operation != "" {
		b.WriteString("^")
		b.WriteString(p.Operation)
	}
	return b.String()
}

// Empty reports whether the pattern has no sub-pattern at all.
func (p PatternRule) Empty() bool {
	return p.Route == "" && p.Component == "" && p.Type == "" && p.Operation == ""
}

// Pointcut is an ordered list of pattern rules. It matches a candidate when some
// include pattern matches and no exclude pattern matches. An empty pointcut matches everything.
// Pointcut 切入点
type Pointcut struct {
	Patterns []PatternRule
}

// NewPointcut creates a pointcut from pattern rules.
func NewPointcut(patterns ...PatternRule) *Pointcut {
	return &Pointcut{Patterns: patterns}
}

// IsEmpty reports whether the pointcut has no pattern rules.
func (p *Pointcut) IsEmpty() bool {
	return p == nil || len(p.Patterns) == 0
}

// IncludeType selects operations on types matching the pattern.
func IncludeType(pattern string) PatternRule {
	return PatternRule{Op: Include, Type: pattern}
}

// IncludeComponent selects operations on components whose id matches the pattern.
func IncludeComponent(pattern string) PatternRule {
	return PatternRule{Op: Include, Component: pattern}
}

// IncludeOperation selects operations whose name matches the pattern.
func IncludeOperation(pattern string) PatternRule {
	return PatternRule{Op: Include, Operation: pattern}
}

// IncludeRoute selects routes whose name matches the pattern.
func IncludeRoute(pattern string) PatternRule {
	return PatternRule{Op: Include, Route: pattern}
}

// ExcludeOperation rejects operations whose name matches the pattern.
func ExcludeOperation(pattern string) PatternRule {
	return PatternRule{Op: Exclude, Operation: pattern}
}

// ErrorKind declares the failures a FailureRule is compatible with.
type ErrorKind interface {
	Matches(err error) bool
}

// ErrorKindFunc adapts a predicate to ErrorKind.
type ErrorKindFunc func(err error) bool

func (f ErrorKindFunc) Matches(err error) bool {
	return f(err)
}

// ErrorIs matches failures that wrap target.
func ErrorIs(target error) ErrorKind {
	return ErrorKindFunc(func(err error) bool {
		return errors.Is(err, target)
	})
}

// ErrorAs matches failures that wrap an error of type T.
func ErrorAs[T error]() ErrorKind {
	return ErrorKindFunc(func(err error) bool {
		var target T
		return errors.As(err, &target)
	})
}
