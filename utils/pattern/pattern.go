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

// Package pattern compiles and evaluates wildcard patterns over separator-delimited names.
//
// Supported syntax:
//   - "*" matches any run of characters within one segment
//   - "**" matches any run of characters, separators included
//   - "?" matches one character within a segment
//   - "[abc]", "[a-z]", "[!a]" character classes
//   - "{a,b}" alternatives
//   - "\" escapes the next character
//
// Segments are delimited by any character of the separators supplied at compile time,
// e.g. ".:" turns "service:order.repo" into three segments.
package pattern

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const metaChars = `*?[]{}\`

// Matcher is a compiled pattern. A nil Matcher matches every candidate.
type Matcher struct {
	raw     string
	literal bool
	glob    glob.Glob
}

// Compile compiles pattern with the given separators. An empty pattern is absent and
// compiles to a nil Matcher, which always matches.
func Compile(pattern string, separators string) (*Matcher, error) {
	if pattern == "" {
		return nil, nil
	}
	m := &Matcher{raw: pattern}
	if !strings.ContainsAny(pattern, metaChars) {
		m.literal = true
		return m, nil
	}
	if err := checkBalanced(pattern); err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	g, err := glob.Compile(pattern, []rune(separators)...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	m.glob = g
	return m, nil
}

// checkBalanced rejects unterminated classes and alternatives, which the glob
// parser would otherwise read up to the end of input.
func checkBalanced(pattern string) error {
	var braces int
	inClass := false
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == ']':
			return fmt.Errorf("unexpected ']' at %d", i)
		case c == '{':
			braces++
		case c == '}':
			if braces == 0 {
				return fmt.Errorf("unexpected '}' at %d", i)
			}
			braces--
		}
	}
	if inClass {
		return fmt.Errorf("unterminated character class")
	}
	if braces > 0 {
		return fmt.Errorf("unterminated alternatives")
	}
	return nil
}

// Match reports whether candidate matches the pattern.
func (m *Matcher) Match(candidate string) bool {
	if m == nil {
		return true
	}
	if m.literal {
		return m.raw == candidate
	}
	return m.glob.Match(candidate)
}

// String returns the source pattern.
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.raw
}
