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

package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/utils/pattern"
)

// PatternStat reports how often a pattern rule matched.
type PatternStat struct {
	Pattern types.PatternRule
	Matches uint64
}

// compiledPattern is a PatternRule with its sub-patterns compiled.
// Absent sub-patterns compile to nil matchers, which match everything.
type compiledPattern struct {
	source    types.PatternRule
	route     *pattern.Matcher
	component *pattern.Matcher
	typ       *pattern.Matcher
	operation *pattern.Matcher
	matches   uint64
}

func compilePattern(ruleId string, p types.PatternRule, config types.Config) (*compiledPattern, error) {
	var err error
	c := &compiledPattern{source: p}
	compile := func(raw string, separators string) *pattern.Matcher {
		if err != nil {
			return nil
		}
		var m *pattern.Matcher
		m, err = pattern.Compile(raw, separators)
		if err != nil {
			err = &types.RuleError{RuleID: ruleId, Pattern: raw, Err: fmt.Errorf("%w: %v", types.ErrInvalidPattern, err)}
		}
		return m
	}
	c.route = compile(p.Route, config.RouteSeparators)
	c.component = compile(p.Component, config.ComponentSeparators)
	c.typ = compile(p.Type, config.TypeSeparators)
	c.operation = compile(p.Operation, "")
	if err != nil {
		return nil, err
	}
	return c, nil
}

// matchTriple evaluates every present component, type and operation sub-pattern.
func (p *compiledPattern) matchTriple(key types.MatchKey) bool {
	return p.component.Match(key.Component) && p.typ.Match(key.Type) && p.operation.Match(key.Operation)
}

func (p *compiledPattern) match(key types.MatchKey, withRoute bool) bool {
	if withRoute && !p.route.Match(key.Route) {
		return false
	}
	return p.matchTriple(key)
}

// compiledPointcut matches when some include pattern matches and no exclude pattern does.
// A nil or empty pointcut matches everything.
type compiledPointcut struct {
	patterns []*compiledPattern
}

func compilePointcut(ruleId string, pc *types.Pointcut, config types.Config) (*compiledPointcut, error) {
	if pc.IsEmpty() {
		return nil, nil
	}
	c := &compiledPointcut{patterns: make([]*compiledPattern, 0, len(pc.Patterns))}
	for _, p := range pc.Patterns {
		cp, err := compilePattern(ruleId, p, config)
		if err != nil {
			return nil, err
		}
		c.patterns = append(c.patterns, cp)
	}
	return c, nil
}

// matches evaluates the pointcut. withRoute decides whether route sub-patterns are consulted.
// count records the match in the per-pattern diagnostics.
func (c *compiledPointcut) matches(key types.MatchKey, withRoute bool, count bool) bool {
	if c == nil {
		return true
	}
	var included *compiledPattern
	for _, p := range c.patterns {
		if p.source.Op == types.Exclude {
			if p.match(key, withRoute) {
				if count {
					atomic.AddUint64(&p.matches, 1)
				}
				return false
			}
			continue
		}
		if included == nil && p.match(key, withRoute) {
			included = p
		}
	}
	if included == nil {
		return false
	}
	if count {
		atomic.AddUint64(&included.matches, 1)
	}
	return true
}

// matchesRoute evaluates route sub-patterns only. It serves rules that are not
// component-relevant, whose patterns carry nothing but a route.
func (c *compiledPointcut) matchesRoute(route string, count bool) bool {
	return c.matches(types.MatchKey{Route: route}, true, count)
}

// mayMatch reports whether some include pattern matches the component, type and
// operation. A false result proves the full pointcut cannot match whatever the route is.
func (c *compiledPointcut) mayMatch(key types.MatchKey) bool {
	if c == nil {
		return true
	}
	for _, p := range c.patterns {
		if p.source.Op == types.Include && p.matchTriple(key) {
			return true
		}
	}
	return false
}

func (c *compiledPointcut) stats() []PatternStat {
	if c == nil {
		return nil
	}
	stats := make([]PatternStat, 0, len(c.patterns))
	for _, p := range c.patterns {
		stats = append(stats, PatternStat{Pattern: p.source, Matches: atomic.LoadUint64(&p.matches)})
	}
	return stats
}
