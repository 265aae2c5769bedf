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
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/rulego/weaver/api/types"
)

// ruleEntry is a registered rule with its compiled pointcut.
type ruleEntry struct {
	rule              *types.Rule
	pointcut          *compiledPointcut
	componentRelevant bool
}

// RuleRegistry owns the registered aspect rules, keyed by id.
//
// Readers iterate an immutable snapshot of all rules that writers replace on every
// mutation, so a plan computation never observes a partially registered rule.
// Writers are serialized and run the change listeners before returning,
// which is what makes cache invalidation visible before Add or Remove returns.
type RuleRegistry struct {
	config   types.Config
	validate *validator.Validate
	// mu serializes writers and guards rules and newlyAdded.
	mu         sync.RWMutex
	rules      map[string]*ruleEntry
	newlyAdded map[string]struct{}
	snapshot   atomic.Pointer[[]*ruleEntry]
	live       atomic.Bool
	listeners  []func()
}

// NewRuleRegistry creates an empty registry.
func NewRuleRegistry(config types.Config) *RuleRegistry {
	v := config.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	r := &RuleRegistry{
		config:     config,
		validate:   v,
		rules:      make(map[string]*ruleEntry),
		newlyAdded: make(map[string]struct{}),
	}
	empty := make([]*ruleEntry, 0)
	r.snapshot.Store(&empty)
	return r
}

// OnChange registers a listener called, under the registry write lock, after every mutation.
// Listeners must not call back into the registry.
func (r *RuleRegistry) OnChange(listener func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// MarkLive ends the startup phase. Rules added afterwards are tracked as dynamically added.
func (r *RuleRegistry) MarkLive() {
	r.live.Store(true)
}

// IsLive reports whether the startup phase ended.
func (r *RuleRegistry) IsLive() bool {
	return r.live.Load()
}

// Add registers a rule. It fails with ErrDuplicateRule if the id exists, ErrInvalidRule if the
// rule is malformed and ErrInvalidPattern if a pointcut pattern cannot be compiled.
// On failure the registry is unchanged.
func (r *RuleRegistry) Add(rule *types.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", types.ErrInvalidRule)
	}
	if err := r.validate.Struct(rule); err != nil {
		return &types.RuleError{RuleID: rule.Id, Err: fmt.Errorf("%w: %v", types.ErrInvalidRule, err)}
	}
	pc, err := compilePointcut(rule.Id, rule.Pointcut, r.config)
	if err != nil {
		return err
	}
	entry := &ruleEntry{
		rule:              rule,
		pointcut:          pc,
		componentRelevant: rule.ComponentRelevant(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.Id]; ok {
		return &types.RuleError{RuleID: rule.Id, Err: types.ErrDuplicateRule}
	}
	r.rules[rule.Id] = entry
	old := *r.snapshot.Load()
	next := make([]*ruleEntry, len(old), len(old)+1)
	copy(next, old)
	next = append(next, entry)
	r.snapshot.Store(&next)

	live := r.live.Load()
	if live {
		r.newlyAdded[rule.Id] = struct{}{}
		r.config.Logger.Printf("aspect rule added id=%s order=%d target=%s", rule.Id, rule.Order, rule.Target)
	}
	r.changed()
	return nil
}

// Remove unregisters the rule with the given id and returns it.
func (r *RuleRegistry) Remove(id string) (*types.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rules[id]
	if !ok {
		return nil, &types.RuleError{RuleID: id, Err: types.ErrRuleNotFound}
	}
	delete(r.rules, id)
	old := *r.snapshot.Load()
	next := make([]*ruleEntry, 0, len(old))
	for _, e := range old {
		if e != entry {
			next = append(next, e)
		}
	}
	r.snapshot.Store(&next)

	if _, dynamic := r.newlyAdded[id]; dynamic {
		delete(r.newlyAdded, id)
	}
	if r.live.Load() {
		r.config.Logger.Printf("aspect rule removed id=%s", id)
	}
	r.changed()
	return entry.rule, nil
}

func (r *RuleRegistry) changed() {
	if r.config.Metrics != nil {
		r.config.Metrics.SetRegisteredRules(len(r.rules))
	}
	for _, listener := range r.listeners {
		listener()
	}
}

// Contains reports whether a rule with the id is registered.
func (r *RuleRegistry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[id]
	return ok
}

// Get returns the rule with the id.
func (r *RuleRegistry) Get(id string) (*types.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.rules[id]; ok {
		return entry.rule, true
	}
	return nil, false
}

// All returns the registered rules in registration order.
func (r *RuleRegistry) All() []*types.Rule {
	entries := r.entries()
	rules := make([]*types.Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, e.rule)
	}
	return rules
}

// Len returns the number of registered rules.
func (r *RuleRegistry) Len() int {
	return len(r.entries())
}

// NewlyAdded returns the ids of rules added after MarkLive that are still registered.
func (r *RuleRegistry) NewlyAdded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, e := range *r.snapshot.Load() {
		if _, ok := r.newlyAdded[e.rule.Id]; ok {
			ids = append(ids, e.rule.Id)
		}
	}
	return ids
}

// Stats returns the match counters of the rule's pattern rules.
func (r *RuleRegistry) Stats(id string) ([]PatternStat, error) {
	r.mu.RLock()
	entry, ok := r.rules[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.RuleError{RuleID: id, Err: types.ErrRuleNotFound}
	}
	return entry.pointcut.stats(), nil
}

// entries returns the current immutable snapshot.
func (r *RuleRegistry) entries() []*ruleEntry {
	return *r.snapshot.Load()
}

// entry returns the registered entry for rule, or nil if the rule is no longer registered.
func (r *RuleRegistry) entry(rule *types.Rule) *ruleEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.rules[rule.Id]; ok && e.rule == rule {
		return e
	}
	return nil
}
