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

// Package engine provides the aspect matching and advice-registry engine.
// It decides, for every intercepted operation, which advice runs before, after,
// around or on failure, and produces a cached, correctly ordered plan for that decision.
//
// Package engine 提供切面匹配与增强点注册引擎。
// 它针对每个被拦截的操作决定哪些增强点需要执行，并生成有序且可缓存的执行计划。
//
// Key Components:
// 关键组件：
//   - RuleRegistry: owns registered rules and their compiled pointcuts
//     RuleRegistry：持有已注册的规则及其编译后的切入点
//   - AspectEngine: looks up or computes plans in two cache tiers
//     AspectEngine：在两级缓存中查找或计算执行计划
//
// Architecture Overview:
// 架构概述：
//
//	A rule source registers rules into the RuleRegistry. Plans are computed lazily, once per
//	distinct MatchKey, by scanning the registry snapshot, and kept in a soft tier for
//	literal keys or a weak tier for keys derived from routes with path variables.
//	Every registry mutation clears both tiers before the mutating call returns.
//
//	规则源向 RuleRegistry 注册规则。执行计划按 MatchKey 懒计算，
//	字面量键存入 soft 缓存，带路径变量的路由产生的键存入 weak 缓存。
//	每次规则变更都会在调用返回前清空两级缓存。
//
// The engine is passive: it never starts goroutines and is called inline by the
// intercepting mechanism.
package engine

import (
	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/api/types/metrics"
	"github.com/rulego/weaver/utils/cache"
	"github.com/rulego/weaver/utils/reflect"
	"github.com/rulego/weaver/utils/runtime"
)

// AspectEngine is the plan executor contract exposed to intercepting mechanisms.
type AspectEngine struct {
	config   types.Config
	registry *RuleRegistry
	soft     *cache.Tier[types.MatchKey, *types.Plan]
	weak     *cache.Tier[types.MatchKey, *types.Plan]
	metrics  *metrics.EngineMetrics
}

// New creates an engine with its own registry and cache tiers.
func New(config types.Config) (*AspectEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.Logger = types.NewLogger(config.Logger)
	if config.Metrics == nil {
		config.Metrics = metrics.NewEngineMetrics()
	}
	soft, err := cache.New[types.MatchKey, *types.Plan](cache.Options{
		Name:    metrics.TierSoft,
		Size:    config.SoftCacheSize,
		Metrics: config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	weak, err := cache.New[types.MatchKey, *types.Plan](cache.Options{
		Name:    metrics.TierWeak,
		Size:    config.WeakCacheSize,
		TTL:     config.WeakCacheTTL,
		Metrics: config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	e := &AspectEngine{
		config:   config,
		registry: NewRuleRegistry(config),
		soft:     soft,
		weak:     weak,
		metrics:  config.Metrics,
	}
	e.registry.OnChange(e.Invalidate)
	return e, nil
}

// Config returns the engine configuration.
func (e *AspectEngine) Config() types.Config {
	return e.config
}

// Registry returns the rule registry.
func (e *AspectEngine) Registry() *RuleRegistry {
	return e.registry
}

// Metrics returns the engine counters.
func (e *AspectEngine) Metrics() *metrics.EngineMetrics {
	return e.metrics
}

// Add registers rules, stopping at the first failure.
func (e *AspectEngine) Add(rules ...*types.Rule) error {
	for _, rule := range rules {
		if err := e.registry.Add(rule); err != nil {
			return err
		}
	}
	return nil
}

// Remove unregisters the rule with the given id.
func (e *AspectEngine) Remove(id string) error {
	_, err := e.registry.Remove(id)
	return err
}

// Initialize ends the startup phase; rules added afterwards are dynamic.
func (e *AspectEngine) Initialize() {
	e.registry.MarkLive()
}

// Plan returns the plan for key. literal selects the tier: literal keys recur
// identically and are kept in the soft tier, the others go to the weak tier.
// Concurrent first lookups of one key share a single computation.
func (e *AspectEngine) Plan(key types.MatchKey, literal bool) (*types.Plan, error) {
	return e.tier(literal).GetOrCompute(key, e.compute)
}

// PlanFor returns the plan for key, deciding literalness from the key's route.
func (e *AspectEngine) PlanFor(key types.MatchKey) (*types.Plan, error) {
	return e.Plan(key, types.IsLiteralRoute(key.Route))
}

func (e *AspectEngine) tier(literal bool) *cache.Tier[types.MatchKey, *types.Plan] {
	if literal {
		return e.soft
	}
	return e.weak
}

// compute builds a plan. A panic is returned as an error so the key stays uncached.
func (e *AspectEngine) compute(key types.MatchKey) (plan *types.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = runtime.PanicError(r)
			e.config.Logger.Printf("aspect plan computation failed key=%s err=%v", key, err)
		}
	}()
	return buildPlan(key, e.registry.entries()), nil
}

// Resolve merges the plan's dynamic rules whose pointcut, route included, matches key.
// The derived plan is not cached. Plans without dynamic rules are returned as is.
func (e *AspectEngine) Resolve(plan *types.Plan, key types.MatchKey) *types.Plan {
	dynamic := plan.Dynamic()
	if len(dynamic) == 0 {
		return plan
	}
	b := newPlanBuilderFrom(plan)
	for _, rule := range dynamic {
		entry := e.registry.entry(rule)
		if entry == nil {
			continue
		}
		if entry.pointcut.matches(key, true, true) {
			b.addRule(rule)
		}
	}
	return b.build()
}

// Invalidate clears both cache tiers.
func (e *AspectEngine) Invalidate() {
	e.soft.Purge()
	e.weak.Purge()
}

// InvalidateTier clears one cache tier, metrics.TierSoft or metrics.TierWeak.
func (e *AspectEngine) InvalidateTier(name string) {
	e.tier(name != metrics.TierWeak).Purge()
}

// Cached reports whether a plan for key is held by the tier selected by literal.
func (e *AspectEngine) Cached(key types.MatchKey, literal bool) bool {
	return e.tier(literal).Contains(key)
}

// Advisable reports whether any component-relevant rule can apply to some operation
// of the described component. Operation names come from the descriptor, or from the
// exported method set of its type.
func (e *AspectEngine) Advisable(desc types.ComponentDescriptor) bool {
	var operations []string
	if desc.Operations != nil {
		operations = desc.Operations()
	} else {
		operations = reflect.OperationNames(desc.Type)
	}
	typeName := reflect.TypeName(desc.Type)
	target := types.ComponentRef{Id: desc.Id, Type: desc.Type}
	for _, entry := range e.registry.entries() {
		if !entry.componentRelevant {
			continue
		}
		if entry.rule.Component != nil && entry.rule.Component.Same(target) {
			continue
		}
		for _, operation := range operations {
			key := types.NewMatchKey("", desc.Id, typeName, operation)
			if entry.rule.Target == types.RouteTarget {
				if entry.pointcut.mayMatch(key) {
					return true
				}
			} else if entry.pointcut.matches(key, false, false) {
				return true
			}
		}
	}
	return false
}
