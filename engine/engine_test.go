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
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/api/types/metrics"
	"github.com/rulego/weaver/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderService struct{}

func (s *orderService) Find(id string) string { return id }
func (s *orderService) Save(id string) error  { return nil }

type auditAspect struct{}

func (a *auditAspect) Audit() {}

func newTestEngine(t *testing.T, opts ...types.Option) *AspectEngine {
	e, err := New(testConfig(opts...))
	require.NoError(t, err)
	return e
}

func TestEngineInvalidConfig(t *testing.T) {
	_, err := New(testConfig(types.WithSoftCacheSize(0)))
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(testConfig(types.WithWeakCache(-1, time.Second)))
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestPlanIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("a", 1, nil)))
	key := types.NewMatchKey("", "orders", "svc.Orders", "Find")

	p1, err := e.Plan(key, true)
	require.NoError(t, err)
	p2, err := e.Plan(key, true)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	tier := e.Metrics().Tier(metrics.TierSoft)
	assert.Equal(t, int64(1), tier.Computes)
	assert.Equal(t, int64(1), tier.Hits)
	assert.Equal(t, int64(1), tier.Misses)
}

func TestConcurrentFirstLookupsComputeOnce(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("a", 1, nil)))
	key := types.NewMatchKey("", "orders", "svc.Orders", "Find")

	const callers = 64
	plans := make([]*types.Plan, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			p, err := e.Plan(key, true)
			assert.NoError(t, err)
			plans[i] = p
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), e.Metrics().Tier(metrics.TierSoft).Computes)
	for _, p := range plans {
		assert.Same(t, plans[0], p)
	}
}

func TestMutationsInvalidateCachedPlans(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("svc", 1, types.NewPointcut(types.IncludeType("svc.*")))))
	key := types.NewMatchKey("", "orders", "svc.Orders", "Find")

	p1, err := e.Plan(key, true)
	require.NoError(t, err)
	assert.True(t, e.Cached(key, true))

	// the new rule does not apply to key, the plan is recomputed anyway
	require.NoError(t, e.Add(beforeRule("repo", 1, types.NewPointcut(types.IncludeType("repo.*")))))
	assert.False(t, e.Cached(key, true))
	p2, err := e.Plan(key, true)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, test.Ids(p1.Before()), test.Ids(p2.Before()))

	require.NoError(t, e.Remove("svc"))
	assert.False(t, e.Cached(key, true))
	p3, err := e.Plan(key, true)
	require.NoError(t, err)
	assert.Same(t, types.EmptyPlan(), p3)

	assert.ErrorIs(t, e.Remove("svc"), types.ErrRuleNotFound)
	assert.Equal(t, int64(3), e.Metrics().Tier(metrics.TierSoft).Computes)
}

func TestFailedAddKeepsCache(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("a", 1, nil)))
	key := types.NewMatchKey("", "orders", "svc.Orders", "Find")
	_, err := e.Plan(key, true)
	require.NoError(t, err)

	err = e.Add(beforeRule("a", 2, nil))
	assert.ErrorIs(t, err, types.ErrDuplicateRule)
	assert.True(t, e.Cached(key, true))
}

func TestTierSelection(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("a", 1, nil)))

	literal := types.NewMatchKey("/orders/42", "orders", "svc.Orders", "Find")
	templated := types.NewMatchKey("/orders/:id", "orders", "svc.Orders", "Find")
	_, err := e.PlanFor(literal)
	require.NoError(t, err)
	_, err = e.PlanFor(templated)
	require.NoError(t, err)

	assert.True(t, e.Cached(literal, true))
	assert.False(t, e.Cached(literal, false))
	assert.True(t, e.Cached(templated, false))
	assert.False(t, e.Cached(templated, true))

	e.InvalidateTier(metrics.TierWeak)
	assert.True(t, e.Cached(literal, true))
	assert.False(t, e.Cached(templated, false))
}

func TestWeakTierChurnsBeforeSoftTier(t *testing.T) {
	e := newTestEngine(t, types.WithWeakCache(2, 0))
	require.NoError(t, e.Add(beforeRule("a", 1, nil)))
	ops := []string{"a", "b", "c", "d"}
	for _, op := range ops {
		key := types.NewMatchKey("", "orders", "svc.Orders", op)
		_, err := e.Plan(key, true)
		require.NoError(t, err)
		_, err = e.Plan(key, false)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), e.Metrics().Tier(metrics.TierSoft).Evictions)
	assert.Equal(t, int64(2), e.Metrics().Tier(metrics.TierWeak).Evictions)
	for _, op := range ops {
		assert.True(t, e.Cached(types.NewMatchKey("", "orders", "svc.Orders", op), true))
	}
}

func TestResolveMergesMatchingRouteRules(t *testing.T) {
	e := newTestEngine(t)
	var rec test.Recorder
	op := test.AroundRule(&rec, "op", 5, nil)
	routed := test.AroundRule(&rec, "routed", 1, types.NewPointcut(types.PatternRule{Route: "/orders/*", Type: "svc.*"}))
	routed.Target = types.RouteTarget
	require.NoError(t, e.Add(op, routed))

	key := types.NewMatchKey("/orders/:id", "orders", "svc.Orders", "Find")
	plan, err := e.PlanFor(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"op"}, test.Ids(plan.Before()))
	require.Len(t, plan.Dynamic(), 1)

	resolved := e.Resolve(plan, types.NewMatchKey("/orders/42", "orders", "svc.Orders", "Find"))
	assert.Equal(t, []string{"routed", "op"}, test.Ids(resolved.Before()))
	assert.Equal(t, []string{"op", "routed"}, test.Ids(resolved.After()))

	other := e.Resolve(plan, types.NewMatchKey("/users/42", "orders", "svc.Orders", "Find"))
	assert.Equal(t, []string{"op"}, test.Ids(other.Before()))

	// plans without dynamic rules pass through
	assert.Same(t, types.EmptyPlan(), e.Resolve(types.EmptyPlan(), key))
}

func TestPlanForRouteKey(t *testing.T) {
	e := newTestEngine(t)
	rule := beforeRule("cors", 1, types.NewPointcut(types.IncludeRoute("/api/**")))
	rule.Target = types.RouteTarget
	require.NoError(t, e.Add(rule))

	plan, err := e.PlanFor(types.RouteKey("/api/orders/42"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cors"}, test.Ids(plan.Before()))

	plan, err = e.PlanFor(types.RouteKey("/health"))
	require.NoError(t, err)
	assert.Same(t, types.EmptyPlan(), plan)
}

func TestAdvisable(t *testing.T) {
	e := newTestEngine(t)
	orders := types.ComponentDescriptor{Id: "orders", Type: reflect.TypeOf(&orderService{})}
	assert.False(t, e.Advisable(orders))

	require.NoError(t, e.Add(beforeRule("save", 1, types.NewPointcut(types.IncludeOperation("Save")))))
	assert.True(t, e.Advisable(orders))

	custom := types.ComponentDescriptor{
		Id:         "custom",
		Type:       reflect.TypeOf(&orderService{}),
		Operations: func() []string { return []string{"List"} },
	}
	assert.False(t, e.Advisable(custom))
}

func TestAdvisableIgnoresSelfSuppliedRules(t *testing.T) {
	e := newTestEngine(t)
	audit := types.RefOf("audit", &auditAspect{})
	rule := beforeRule("audit", 1, nil)
	rule.Component = &audit
	require.NoError(t, e.Add(rule))

	assert.False(t, e.Advisable(types.ComponentDescriptor{Id: "audit", Type: reflect.TypeOf(&auditAspect{})}))
	assert.True(t, e.Advisable(types.ComponentDescriptor{Id: "orders", Type: reflect.TypeOf(&orderService{})}))
}

func TestAdvisableRouteRules(t *testing.T) {
	e := newTestEngine(t)
	rule := beforeRule("routed", 1, types.NewPointcut(types.PatternRule{Route: "/orders/**", Operation: "Find"}))
	rule.Target = types.RouteTarget
	require.NoError(t, e.Add(rule))
	assert.True(t, e.Advisable(types.ComponentDescriptor{Id: "orders", Type: reflect.TypeOf(&orderService{})}))

	routeOnly := beforeRule("route-only", 1, types.NewPointcut(types.IncludeRoute("/**")))
	routeOnly.Target = types.RouteTarget
	e2 := newTestEngine(t)
	require.NoError(t, e2.Add(routeOnly))
	assert.False(t, e2.Advisable(types.ComponentDescriptor{Id: "orders", Type: reflect.TypeOf(&orderService{})}))
}

func TestInitializeTracksDynamicRules(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Add(beforeRule("startup", 1, nil)))
	e.Initialize()
	require.NoError(t, e.Add(beforeRule("dynamic", 1, nil)))
	assert.Equal(t, []string{"dynamic"}, e.Registry().NewlyAdded())
}

func TestPlanCarriesFailureRules(t *testing.T) {
	e := newTestEngine(t)
	boom := errors.New("boom")
	rule := &types.Rule{
		Id: "bad",
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(test.Noop),
		},
		Failure: &types.FailureRule{Kinds: []types.ErrorKind{types.ErrorIs(boom)}, Action: test.Noop},
	}
	require.NoError(t, e.Add(rule))
	key := types.NewMatchKey("", "orders", "svc.Orders", "Find")
	plan, err := e.Plan(key, true)
	require.NoError(t, err)
	require.Len(t, plan.Failures(), 1)
	assert.True(t, plan.Failures()[0].Handles(boom))
	assert.False(t, plan.Failures()[0].Handles(errors.New("other")))
}
