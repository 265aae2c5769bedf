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

package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weaver"

// Tier names used as the "tier" label.
const (
	TierSoft = "soft"
	TierWeak = "weak"
)

// TierMetrics holds the counters of one plan cache tier.
type TierMetrics struct {
	Hits          int64 // Lookups served from the tier
	Misses        int64 // Lookups that had to compute or join a computation
	Computes      int64 // Plan computations actually run
	Evictions     int64 // Entries dropped because the tier was full or expired
	Invalidations int64 // Full clears caused by registry mutations
}

// EngineMetrics holds counters for plan lookups and advice execution.
// It implements prometheus.Collector.
type EngineMetrics struct {
	soft TierMetrics
	weak TierMetrics

	Invocations      int64 // Intercepted calls executed through a plan
	Failed           int64 // Calls that ended with a failure
	Handled          int64 // Failures suppressed by a failure rule
	SkippedSelf      int64 // Advice skipped because it targets its own component
	FinallyFailures  int64 // Failures raised by finally advice
	ShortCircuits    int64 // Calls answered by before advice
	currentInvokes   int64
	registeredRules  int64
	hitsDesc         *prometheus.Desc
	missesDesc       *prometheus.Desc
	computesDesc     *prometheus.Desc
	evictionsDesc    *prometheus.Desc
	invalidationDesc *prometheus.Desc
	invocationsDesc  *prometheus.Desc
	failedDesc       *prometheus.Desc
	handledDesc      *prometheus.Desc
	skippedDesc      *prometheus.Desc
	finallyDesc      *prometheus.Desc
	shortDesc        *prometheus.Desc
	currentDesc      *prometheus.Desc
	rulesDesc        *prometheus.Desc
}

// NewEngineMetrics creates a new instance of EngineMetrics.
func NewEngineMetrics() *EngineMetrics {
	tier := []string{"tier"}
	return &EngineMetrics{
		hitsDesc:         prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan_cache", "hits_total"), "Plan lookups served from cache.", tier, nil),
		missesDesc:       prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan_cache", "misses_total"), "Plan lookups not served from cache.", tier, nil),
		computesDesc:     prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan_cache", "computes_total"), "Plan computations.", tier, nil),
		evictionsDesc:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan_cache", "evictions_total"), "Plans evicted by capacity or expiry.", tier, nil),
		invalidationDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "plan_cache", "invalidations_total"), "Full tier clears.", tier, nil),
		invocationsDesc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "invocations_total"), "Intercepted calls.", nil, nil),
		failedDesc:       prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "failed_total"), "Intercepted calls ending with a failure.", nil, nil),
		handledDesc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "handled_failures_total"), "Failures suppressed by a failure rule.", nil, nil),
		skippedDesc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "self_skipped_total"), "Advice skipped on its own component.", nil, nil),
		finallyDesc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "finally_failures_total"), "Failures raised by finally advice.", nil, nil),
		shortDesc:        prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "short_circuits_total"), "Calls answered by before advice.", nil, nil),
		currentDesc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "advice", "in_flight"), "Intercepted calls in flight.", nil, nil),
		rulesDesc:        prometheus.NewDesc(prometheus.BuildFQName(namespace, "registry", "rules"), "Registered aspect rules.", nil, nil),
	}
}

func (m *EngineMetrics) tier(name string) *TierMetrics {
	if name == TierWeak {
		return &m.weak
	}
	return &m.soft
}

// IncrementHit counts a cache hit on the tier.
func (m *EngineMetrics) IncrementHit(tier string) {
	atomic.AddInt64(&m.tier(tier).Hits, 1)
}

// IncrementMiss counts a cache miss on the tier.
func (m *EngineMetrics) IncrementMiss(tier string) {
	atomic.AddInt64(&m.tier(tier).Misses, 1)
}

// IncrementCompute counts a plan computation on the tier.
func (m *EngineMetrics) IncrementCompute(tier string) {
	atomic.AddInt64(&m.tier(tier).Computes, 1)
}

// IncrementEviction counts an evicted plan on the tier.
func (m *EngineMetrics) IncrementEviction(tier string) {
	atomic.AddInt64(&m.tier(tier).Evictions, 1)
}

// IncrementInvalidation counts a full clear of the tier.
func (m *EngineMetrics) IncrementInvalidation(tier string) {
	atomic.AddInt64(&m.tier(tier).Invalidations, 1)
}

// IncrementCurrent increases the count of in-flight calls and the total.
func (m *EngineMetrics) IncrementCurrent() {
	atomic.AddInt64(&m.currentInvokes, 1)
	atomic.AddInt64(&m.Invocations, 1)
}

// DecrementCurrent decreases the count of in-flight calls.
func (m *EngineMetrics) DecrementCurrent() {
	atomic.AddInt64(&m.currentInvokes, -1)
}

// IncrementFailed counts a call that ended with a failure.
func (m *EngineMetrics) IncrementFailed() {
	atomic.AddInt64(&m.Failed, 1)
}

// IncrementHandled counts a failure suppressed by a failure rule.
func (m *EngineMetrics) IncrementHandled() {
	atomic.AddInt64(&m.Handled, 1)
}

// IncrementSkippedSelf counts advice skipped on its own component.
func (m *EngineMetrics) IncrementSkippedSelf() {
	atomic.AddInt64(&m.SkippedSelf, 1)
}

// IncrementFinallyFailure counts a failure raised by finally advice.
func (m *EngineMetrics) IncrementFinallyFailure() {
	atomic.AddInt64(&m.FinallyFailures, 1)
}

// IncrementShortCircuit counts a call answered by before advice.
func (m *EngineMetrics) IncrementShortCircuit() {
	atomic.AddInt64(&m.ShortCircuits, 1)
}

// SetRegisteredRules records the registry size.
func (m *EngineMetrics) SetRegisteredRules(n int) {
	atomic.StoreInt64(&m.registeredRules, int64(n))
}

// Tier returns a copy of the counters of the named tier.
func (m *EngineMetrics) Tier(name string) TierMetrics {
	t := m.tier(name)
	return TierMetrics{
		Hits:          atomic.LoadInt64(&t.Hits),
		Misses:        atomic.LoadInt64(&t.Misses),
		Computes:      atomic.LoadInt64(&t.Computes),
		Evictions:     atomic.LoadInt64(&t.Evictions),
		Invalidations: atomic.LoadInt64(&t.Invalidations),
	}
}

// Current returns the number of in-flight calls.
func (m *EngineMetrics) Current() int64 {
	return atomic.LoadInt64(&m.currentInvokes)
}

// Get returns a copy of the invocation counters.
func (m *EngineMetrics) Get() EngineMetrics {
	return EngineMetrics{
		Invocations:     atomic.LoadInt64(&m.Invocations),
		Failed:          atomic.LoadInt64(&m.Failed),
		Handled:         atomic.LoadInt64(&m.Handled),
		SkippedSelf:     atomic.LoadInt64(&m.SkippedSelf),
		FinallyFailures: atomic.LoadInt64(&m.FinallyFailures),
		ShortCircuits:   atomic.LoadInt64(&m.ShortCircuits),
		currentInvokes:  atomic.LoadInt64(&m.currentInvokes),
		registeredRules: atomic.LoadInt64(&m.registeredRules),
	}
}

// Reset resets all metrics to zero.
func (m *EngineMetrics) Reset() {
	for _, t := range []*TierMetrics{&m.soft, &m.weak} {
		atomic.StoreInt64(&t.Hits, 0)
		atomic.StoreInt64(&t.Misses, 0)
		atomic.StoreInt64(&t.Computes, 0)
		atomic.StoreInt64(&t.Evictions, 0)
		atomic.StoreInt64(&t.Invalidations, 0)
	}
	atomic.StoreInt64(&m.Invocations, 0)
	atomic.StoreInt64(&m.Failed, 0)
	atomic.StoreInt64(&m.Handled, 0)
	atomic.StoreInt64(&m.SkippedSelf, 0)
	atomic.StoreInt64(&m.FinallyFailures, 0)
	atomic.StoreInt64(&m.ShortCircuits, 0)
	atomic.StoreInt64(&m.currentInvokes, 0)
}

// Describe implements prometheus.Collector.
func (m *EngineMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.hitsDesc
	ch <- m.missesDesc
	ch <- m.computesDesc
	ch <- m.evictionsDesc
	ch <- m.invalidationDesc
	ch <- m.invocationsDesc
	ch <- m.failedDesc
	ch <- m.handledDesc
	ch <- m.skippedDesc
	ch <- m.finallyDesc
	ch <- m.shortDesc
	ch <- m.currentDesc
	ch <- m.rulesDesc
}

// Collect implements prometheus.Collector.
func (m *EngineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, name := range []string{TierSoft, TierWeak} {
		t := m.Tier(name)
		ch <- prometheus.MustNewConstMetric(m.hitsDesc, prometheus.CounterValue, float64(t.Hits), name)
		ch <- prometheus.MustNewConstMetric(m.missesDesc, prometheus.CounterValue, float64(t.Misses), name)
		ch <- prometheus.MustNewConstMetric(m.computesDesc, prometheus.CounterValue, float64(t.Computes), name)
		ch <- prometheus.MustNewConstMetric(m.evictionsDesc, prometheus.CounterValue, float64(t.Evictions), name)
		ch <- prometheus.MustNewConstMetric(m.invalidationDesc, prometheus.CounterValue, float64(t.Invalidations), name)
	}
	s := m.Get()
	ch <- prometheus.MustNewConstMetric(m.invocationsDesc, prometheus.CounterValue, float64(s.Invocations))
	ch <- prometheus.MustNewConstMetric(m.failedDesc, prometheus.CounterValue, float64(s.Failed))
	ch <- prometheus.MustNewConstMetric(m.handledDesc, prometheus.CounterValue, float64(s.Handled))
	ch <- prometheus.MustNewConstMetric(m.skippedDesc, prometheus.CounterValue, float64(s.SkippedSelf))
	ch <- prometheus.MustNewConstMetric(m.finallyDesc, prometheus.CounterValue, float64(s.FinallyFailures))
	ch <- prometheus.MustNewConstMetric(m.shortDesc, prometheus.CounterValue, float64(s.ShortCircuits))
	ch <- prometheus.MustNewConstMetric(m.currentDesc, prometheus.GaugeValue, float64(s.currentInvokes))
	ch <- prometheus.MustNewConstMetric(m.rulesDesc, prometheus.GaugeValue, float64(s.registeredRules))
}

var _ prometheus.Collector = (*EngineMetrics)(nil)
