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

// Package cache provides the memoizing tiers used to keep computed advice plans.
//
// A Tier is a bounded LRU with optional expiry. Concurrent first lookups of the same key
// share one computation. Purge is safe to call while lookups and computations are in
// flight: a computation that started before a purge never stores its result afterwards.
package cache

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rulego/weaver/api/types/metrics"
	"golang.org/x/sync/singleflight"
)

// Key is a comparable cache key with a unique string form.
type Key interface {
	comparable
	String() string
}

// Options configures a Tier.
type Options struct {
	// Name labels the tier in metrics.
	Name string
	// Size is the maximum number of entries.
	Size int
	// TTL expires entries after the duration. 0 keeps them until evicted by size.
	TTL time.Duration
	// Metrics receives hit, miss, compute, eviction and invalidation counts.
	Metrics *metrics.EngineMetrics
}

type item[V any] struct {
	value V
	// expiration is a unix nano timestamp, 0 never expires.
	expiration int64
}

// Tier is a thread-safe memoizing cache tier.
type Tier[K Key, V any] struct {
	name    string
	ttl     time.Duration
	items   *lru.Cache[K, item[V]]
	group   singleflight.Group
	metrics *metrics.EngineMetrics
	// mu orders purges against stores: stores hold the read lock, purges the write lock.
	mu         sync.RWMutex
	generation uint64
	purging    atomic.Bool
	now        func() time.Time
}

// New creates a Tier.
func New[K Key, V any](opts Options) (*Tier[K, V], error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("cache tier %s: size must be positive, got %d", opts.Name, opts.Size)
	}
	t := &Tier[K, V]{
		name:    opts.Name,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		now:     time.Now,
	}
	if t.metrics == nil {
		t.metrics = metrics.NewEngineMetrics()
	}
	items, err := lru.NewWithEvict[K, item[V]](opts.Size, t.onEvicted)
	if err != nil {
		return nil, err
	}
	t.items = items
	return t, nil
}

func (t *Tier[K, V]) onEvicted(_ K, _ item[V]) {
	if !t.purging.Load() {
		t.metrics.IncrementEviction(t.name)
	}
}

// Get returns the cached value for key.
func (t *Tier[K, V]) Get(key K) (V, bool) {
	it, ok := t.items.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if it.expiration > 0 && t.now().UnixNano() > it.expiration {
		t.items.Remove(key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
// Concurrent callers for the same uncached key share one computation.
// A failed computation is returned to its callers and nothing is stored.
func (t *Tier[K, V]) GetOrCompute(key K, compute func(K) (V, error)) (V, error) {
	if v, ok := t.Get(key); ok {
		t.metrics.IncrementHit(t.name)
		return v, nil
	}
	t.metrics.IncrementMiss(t.name)

	t.mu.RLock()
	generation := t.generation
	t.mu.RUnlock()

	flightKey := strconv.FormatUint(generation, 10) + "|" + key.String()
	result, err, _ := t.group.Do(flightKey, func() (interface{}, error) {
		if v, ok := t.Get(key); ok {
			return v, nil
		}
		t.metrics.IncrementCompute(t.name)
		v, err := compute(key)
		if err != nil {
			return nil, err
		}
		t.store(key, v, generation)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (t *Tier[K, V]) store(key K, value V, generation uint64) {
	it := item[V]{value: value}
	if t.ttl > 0 {
		it.expiration = t.now().Add(t.ttl).UnixNano()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.generation != generation {
		return
	}
	t.items.Add(key, it)
}

// Purge drops every entry. Computations started before the purge do not store their results.
func (t *Tier[K, V]) Purge() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.purging.Store(true)
	t.items.Purge()
	t.purging.Store(false)
	t.metrics.IncrementInvalidation(t.name)
}

// Contains reports whether key is cached, without updating its recency.
func (t *Tier[K, V]) Contains(key K) bool {
	it, ok := t.items.Peek(key)
	if !ok {
		return false
	}
	return it.expiration == 0 || t.now().UnixNano() <= it.expiration
}

// Len returns the number of cached entries, expired ones included until they are looked up.
func (t *Tier[K, V]) Len() int {
	return t.items.Len()
}

// Name returns the tier name.
func (t *Tier[K, V]) Name() string {
	return t.name
}
