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

package aspect

import (
	"sync/atomic"

	"github.com/rulego/weaver/api/types"
)

// LimiterOrder is the order of the concurrency limiter rule.
const LimiterOrder = 10

// ConcurrencyLimiter bounds the number of concurrent calls of the matched operations.
// Calls over the limit fail with types.ErrConcurrencyLimitReached before the target runs.
//
// ConcurrencyLimiter 并发限制切面，超过限制的调用返回 types.ErrConcurrencyLimitReached
type ConcurrencyLimiter struct {
	id           string
	Max          int64 // Maximum number of concurrent calls  最大并发调用数量
	currentCount int64 // Current number of concurrent calls  当前并发调用数量
}

// NewConcurrencyLimiterRule creates a rule allowing at most max concurrent calls
// across every operation matched by pointcut.
func NewConcurrencyLimiterRule(id string, max int, pointcut *types.Pointcut) *types.Rule {
	return NewConcurrencyLimiter(id, max).Rule(pointcut)
}

// NewConcurrencyLimiter creates a limiter; Rule binds it to a pointcut.
func NewConcurrencyLimiter(id string, max int) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{id: id, Max: int64(max)}
}

// Rule returns the limiter's rule.
func (a *ConcurrencyLimiter) Rule(pointcut *types.Pointcut) *types.Rule {
	return &types.Rule{
		Id:       a.id,
		Order:    LimiterOrder,
		Pointcut: pointcut,
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(types.ActionFunc(a.Before)),
			types.FinallyAdvice(types.ActionFunc(a.Finally)),
		},
		Description: "concurrency limiter",
	}
}

// Before takes a slot, failing when none is free.
func (a *ConcurrencyLimiter) Before(ctx types.CallContext) error {
	for {
		current := atomic.LoadInt64(&a.currentCount)
		if current >= a.Max {
			return types.ErrConcurrencyLimitReached
		}
		// 如果CAS失败，说明有其他goroutine修改了计数器，重试
		if atomic.CompareAndSwapInt64(&a.currentCount, current, current+1) {
			break
		}
	}
	markAcquired(ctx, a.id)
	return nil
}

// Finally frees the slot taken by Before.
func (a *ConcurrencyLimiter) Finally(ctx types.CallContext) error {
	if acquired(ctx, a.id) {
		atomic.AddInt64(&a.currentCount, -1)
	}
	return nil
}

// Current returns the number of calls holding a slot.
func (a *ConcurrencyLimiter) Current() int64 {
	return atomic.LoadInt64(&a.currentCount)
}
