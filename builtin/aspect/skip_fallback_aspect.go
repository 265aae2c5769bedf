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
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rulego/weaver/api/types"
)

// FallbackErr is raised for a skipped call when the rule has no fallback response.
var FallbackErr = errors.New("skip fallback error")

// SkipFallbackOrder is the order of the skip fallback rule.
const SkipFallbackOrder = 10

// SkipFallback is a circuit breaker per MatchKey. Once an operation failed
// ErrorCountLimit times, its calls are skipped until LimitDuration passed since
// the last failure. A skipped call is answered with Fallback, or fails with
// FallbackErr when Fallback is nil.
//
// SkipFallback 熔断切面，操作失败次数达到 ErrorCountLimit 后，
// 在 LimitDuration 时间内跳过该操作，返回降级响应。
type SkipFallback struct {
	id string
	// ErrorCountLimit 错误次数限制，默认3
	ErrorCountLimit int64
	// LimitDuration 熔断持续时间，默认10秒
	LimitDuration time.Duration
	// Fallback is the response of skipped calls.
	Fallback interface{}
	errors   sync.Map // map[types.MatchKey]*OperationError
	now      func() time.Time
}

// OperationError is the failure state of one operation.
type OperationError struct {
	errorCount    int64
	lastErrorTime int64
}

// NewSkipFallback creates a breaker; zero values select 3 failures and 10 seconds.
func NewSkipFallback(id string, errorCountLimit int64, limitDuration time.Duration, fallback interface{}) *SkipFallback {
	if errorCountLimit == 0 {
		errorCountLimit = 3
	}
	if limitDuration == 0 {
		limitDuration = time.Second * 10
	}
	return &SkipFallback{
		id:              id,
		ErrorCountLimit: errorCountLimit,
		LimitDuration:   limitDuration,
		Fallback:        fallback,
		now:             time.Now,
	}
}

// NewSkipFallbackRule creates a breaker rule for the operations matched by pointcut.
func NewSkipFallbackRule(id string, errorCountLimit int64, limitDuration time.Duration, fallback interface{}, pointcut *types.Pointcut) *types.Rule {
	return NewSkipFallback(id, errorCountLimit, limitDuration, fallback).Rule(pointcut)
}

// Rule returns the breaker's rule.
func (a *SkipFallback) Rule(pointcut *types.Pointcut) *types.Rule {
	return &types.Rule{
		Id:       a.id,
		Order:    SkipFallbackOrder,
		Pointcut: pointcut,
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(types.ActionFunc(a.Before)),
			types.FinallyAdvice(types.ActionFunc(a.Finally)),
		},
		Description: "skip fallback",
	}
}

// Before skips the call while the operation's breaker is open.
func (a *SkipFallback) Before(ctx types.CallContext) error {
	v, ok := a.errors.Load(ctx.Key())
	if !ok {
		return nil
	}
	opErr := v.(*OperationError)
	if atomic.LoadInt64(&opErr.errorCount) < a.ErrorCountLimit {
		return nil
	}
	if atomic.LoadInt64(&opErr.lastErrorTime)+a.LimitDuration.Milliseconds() < a.now().UnixMilli() {
		a.errors.Delete(ctx.Key())
		return nil
	}
	if a.Fallback == nil {
		return FallbackErr
	}
	ctx.Respond(a.Fallback)
	return nil
}

// Finally counts failures of calls that were not skipped.
func (a *SkipFallback) Finally(ctx types.CallContext) error {
	err := ctx.Failure()
	if err == nil || errors.Is(err, FallbackErr) {
		return nil
	}
	now := a.now().UnixMilli()
	v, _ := a.errors.LoadOrStore(ctx.Key(), &OperationError{})
	opErr := v.(*OperationError)
	atomic.AddInt64(&opErr.errorCount, 1)
	atomic.StoreInt64(&opErr.lastErrorTime, now)
	return nil
}

// Reset closes every breaker.
func (a *SkipFallback) Reset() {
	a.errors.Range(func(key, _ interface{}) bool {
		a.errors.Delete(key)
		return true
	})
}
