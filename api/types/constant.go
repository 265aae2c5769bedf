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
	"fmt"
	"strings"
)

const (
	// In flow type of the debug callback, emitted before the target runs
	In = "IN"
	// Out flow type of the debug callback, emitted after the target ran
	Out = "OUT"
)

const (
	// DefaultSoftCacheSize is the capacity of the literal-key plan tier.
	DefaultSoftCacheSize = 16384
	// DefaultWeakCacheSize is the capacity of the non-literal-key plan tier.
	DefaultWeakCacheSize = 256
	// DefaultComponentSeparators split component ids such as "service:order.repo".
	DefaultComponentSeparators = ".:"
	// DefaultTypeSeparators split type names such as "svc.OrderService".
	DefaultTypeSeparators = "."
	// DefaultRouteSeparators split route names such as "/orders/42".
	DefaultRouteSeparators = "/"
)

var (
	// ErrDuplicateRule is returned when a rule id is already registered
	// ErrDuplicateRule 规则ID已经存在
	ErrDuplicateRule = errors.New("duplicate aspect rule")
	// ErrRuleNotFound is returned when no rule exists for the id
	ErrRuleNotFound = errors.New("aspect rule not found")
	// ErrInvalidRule is returned when a rule fails structural validation
	ErrInvalidRule = errors.New("invalid aspect rule")
	// ErrInvalidPattern is returned when a pointcut pattern cannot be compiled
	// ErrInvalidPattern 切入点表达式无法编译
	ErrInvalidPattern = errors.New("invalid pointcut pattern")
	// ErrInvalidConfig is returned when the engine configuration is out of range
	ErrInvalidConfig = errors.New("invalid engine config")
	// ErrConcurrencyLimitReached is the error returned when the concurrency limit has been reached
	ErrConcurrencyLimitReached = errors.New("concurrency limit reached")
	// ErrNilTarget is returned when an invocation has no target operation
	ErrNilTarget = errors.New("target operation is nil")
)

// RuleError identifies the rule, and optionally the pattern, that broke a registration.
// RuleError 标识导致注册失败的规则ID以及切入点表达式
type RuleError struct {
	RuleID  string
	Pattern string
	Err     error
}

func (e *RuleError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("aspect rule %q: pattern %q: %v", e.RuleID, e.Pattern, e.Err)
	}
	return fmt.Sprintf("aspect rule %q: %v", e.RuleID, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// FinallyError aggregates failures raised by finally advice. Every finally
// advice runs even if an earlier one failed.
type FinallyError struct {
	Errs []error
}

func (e *FinallyError) Error() string {
	var b strings.Builder
	b.WriteString("finally advice failed: ")
	for i, err := range e.Errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *FinallyError) Unwrap() []error {
	return e.Errs
}
