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
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rulego/weaver/api/types/metrics"
)

// OnDebug is a global debug callback function for advice execution.
var OnDebug func(flowType string, key MatchKey, ruleId string, err error)

// Config defines the configuration for the aspect engine.
type Config struct {
	// OnDebug is called by the debug rule before and after the target.
	// - flowType: IN before the target, OUT after it.
	// - key: the intercepted operation.
	// - ruleId: the debug rule id.
	// - err: the target failure, if any.
	OnDebug func(flowType string, key MatchKey, ruleId string, err error)
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// SoftCacheSize is the capacity of the plan tier used for literal keys.
	// Entries are only evicted when the tier is full.
	SoftCacheSize int
	// WeakCacheSize is the capacity of the plan tier used for non-literal keys.
	WeakCacheSize int
	// WeakCacheTTL bounds the lifetime of non-literal key plans. 0 disables expiry.
	WeakCacheTTL time.Duration
	// ComponentSeparators split component ids into segments for "*" patterns.
	ComponentSeparators string
	// TypeSeparators split type names into segments for "*" patterns.
	TypeSeparators string
	// RouteSeparators split route names into segments for "*" patterns.
	RouteSeparators string
	// ScriptMaxExecutionTime is the maximum execution time of script actions, defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// ProxyTargetType forces subclass-based dispatch even when capabilities exist.
	ProxyTargetType bool
	// Metrics collects engine counters. Nil creates a private instance.
	Metrics *metrics.EngineMetrics
	// Validator validates rules at registration.
	Validator *validator.Validate
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:                 DefaultLogger(),
		SoftCacheSize:          DefaultSoftCacheSize,
		WeakCacheSize:          DefaultWeakCacheSize,
		WeakCacheTTL:           time.Minute,
		ComponentSeparators:    DefaultComponentSeparators,
		TypeSeparators:         DefaultTypeSeparators,
		RouteSeparators:        DefaultRouteSeparators,
		ScriptMaxExecutionTime: time.Millisecond * 2000,
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// Validate reports configuration values that are out of range.
func (c Config) Validate() error {
	if c.SoftCacheSize <= 0 {
		return fmt.Errorf("%w: soft cache size must be positive, got %d", ErrInvalidConfig, c.SoftCacheSize)
	}
	if c.WeakCacheSize <= 0 {
		return fmt.Errorf("%w: weak cache size must be positive, got %d", ErrInvalidConfig, c.WeakCacheSize)
	}
	if c.WeakCacheTTL < 0 {
		return fmt.Errorf("%w: weak cache ttl must not be negative, got %s", ErrInvalidConfig, c.WeakCacheTTL)
	}
	return nil
}
