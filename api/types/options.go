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
	"time"

	"github.com/rulego/weaver/api/types/metrics"
)

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithOnDebug is an option that sets the on debug callback of the Config.
func WithOnDebug(onDebug func(flowType string, key MatchKey, ruleId string, err error)) Option {
	return func(c *Config) error {
		c.OnDebug = onDebug
		return nil
	}
}

// WithSoftCacheSize sets the capacity of the literal-key plan tier.
func WithSoftCacheSize(size int) Option {
	return func(c *Config) error {
		c.SoftCacheSize = size
		return nil
	}
}

// WithWeakCache sets the capacity and ttl of the non-literal-key plan tier.
func WithWeakCache(size int, ttl time.Duration) Option {
	return func(c *Config) error {
		c.WeakCacheSize = size
		c.WeakCacheTTL = ttl
		return nil
	}
}

// WithSeparators sets the separators used to split component ids, type names and routes.
// Empty values keep the current setting.
func WithSeparators(component, typeName, route string) Option {
	return func(c *Config) error {
		if component != "" {
			c.ComponentSeparators = component
		}
		if typeName != "" {
			c.TypeSeparators = typeName
		}
		if route != "" {
			c.RouteSeparators = route
		}
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the js max execution time of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithProxyTargetType forces subclass-based dispatch.
func WithProxyTargetType(proxyTargetType bool) Option {
	return func(c *Config) error {
		c.ProxyTargetType = proxyTargetType
		return nil
	}
}

// WithMetrics sets the metrics collector of the Config.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}
