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
	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/api/types/metrics"
)

// MetricsOrder is the order of the metrics rule.
const MetricsOrder = 20

// NewMetricsRule creates a rule counting the calls of the operations matched by
// pointcut into m: in-flight and total calls, failed calls.
func NewMetricsRule(id string, m *metrics.EngineMetrics, pointcut *types.Pointcut) *types.Rule {
	before := func(ctx types.CallContext) error {
		m.IncrementCurrent()
		markAcquired(ctx, id)
		return nil
	}
	finally := func(ctx types.CallContext) error {
		if !acquired(ctx, id) {
			return nil
		}
		m.DecrementCurrent()
		if ctx.Failure() != nil {
			m.IncrementFailed()
		}
		return nil
	}
	return &types.Rule{
		Id:       id,
		Order:    MetricsOrder,
		Pointcut: pointcut,
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(types.ActionFunc(before)),
			types.FinallyAdvice(types.ActionFunc(finally)),
		},
		Description: "call metrics",
	}
}
