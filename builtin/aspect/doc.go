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

// Package aspect provides built-in aspect rules for the weaver engine.
// Each factory returns a *types.Rule ready to be registered; the pointcut argument
// narrows where it applies, nil applies it to every operation.
//
// Package aspect 为 weaver 引擎提供内置切面规则。
// 每个工厂函数返回可直接注册的 *types.Rule，pointcut 参数用于限定作用范围，nil 表示作用于所有操作。
//
// Available Built-in Rules:
// 可用的内置规则：
//
//   - NewDebugRule: reports the call before the target and its outcome afterwards
//     NewDebugRule：在目标方法执行前后输出调试信息
//
//   - NewConcurrencyLimiterRule: limits concurrent calls of the matched operations
//     NewConcurrencyLimiterRule：限制匹配操作的并发调用数
//
//   - NewMetricsRule: counts calls and failures of the matched operations
//     NewMetricsRule：统计匹配操作的调用与失败次数
//
//   - NewSkipFallbackRule: skips an operation that keeps failing for a while
//     NewSkipFallbackRule：操作持续失败时在一段时间内跳过执行
//
// Rule Execution Order:
// 规则执行顺序：
//
// Before advice runs by ascending order, finally advice by descending order:
// before 增强点按顺序值升序执行，finally 增强点按降序执行：
//  1. ConcurrencyLimiter (order: 10)
//  2. SkipFallback (order: 10)
//  3. Metrics (order: 20)
//  4. Debug (order: 900)
//
// Usage Examples:
// 使用示例：
//
//	engine, _ := engine.New(types.NewConfig())
//	_ = engine.Add(
//		aspect.NewConcurrencyLimiterRule("limiter", 100, nil),
//		aspect.NewMetricsRule("metrics", m, types.NewPointcut(types.IncludeType("svc.*"))),
//		aspect.NewDebugRule("debug", engine.Config(), nil),
//	)
package aspect

import "github.com/rulego/weaver/api/types"

// acquiredKey is the setting a before advice sets once it holds a resource,
// so the matching finally advice only releases what was taken.
func acquiredKey(ruleId string) string {
	return "aspect." + ruleId + ".acquired"
}

func markAcquired(ctx types.CallContext, ruleId string) {
	ctx.PutSetting(acquiredKey(ruleId), true)
}

func acquired(ctx types.CallContext, ruleId string) bool {
	v, ok := ctx.Setting(acquiredKey(ruleId))
	return ok && v == true
}
