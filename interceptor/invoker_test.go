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

package interceptor

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/engine"
	"github.com/rulego/weaver/test"
	"github.com/rulego/weaver/utils/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("order not found")

type orderService struct{}

func (s *orderService) Find(id string) (string, error) { return id, nil }

type auditor struct{}

func (a *auditor) Audit() {}

func newInvoker(t *testing.T, rules ...*types.Rule) *Invoker {
	e, err := engine.New(types.NewConfig(types.WithLogger(types.NewZerologLogger(zerolog.Nop()))))
	require.NoError(t, err)
	require.NoError(t, e.Add(rules...))
	return NewInvoker(e)
}

func recordingTarget(rec *test.Recorder, err error) Target {
	return func(ctx types.CallContext) error {
		rec.Record("target")
		return err
	}
}

func TestInvokeNestsAroundAdvice(t *testing.T) {
	var rec test.Recorder
	inv := newInvoker(t,
		test.AroundRule(&rec, "A", 10, types.NewPointcut(types.IncludeType("interceptor.*"))),
		test.AroundRule(&rec, "B", 5, nil),
	)
	_, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"B.before", "A.before", "target", "A.after", "B.after"}, rec.Calls())
	assert.Equal(t, int64(1), inv.Engine().Metrics().Get().Invocations)
}

func TestEmptyPlanRunsTargetDirectly(t *testing.T) {
	var rec test.Recorder
	inv := newInvoker(t, test.AroundRule(&rec, "repo", 1, types.NewPointcut(types.IncludeType("repo.*"))))
	_, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"target"}, rec.Calls())
	assert.Equal(t, int64(0), inv.Engine().Metrics().Get().Invocations)
}

func TestNilTarget(t *testing.T) {
	inv := newInvoker(t)
	_, err := inv.Call("", "orders", &orderService{}, "Find", nil)
	assert.ErrorIs(t, err, types.ErrNilTarget)
}

func TestSelfSuppliedAdviceIsSkipped(t *testing.T) {
	var rec test.Recorder
	ref := types.RefOf("audit", &auditor{})
	rule := test.AroundRule(&rec, "audit", 1, nil)
	rule.Component = &ref
	inv := newInvoker(t, rule)

	_, err := inv.Call("", "audit", &auditor{}, "Audit", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"target"}, rec.Calls())
	assert.Equal(t, int64(2), inv.Engine().Metrics().Get().SkippedSelf)

	rec.Reset()
	_, err = inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"audit.before", "target", "audit.after"}, rec.Calls())
}

func TestSettingsRunBeforeBeforeAdvice(t *testing.T) {
	var seen interface{}
	rule := &types.Rule{
		Id: "tenant",
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(types.ActionFunc(func(ctx types.CallContext) error {
				seen, _ = ctx.Setting("tenant")
				return nil
			})),
			types.SettingsAdvice(types.ActionFunc(func(ctx types.CallContext) error {
				ctx.PutSetting("tenant", "acme")
				return nil
			})),
		},
	}
	inv := newInvoker(t, rule)
	ctx, err := inv.Call("", "orders", &orderService{}, "Find", func(ctx types.CallContext) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "acme", seen)
	assert.Equal(t, map[string]interface{}{"tenant": "acme"}, ctx.Settings())
}

func TestBeforeResponseShortCircuits(t *testing.T) {
	var rec test.Recorder
	cached := &types.Rule{
		Id:    "cache",
		Order: 1,
		Advice: []types.AdviceEntry{
			types.AroundAdvice(rec.Responding("cache.before", "cached"), rec.Action("cache.after")),
			types.FinallyAdvice(rec.Action("cache.finally")),
		},
	}
	inv := newInvoker(t, cached, test.AroundRule(&rec, "later", 2, nil))

	ctx, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"cache.before", "cache.finally"}, rec.Calls())
	assert.True(t, ctx.Responded())
	assert.Equal(t, "cached", ctx.Response())
	assert.Equal(t, int64(1), inv.Engine().Metrics().Get().ShortCircuits)
}

func TestFinallyAdviceAllRun(t *testing.T) {
	var rec test.Recorder
	boom := errors.New("finally boom")
	first := &types.Rule{Id: "first", Order: 1, Advice: []types.AdviceEntry{types.FinallyAdvice(rec.Action("first.finally"))}}
	second := &types.Rule{Id: "second", Order: 2, Advice: []types.AdviceEntry{types.FinallyAdvice(rec.Failing("second.finally", boom))}}
	inv := newInvoker(t, first, second)

	_, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	assert.Equal(t, []string{"target", "second.finally", "first.finally"}, rec.Calls())
	var finallyErr *types.FinallyError
	require.True(t, errors.As(err, &finallyErr))
	assert.Len(t, finallyErr.Errs, 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), inv.Engine().Metrics().Get().FinallyFailures)

	// the target failure wins over finally failures
	rec.Reset()
	_, err = inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, errNotFound))
	assert.Equal(t, []string{"target", "second.finally", "first.finally"}, rec.Calls())
	assert.ErrorIs(t, err, errNotFound)
	assert.False(t, errors.As(err, &finallyErr))
}

func TestAfterAdviceSkippedOnFailure(t *testing.T) {
	var rec test.Recorder
	rule := &types.Rule{
		Id: "tx",
		Advice: []types.AdviceEntry{
			types.BeforeAdvice(rec.Action("tx.begin")),
			types.AfterAdvice(rec.Action("tx.commit")),
			types.FinallyAdvice(types.ActionFunc(func(ctx types.CallContext) error {
				if ctx.Failure() != nil {
					rec.Record("tx.rollback")
				}
				return nil
			})),
		},
	}
	inv := newInvoker(t, rule)
	_, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, errNotFound))
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, []string{"tx.begin", "target", "tx.rollback"}, rec.Calls())
	assert.Equal(t, int64(1), inv.Engine().Metrics().Get().Failed)
}

func TestFailureRuleHandlesCompatibleFailure(t *testing.T) {
	var rec test.Recorder
	rule := &types.Rule{
		Id:     "fallback",
		Advice: []types.AdviceEntry{types.BeforeAdvice(test.Noop)},
		Failure: &types.FailureRule{
			Kinds:  []types.ErrorKind{types.ErrorIs(errNotFound)},
			Action: rec.Responding("fallback", "empty order"),
		},
	}
	inv := newInvoker(t, rule)

	ctx, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, errNotFound))
	require.NoError(t, err)
	assert.Equal(t, "empty order", ctx.Response())
	assert.ErrorIs(t, ctx.Failure(), errNotFound)
	assert.Equal(t, int64(1), inv.Engine().Metrics().Get().Handled)

	rec.Reset()
	other := errors.New("connection refused")
	_, err = inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, other))
	assert.ErrorIs(t, err, other)
	assert.Equal(t, []string{"target"}, rec.Calls())
}

func TestFailureRuleWithoutResponsePropagates(t *testing.T) {
	var rec test.Recorder
	rule := &types.Rule{
		Id:      "observe",
		Advice:  []types.AdviceEntry{types.BeforeAdvice(test.Noop)},
		Failure: &types.FailureRule{Action: rec.Action("observe")},
	}
	inv := newInvoker(t, rule)
	_, err := inv.Call("", "orders", &orderService{}, "Find", recordingTarget(&rec, errNotFound))
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, []string{"target", "observe"}, rec.Calls())
}

func TestEarlierResponseDoesNotSuppressFailure(t *testing.T) {
	var rec test.Recorder
	rule := &types.Rule{
		Id:      "observe",
		Advice:  []types.AdviceEntry{types.BeforeAdvice(test.Noop)},
		Failure: &types.FailureRule{Action: rec.Action("observe")},
	}
	inv := newInvoker(t, rule)
	ctx, err := inv.Call("", "orders", &orderService{}, "Find", func(ctx types.CallContext) error {
		rec.Record("target")
		ctx.Respond("partial")
		return errNotFound
	})
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, []string{"target", "observe"}, rec.Calls())
	assert.Equal(t, "partial", ctx.Response())
	assert.Equal(t, int64(0), inv.Engine().Metrics().Get().Handled)
}

func TestFailureRuleResponseReplacesEarlierResponse(t *testing.T) {
	var rec test.Recorder
	rule := &types.Rule{
		Id:      "recover",
		Advice:  []types.AdviceEntry{types.BeforeAdvice(test.Noop)},
		Failure: &types.FailureRule{Action: rec.Responding("recover", "fallback")},
	}
	inv := newInvoker(t, rule)
	ctx, err := inv.Call("", "orders", &orderService{}, "Find", func(ctx types.CallContext) error {
		ctx.Respond("partial")
		return errNotFound
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", ctx.Response())
	assert.Equal(t, []string{"recover"}, rec.Calls())
}

func TestTargetPanicIsRecovered(t *testing.T) {
	var rec test.Recorder
	inv := newInvoker(t, &types.Rule{Id: "finally", Advice: []types.AdviceEntry{types.FinallyAdvice(rec.Action("finally"))}})
	_, err := inv.Call("", "orders", &orderService{}, "Find", func(ctx types.CallContext) error {
		panic("nil map")
	})
	require.Error(t, err)
	assert.True(t, runtime.IsPanic(err))
	assert.Equal(t, []string{"finally"}, rec.Calls())
}

func TestRouteRulesResolvedAgainstCallRoute(t *testing.T) {
	var rec test.Recorder
	routed := test.AroundRule(&rec, "routed", 1, types.NewPointcut(types.PatternRule{Route: "/orders/*", Operation: "Find"}))
	routed.Target = types.RouteTarget
	inv := newInvoker(t, routed)

	_, err := inv.Call("/orders/42", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"routed.before", "target", "routed.after"}, rec.Calls())

	rec.Reset()
	_, err = inv.Call("/users/42", "orders", &orderService{}, "Find", recordingTarget(&rec, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"target"}, rec.Calls())
}

func TestDecodeSettings(t *testing.T) {
	ctx := NewCallContext(types.NewMatchKey("", "orders", "svc.Orders", "Find"), types.ComponentRef{Id: "orders"})
	ctx.PutSetting("timeout", "5s")
	ctx.PutSetting("retries", "3")
	var out struct {
		Timeout time.Duration
		Retries int
	}
	require.NoError(t, ctx.DecodeSettings(&out))
	assert.Equal(t, 5*time.Second, out.Timeout)
	assert.Equal(t, 3, out.Retries)
	assert.NotEmpty(t, ctx.Id())
	assert.NotEqual(t, ctx.Id(), NewCallContext(ctx.Key(), ctx.Target()).Id())
}

func TestKeyOf(t *testing.T) {
	key := KeyOf("/orders/42", "orders", &orderService{}, "Find")
	assert.Equal(t, types.NewMatchKey("/orders/42", "orders", "interceptor.orderService", "Find"), key)
}
