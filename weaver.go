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

// Package weaver wires an aspect engine, an invoker and a proxy dispatch selector
// into one Weaver, and keeps named weavers in a pool.
//
// Package weaver 将切面引擎、调用拦截器与代理选择器组装为 Weaver，并按ID管理多个实例。
//
//	w, _ := weaver.New("orders")
//	_ = w.Add(aspect.NewConcurrencyLimiterRule("limiter", 100, nil))
//	w.Initialize()
//	ctx, err := w.Call("", "orders", svc, "Find", func(ctx types.CallContext) error {
//		return svc.Find(id)
//	})
package weaver

import (
	"sync"

	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/config"
	"github.com/rulego/weaver/engine"
	"github.com/rulego/weaver/interceptor"
	"github.com/rulego/weaver/proxy"
)

// DefaultPool is the pool used by the package-level functions.
var DefaultPool = &Pool{}

// Weaver is an aspect engine with its invoker and dispatch selector.
type Weaver struct {
	Id string
	*engine.AspectEngine
	invoker  *interceptor.Invoker
	selector *proxy.Selector
}

// NewWeaver creates a weaver that is not kept in any pool.
func NewWeaver(id string, opts ...types.Option) (*Weaver, error) {
	e, err := engine.New(types.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	return &Weaver{
		Id:           id,
		AspectEngine: e,
		invoker:      interceptor.NewInvoker(e),
		selector:     proxy.NewSelector(e, e.Config().ProxyTargetType),
	}, nil
}

// Invoker returns the weaver's invoker.
func (w *Weaver) Invoker() *interceptor.Invoker {
	return w.invoker
}

// Call intercepts operation on component, see interceptor.Invoker.Call.
func (w *Weaver) Call(route, id string, component interface{}, operation string, target interceptor.Target) (types.CallContext, error) {
	return w.invoker.Call(route, id, component, operation, target)
}

// Select decides how the described component is intercepted.
func (w *Weaver) Select(desc types.ComponentDescriptor) proxy.Decision {
	return w.selector.Select(desc)
}

// Pool keeps weavers by id.
type Pool struct {
	weavers sync.Map
}

// New returns the weaver with id, creating it with opts if it does not exist.
// An empty id creates a weaver that is not kept.
func (p *Pool) New(id string, opts ...types.Option) (*Weaver, error) {
	if v, ok := p.weavers.Load(id); ok {
		return v.(*Weaver), nil
	}
	w, err := NewWeaver(id, opts...)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return w, nil
	}
	actual, _ := p.weavers.LoadOrStore(id, w)
	return actual.(*Weaver), nil
}

// Load creates a weaver configured from the file at path and WEAVER_ environment
// variables. opts are applied after the loaded configuration.
func (p *Pool) Load(id string, path string, opts ...types.Option) (*Weaver, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return p.New(id, append(settings.Options(), opts...)...)
}

// Get returns the weaver with id.
func (p *Pool) Get(id string) (*Weaver, bool) {
	v, ok := p.weavers.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Weaver), true
}

// Del removes the weaver with id.
func (p *Pool) Del(id string) {
	p.weavers.Delete(id)
}

// Range calls f for every weaver until f returns false.
func (p *Pool) Range(f func(w *Weaver) bool) {
	p.weavers.Range(func(_, value any) bool {
		return f(value.(*Weaver))
	})
}

// New returns the weaver with id from DefaultPool, creating it if needed.
func New(id string, opts ...types.Option) (*Weaver, error) {
	return DefaultPool.New(id, opts...)
}

// Load creates a weaver in DefaultPool from a configuration file.
func Load(id string, path string, opts ...types.Option) (*Weaver, error) {
	return DefaultPool.Load(id, path, opts...)
}

// Get returns the weaver with id from DefaultPool.
func Get(id string) (*Weaver, bool) {
	return DefaultPool.Get(id)
}

// Del removes the weaver with id from DefaultPool.
func Del(id string) {
	DefaultPool.Del(id)
}
