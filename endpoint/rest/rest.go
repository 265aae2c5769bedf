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

// Package rest intercepts routed HTTP requests at route level.
//
// Every handle registered through an Interceptor runs inside the plan of the
// route-level key built from the request path. Route-level rules can then guard,
// answer or observe requests the same way operation-level rules wrap method calls.
//
// 通过 Interceptor 注册的路由处理器会在请求路径对应的路由级执行计划中运行。
package rest

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rulego/weaver/api/types"
	"github.com/rulego/weaver/interceptor"
	"github.com/rulego/weaver/utils/json"
	"github.com/rulego/weaver/utils/str"
)

const (
	ContentTypeKey  = "Content-Type"
	JsonContextType = "application/json"
)

// Setting names under which the request is exposed to advice.
const (
	// SettingRequest holds the *http.Request
	SettingRequest = "http.request"
	// SettingMethod holds the request method
	SettingMethod = "http.method"
	// SettingPath holds the registered route path, path variables unresolved
	SettingPath = "http.path"
)

// Response lets advice control the status code and headers of the reply.
// Any other response value is written with status 200: []byte and string as is,
// everything else as JSON.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       interface{}
}

// Interceptor wraps httprouter handles with route-level advice.
type Interceptor struct {
	invoker *interceptor.Invoker
	logger  types.Logger
}

// NewInterceptor creates an interceptor executing plans through invoker.
func NewInterceptor(invoker *interceptor.Invoker) *Interceptor {
	return &Interceptor{
		invoker: invoker,
		logger:  invoker.Engine().Config().Logger,
	}
}

// Handle registers handle on router for method and path, wrapped by Wrap.
func (i *Interceptor) Handle(router *httprouter.Router, method, path string, handle httprouter.Handle) *Interceptor {
	router.Handle(method, path, i.Wrap(method, path, handle))
	return i
}

func (i *Interceptor) GET(router *httprouter.Router, path string, handle httprouter.Handle) *Interceptor {
	return i.Handle(router, http.MethodGet, path, handle)
}

func (i *Interceptor) POST(router *httprouter.Router, path string, handle httprouter.Handle) *Interceptor {
	return i.Handle(router, http.MethodPost, path, handle)
}

func (i *Interceptor) PUT(router *httprouter.Router, path string, handle httprouter.Handle) *Interceptor {
	return i.Handle(router, http.MethodPut, path, handle)
}

func (i *Interceptor) DELETE(router *httprouter.Router, path string, handle httprouter.Handle) *Interceptor {
	return i.Handle(router, http.MethodDelete, path, handle)
}

// Wrap returns a handle running handle inside the plan of the request path.
// The key goes to the weak plan tier when path declares path variables, since
// every distinct request path then produces its own key.
func (i *Interceptor) Wrap(method, path string, handle httprouter.Handle) httprouter.Handle {
	literal := types.IsLiteralRoute(path)
	vars := str.PathVars(path)
	target := types.ComponentRef{Id: method + " " + path}
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		ctx := interceptor.NewCallContext(types.RouteKey(r.URL.Path), target)
		ctx.PutSetting(SettingRequest, r)
		ctx.PutSetting(SettingMethod, r.Method)
		ctx.PutSetting(SettingPath, path)
		//把路径参数放到调用上下文中
		for _, name := range vars {
			ctx.PutSetting(name, params.ByName(name))
		}

		rw := &responseWriter{ResponseWriter: w}
		err := i.invoker.Invoke(ctx, literal, func(types.CallContext) error {
			handle(rw, r, params)
			return nil
		})
		if rw.written {
			if err != nil {
				i.logger.Printf("rest handler err path=%s err=%v", r.URL.Path, err)
			}
			return
		}
		if err != nil {
			http.Error(w, err.Error(), StatusCode(err))
			return
		}
		if ctx.Responded() {
			i.writeResponse(w, ctx.Response())
		}
	}
}

func (i *Interceptor) writeResponse(w http.ResponseWriter, response interface{}) {
	status := http.StatusOK
	body := response
	if resp, ok := response.(*Response); ok {
		for k, values := range resp.Header {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
		if resp.StatusCode != 0 {
			status = resp.StatusCode
		}
		body = resp.Body
	}
	var data []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if w.Header().Get(ContentTypeKey) == "" {
			w.Header().Set(ContentTypeKey, JsonContextType)
		}
	}
	w.WriteHeader(status)
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			i.logger.Printf("rest write response err=%v", err)
		}
	}
}

// StatusCode maps an unhandled failure to an HTTP status.
func StatusCode(err error) int {
	if errors.Is(err, types.ErrConcurrencyLimitReached) {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// responseWriter records whether the handle wrote a reply.
type responseWriter struct {
	http.ResponseWriter
	written bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.written = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
