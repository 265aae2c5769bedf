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

// Package runtime provides utilities for runtime-related operations.
// This package includes functions for retrieving stack traces and turning
// recovered panics into errors that keep the stack for logging.
//
// Usage example:
//
//	defer func() {
//		if e := recover(); e != nil {
//			err = runtime.PanicError(e)
//		}
//	}()
package runtime

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Stack 获取堆栈信息
func Stack() string {
	var pc = make([]uintptr, 20)
	n := runtime.Callers(3, pc)

	var build strings.Builder
	for i := 0; i < n; i++ {
		f := runtime.FuncForPC(pc[i] - 1)
		file, line := f.FileLine(pc[i] - 1)
		s := fmt.Sprintf(" %s:%d \n", file[0:], line)
		build.WriteString(s)
	}
	return build.String()
}

// PanicErr wraps a recovered panic value together with the stack it was raised from.
type PanicErr struct {
	Value interface{}
	Stack string
}

func (e *PanicErr) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicErr) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PanicError converts a recovered value into a *PanicErr. It must be called from
// the deferred function that recovered, so the stack includes the panicking frame.
func PanicError(value interface{}) error {
	return &PanicErr{Value: value, Stack: Stack()}
}

// IsPanic reports whether err wraps a recovered panic.
func IsPanic(err error) bool {
	var p *PanicErr
	return errors.As(err, &p)
}
