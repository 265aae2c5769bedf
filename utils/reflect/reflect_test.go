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

package reflect

import (
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderService struct{}

func (s orderService) Find(id string) string { return id }

func (s *orderService) Save(id string) error { return nil }

func (s *orderService) Close() error { return nil }

func (s *orderService) hidden() {}

func TestOperationNames(t *testing.T) {
	names := OperationNames(reflect.TypeOf(orderService{}))
	assert.Equal(t, []string{"Close", "Find", "Save"}, names)

	names = OperationNames(reflect.TypeOf(&orderService{}))
	assert.Equal(t, []string{"Close", "Find", "Save"}, names)

	assert.Nil(t, OperationNames(nil))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "reflect.orderService", TypeName(reflect.TypeOf(&orderService{})))
	assert.Equal(t, "reflect.orderService", TypeName(reflect.TypeOf(orderService{})))
	assert.Equal(t, "", TypeName(nil))
}

func TestImplements(t *testing.T) {
	closer := reflect.TypeOf((*io.Closer)(nil)).Elem()
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	empty := reflect.TypeOf((*interface{})(nil)).Elem()

	caps := Implements(reflect.TypeOf(orderService{}), []reflect.Type{closer, stringer, empty})
	assert.Equal(t, []reflect.Type{closer}, caps)
	assert.Nil(t, Implements(nil, []reflect.Type{closer}))
}
