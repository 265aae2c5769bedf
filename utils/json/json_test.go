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

package json

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	Id   string
	Note string
}

func TestMarshal(t *testing.T) {
	v := order{Id: "42", Note: "a<b & c>d"}
	data, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"Id":"42","Note":"a<b & c>d"}`, string(data))

	escaped, err := Marshal2(v, true)
	require.NoError(t, err)
	std, _ := json.Marshal(v)
	assert.Equal(t, string(std), string(escaped))
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Marshal(make(chan int))
	assert.Error(t, err)
}
