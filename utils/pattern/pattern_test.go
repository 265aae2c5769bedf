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

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, pattern string, separators string) *Matcher {
	t.Helper()
	m, err := Compile(pattern, separators)
	require.NoError(t, err)
	return m
}

func TestAbsentPatternMatchesEverything(t *testing.T) {
	m, err := Compile("", ".")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.True(t, m.Match(""))
	assert.True(t, m.Match("anything.at.all"))
}

func TestSingleSegmentWildcard(t *testing.T) {
	m := mustCompile(t, "service:*", ".:")
	assert.True(t, m.Match("service:order"))
	assert.False(t, m.Match("service:order.repo"))
	assert.False(t, m.Match("store:order"))

	typ := mustCompile(t, "svc.*", ".")
	assert.True(t, typ.Match("svc.Foo"))
	assert.False(t, typ.Match("svc.sub.Foo"))
}

func TestMultiSegmentWildcard(t *testing.T) {
	m := mustCompile(t, "service:**", ".:")
	assert.True(t, m.Match("service:order"))
	assert.True(t, m.Match("service:order.repo"))

	typ := mustCompile(t, "com.**.Service", ".")
	assert.True(t, typ.Match("com.acme.order.Service"))
	assert.False(t, typ.Match("org.acme.Service"))
}

func TestOperationPatterns(t *testing.T) {
	m := mustCompile(t, "get*", "")
	assert.True(t, m.Match("getOrder"))
	assert.False(t, m.Match("setOrder"))

	alt := mustCompile(t, "{create,update}Order", "")
	assert.True(t, alt.Match("createOrder"))
	assert.True(t, alt.Match("updateOrder"))
	assert.False(t, alt.Match("deleteOrder"))

	one := mustCompile(t, "find?", "")
	assert.True(t, one.Match("findA"))
	assert.False(t, one.Match("findAll"))
}

func TestLiteralPattern(t *testing.T) {
	m := mustCompile(t, "svc.Foo", ".")
	assert.True(t, m.Match("svc.Foo"))
	assert.False(t, m.Match("svc.Foobar"))
	assert.Equal(t, "svc.Foo", m.String())
}

func TestMalformedPattern(t *testing.T) {
	_, err := Compile("svc.[a-", ".")
	assert.Error(t, err)
	_, err = Compile("{get,set", "")
	assert.Error(t, err)
	_, err = Compile("{open", "")
	assert.Error(t, err)
	_, err = Compile("get}", "")
	assert.Error(t, err)
}

func TestRouteSegments(t *testing.T) {
	m := mustCompile(t, "/orders/*", "/")
	assert.True(t, m.Match("/orders/42"))
	assert.False(t, m.Match("/orders/42/items"))
}
