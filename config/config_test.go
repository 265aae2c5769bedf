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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rulego/weaver/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSoftCacheSize, s.Cache.Soft.Size)
	assert.Equal(t, types.DefaultWeakCacheSize, s.Cache.Weak.Size)
	assert.Equal(t, time.Minute, s.Cache.Weak.TTL)
	assert.Equal(t, types.DefaultComponentSeparators, s.Pattern.Separators.Component)
	assert.False(t, s.Proxy.Subclass)
	assert.Equal(t, 2*time.Second, s.Script.Timeout)
}

func TestLoadYaml(t *testing.T) {
	path := writeFile(t, "weaver.yaml", `
cache:
  soft:
    size: 1024
  weak:
    size: 32
    ttl: 30s
pattern:
  separators:
    component: "."
proxy:
  subclass: true
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, s.Cache.Soft.Size)
	assert.Equal(t, 32, s.Cache.Weak.Size)
	assert.Equal(t, 30*time.Second, s.Cache.Weak.TTL)
	assert.Equal(t, ".", s.Pattern.Separators.Component)
	assert.Equal(t, types.DefaultRouteSeparators, s.Pattern.Separators.Route)
	assert.True(t, s.Proxy.Subclass)

	config := types.NewConfig(s.Options()...)
	assert.Equal(t, 1024, config.SoftCacheSize)
	assert.Equal(t, 32, config.WeakCacheSize)
	assert.Equal(t, 30*time.Second, config.WeakCacheTTL)
	assert.Equal(t, ".", config.ComponentSeparators)
	assert.True(t, config.ProxyTargetType)
	assert.NoError(t, config.Validate())
}

func TestLoadToml(t *testing.T) {
	path := writeFile(t, "weaver.toml", `
[cache.weak]
size = 8
ttl = "5s"

[script]
timeout = "100ms"
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Cache.Weak.Size)
	assert.Equal(t, 5*time.Second, s.Cache.Weak.TTL)
	assert.Equal(t, 100*time.Millisecond, s.Script.Timeout)
	assert.Equal(t, types.DefaultSoftCacheSize, s.Cache.Soft.Size)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "weaver.yaml", "cache:\n  weak:\n    size: 32\n")
	t.Setenv("WEAVER_CACHE_WEAK_SIZE", "64")
	t.Setenv("WEAVER_PATTERN_SEPARATORS_ROUTE", "/.")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, s.Cache.Weak.Size)
	assert.Equal(t, "/.", s.Pattern.Separators.Route)
}

func TestInvalidValues(t *testing.T) {
	t.Run("negative size", func(t *testing.T) {
		t.Setenv("WEAVER_CACHE_SOFT_SIZE", "-1")
		_, err := Load("")
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})
	t.Run("bad ttl", func(t *testing.T) {
		t.Setenv("WEAVER_CACHE_WEAK_TTL", "soon")
		_, err := Load("")
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})
	t.Run("unsupported file", func(t *testing.T) {
		_, err := Load(writeFile(t, "weaver.json", "{}"))
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
