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

// Package config loads engine options from defaults, an optional YAML or TOML file
// and WEAVER_ environment variables, in increasing precedence.
//
// Keys:
//
//	cache.soft.size              capacity of the literal-key plan tier
//	cache.weak.size              capacity of the non-literal-key plan tier
//	cache.weak.ttl               lifetime of non-literal-key plans, e.g. "1m"
//	pattern.separators.component separators of component ids
//	pattern.separators.type      separators of type names
//	pattern.separators.route     separators of route names
//	proxy.subclass               force subclass-based dispatch
//	script.timeout               maximum execution time of script actions
//
// Environment variables map by dropping the prefix, lower-casing and replacing
// "_" with ".": WEAVER_CACHE_WEAK_TTL sets cache.weak.ttl.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rulego/weaver/api/types"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "WEAVER_"

// Settings is the loaded configuration.
type Settings struct {
	Cache struct {
		Soft struct {
			Size int `koanf:"size"`
		} `koanf:"soft"`
		Weak struct {
			Size int           `koanf:"size"`
			TTL  time.Duration `koanf:"ttl"`
		} `koanf:"weak"`
	} `koanf:"cache"`
	Pattern struct {
		Separators struct {
			Component string `koanf:"component"`
			Type      string `koanf:"type"`
			Route     string `koanf:"route"`
		} `koanf:"separators"`
	} `koanf:"pattern"`
	Proxy struct {
		Subclass bool `koanf:"subclass"`
	} `koanf:"proxy"`
	Script struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"script"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"cache.soft.size":              types.DefaultSoftCacheSize,
		"cache.weak.size":              types.DefaultWeakCacheSize,
		"cache.weak.ttl":               "1m",
		"pattern.separators.component": types.DefaultComponentSeparators,
		"pattern.separators.type":      types.DefaultTypeSeparators,
		"pattern.separators.route":     types.DefaultRouteSeparators,
		"proxy.subclass":               false,
		"script.timeout":               "2s",
	}
}

// Load reads the configuration. path names an optional .yaml, .yml or .toml file,
// empty skips it.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	return unmarshal(k)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported config file %s", types.ErrInvalidConfig, path)
	}
}

func unmarshal(k *koanf.Koanf) (*Settings, error) {
	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports values out of range.
func (s *Settings) Validate() error {
	if s.Cache.Soft.Size <= 0 {
		return fmt.Errorf("%w: cache.soft.size must be positive, got %d", types.ErrInvalidConfig, s.Cache.Soft.Size)
	}
	if s.Cache.Weak.Size <= 0 {
		return fmt.Errorf("%w: cache.weak.size must be positive, got %d", types.ErrInvalidConfig, s.Cache.Weak.Size)
	}
	if s.Cache.Weak.TTL < 0 {
		return fmt.Errorf("%w: cache.weak.ttl must not be negative, got %s", types.ErrInvalidConfig, s.Cache.Weak.TTL)
	}
	if s.Script.Timeout < 0 {
		return fmt.Errorf("%w: script.timeout must not be negative, got %s", types.ErrInvalidConfig, s.Script.Timeout)
	}
	return nil
}

// Options converts the settings into engine options.
func (s *Settings) Options() []types.Option {
	return []types.Option{
		types.WithSoftCacheSize(s.Cache.Soft.Size),
		types.WithWeakCache(s.Cache.Weak.Size, s.Cache.Weak.TTL),
		types.WithSeparators(s.Pattern.Separators.Component, s.Pattern.Separators.Type, s.Pattern.Separators.Route),
		types.WithProxyTargetType(s.Proxy.Subclass),
		types.WithScriptMaxExecutionTime(s.Script.Timeout),
	}
}
