/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config_center is the dynamic override side of spec.md §4.6: a
// Configurator rewrites parameters on a provider/consumer URL, and a
// ConfigurationListener binds one rule key to a backing configuration
// source's change stream. spec.md's Non-goals exclude a configuration
// file grammar, so this package defines the override-rule shape
// (app-scope then service-scope, each a flat key/value map) without
// picking a concrete file format beyond the YAML + struct-tag parsing the
// teacher already uses for its own config.
package config_center

import (
	"sync"

	"github.com/mitchellh/mapstructure"
	perrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"go.corerpc.dev/corerpc/common"
)

// Configurator rewrites params onto a URL.
type Configurator interface {
	Configure(url *common.URL) *common.URL
}

// overrideRule is one parsed YAML override document.
type overrideRule struct {
	ConfigVersion string          `yaml:"configVersion" mapstructure:"configVersion"`
	Scope         string          `yaml:"scope" mapstructure:"scope"` // "application" | "service"
	Key           string          `yaml:"key" mapstructure:"key"`
	Enabled       bool            `yaml:"enabled" mapstructure:"enabled"`
	Configs       []overrideGroup `yaml:"configs" mapstructure:"configs"`
}

type overrideGroup struct {
	Side       string            `yaml:"side" mapstructure:"side"`
	Parameters map[string]string `yaml:"parameters" mapstructure:"parameters"`
}

// ruleConfigurator applies one overrideRule's matching-side parameters.
type ruleConfigurator struct {
	rule overrideRule
}

func (c *ruleConfigurator) Configure(url *common.URL) *common.URL {
	if !c.rule.Enabled {
		return url
	}
	side := url.GetParam("side", "provider")
	clone := url.Clone()
	for _, group := range c.rule.Configs {
		if group.Side != "" && group.Side != side {
			continue
		}
		for k, v := range group.Parameters {
			clone.SetParam(k, v)
		}
	}
	return clone
}

// ParseOverrideRule parses one YAML override document per spec.md §6's
// configuration-override rule format, validating it via mapstructure
// after yaml.Unmarshal into a generic map (matching the teacher's own
// two-step decode: a tolerant YAML parse, then a strict struct bind).
func ParseOverrideRule(data []byte) (Configurator, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, perrors.WithStack(err)
	}
	var rule overrideRule
	if err := mapstructure.Decode(raw, &rule); err != nil {
		return nil, perrors.WithStack(err)
	}
	return &ruleConfigurator{rule: rule}, nil
}

var (
	mu                 sync.RWMutex
	applicationConfigs []Configurator
	serviceConfigs     = map[string][]Configurator{}
)

// SetApplicationConfigurators replaces the application-scoped override set
// (spec.md §4.6's app-level configurator fold).
func SetApplicationConfigurators(cs []Configurator) {
	mu.Lock()
	defer mu.Unlock()
	applicationConfigs = cs
}

// ApplicationConfigurators returns the current application-scoped set.
func ApplicationConfigurators() []Configurator {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Configurator(nil), applicationConfigs...)
}

// SetServiceConfigurators replaces the service-scoped override set for
// serviceKey (spec.md §4.6's service-level configurator fold).
func SetServiceConfigurators(serviceKey string, cs []Configurator) {
	mu.Lock()
	defer mu.Unlock()
	serviceConfigs[serviceKey] = cs
}

// ServiceConfigurators returns the current service-scoped set for
// serviceKey.
func ServiceConfigurators(serviceKey string) []Configurator {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Configurator(nil), serviceConfigs[serviceKey]...)
}
