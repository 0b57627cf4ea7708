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

package config_center

import (
	"sync"

	"github.com/dubbogo/gost/log/logger"
	"github.com/go-playground/validator/v10"
)

// EventType is the kind of change a configuration source reports.
type EventType int

const (
	EventAdded EventType = iota
	EventModified
	EventDeleted
)

// Event is one configuration-source change notification.
type Event struct {
	Key     string
	Type    EventType
	Content []byte
}

var validate = validator.New()

// ConfigurationListener binds one rule key to a backing configuration
// source's change stream: ADDED/MODIFIED replace the bound Configurator
// set, DELETED clears it, and a parse failure leaves the previously-bound
// set untouched (spec.md §7's fail-open monotonic-safety rule: a broken
// override document must never silently revert to "no override" by
// accident, only by an explicit DELETED event).
type ConfigurationListener struct {
	mu       sync.Mutex
	bindings map[string][]Configurator // rule key -> parsed configurators

	onChange func()
}

// NewConfigurationListener builds a listener; onChange, if non-nil, fires
// after every successfully-applied event (ADDED/MODIFIED/DELETED), for a
// caller (e.g. the Registry Protocol) that wants to re-fold overrides
// immediately rather than poll.
func NewConfigurationListener(onChange func()) *ConfigurationListener {
	return &ConfigurationListener{bindings: make(map[string][]Configurator), onChange: onChange}
}

// Process applies one Event.
func (l *ConfigurationListener) Process(ev Event) {
	switch ev.Type {
	case EventDeleted:
		l.mu.Lock()
		delete(l.bindings, ev.Key)
		l.mu.Unlock()
		l.notifyOverrides()
		return
	case EventAdded, EventModified:
		configurators, err := parseRuleDocument(ev.Content)
		if err != nil {
			logger.Warnf("config_center: rule %s failed to parse, keeping previous bindings: %v", ev.Key, err)
			return
		}
		l.mu.Lock()
		l.bindings[ev.Key] = configurators
		l.mu.Unlock()
		l.notifyOverrides()
	}
}

// parseRuleDocument parses and struct-validates one override document,
// via go-playground/validator/v10 on top of the mapstructure bind
// ParseOverrideRule performs.
func parseRuleDocument(content []byte) ([]Configurator, error) {
	c, err := ParseOverrideRule(content)
	if err != nil {
		return nil, err
	}
	rc, ok := c.(*ruleConfigurator)
	if ok {
		if err := validate.Struct(ruleValidation{Key: rc.rule.Key}); err != nil {
			return nil, err
		}
	}
	return []Configurator{c}, nil
}

type ruleValidation struct {
	Key string `validate:"required"`
}

// Snapshot returns every currently-bound Configurator across all rule
// keys, application- and service-scoped alike, in no particular order;
// the result is not partitioned by scope.
func (l *ConfigurationListener) Snapshot() []Configurator {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Configurator
	for _, cs := range l.bindings {
		out = append(out, cs...)
	}
	return out
}

func (l *ConfigurationListener) notifyOverrides() {
	if l.onChange != nil {
		l.onChange()
	}
}
