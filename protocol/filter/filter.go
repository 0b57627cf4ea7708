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

// Package filter is the cross-cutting Invoker decoration extension point:
// a Filter wraps the call the way Motan's EndPointFilter/ClusterFilter do
// (other_examples' pangxin12345-motan-go core.go), and the chain itself is
// the concrete evidence for spec.md §9's wrapper-composition testable
// property.
package filter

import (
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/extension"
)

// Filter intercepts one Invoker.Invoke call; Next is the remainder of the
// chain (either another Filter or the terminal Invoker), matching Motan's
// "filter wraps endpoint" shape rather than an aspect-style before/after
// pair.
type Filter interface {
	Invoke(next Invocable, invocation common.Invocation) common.Result
}

// Invocable is the minimal surface a Filter needs from whatever it wraps,
// satisfied by both protocol.Invoker and another filtered stage.
type Invocable interface {
	GetURL() *common.URL
	Invoke(invocation common.Invocation) common.Result
}

const TypeName = "Filter"

var loader = extension.LoaderFor[Filter](TypeName)

// SetFilter registers a named Filter constructor.
func SetFilter(name string, ctor func() Filter) { loader.Register(name, ctor) }

// GetFilter returns the named Filter.
func GetFilter(name string) (Filter, error) { return loader.Get(name) }

// RegisterActivation attaches an activation rule so GetActivated's default
// chain includes name on a matching side/group (spec.md §4.2's
// getActivated), e.g. side="provider", group="".
func RegisterActivation(name string, desc extension.ActivationDescriptor) {
	loader.RegisterActivation(name, desc)
}

// Chain builds the ordered Invocable decorator stack for url, keyed by the
// "service.filter" URL parameter (spec.md §6), innermost being terminal.
func Chain(url *common.URL, terminal Invocable) (Invocable, error) {
	filters, err := loader.GetActivated(url, "service.filter", url.GetParam("side", ""))
	if err != nil {
		return nil, err
	}
	out := terminal
	for i := len(filters) - 1; i >= 0; i-- {
		out = &filterStage{filter: filters[i], next: out}
	}
	return out, nil
}

type filterStage struct {
	filter Filter
	next   Invocable
}

func (s *filterStage) GetURL() *common.URL { return s.next.GetURL() }
func (s *filterStage) Invoke(invocation common.Invocation) common.Result {
	return s.filter.Invoke(s.next, invocation)
}
