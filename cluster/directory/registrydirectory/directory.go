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

// Package registrydirectory is the registry-backed Directory of spec.md
// §4.5/§4.6: it subscribes to a registry's category-partitioned notify
// stream and maintains the live Invoker set, configurator overrides, and
// router chain for one consumer reference.
package registrydirectory

import (
	"sync"

	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/protocol"
	"go.corerpc.dev/corerpc/registry"
)

func protocolAdaptive() (protocol.Protocol, error) { return protocol.GetAdaptive() }

// Directory maintains one consumer reference's live candidate set, fed by
// registry.NotifyListener.Notify calls partitioned by category (spec.md
// §4.6: providers replace the invoker set, configurators refold the merge
// on top of each; routers notifications are ignored and the chain given
// to New is kept).
type Directory struct {
	*directory.Base

	reg registry.Registry

	mu            sync.Mutex
	providerURLs  []*common.URL
	configurators []*common.URL
	chain         *router.Chain
	invokerCache  map[string]protocol.Invoker // provider url.Key() -> invoker, reused across notifies
}

// New builds a registry-backed Directory for refURL, notified via reg.
// chain is the router chain applied to every candidate refresh; "routers"
// category notifications do not replace it (nil is a valid, empty chain).
func New(refURL *common.URL, reg registry.Registry, chain *router.Chain) *Directory {
	return &Directory{
		Base:         directory.NewBase(refURL),
		reg:          reg,
		chain:        chain,
		invokerCache: make(map[string]protocol.Invoker),
	}
}

// Notify implements registry.NotifyListener: urls is the complete,
// category-homogeneous replacement set for whichever category changed.
func (d *Directory) Notify(urls []*common.URL) {
	if len(urls) == 0 {
		return
	}
	category := urls[0].GetParam(constant.CategoryKey, constant.CategoryProviders)

	d.mu.Lock()
	switch category {
	case constant.CategoryConfigurators:
		d.configurators = urls
	case constant.CategoryRouters:
		// A full router-chain rebuild from URL-described rules is outside
		// spec.md's minimum router set; this directory keeps its
		// statically-assigned chain and ignores the notification.
	default:
		d.providerURLs = urls
	}
	providerURLs := append([]*common.URL(nil), d.providerURLs...)
	configurators := append([]*common.URL(nil), d.configurators...)
	d.mu.Unlock()

	d.refresh(providerURLs, configurators)
}

// refresh rebuilds the candidate Invoker list idempotently: calling it
// twice with the same inputs produces the same set without creating
// duplicate Invokers, reusing cached ones by provider URL key (spec.md
// §8's directory-refresh-idempotence property).
func (d *Directory) refresh(providerURLs, configurators []*common.URL) {
	adaptiveProtocol, err := protocolAdaptive()
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := make(map[string]protocol.Invoker, len(providerURLs))
	result := make([]protocol.Invoker, 0, len(providerURLs))
	for _, providerURL := range providerURLs {
		merged := providerURL
		for _, c := range configurators {
			merged = applyOverride(merged, c)
		}
		key := merged.Key()

		if inv, ok := d.invokerCache[key]; ok {
			next[key] = inv
			result = append(result, inv)
			continue
		}

		referURL := merged.Clone()
		inv := adaptiveProtocol.Refer(referURL)
		next[key] = inv
		result = append(result, inv)
	}

	for key, inv := range d.invokerCache {
		if _, stillPresent := next[key]; !stillPresent {
			inv.Destroy()
		}
	}
	d.invokerCache = next

	d.SetInvokers(result)
}

func applyOverride(base, override *common.URL) *common.URL {
	clone := base.Clone()
	override.RangeParams(func(k, v string) bool {
		switch k {
		case constant.CategoryKey, constant.DynamicKey, constant.EnabledKey:
			return true
		}
		clone.SetParam(k, v)
		return true
	})
	return clone
}

// List applies the router chain on top of the current candidate set.
func (d *Directory) List(invocation common.Invocation) []protocol.Invoker {
	candidates := d.Invokers()
	d.mu.Lock()
	chain := d.chain
	d.mu.Unlock()
	if chain == nil {
		return candidates
	}
	return chain.Route(candidates, d.GetURL(), invocation)
}
