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

// Package directory is the dynamic replica set of spec.md §4.5: a
// Directory tracks the live Invoker list for one referenced service and
// refreshes it as the set changes.
package directory

import (
	"sync"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

// Directory is the dynamic set of Invokers a Cluster policy selects from.
type Directory interface {
	common.Destroyable
	GetURL() *common.URL
	// List returns the currently-routed Invoker candidates for invocation.
	List(invocation common.Invocation) []protocol.Invoker
}

// Base implements the concurrency-safe invoker list storage every
// Directory shares; concrete directories (static, registry-backed) embed
// it and supply their own refresh trigger.
type Base struct {
	url *common.URL

	mu        sync.RWMutex
	invokers  []protocol.Invoker
	destroyed bool
}

func NewBase(url *common.URL) *Base {
	return &Base{url: url}
}

func (b *Base) GetURL() *common.URL { return b.url }

func (b *Base) IsAvailable() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return false
	}
	for _, inv := range b.invokers {
		if inv.IsAvailable() {
			return true
		}
	}
	return false
}

// SetInvokers atomically replaces the candidate list; refresh is
// idempotent by construction since it always installs the full new set
// rather than diffing (spec.md §8's directory-refresh-idempotence
// property).
func (b *Base) SetInvokers(invokers []protocol.Invoker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invokers = invokers
}

// Invokers returns the current candidate list, unfiltered; embedders'
// List applies routing on top of this.
func (b *Base) Invokers() []protocol.Invoker {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]protocol.Invoker, len(b.invokers))
	copy(out, b.invokers)
	return out
}

func (b *Base) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	for _, inv := range b.invokers {
		inv.Destroy()
	}
	b.invokers = nil
}
