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

// Package router is the routing half of spec.md §4.5: each Router narrows
// a candidate Invoker list for one request, and Chain applies the
// configured set in sequence.
package router

import (
	"github.com/RoaringBitmap/roaring"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/extension"
	"go.corerpc.dev/corerpc/protocol"
)

// Router narrows invokers to the subset eligible for invocation against
// url (the consumer's reference URL).
type Router interface {
	Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker
	// Priority orders routers within a Chain; lower runs first.
	Priority() int64
}

const TypeName = "Router"

var loader = extension.LoaderFor[Router](TypeName)

func SetRouter(name string, ctor func() Router) { loader.Register(name, ctor) }
func GetRouter(name string) (Router, error)     { return loader.Get(name) }

// Chain runs a fixed, ordered set of Routers. After each router, the
// candidates it returned are intersected with its input through a roaring
// bitmap of input positions (intersectByIdentity), which keeps the input
// order and drops anything the router added.
type Chain struct {
	routers []Router
}

// NewChain builds a Chain over routers, sorted by ascending Priority.
func NewChain(routers []Router) *Chain {
	sorted := append([]Router(nil), routers...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() < sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &Chain{routers: sorted}
}

// Route applies every router in priority order; each router sees the
// previous router's survivors, and its result is intersected with them
// and materialized into a new slice before the next router runs.
func (c *Chain) Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker {
	if len(c.routers) == 0 || len(invokers) == 0 {
		return invokers
	}

	survivors := invokers
	for _, r := range c.routers {
		if len(survivors) == 0 {
			break
		}
		routed := r.Route(survivors, url, invocation)
		survivors = intersectByIdentity(survivors, routed)
	}
	return survivors
}

// intersectByIdentity keeps elements of base that also appear in routed,
// preserving base's order, via a roaring bitmap over routed's positions
// within base.
func intersectByIdentity(base, routed []protocol.Invoker) []protocol.Invoker {
	routedSet := make(map[protocol.Invoker]struct{}, len(routed))
	for _, inv := range routed {
		routedSet[inv] = struct{}{}
	}

	bm := roaring.New()
	for i, inv := range base {
		if _, ok := routedSet[inv]; ok {
			bm.Add(uint32(i))
		}
	}

	out := make([]protocol.Invoker, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, base[it.Next()])
	}
	return out
}
