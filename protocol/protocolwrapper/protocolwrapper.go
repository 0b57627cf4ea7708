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

// Package protocolwrapper registers the Protocol extension point's own
// wrapper: a decorator that splices the filter.Chain into every Export and
// Refer call, the way dubbo-go's ProtocolFilterWrapper sits over every
// concrete protocol. Wrapper application order is unspecified (spec.md
// §9); this wrapper is written to be order-independent, since it only
// adds a filter.Chain stage around the inner Protocol's own invokers
// rather than mutating the URL or invocation the next wrapper would see.
package protocolwrapper

import (
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
	"go.corerpc.dev/corerpc/protocol/filter"
)

func init() {
	protocol.RegisterProtocolWrapper(func(p protocol.Protocol) protocol.Protocol {
		return &filterWrapper{inner: p}
	})
}

type filterWrapper struct {
	inner protocol.Protocol
}

func (w *filterWrapper) Export(invoker protocol.Invoker) protocol.Exporter {
	chained, err := filter.Chain(invoker.GetURL(), invoker)
	if err != nil {
		return w.inner.Export(invoker)
	}
	return w.inner.Export(&chainedInvoker{Invoker: invoker, chain: chained})
}

func (w *filterWrapper) Refer(url *common.URL) protocol.Invoker {
	inner := w.inner.Refer(url)
	chained, err := filter.Chain(url, inner)
	if err != nil {
		return inner
	}
	return &chainedInvoker{Invoker: inner, chain: chained}
}

func (w *filterWrapper) Destroy() { w.inner.Destroy() }

// chainedInvoker keeps the original Invoker's lifecycle methods but routes
// Invoke through the filter chain built over it.
type chainedInvoker struct {
	protocol.Invoker
	chain filter.Invocable
}

func (c *chainedInvoker) Invoke(invocation common.Invocation) common.Result {
	return c.chain.Invoke(invocation)
}
