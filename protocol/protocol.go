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

// Package protocol holds the Invoker/Exporter contracts of spec.md §4.4
// and the Protocol extension point (export/refer/destroy) that
// spec.md §4.6's Registry Protocol composes over.
package protocol

import (
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/extension"
)

// Invoker is the unified calling contract spec.md §4.4 gives both
// provider-side and consumer-side invocation.
type Invoker interface {
	common.Destroyable
	GetURL() *common.URL
	Invoke(invocation common.Invocation) common.Result
}

// Exporter is what exporting a provider-side Invoker returns; destroying
// it must unexport (spec.md §4.4/§4.6).
type Exporter interface {
	GetInvoker() Invoker
	Unexport()
}

// Protocol is the extension point export()/refer() operate against
// (spec.md §4.4, §4.6): one per wire protocol name ("dubbo", "tri", a
// registry-wrapping pseudo-protocol, ...).
type Protocol interface {
	// Export publishes invoker under invoker.GetURL() and returns a
	// handle whose Unexport reverses it.
	Export(invoker Invoker) Exporter
	// Refer builds a consumer-side Invoker for url.
	Refer(url *common.URL) Invoker
	// Destroy tears down every Exporter/Invoker this Protocol produced.
	Destroy()
}

const TypeName = "Protocol"

var loader = extension.LoaderFor[Protocol](TypeName)

func init() {
	extension.RegisterAdaptiveLookup(TypeName, func() any {
		a, err := GetAdaptive()
		if err != nil {
			return nil
		}
		return a
	})
}

// SetProtocol registers a named Protocol constructor.
func SetProtocol(name string, ctor func() Protocol) { loader.Register(name, ctor) }

// SetDefaultProtocol declares the extension point's default name.
func SetDefaultProtocol(name string) { loader.SetDefault(name) }

// RegisterProtocolWrapper registers a Protocol decorator, applied around
// every named Protocol instance at construction time (spec.md §4.2's
// wrapper composition mode). The adaptive instance itself is not wrapped;
// it forwards to the wrapped named instances.
func RegisterProtocolWrapper(w func(Protocol) Protocol) { loader.RegisterWrapper(w) }

// GetProtocol returns the named (or default, for "" / "true") Protocol.
func GetProtocol(name string) (Protocol, error) { return loader.Get(name) }

// GetAdaptive returns the Protocol adaptive instance: spec.md §4.2's
// dispatch-by-URL, keyed here by the url.Protocol field (the "protocol"
// declared parameter name for this capability).
func GetAdaptive() (Protocol, error) { return loader.GetAdaptive() }

func init() {
	loader.SetAdaptiveCtor(func() Protocol { return adaptiveProtocol{} })
}

// adaptiveProtocol is the hand-written dispatch table spec.md §9's
// redesign note calls for in place of class synthesis: each method reads
// the extension name off the call's URL and forwards to that named
// Protocol.
type adaptiveProtocol struct{}

func (adaptiveProtocol) Export(invoker Invoker) Exporter {
	name := resolveName(invoker.GetURL())
	p, err := loader.Get(name)
	if err != nil {
		return errExporter{invoker: invoker, err: err}
	}
	return p.Export(invoker)
}

func (adaptiveProtocol) Refer(url *common.URL) Invoker {
	name := resolveName(url)
	p, err := loader.Get(name)
	if err != nil {
		return errInvoker{url: url, err: err}
	}
	return p.Refer(url)
}

func (adaptiveProtocol) Destroy() {
	// The adaptive instance never accumulates per-protocol state itself;
	// each resolved Protocol destroys its own exporters/invokers.
}

func resolveName(url *common.URL) string {
	if url == nil || url.Protocol == "" {
		return "true"
	}
	return url.Protocol
}

// errExporter/errInvoker let Export/Refer report an unresolvable protocol
// name without panicking the caller; the error surfaces on first use.
type errExporter struct {
	invoker Invoker
	err     error
}

func (e errExporter) GetInvoker() Invoker { return errInvoker{url: e.invoker.GetURL(), err: e.err} }
func (e errExporter) Unexport()           {}

type errInvoker struct {
	url *common.URL
	err error
}

func (e errInvoker) GetURL() *common.URL { return e.url }
func (e errInvoker) IsAvailable() bool   { return false }
func (e errInvoker) Destroy()            {}
func (e errInvoker) Invoke(invocation common.Invocation) common.Result {
	r := common.NewRPCResult()
	r.SetError(e.err)
	return r
}
