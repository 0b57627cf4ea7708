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

// Package base gives every protocol.Invoker/protocol.Exporter the shared
// liveness and idempotent-teardown scaffolding of spec.md §4.4, grounded
// on Motan's Destroyable/FilterEndPoint base (other_examples'
// pangxin12345-motan-go core.go) and dubbo-go's BaseInvoker.
package base

import (
	"time"

	"go.uber.org/atomic"

	"go.corerpc.dev/corerpc/common"
)

// Invoker is the embeddable base for concrete protocol.Invoker
// implementations: it owns the URL and the available/destroyed flags so
// each protocol only has to implement Invoke.
type Invoker struct {
	url       *common.URL
	available atomic.Bool
}

// NewInvoker builds a live Invoker over url.
func NewInvoker(url *common.URL) *Invoker {
	i := &Invoker{url: url}
	i.available.Store(true)
	return i
}

func (i *Invoker) GetURL() *common.URL { return i.url }
func (i *Invoker) IsAvailable() bool   { return i.available.Load() }
func (i *Invoker) Destroy()            { i.available.Store(false) }

// Exporter is the embeddable base for protocol.Exporter: it performs the
// ordered, idempotent unexport sequence of spec.md §4.4 (remove from the
// owning bound-services cache, then run caller-supplied teardown steps)
// exactly once regardless of how many times Unexport is called.
type Exporter struct {
	invoker    ExporterInvoker
	key        string
	unbind     func(key string)
	teardown   []func()
	unexported atomic.Bool
}

// ExporterInvoker is the subset of protocol.Invoker Exporter needs,
// spelled out locally to avoid an import cycle with package protocol.
type ExporterInvoker interface {
	common.Destroyable
	GetURL() *common.URL
	Invoke(invocation common.Invocation) common.Result
}

// NewExporter builds an Exporter for invoker. unbind removes the exported
// service from whatever keyed cache registered it (e.g. the Registry
// Protocol's bounds map); it runs first so a concurrent lookup can never
// observe a half-torn-down entry.
func NewExporter(invoker ExporterInvoker, key string, unbind func(key string)) *Exporter {
	return &Exporter{invoker: invoker, key: key, unbind: unbind}
}

func (e *Exporter) GetInvoker() ExporterInvoker { return e.invoker }

// OnUnexport registers an additional teardown step (unregister, unsubscribe,
// ...), run in registration order after unbind and before the invoker's
// own Destroy.
func (e *Exporter) OnUnexport(step func()) { e.teardown = append(e.teardown, step) }

// Unexport runs unbind, then every registered teardown step, then destroys
// the invoker; safe to call more than once and concurrently: only the
// first call runs the teardown, and every later call returns at once,
// without waiting for that teardown to complete.
func (e *Exporter) Unexport() {
	if !e.unexported.CompareAndSwap(false, true) {
		return
	}
	if e.unbind != nil {
		e.unbind(e.key)
	}
	for _, step := range e.teardown {
		step()
	}
	e.invoker.Destroy()
}

// DelayedUnexport schedules Unexport to run after grace once pending
// in-flight calls have had a chance to drain, matching spec.md §4.6's
// reexport-on-override grace period before destroying the superseded
// exporter.
func (e *Exporter) DelayedUnexport(grace time.Duration) {
	if grace <= 0 {
		e.Unexport()
		return
	}
	time.AfterFunc(grace, e.Unexport)
}
