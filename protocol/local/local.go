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

// Package local is the in-process Protocol extension: Refer returns the
// exact Invoker Export was given for the same service key, with no wire
// encoding at all. spec.md's Non-goals exclude concrete byte-level wire
// framing; this is the protocol that needs none, analogous to dubbo-go's
// injvm protocol, and is what the module's own tests export/refer
// through end to end.
package local

import (
	"sync"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
	"go.corerpc.dev/corerpc/protocol/base"
)

const Name = "local"

func init() {
	protocol.SetProtocol(Name, New)
}

type Protocol struct {
	mu        sync.Mutex
	exported  map[string]protocol.Invoker // ServiceKey -> invoker
}

func New() protocol.Protocol {
	return &Protocol{exported: make(map[string]protocol.Invoker)}
}

func (p *Protocol) Export(invoker protocol.Invoker) protocol.Exporter {
	key := invoker.GetURL().ServiceKey()
	p.mu.Lock()
	p.exported[key] = invoker
	p.mu.Unlock()

	return base.NewExporter(invoker, key, func(k string) {
		p.mu.Lock()
		delete(p.exported, k)
		p.mu.Unlock()
	})
}

func (p *Protocol) Refer(url *common.URL) protocol.Invoker {
	key := url.ServiceKey()
	p.mu.Lock()
	invoker, ok := p.exported[key]
	p.mu.Unlock()
	if !ok {
		return &unavailableInvoker{url: url}
	}
	return invoker
}

func (p *Protocol) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inv := range p.exported {
		inv.Destroy()
	}
	p.exported = make(map[string]protocol.Invoker)
}

type unavailableInvoker struct {
	url *common.URL
}

func (u *unavailableInvoker) GetURL() *common.URL { return u.url }
func (u *unavailableInvoker) IsAvailable() bool   { return false }
func (u *unavailableInvoker) Destroy()            {}
func (u *unavailableInvoker) Invoke(common.Invocation) common.Result {
	r := common.NewRPCResult()
	r.SetError(nil)
	return r
}
