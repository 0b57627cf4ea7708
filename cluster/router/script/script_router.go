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

// Package script is a supplemental Router (beyond spec.md §4.5's minimum
// set) that evaluates a user-supplied JavaScript predicate per candidate
// via dop251/goja, mirroring dubbo-go's script router but with an
// embedded JS engine instead of shelling out.
package script

import (
	"sync"

	"github.com/dop251/goja"

	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

const Name = "script"

func init() {
	router.SetRouter(Name, func() router.Router { return New("") })
}

// Router evaluates Script (a JS expression yielding true/false) once per
// candidate Invoker, binding "ip" and "port" globals from that
// candidate's URL plus "method" from the invocation.
type Router struct {
	Script   string
	priority int64

	mu  sync.Mutex
	vm  *goja.Runtime
}

// New builds a script Router. An empty script always routes every
// candidate through unchanged (the no-op default extension instance).
func New(script string) *Router {
	return &Router{Script: script, priority: 300}
}

func (r *Router) Priority() int64 { return r.priority }

func (r *Router) Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker {
	if r.Script == "" {
		return invokers
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vm == nil {
		r.vm = goja.New()
	}

	var out []protocol.Invoker
	for _, inv := range invokers {
		r.vm.Set("ip", inv.GetURL().Ip)
		r.vm.Set("port", inv.GetURL().Port)
		r.vm.Set("method", invocation.MethodName())

		v, err := r.vm.RunString(r.Script)
		if err != nil {
			continue // a broken script routes no candidates through it, never panics the caller
		}
		if v.ToBoolean() {
			out = append(out, inv)
		}
	}
	return out
}
