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

// Package static is the Directory for a fixed, registry-free invoker set,
// used for direct point-to-point references (the teacher's
// config.ReferenceConfig "url" / direct-connect path, reference_config.go).
package static

import (
	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

// Directory wraps a fixed Invoker list with the same router-chain
// processing a registry-backed directory applies, so direct references
// get tag/app/service routing too.
type Directory struct {
	*directory.Base
	chain *router.Chain
}

// New builds a static Directory over a fixed invoker set.
func New(url *common.URL, invokers []protocol.Invoker, chain *router.Chain) *Directory {
	base := directory.NewBase(url)
	base.SetInvokers(invokers)
	return &Directory{Base: base, chain: chain}
}

func (d *Directory) List(invocation common.Invocation) []protocol.Invoker {
	candidates := d.Invokers()
	if d.chain == nil {
		return candidates
	}
	return d.chain.Route(candidates, d.GetURL(), invocation)
}
