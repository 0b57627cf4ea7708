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

// Package service is the service-identity Router of spec.md §4.5's
// minimum router set: it drops any candidate whose ServiceKey doesn't
// match the reference URL's, the baseline safety net beneath
// category-partitioned notify (a directory should never hold a foreign
// service's invokers, but this guards against a misbehaving registry).
package service

import (
	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

const Name = "service"

func init() {
	router.SetRouter(Name, func() router.Router { return &Router{} })
}

type Router struct{}

func (r *Router) Priority() int64 { return 0 }

func (r *Router) Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker {
	want := url.ServiceKey()
	out := make([]protocol.Invoker, 0, len(invokers))
	for _, inv := range invokers {
		if inv.GetURL().ServiceKey() == want {
			out = append(out, inv)
		}
	}
	return out
}
