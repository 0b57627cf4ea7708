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

// Package tag is the tag Router of spec.md §4.5's minimum router set: it
// restricts candidates to providers carrying a matching "tag" parameter
// when the invocation's attachment requests one, and falls back to
// untagged providers when the requested tag has no carrier (avoids a
// canary tag with no replicas stranding all traffic).
package tag

import (
	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

const Name = "tag"

func init() {
	router.SetRouter(Name, func() router.Router { return &Router{} })
}

type Router struct{}

func (r *Router) Priority() int64 { return 100 }

func (r *Router) Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker {
	tag := invocation.Attachment("tag", "")
	if tag == "" {
		tag = url.GetParam("tag", "")
	}
	if tag == "" {
		return invokers
	}

	var tagged []protocol.Invoker
	for _, inv := range invokers {
		if inv.GetURL().GetParam("tag", "") == tag {
			tagged = append(tagged, inv)
		}
	}
	if len(tagged) > 0 {
		return tagged
	}

	var untagged []protocol.Invoker
	for _, inv := range invokers {
		if inv.GetURL().GetParam("tag", "") == "" {
			untagged = append(untagged, inv)
		}
	}
	return untagged
}
