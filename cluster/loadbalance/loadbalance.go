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

// Package loadbalance is the LoadBalance extension point of spec.md
// §4.5: it picks one Invoker from a routed candidate list.
package loadbalance

import (
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/extension"
	"go.corerpc.dev/corerpc/protocol"
)

// LoadBalance selects one Invoker out of invokers for invocation.
// invokers is never empty; callers that might produce an empty candidate
// set must check before calling Select.
type LoadBalance interface {
	Select(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) protocol.Invoker
}

const TypeName = "LoadBalance"

var loader = extension.LoaderFor[LoadBalance](TypeName)

func init() {
	loader.SetDefault(DefaultName)
}

const DefaultName = "random"

func SetLoadBalance(name string, ctor func() LoadBalance) { loader.Register(name, ctor) }
func GetLoadBalance(name string) (LoadBalance, error)     { return loader.Get(name) }
