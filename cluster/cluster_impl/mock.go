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

package cluster_impl

import (
	"go.corerpc.dev/corerpc/cluster"
	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/protocol"
)

func init() {
	cluster.RegisterClusterWrapper(func(c cluster.Cluster) cluster.Cluster { return &mockWrapper{inner: c} })
}

// mockWrapper is the Cluster extension point's own wrapper (spec.md
// §4.2's wrapper composition mode applied to the Cluster capability,
// mirroring the Filter chain's use of the same mechanism on Protocol):
// when the reference URL's "mock" parameter is "force", every call
// short-circuits to a nil, no-error result instead of reaching the
// underlying cluster invoker at all.
type mockWrapper struct {
	inner cluster.Cluster
}

func (w *mockWrapper) Join(dir directory.Directory) protocol.Invoker {
	inner := w.inner.Join(dir)
	if dir.GetURL().GetParam(constant.MockKey, "") != "force" {
		return inner
	}
	return &mockInvoker{Invoker: inner}
}

type mockInvoker struct {
	protocol.Invoker
}

func (m *mockInvoker) Invoke(common.Invocation) common.Result {
	return common.NewRPCResult()
}
