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

package static_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/directory/static"
	"go.corerpc.dev/corerpc/cluster/router"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

type stubInvoker struct{ url *common.URL }

func (s *stubInvoker) GetURL() *common.URL { return s.url }
func (s *stubInvoker) IsAvailable() bool   { return true }
func (s *stubInvoker) Destroy()            {}
func (s *stubInvoker) Invoke(common.Invocation) common.Result {
	return common.NewRPCResult()
}

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestStaticDirectoryListWithoutChainReturnsAllInvokers(t *testing.T) {
	u := mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")
	inv := &stubInvoker{url: u}
	dir := static.New(u, []protocol.Invoker{inv}, nil)

	out := dir.List(common.NewRPCInvocation("M", nil, nil, nil))
	assert.Equal(t, []protocol.Invoker{inv}, out)
}

type dropAllRouter struct{}

func (dropAllRouter) Priority() int64 { return 0 }
func (dropAllRouter) Route(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) []protocol.Invoker {
	return nil
}

func TestStaticDirectoryListAppliesRouterChain(t *testing.T) {
	u := mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")
	inv := &stubInvoker{url: u}
	chain := router.NewChain([]router.Router{dropAllRouter{}})
	dir := static.New(u, []protocol.Invoker{inv}, chain)

	out := dir.List(common.NewRPCInvocation("M", nil, nil, nil))
	assert.Len(t, out, 0)
}
