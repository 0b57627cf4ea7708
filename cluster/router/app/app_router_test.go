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

package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/router/app"
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

func TestAppRouterNoScopeRequestedPassesEverythingThrough(t *testing.T) {
	r := &app.Router{}
	inv1 := &stubInvoker{url: mustURL(t, "dubbo://127.0.0.1:1/svc.Demo?application=billing")}
	inv2 := &stubInvoker{url: mustURL(t, "dubbo://127.0.0.1:2/svc.Demo?application=orders")}

	out := r.Route([]protocol.Invoker{inv1, inv2}, mustURL(t, "dubbo://consumer/svc.Demo"),
		common.NewRPCInvocation("M", nil, nil, nil))
	assert.Len(t, out, 2)
}

func TestAppRouterRestrictsToMatchingApplication(t *testing.T) {
	r := &app.Router{}
	billing := &stubInvoker{url: mustURL(t, "dubbo://127.0.0.1:1/svc.Demo?application=billing")}
	orders := &stubInvoker{url: mustURL(t, "dubbo://127.0.0.1:2/svc.Demo?application=orders")}

	out := r.Route([]protocol.Invoker{billing, orders}, mustURL(t, "dubbo://consumer/svc.Demo?application=billing"),
		common.NewRPCInvocation("M", nil, nil, nil))
	require.Len(t, out, 1)
	assert.Same(t, billing, out[0])
}
