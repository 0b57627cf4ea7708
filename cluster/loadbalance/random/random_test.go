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

package random_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/loadbalance/random"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

type weightedInvoker struct {
	url *common.URL
}

func (w *weightedInvoker) GetURL() *common.URL { return w.url }
func (w *weightedInvoker) IsAvailable() bool   { return true }
func (w *weightedInvoker) Destroy()            {}
func (w *weightedInvoker) Invoke(common.Invocation) common.Result {
	return common.NewRPCResult()
}

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestRandomSelectSingleCandidateShortCircuits(t *testing.T) {
	lb := &random.LoadBalance{}
	only := &weightedInvoker{url: mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")}
	chosen := lb.Select([]protocol.Invoker{only}, mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo"),
		common.NewRPCInvocation("M", nil, nil, nil))
	assert.Same(t, only, chosen)
}

func TestRandomSelectZeroWeightCandidateNeverChosenAmongPositives(t *testing.T) {
	lb := &random.LoadBalance{}
	zero := &weightedInvoker{url: mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo?weight=0")}
	heavy := &weightedInvoker{url: mustURL(t, "dubbo://127.0.0.1:20881/svc.Demo?weight=1000")}
	inv := common.NewRPCInvocation("M", nil, nil, nil)

	for i := 0; i < 50; i++ {
		chosen := lb.Select([]protocol.Invoker{zero, heavy}, mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo"), inv)
		assert.Same(t, heavy, chosen)
	}
}

func TestRandomSelectOnlyChoosesFromGivenCandidates(t *testing.T) {
	lb := &random.LoadBalance{}
	a := &weightedInvoker{url: mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")}
	b := &weightedInvoker{url: mustURL(t, "dubbo://127.0.0.1:20881/svc.Demo")}
	inv := common.NewRPCInvocation("M", nil, nil, nil)

	seen := map[protocol.Invoker]bool{}
	for i := 0; i < 50; i++ {
		chosen := lb.Select([]protocol.Invoker{a, b}, mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo"), inv)
		seen[chosen] = true
		require.True(t, chosen == protocol.Invoker(a) || chosen == protocol.Invoker(b))
	}
}
