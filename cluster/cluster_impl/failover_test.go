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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/directory/static"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/protocol"

	_ "go.corerpc.dev/corerpc/cluster/loadbalance/random"
)

type scriptedInvoker struct {
	url     *common.URL
	results []common.Result
	calls   int
}

func (s *scriptedInvoker) GetURL() *common.URL { return s.url }
func (s *scriptedInvoker) IsAvailable() bool   { return true }
func (s *scriptedInvoker) Destroy()            {}
func (s *scriptedInvoker) Invoke(common.Invocation) common.Result {
	r := s.results[s.calls]
	s.calls++
	return r
}

func mustURL(t *testing.T, raw string) *common.URL {
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestFailoverRetriesOnRetryableFailure(t *testing.T) {
	refURL := mustURL(t, "dubbo://0.0.0.0/svc.Demo?retries=2&loadbalance=random")

	failing := &scriptedInvoker{
		url: mustURL(t, "dubbo://10.0.0.1:20880/svc.Demo"),
		results: []common.Result{
			resultWithError(errs.NewRPC(errs.Timeout, "timed out", nil)),
		},
	}
	succeeding := &scriptedInvoker{
		url:     mustURL(t, "dubbo://10.0.0.2:20880/svc.Demo"),
		results: []common.Result{common.NewRPCResult()},
	}

	dir := static.New(refURL, []protocol.Invoker{failing, succeeding}, nil)
	invoker := (&FailoverCluster{}).Join(dir)

	result := invoker.Invoke(common.NewRPCInvocation("Echo", nil, nil, nil))
	assert.NoError(t, result.Error())
}

func TestFailoverDoesNotRetryNonRetryableFailure(t *testing.T) {
	refURL := mustURL(t, "dubbo://0.0.0.0/svc.Demo?retries=2")

	failing := &scriptedInvoker{
		url:     mustURL(t, "dubbo://10.0.0.1:20880/svc.Demo"),
		results: []common.Result{resultWithError(errs.NewRPC(errs.Forbidden, "denied", nil))},
	}

	dir := static.New(refURL, []protocol.Invoker{failing}, nil)
	invoker := (&FailoverCluster{}).Join(dir)

	result := invoker.Invoke(common.NewRPCInvocation("Echo", nil, nil, nil))
	assert.Error(t, result.Error())
	assert.Equal(t, 1, failing.calls, "a non-retryable failure must not be retried")
}

func resultWithError(err error) common.Result {
	r := common.NewRPCResult()
	r.SetError(err)
	return r
}
