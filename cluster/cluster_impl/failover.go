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

// Package cluster_impl holds the concrete Cluster policies: failover (the
// required minimum policy of spec.md §4.5) and mergeable (multi-group
// aggregation for the "group=*" refer case).
package cluster_impl

import (
	"go.corerpc.dev/corerpc/cluster"
	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/cluster/loadbalance"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/protocol"
)

const FailoverName = "failover"

func init() {
	cluster.SetCluster(FailoverName, func() cluster.Cluster { return &FailoverCluster{} })
}

// FailoverCluster retries on another candidate when the prior attempt
// failed with a retryable RpcFailure (timeout or network, per spec.md
// §7's propagation policy), up to the URL's "retries" count.
type FailoverCluster struct{}

func (c *FailoverCluster) Join(dir directory.Directory) protocol.Invoker {
	return &failoverInvoker{dir: dir}
}

type failoverInvoker struct {
	dir directory.Directory
}

func (f *failoverInvoker) GetURL() *common.URL { return f.dir.GetURL() }
func (f *failoverInvoker) IsAvailable() bool   { return f.dir.IsAvailable() }
func (f *failoverInvoker) Destroy()            { f.dir.Destroy() }

func (f *failoverInvoker) Invoke(invocation common.Invocation) common.Result {
	url := f.dir.GetURL()
	retries := int(url.GetParamInt(constant.RetriesKey, 2))
	lbName := url.GetParam(constant.LoadbalanceKey, loadbalance.DefaultName)
	lb, err := loadbalance.GetLoadBalance(lbName)
	if err != nil {
		lb, _ = loadbalance.GetLoadBalance(loadbalance.DefaultName)
	}

	candidates := f.dir.List(invocation)
	if len(candidates) == 0 {
		result := common.NewRPCResult()
		result.SetError(errs.New(errs.RpcFailure, "no available invokers for "+url.ServiceKey(), nil))
		return result
	}

	var lastResult common.Result
	tried := make(map[protocol.Invoker]bool, retries+1)
	for attempt := 0; attempt <= retries; attempt++ {
		remaining := make([]protocol.Invoker, 0, len(candidates))
		for _, inv := range candidates {
			if !tried[inv] && inv.IsAvailable() {
				remaining = append(remaining, inv)
			}
		}
		if len(remaining) == 0 {
			break
		}

		chosen := lb.Select(remaining, url, invocation)
		tried[chosen] = true

		lastResult = chosen.Invoke(invocation)
		if lastResult.Error() == nil || !errs.IsRetryable(lastResult.Error()) {
			return lastResult
		}
	}
	if lastResult == nil {
		result := common.NewRPCResult()
		result.SetError(errs.New(errs.RpcFailure, "no available invokers for "+url.ServiceKey(), nil))
		return result
	}
	return lastResult
}
