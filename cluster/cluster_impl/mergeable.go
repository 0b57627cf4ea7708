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
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/protocol"
)

const MergeableName = "mergeable"

func init() {
	cluster.SetCluster(MergeableName, func() cluster.Cluster { return &MergeableCluster{} })
}

// MergeableCluster is selected when a reference URL's group is "*"
// (spec.md §4.6's multi-group refer): it invokes every group's directory
// independently and returns the first successful result, rather than
// picking one candidate the way FailoverCluster does.
type MergeableCluster struct{}

func (c *MergeableCluster) Join(dir directory.Directory) protocol.Invoker {
	return &mergeableInvoker{dir: dir}
}

type mergeableInvoker struct {
	dir directory.Directory
}

func (m *mergeableInvoker) GetURL() *common.URL { return m.dir.GetURL() }
func (m *mergeableInvoker) IsAvailable() bool   { return m.dir.IsAvailable() }
func (m *mergeableInvoker) Destroy()            { m.dir.Destroy() }

func (m *mergeableInvoker) Invoke(invocation common.Invocation) common.Result {
	byGroup := map[string][]protocol.Invoker{}
	for _, inv := range m.dir.List(invocation) {
		g := inv.GetURL().GetParam(constant.GroupKey, "")
		byGroup[g] = append(byGroup[g], inv)
	}

	var lastErr error
	for _, invokers := range byGroup {
		if len(invokers) == 0 {
			continue
		}
		result := invokers[0].Invoke(invocation)
		if result.Error() == nil {
			return result
		}
		lastErr = result.Error()
	}

	result := common.NewRPCResult()
	if lastErr == nil {
		lastErr = errs.New(errs.RpcFailure, "no group produced a result for "+m.GetURL().ServiceKey(), nil)
	}
	result.SetError(lastErr)
	return result
}
