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

// Package random is the weight-aware random LoadBalance: each candidate's
// "weight" URL parameter (default 100) scales its selection probability,
// matching dubbo-go's random load balancer.
package random

import (
	"math/rand"

	"go.corerpc.dev/corerpc/cluster/loadbalance"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/protocol"
)

func init() {
	loadbalance.SetLoadBalance(loadbalance.DefaultName, func() loadbalance.LoadBalance { return &LoadBalance{} })
}

type LoadBalance struct{}

func (l *LoadBalance) Select(invokers []protocol.Invoker, url *common.URL, invocation common.Invocation) protocol.Invoker {
	if len(invokers) == 1 {
		return invokers[0]
	}

	weights := make([]int64, len(invokers))
	var total int64
	sameWeight := true
	for i, inv := range invokers {
		w := inv.GetURL().GetMethodParamInt64(invocation.MethodName(), constant.WeightKey, 100)
		weights[i] = w
		total += w
		if i > 0 && w != weights[0] {
			sameWeight = false
		}
	}

	if sameWeight || total <= 0 {
		return invokers[rand.Intn(len(invokers))]
	}

	pick := rand.Int63n(total)
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return invokers[i]
		}
	}
	return invokers[len(invokers)-1]
}
