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

// Package sentinelfilter is a filter.Filter that gates each call through
// an alibaba/sentinel-golang resource entry, keyed by service+method. It
// and hystrixfilter are deliberately parallel Filter extensions: both
// decorate the same Invocable shape, which is the concrete setup for the
// wrapper-composition commutativity property of spec.md §9.
package sentinelfilter

import (
	"fmt"

	"github.com/alibaba/sentinel-golang/core/base"
	sentinel "github.com/alibaba/sentinel-golang/api"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/common/extension"
	"go.corerpc.dev/corerpc/protocol/filter"
)

const Name = "sentinel"

func init() {
	filter.SetFilter(Name, New)
	filter.RegisterActivation(Name, extension.ActivationDescriptor{Group: []string{"provider"}, Order: 10})
}

// Filter wraps the call in a sentinel resource entry; a rejected entry
// (flow control, circuit breaking, system load shedding) surfaces as a
// Forbidden RpcFailure instead of the call running.
type Filter struct{}

func New() filter.Filter { return &Filter{} }

func (f *Filter) Invoke(next filter.Invocable, invocation common.Invocation) common.Result {
	result := common.NewRPCResult()
	resourceName := fmt.Sprintf("%s#%s", next.GetURL().ServiceKey(), invocation.MethodName())

	entry, blockErr := sentinel.Entry(resourceName, sentinel.WithTrafficType(base.Inbound))
	if blockErr != nil {
		result.SetError(errs.NewRPC(errs.Forbidden, "sentinel blocked "+resourceName, blockErr))
		return result
	}
	defer entry.Exit()

	r := next.Invoke(invocation)
	if r.Error() != nil {
		sentinel.TraceError(entry, r.Error())
	}
	return r
}
