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

// Package hystrixfilter is a filter.Filter that runs each call through an
// afex/hystrix-go circuit breaker keyed by service+method, demonstrating a
// Filter extension with real third-party resilience behavior.
package hystrixfilter

import (
	"fmt"

	"github.com/afex/hystrix-go/hystrix"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/common/extension"
	"go.corerpc.dev/corerpc/protocol/filter"
)

const Name = "hystrix"

func init() {
	filter.SetFilter(Name, New)
	filter.RegisterActivation(Name, extension.ActivationDescriptor{Group: []string{"consumer"}, Order: 10})
}

// Filter runs the wrapped call inside a hystrix command named after the
// service key and method.
type Filter struct{}

func New() filter.Filter { return &Filter{} }

func (f *Filter) Invoke(next filter.Invocable, invocation common.Invocation) common.Result {
	result := common.NewRPCResult()
	commandName := fmt.Sprintf("%s#%s", next.GetURL().ServiceKey(), invocation.MethodName())

	err := hystrix.Do(commandName, func() error {
		r := next.Invoke(invocation)
		if r.Error() != nil {
			return r.Error()
		}
		result.SetValue(r.Value())
		for k, v := range r.Attachments() {
			result.Attachments()[k] = v
		}
		return nil
	}, nil)

	if err != nil {
		result.SetError(errs.NewRPC(errs.ServerSide, "hystrix: "+commandName, err))
	}
	return result
}
