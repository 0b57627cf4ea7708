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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/common"
)

type fakeInvoker struct {
	url *common.URL
}

func (f *fakeInvoker) GetURL() *common.URL                         { return f.url }
func (f *fakeInvoker) IsAvailable() bool                           { return true }
func (f *fakeInvoker) Destroy()                                    {}
func (f *fakeInvoker) Invoke(common.Invocation) common.Result      { return common.NewRPCResult() }

type fakeExporter struct{ invoker Invoker }

func (f *fakeExporter) GetInvoker() Invoker { return f.invoker }
func (f *fakeExporter) Unexport()           {}

type fakeProtocol struct{ exported []Invoker }

func (p *fakeProtocol) Export(invoker Invoker) Exporter {
	p.exported = append(p.exported, invoker)
	return &fakeExporter{invoker: invoker}
}
func (p *fakeProtocol) Refer(url *common.URL) Invoker { return &fakeInvoker{url: url} }
func (p *fakeProtocol) Destroy()                      {}

func TestAdaptiveProtocolDispatchesByURLScheme(t *testing.T) {
	fp := &fakeProtocol{}
	SetProtocol("faketest", func() Protocol { return fp })

	adaptive, err := GetAdaptive()
	require.NoError(t, err)

	u, err := common.NewURL("faketest://127.0.0.1:20880/svc.Demo")
	require.NoError(t, err)

	invoker := adaptive.Refer(u)
	assert.True(t, invoker.IsAvailable())

	exporter := adaptive.Export(&fakeInvoker{url: u})
	require.NotNil(t, exporter)
	assert.Len(t, fp.exported, 1)
}

func TestAdaptiveProtocolUnresolvedNameFailsOnInvoke(t *testing.T) {
	adaptive, err := GetAdaptive()
	require.NoError(t, err)

	u, err := common.NewURL("doesnotexist://127.0.0.1:20880/svc.Demo")
	require.NoError(t, err)

	invoker := adaptive.Refer(u)
	result := invoker.Invoke(common.NewRPCInvocation("Foo", nil, nil, nil))
	assert.Error(t, result.Error())
}
