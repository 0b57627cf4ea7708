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

package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/common"
)

type stubInvoker struct {
	*Invoker
}

func (s *stubInvoker) Invoke(common.Invocation) common.Result { return common.NewRPCResult() }

func newStubInvoker(t *testing.T) *stubInvoker {
	u, err := common.NewURL("dubbo://127.0.0.1:20880/svc.Demo")
	require.NoError(t, err)
	return &stubInvoker{Invoker: NewInvoker(u)}
}

func TestInvokerAvailableUntilDestroyed(t *testing.T) {
	i := newStubInvoker(t)
	assert.True(t, i.IsAvailable())
	i.Destroy()
	assert.False(t, i.IsAvailable())
}

func TestExporterUnexportIsIdempotentAndOrdered(t *testing.T) {
	i := newStubInvoker(t)
	var order []string

	unbindCalled := false
	e := NewExporter(i, "key-1", func(key string) {
		unbindCalled = true
		order = append(order, "unbind:"+key)
	})
	e.OnUnexport(func() { order = append(order, "unregister") })
	e.OnUnexport(func() { order = append(order, "unsubscribe") })

	e.Unexport()
	e.Unexport() // second call must be a no-op

	assert.True(t, unbindCalled)
	assert.Equal(t, []string{"unbind:key-1", "unregister", "unsubscribe"}, order)
	assert.False(t, i.IsAvailable())
}
