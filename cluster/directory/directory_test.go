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

package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/protocol"
)

type stubInvoker struct {
	available bool
	destroyed bool
}

func (s *stubInvoker) GetURL() *common.URL { return nil }
func (s *stubInvoker) IsAvailable() bool   { return s.available }
func (s *stubInvoker) Destroy()            { s.destroyed = true }
func (s *stubInvoker) Invoke(common.Invocation) common.Result {
	return common.NewRPCResult()
}

func TestBaseIsAvailableRequiresAtLeastOneAvailableInvoker(t *testing.T) {
	u, err := common.NewURL("dubbo://127.0.0.1:20880/svc.Demo")
	require.NoError(t, err)
	base := directory.NewBase(u)

	assert.False(t, base.IsAvailable(), "empty invoker list is not available")

	dead := &stubInvoker{available: false}
	alive := &stubInvoker{available: true}

	base.SetInvokers([]protocol.Invoker{dead, alive})
	assert.True(t, base.IsAvailable())

	base.SetInvokers([]protocol.Invoker{dead})
	assert.False(t, base.IsAvailable())
}

func TestBaseDestroyDestroysAllInvokersAndClearsList(t *testing.T) {
	u, err := common.NewURL("dubbo://127.0.0.1:20880/svc.Demo")
	require.NoError(t, err)
	base := directory.NewBase(u)

	a, b := &stubInvoker{available: true}, &stubInvoker{available: true}
	base.SetInvokers([]protocol.Invoker{a, b})

	base.Destroy()
	assert.True(t, a.destroyed)
	assert.True(t, b.destroyed)
	assert.False(t, base.IsAvailable())

	// destroying twice must not panic or re-destroy.
	base.Destroy()
}
