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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/config"

	_ "go.corerpc.dev/corerpc/cluster/cluster_impl"
	_ "go.corerpc.dev/corerpc/cluster/loadbalance/random"
	_ "go.corerpc.dev/corerpc/protocol/local"
)

type greeterImpl struct{}

func (greeterImpl) SayHello(name string) string { return "hello " + name }

// TestExportReferRoundTrip is one of spec.md §8's end-to-end scenarios:
// export a service, refer it back by the same interface/group/version,
// and invoke a method through the resulting Invoker with no wire codec
// in between (the "local" Protocol extension).
func TestExportReferRoundTrip(t *testing.T) {
	svc, err := config.NewServiceOptions()
	require.NoError(t, err)
	svc.InterfaceName = "corerpc.test.Greeter"
	svc.Protocol = "local"
	svc.Version = "1.0.0"

	exporter, err := svc.Export(greeterImpl{})
	require.NoError(t, err)
	defer exporter.Unexport()

	ref, err := config.NewReferenceOptions()
	require.NoError(t, err)
	ref.InterfaceName = "corerpc.test.Greeter"
	ref.Protocol = "local"
	ref.Version = "1.0.0"
	ref.URL = "local://127.0.0.1:0"

	invoker, err := ref.Refer()
	require.NoError(t, err)
	assert.True(t, invoker.IsAvailable())

	inv := common.NewRPCInvocation("SayHello", []string{"string"}, []any{"world"}, nil)
	result := invoker.Invoke(inv)
	require.NoError(t, result.Error())
	assert.Equal(t, "hello world", result.Value())
}

func TestReferWithoutExportFailsInvocation(t *testing.T) {
	ref, err := config.NewReferenceOptions()
	require.NoError(t, err)
	ref.InterfaceName = "corerpc.test.NeverExported"
	ref.Protocol = "local"
	ref.URL = "local://127.0.0.1:0"

	invoker, err := ref.Refer()
	require.NoError(t, err)

	inv := common.NewRPCInvocation("SayHello", []string{"string"}, []any{"world"}, nil)
	result := invoker.Invoke(inv)
	assert.Error(t, result.Error())
}
