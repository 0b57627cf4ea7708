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

package registrydirectory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/cluster/directory/registrydirectory"
	"go.corerpc.dev/corerpc/common"

	_ "go.corerpc.dev/corerpc/protocol/local"
)

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

// TestRefreshIsIdempotentAcrossRepeatedNotify is spec.md §8's directory-
// refresh-idempotence property: notifying the same provider set twice
// must not rebuild Invokers, only reuse the cached ones.
func TestRefreshIsIdempotentAcrossRepeatedNotify(t *testing.T) {
	refURL := mustURL(t, "local://127.0.0.1:0/corerpc.test.DirDemo?interface=corerpc.test.DirDemo")
	dir := registrydirectory.New(refURL, nil, nil)

	providerURL := mustURL(t, "local://127.0.0.1:20880/corerpc.test.DirDemo?interface=corerpc.test.DirDemo")
	dir.Notify([]*common.URL{providerURL})
	first := dir.Invokers()
	require.Len(t, first, 1)

	dir.Notify([]*common.URL{providerURL})
	second := dir.Invokers()
	require.Len(t, second, 1)

	assert.Same(t, first[0], second[0], "an unchanged provider set must reuse the same Invoker instance")
}

func TestRefreshDestroysInvokersNoLongerPresent(t *testing.T) {
	refURL := mustURL(t, "local://127.0.0.1:0/corerpc.test.DirDemo2?interface=corerpc.test.DirDemo2")
	dir := registrydirectory.New(refURL, nil, nil)

	a := mustURL(t, "local://127.0.0.1:20880/corerpc.test.DirDemo2?interface=corerpc.test.DirDemo2")
	b := mustURL(t, "local://127.0.0.1:20881/corerpc.test.DirDemo2?interface=corerpc.test.DirDemo2")

	dir.Notify([]*common.URL{a, b})
	require.Len(t, dir.Invokers(), 2)

	dir.Notify([]*common.URL{a})
	out := dir.Invokers()
	require.Len(t, out, 1)
	assert.Equal(t, "20880", out[0].GetURL().Port)
}
