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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/common"
)

type recordingListener struct {
	notifications [][]*common.URL
}

func (r *recordingListener) Notify(urls []*common.URL) {
	r.notifications = append(r.notifications, urls)
}

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestMemoryRegistryRegisterNotifiesSubscribers(t *testing.T) {
	reg := newMemory()

	l := &recordingListener{}
	require.NoError(t, reg.Subscribe(mustURL(t, "consumer://127.0.0.1/svc.Demo?category=providers"), l))
	require.Len(t, l.notifications, 1, "subscribe delivers an initial (possibly empty) snapshot")
	assert.Len(t, l.notifications[0], 0)

	require.NoError(t, reg.Register(mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")))
	require.Len(t, l.notifications, 2)
	assert.Len(t, l.notifications[1], 1)
	assert.Equal(t, "providers", l.notifications[1][0].GetParam("category", ""))
}

func TestMemoryRegistrySubscribeAcrossCombinedCategories(t *testing.T) {
	reg := newMemory()

	require.NoError(t, reg.Register(mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")))

	l := &recordingListener{}
	require.NoError(t, reg.Subscribe(
		mustURL(t, "consumer://127.0.0.1/svc.Demo?category=providers,configurators,routers"), l))

	// one Notify call per category named in the combined subscription,
	// each carrying only that category's own set.
	require.Len(t, l.notifications, 3)
	var sawProviders bool
	for _, n := range l.notifications {
		if len(n) > 0 && n[0].GetParam("category", "") == "providers" {
			sawProviders = true
		}
	}
	assert.True(t, sawProviders, "the combined subscription must still see the providers category")
}

func TestMemoryRegistryUnregisterNotifiesEmptySet(t *testing.T) {
	reg := newMemory()

	providerURL := mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")
	require.NoError(t, reg.Register(providerURL))

	l := &recordingListener{}
	require.NoError(t, reg.Subscribe(mustURL(t, "consumer://127.0.0.1/svc.Demo?category=providers"), l))
	require.NoError(t, reg.Unregister(providerURL))

	last := l.notifications[len(l.notifications)-1]
	assert.Len(t, last, 0)
}

func TestMemoryRegistryScopesNotificationsPerService(t *testing.T) {
	reg := newMemory()

	demoListener := &recordingListener{}
	require.NoError(t, reg.Subscribe(mustURL(t, "consumer://127.0.0.1/svc.Demo?category=providers"), demoListener))

	require.NoError(t, reg.Register(mustURL(t, "dubbo://127.0.0.1:20880/svc.Other")))

	last := demoListener.notifications[len(demoListener.notifications)-1]
	assert.Len(t, last, 0, "a provider registered for an unrelated service must never reach svc.Demo's subscriber")
}

func TestMemoryRegistryUnsubscribeStopsNotifications(t *testing.T) {
	reg := newMemory()
	l := &recordingListener{}
	subURL := mustURL(t, "consumer://127.0.0.1/svc.Demo?category=providers")
	require.NoError(t, reg.Subscribe(subURL, l))
	require.NoError(t, reg.Unsubscribe(subURL, l))

	require.NoError(t, reg.Register(mustURL(t, "dubbo://127.0.0.1:20880/svc.Demo")))
	assert.Len(t, l.notifications, 1, "no notification should arrive after Unsubscribe")
}
