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

// Package registry declares the Registry contract spec.md §4.6's
// Registry Protocol drives: Register/Unregister a provider URL and
// Subscribe/Unsubscribe a consumer URL to category-partitioned notify
// events. spec.md's Non-goals exclude a concrete registry client, so this
// package carries only the contract plus an in-memory reference
// implementation used by tests and by consumers with no external
// coordination service.
package registry

import (
	"strings"
	"sync"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/extension"
)

// NotifyListener receives a category's full replacement URL set each time
// the registry's view of it changes (spec.md §4.6's notify contract:
// always the complete set for that category, never a delta).
type NotifyListener interface {
	Notify(urls []*common.URL)
}

// Registry is the extension point Registry Protocol composes: providers
// Register a URL, consumers Subscribe to receive category notifications.
type Registry interface {
	common.Destroyable
	Register(url *common.URL) error
	Unregister(url *common.URL) error
	Subscribe(url *common.URL, listener NotifyListener) error
	Unsubscribe(url *common.URL, listener NotifyListener) error
}

const TypeName = "Registry"

var loader = extension.LoaderFor[Registry](TypeName)

func SetRegistry(name string, ctor func() Registry) { loader.Register(name, ctor) }
func GetRegistry(name string) (Registry, error)     { return loader.Get(name) }

// memory is the in-process reference Registry: a provider URL set per
// category, fanned out to subscribers synchronously. It exists so the
// Registry Protocol's export/refer algorithm is exercised end-to-end by
// tests without depending on a concrete coordination service (the
// Non-goal spec.md §1 excludes).
type memory struct {
	mu          sync.Mutex
	byCategory  map[string]map[string]*common.URL // "service|category" -> url.Key() -> url
	subscribers map[string][]NotifyListener       // "service|category" -> listeners
	destroyed   bool
}

const Name = "memory"

func init() {
	SetRegistry(Name, func() Registry { return newMemory() })
}

func newMemory() *memory {
	return &memory{
		byCategory:  make(map[string]map[string]*common.URL),
		subscribers: make(map[string][]NotifyListener),
	}
}

func (m *memory) IsAvailable() bool { m.mu.Lock(); defer m.mu.Unlock(); return !m.destroyed }

func (m *memory) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = true
	m.byCategory = nil
	m.subscribers = nil
}

func (m *memory) Register(url *common.URL) error {
	bucket := bucketKey(url, categoryOf(url))
	m.mu.Lock()
	if m.byCategory[bucket] == nil {
		m.byCategory[bucket] = make(map[string]*common.URL)
	}
	m.byCategory[bucket][url.Key()] = url
	listeners := append([]NotifyListener(nil), m.subscribers[bucket]...)
	snapshot := snapshotLocked(m.byCategory[bucket])
	m.mu.Unlock()

	notifyAll(listeners, withCategory(snapshot, categoryOf(url)))
	return nil
}

func (m *memory) Unregister(url *common.URL) error {
	bucket := bucketKey(url, categoryOf(url))
	m.mu.Lock()
	if m.byCategory[bucket] != nil {
		delete(m.byCategory[bucket], url.Key())
	}
	listeners := append([]NotifyListener(nil), m.subscribers[bucket]...)
	snapshot := snapshotLocked(m.byCategory[bucket])
	m.mu.Unlock()

	notifyAll(listeners, withCategory(snapshot, categoryOf(url)))
	return nil
}

// Subscribe fans out across every category named in url's (possibly
// comma-separated) "category" parameter, matching the teacher's real
// registry's subscribe-to-several-categories-at-once convention (spec.md
// §4.6's combined providers+configurators+routers subscription): the
// listener is registered once per category and gets one Notify call per
// category, each carrying that category's own complete URL set. Buckets
// are additionally scoped to url's service key, matching a real
// registry's per-service node path — two services sharing this process's
// default registry instance must never see each other's notifications.
func (m *memory) Subscribe(url *common.URL, listener NotifyListener) error {
	categories := categoriesOf(url)
	m.mu.Lock()
	snapshots := make(map[string][]*common.URL, len(categories))
	for _, category := range categories {
		bucket := bucketKey(url, category)
		m.subscribers[bucket] = append(m.subscribers[bucket], listener)
		snapshots[category] = snapshotLocked(m.byCategory[bucket])
	}
	m.mu.Unlock()

	for _, category := range categories {
		listener.Notify(withCategory(snapshots[category], category))
	}
	return nil
}

func (m *memory) Unsubscribe(url *common.URL, listener NotifyListener) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range categoriesOf(url) {
		bucket := bucketKey(url, category)
		listeners := m.subscribers[bucket]
		for i, l := range listeners {
			if l == listener {
				m.subscribers[bucket] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
	return nil
}

func categoryOf(url *common.URL) string {
	if c := url.GetParam("category", ""); c != "" {
		return c
	}
	return "providers"
}

// categoriesOf splits a possibly comma-separated "category" parameter
// into its individual category names.
func categoriesOf(url *common.URL) []string {
	raw := categoryOf(url)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"providers"}
	}
	return out
}

// bucketKey scopes a category bucket to url's service key, mirroring a
// real registry's per-service node path (e.g. zookeeper's
// /dubbo/{service}/{category}) so unrelated services registered against
// the same registry instance never cross-notify.
func bucketKey(url *common.URL, category string) string {
	return url.ServiceKey() + "|" + category
}

// withCategory stamps an explicit "category" parameter onto a defensive
// clone of each URL in urls, so a NotifyListener that branches on
// urls[0].GetParam(category, ...) sees the category it subscribed under
// even for provider URLs that never set one explicitly.
func withCategory(urls []*common.URL, category string) []*common.URL {
	out := make([]*common.URL, len(urls))
	for i, u := range urls {
		if u.GetParam("category", "") == category {
			out[i] = u
			continue
		}
		clone := u.Clone()
		clone.SetParam("category", category)
		out[i] = clone
	}
	return out
}

func snapshotLocked(urls map[string]*common.URL) []*common.URL {
	out := make([]*common.URL, 0, len(urls))
	for _, u := range urls {
		out = append(out, u)
	}
	return out
}

func notifyAll(listeners []NotifyListener, urls []*common.URL) {
	for _, l := range listeners {
		l.Notify(urls)
	}
}
