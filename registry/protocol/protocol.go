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

// Package protocol is the Registry Protocol of spec.md §4.6: the
// composite protocol.Protocol that ties a Registry, a Cluster policy and
// the local wire protocol together so export()/refer() register and
// subscribe around a locally-exported/consumed service.
package protocol

import (
	"strconv"
	"sync"
	"time"

	gxset "github.com/dubbogo/gost/container/set"
	"github.com/dubbogo/gost/log/logger"

	"go.corerpc.dev/corerpc/cluster"
	"go.corerpc.dev/corerpc/cluster/directory/registrydirectory"
	"go.corerpc.dev/corerpc/cluster/router"
	approuter "go.corerpc.dev/corerpc/cluster/router/app"
	servicerouter "go.corerpc.dev/corerpc/cluster/router/service"
	tagrouter "go.corerpc.dev/corerpc/cluster/router/tag"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/common/errs"
	"go.corerpc.dev/corerpc/config_center"
	"go.corerpc.dev/corerpc/protocol"
	"go.corerpc.dev/corerpc/protocol/base"
	"go.corerpc.dev/corerpc/registry"
)

const Name = "registry"

func init() {
	protocol.SetProtocol(Name, New)
}

// registeredURLParams is the allowlist of parameters that survive onto the
// URL actually sent to Registry.Register (spec.md §4.6 step 5): a
// provider's full export URL carries far more local configuration than a
// registry needs to route to it.
var registeredURLParams = []string{
	constant.ApplicationKey,
	constant.CategoryKey,
	constant.CheckKey,
	constant.DynamicKey,
	constant.EnabledKey,
	constant.GroupKey,
	constant.InterfaceKey,
	constant.MethodsKey,
	constant.ProtocolKey,
	constant.SideKey,
	constant.TimestampKey,
	constant.TokenKey,
	constant.VersionKey,
	constant.WeightKey,
}

// bound is one cache-keyed local export: the currently-bound local
// Exporter plus enough state to reexport on an override notification and
// to unwind the full spec.md §4.6 registration on Unexport.
type bound struct {
	mu          sync.Mutex
	exporter    protocol.Exporter // local (adaptive-protocol) exporter; reexported in place on override
	wrapped     protocol.Exporter // the registry-protocol Exporter handed back to the caller
	invoker     protocol.Invoker
	registryURL *common.URL
	providerURL *common.URL
	registered  bool

	registeredURL        *common.URL
	registry             registry.Registry
	overrideSubscribeURL *common.URL
	overrideListener     *OverrideListener
}

// Protocol is the Registry Protocol: a Protocol implementation whose
// Export/Refer take a registry-scheme URL (e.g. "registry://...?registry=nacos")
// wrapping the real provider/consumer URL in its "export"/"refer" query
// parameter, per spec.md §4.6's external interface.
type Protocol struct {
	mu     sync.Mutex
	bounds map[string]*bound // cache key -> bound export

	overrideMu sync.Mutex
	overrides  map[string]*OverrideListener // cache key -> listener, for reexport
}

func New() protocol.Protocol {
	return &Protocol{
		bounds:    make(map[string]*bound),
		overrides: make(map[string]*OverrideListener),
	}
}

func (p *Protocol) Destroy() {
	p.mu.Lock()
	bounds := p.bounds
	p.bounds = make(map[string]*bound)
	p.mu.Unlock()

	for _, b := range bounds {
		b.wrapped.Unexport()
	}
}

// Export implements spec.md §4.6's export algorithm.
func (p *Protocol) Export(invoker protocol.Invoker) protocol.Exporter {
	registryURL := invoker.GetURL()
	providerURL, err := requireURL(registryURL, constant.ExportKey)
	if err != nil {
		logger.Errorf("registry protocol: export %s: %v", registryURL, err)
		return errExporter{url: registryURL, err: err}
	}

	cacheKey := providerURL.CacheKey()

	p.mu.Lock()
	if existing, ok := p.bounds[cacheKey]; ok {
		p.mu.Unlock()
		return existing.wrapped
	}
	p.mu.Unlock()

	mergedProviderURL := mergeConfigurators(providerURL, registryURL)

	localExporter := localExport(mergedProviderURL, invoker)

	b := &bound{
		exporter:    localExporter,
		invoker:     invoker,
		registryURL: registryURL,
		providerURL: mergedProviderURL,
	}

	p.mu.Lock()
	p.bounds[cacheKey] = b
	p.mu.Unlock()

	reg, err := resolveRegistry(registryURL)
	if err != nil {
		logger.Errorf("registry protocol: resolving registry for %s: %v", registryURL, err)
		b.wrapped = wrapExporter(p, cacheKey, b)
		return b.wrapped
	}
	b.registry = reg

	if mergedProviderURL.GetParamBool(constant.RegisterKey, true) {
		registeredURL := mergedProviderURL.CloneWithParams(registeredURLParams)
		applyInstanceCustomizers(registeredURL)
		if err := reg.Register(registeredURL); err != nil {
			logger.Errorf("registry protocol: register %s: %v", registeredURL, err)
		} else {
			b.registered = true
			b.registeredURL = registeredURL
		}
	}

	overrideListener := newOverrideListener(p, cacheKey, reg)
	p.overrideMu.Lock()
	p.overrides[cacheKey] = overrideListener
	p.overrideMu.Unlock()
	b.overrideListener = overrideListener

	overrideSubscribeURL := buildOverrideSubscribeURL(mergedProviderURL)
	b.overrideSubscribeURL = overrideSubscribeURL
	if err := reg.Subscribe(overrideSubscribeURL, overrideListener); err != nil {
		logger.Errorf("registry protocol: subscribe override for %s: %v", overrideSubscribeURL, err)
	}

	b.wrapped = wrapExporter(p, cacheKey, b)
	return b.wrapped
}

// Refer implements spec.md §4.6's refer algorithm.
func (p *Protocol) Refer(url *common.URL) protocol.Invoker {
	refURL := unwrapURL(url, constant.ReferKey)

	reg, err := resolveRegistry(url)
	if err != nil {
		return errInvoker{url: refURL, err: err}
	}

	chain := router.NewChain(minimumRouters())
	dir := registrydirectory.New(refURL, reg, chain)

	subscribeURL := refURL.Clone()
	subscribeURL.SetParam(constant.CategoryKey, constant.CategoryProviders+","+constant.CategoryConfigurators+","+constant.CategoryRouters)

	if err := reg.Subscribe(subscribeURL, dir); err != nil {
		logger.Errorf("registry protocol: subscribe %s: %v", subscribeURL, err)
	}

	if refURL.GetParamBool(constant.RegisterKey, true) {
		consumerURL := refURL.Clone()
		consumerURL.SetParam(constant.CategoryKey, "consumers")
		if err := reg.Register(consumerURL); err != nil {
			logger.Errorf("registry protocol: register consumer %s: %v", consumerURL, err)
		}
	}

	clusterName := refURL.GetParam(constant.ClusterKey, cluster.DefaultName)
	if refURL.GetParam(constant.GroupKey, "") == "*" {
		clusterName = "mergeable"
	}
	cl, err := cluster.GetCluster(clusterName)
	if err != nil {
		cl, _ = cluster.GetCluster(cluster.DefaultName)
	}
	return cl.Join(dir)
}

func unwrapURL(outer *common.URL, key string) *common.URL {
	raw := outer.GetParam(key, "")
	inner, err := common.NewURL(raw)
	if err != nil {
		return outer
	}
	return inner
}

// requireURL is unwrapURL's strict counterpart for spec.md §4.6 step 1,
// which must fail with ExportMissing rather than silently falling back to
// the outer registry URL when the wrapped parameter is absent or
// unparseable.
func requireURL(outer *common.URL, key string) (*common.URL, error) {
	raw := outer.GetParam(key, "")
	if raw == "" {
		return nil, errs.New(errs.ExportMissing, "missing \""+key+"\" parameter on "+outer.String(), nil)
	}
	inner, err := common.NewURL(raw)
	if err != nil {
		return nil, errs.New(errs.ExportMissing, "parsing \""+key+"\" parameter on "+outer.String(), err)
	}
	return inner, nil
}

// minimumRouters builds spec.md §4.5's minimum per-Directory router set —
// tag, app and service — from the extension point the cluster/router/{tag,
// app,service} packages self-register into; Chain sorts them by Priority
// itself.
func minimumRouters() []router.Router {
	names := []string{tagrouter.Name, approuter.Name, servicerouter.Name}
	routers := make([]router.Router, 0, len(names))
	for _, name := range names {
		r, err := router.GetRouter(name)
		if err != nil {
			logger.Errorf("registry protocol: loading router %q: %v", name, err)
			continue
		}
		routers = append(routers, r)
	}
	return routers
}

// mergeConfigurators left-folds application-level then service-level
// configurators onto providerURL, in exactly that order (spec.md §4.6's
// resolution of the service-vs-app Open Question: literal declared
// order, no extra precedence rule — see DESIGN.md).
func mergeConfigurators(providerURL, registryURL *common.URL) *common.URL {
	merged := providerURL
	for _, c := range config_center.ApplicationConfigurators() {
		merged = c.Configure(merged)
	}
	for _, c := range config_center.ServiceConfigurators(providerURL.ServiceKey()) {
		merged = c.Configure(merged)
	}
	return merged
}

func localExport(providerURL *common.URL, invoker protocol.Invoker) protocol.Exporter {
	adaptiveProtocol, err := protocol.GetAdaptive()
	if err != nil {
		logger.Errorf("registry protocol: no adaptive protocol: %v", err)
		return nil
	}
	return adaptiveProtocol.Export(&rewrittenInvoker{Invoker: invoker, url: providerURL})
}

func resolveRegistry(url *common.URL) (registry.Registry, error) {
	name := url.GetParam(constant.RegistryKey, registry.Name)
	return registry.GetRegistry(name)
}

// applyInstanceCustomizers runs every registered
// registry.ServiceInstanceCustomizer over the application instance
// registeredURL belongs to, stamping any metadata the customizers attach
// onto registeredURL itself so it reaches the registry (and from there,
// every subscribed consumer) alongside the provider's own parameters.
func applyInstanceCustomizers(registeredURL *common.URL) {
	port, _ := strconv.Atoi(registeredURL.Port)
	instance := &registry.DefaultServiceInstance{
		ID:          registeredURL.GetParam(constant.ApplicationKey, "") + "@" + registeredURL.Address(),
		ServiceName: registeredURL.GetParam(constant.ApplicationKey, ""),
		Host:        registeredURL.Ip,
		Port:        port,
		Enable:      true,
		Healthy:     true,
	}
	registry.ApplyCustomizers(instance)
	for k, v := range instance.GetMetadata() {
		registeredURL.SetParam(k, v)
	}
}

func buildOverrideSubscribeURL(providerURL *common.URL) *common.URL {
	u := providerURL.Clone()
	u.SetParam(constant.CategoryKey, constant.CategoryConfigurators)
	u.Protocol = constant.ProviderProtocol
	return u
}

// shutdownTimeout is the minimum grace period spec.md §4.4's Unexport
// gives the local exporter to drain in-flight calls before destroying it,
// once the registry-facing unregister/unsubscribe steps have already run.
const shutdownTimeout = constant.ShutdownTimeoutKeyDefault * time.Millisecond

// wrapExporter builds the Exporter handed back to Export's caller. Its
// Unexport runs the full spec.md §4.4/§4.6 teardown in order: unbind from
// p.bounds, unregister the registered provider URL, unsubscribe the
// override listener, then destroy the local exporter after shutdownTimeout.
func wrapExporter(p *Protocol, cacheKey string, b *bound) protocol.Exporter {
	exporter := base.NewExporter(&delayedInvoker{b: b, grace: shutdownTimeout}, cacheKey, func(key string) {
		p.mu.Lock()
		delete(p.bounds, key)
		p.mu.Unlock()
	})

	exporter.OnUnexport(func() {
		if !b.registered || b.registry == nil {
			return
		}
		if err := b.registry.Unregister(b.registeredURL); err != nil {
			logger.Errorf("registry protocol: unregister %s: %v", b.registeredURL, err)
		}
	})

	exporter.OnUnexport(func() {
		if b.registry == nil || b.overrideListener == nil {
			return
		}
		if err := b.registry.Unsubscribe(b.overrideSubscribeURL, b.overrideListener); err != nil {
			logger.Errorf("registry protocol: unsubscribe override for %s: %v", b.overrideSubscribeURL, err)
		}
		p.overrideMu.Lock()
		delete(p.overrides, cacheKey)
		p.overrideMu.Unlock()
	})

	return exporter
}

// delayedInvoker is the ExporterInvoker base.Exporter destroys last: by
// the time its Destroy runs, the unregister/unsubscribe teardown steps
// have already completed synchronously, so all that remains is giving
// in-flight calls shutdownTimeout to drain before the currently-bound
// local exporter (b.exporter, which a reexport may have swapped) actually
// goes away.
type delayedInvoker struct {
	b     *bound
	grace time.Duration
}

func (d *delayedInvoker) GetURL() *common.URL { return d.b.invoker.GetURL() }
func (d *delayedInvoker) IsAvailable() bool   { return d.b.invoker.IsAvailable() }
func (d *delayedInvoker) Invoke(invocation common.Invocation) common.Result {
	return d.b.invoker.Invoke(invocation)
}

func (d *delayedInvoker) Destroy() {
	d.b.mu.Lock()
	exp := d.b.exporter
	d.b.mu.Unlock()
	if exp == nil {
		return
	}
	if grace, ok := exp.(interface{ DelayedUnexport(time.Duration) }); ok {
		grace.DelayedUnexport(d.grace)
		return
	}
	time.AfterFunc(d.grace, exp.Unexport)
}

// rewrittenInvoker substitutes url for the embedded Invoker's own GetURL,
// used so the locally-exported invoker advertises the merged provider
// URL rather than the raw registry-wrapping one.
type rewrittenInvoker struct {
	protocol.Invoker
	url *common.URL
}

func (r *rewrittenInvoker) GetURL() *common.URL { return r.url }

type errInvoker struct {
	url *common.URL
	err error
}

func (e errInvoker) GetURL() *common.URL { return e.url }
func (e errInvoker) IsAvailable() bool   { return false }
func (e errInvoker) Destroy()            {}
func (e errInvoker) Invoke(common.Invocation) common.Result {
	r := common.NewRPCResult()
	r.SetError(errs.New(errs.RegistrationFailed, "refer", e.err))
	return r
}

// errExporter is Export's return value when the wrapped "export" URL
// parameter is missing or unparseable (spec.md §4.6 step 1's ExportMissing
// failure) — an Exporter whose Unexport is a no-op since nothing was ever
// bound, and whose GetInvoker surfaces err unwrapped (already an
// *errs.Error tagged ExportMissing) on every call.
type errExporter struct {
	url *common.URL
	err error
}

func (e errExporter) GetInvoker() protocol.Invoker { return exportErrInvoker(e) }
func (e errExporter) Unexport()                    {}

type exportErrInvoker struct {
	url *common.URL
	err error
}

func (e exportErrInvoker) GetURL() *common.URL { return e.url }
func (e exportErrInvoker) IsAvailable() bool   { return false }
func (e exportErrInvoker) Destroy()            {}
func (e exportErrInvoker) Invoke(common.Invocation) common.Result {
	r := common.NewRPCResult()
	r.SetError(e.err)
	return r
}

// OverrideListener reacts to a configurator-category notification by
// reexporting the affected bound service (spec.md §4.6's final
// paragraph): build the new merged URL (the listener's override URLs
// applied to the original provider URL, then the application- and
// service-level configurators on top), and if it differs from the
// currently-exported one, export under it and delay-destroy the old
// exporter after a grace period so in-flight calls drain first.
type OverrideListener struct {
	protocol *Protocol
	cacheKey string
	registry registry.Registry
}

func newOverrideListener(p *Protocol, cacheKey string, reg registry.Registry) *OverrideListener {
	return &OverrideListener{protocol: p, cacheKey: cacheKey, registry: reg}
}

const reexportGrace = 3 * time.Second

func (l *OverrideListener) Notify(urls []*common.URL) {
	l.protocol.mu.Lock()
	b, ok := l.protocol.bounds[l.cacheKey]
	l.protocol.mu.Unlock()
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	original, err := requireURL(b.registryURL, constant.ExportKey)
	if err != nil {
		return
	}
	newURL := original
	for _, u := range urls {
		newURL = applyConfiguratorURL(newURL, u)
	}
	newURL = mergeConfigurators(newURL, b.registryURL)

	if common.IsEquals(newURL, b.providerURL) {
		return
	}

	oldExporter := b.exporter
	newExporter := localExport(newURL, b.invoker)
	if newExporter == nil {
		return
	}

	b.providerURL = newURL
	b.exporter = newExporter

	if oldExporter != nil {
		if grace, ok := oldExporter.(interface{ DelayedUnexport(time.Duration) }); ok {
			grace.DelayedUnexport(reexportGrace)
		} else {
			time.AfterFunc(reexportGrace, oldExporter.Unexport)
		}
	}
}

// applyConfiguratorURL copies every parameter of override's query except
// category, dynamic and enabled onto a clone of base, replacing base's
// value where base already has the key and adding it otherwise. A real override
// configurator (config_center.Configurator) expresses richer match rules;
// this is the direct-URL shortcut spec.md §4.6 names alongside it.
func applyConfiguratorURL(base, override *common.URL) *common.URL {
	excludes := gxset.NewSet(constant.CategoryKey, constant.DynamicKey, constant.EnabledKey)
	clone := base.Clone()
	override.RangeParams(func(k, v string) bool {
		if excludes.Contains(k) {
			return true
		}
		clone.SetParam(k, v)
		return true
	})
	return clone
}
