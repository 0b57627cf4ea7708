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

// Package extension is the process-wide, type-indexed Extension Registry
// of spec.md §4.2: it discovers, caches and composes implementations of a
// capability contract from declarative manifests, and performs the three
// composition modes (named lookup, wrapper chaining, adaptive dispatch).
//
// Go has no classpath and no bytecode synthesis, so two redesigns from
// spec.md §9 apply here: dependency injection becomes an explicit Deps()
// declaration each extension returns instead of setter-scanning, and the
// "fully-qualified class" a manifest line names is a registration key
// that must already have been wired to a constructor via RegisterCtor at
// package init time (Go cannot instantiate an arbitrary named type from a
// string without such a table).
package extension

import (
	"bufio"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/dubbogo/gost/log/logger"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/errs"
)

// ManifestPrefixes are the three well-known resource roots of spec.md §6,
// in discovery order (later prefixes may add to, but never replace, names
// already found: a name seen again must name the same ctor key, otherwise
// LoadManifest fails with DuplicateExtension).
var ManifestPrefixes = []string{"internal/", "vendor/", "services/"}

// ActivationDescriptor is the group[]/value[] match rule of spec.md §4.2's
// activation matching, plus a declared-order tiebreaker for the stable
// activation comparator.
type ActivationDescriptor struct {
	Group []string
	Value []string
	Order int
}

// Dependency describes one capability-typed dependency an extension wants
// injected. Injection itself goes through Injectable: the adaptive
// instance for a type name returned by Deps is passed to Inject.
type Dependency struct {
	DepType string // a capability's registered type name, e.g. "Protocol"
}

// Injectable is implemented by extensions that want capability
// dependencies injected after construction (the explicit-wiring redesign
// of spec.md §9 in place of setter-scanning).
type Injectable interface {
	// Deps returns the capability type names this extension needs.
	Deps() []string
	// Inject receives the adaptive instance for each name returned by Deps,
	// in the same order.
	Inject(deps []any)
}

// ctorEntry is what a manifest "name = key" line resolves to once key is
// looked up in the ctor table.
type ctorEntry struct {
	ctor      func() any
	isAdaptive bool
	isWrapper  bool
}

var (
	ctorRegistryMu sync.RWMutex
	ctorRegistry   = map[string]ctorEntry{}
)

// RegisterCtor wires a manifest registration key ("fully-qualified class")
// to a zero-arg constructor, analogous to a Java class being on the
// classpath. Extensions call this (usually from an init() in their own
// package) before any manifest naming that key is loaded.
func RegisterCtor(key string, ctor func() any) {
	ctorRegistryMu.Lock()
	defer ctorRegistryMu.Unlock()
	ctorRegistry[key] = ctorEntry{ctor: ctor}
}

// RegisterAdaptiveCtor wires key to a constructor for a synthetic-or-declared
// adaptive implementation (spec.md §4.2: "class annotated adaptive").
func RegisterAdaptiveCtor(key string, ctor func() any) {
	ctorRegistryMu.Lock()
	defer ctorRegistryMu.Unlock()
	ctorRegistry[key] = ctorEntry{ctor: ctor, isAdaptive: true}
}

// lookupCtor resolves a manifest registration key to its ctorEntry.
// Wrappers are registered directly on the Loader via RegisterWrapper
// rather than through this table, since a wrapper ctor needs the inner
// instance as an argument and so isn't a zero-arg func.
func lookupCtor(key string) (ctorEntry, bool) {
	ctorRegistryMu.RLock()
	defer ctorRegistryMu.RUnlock()
	e, ok := ctorRegistry[key]
	return e, ok
}

// Loader is the per-capability-type registry: loaderFor(T) in spec.md §4.2.
type Loader[T any] struct {
	typeName string

	mu          sync.RWMutex
	defaultName string
	impls       map[string]func() T
	wrappers    []func(T) T
	activation  map[string]ActivationDescriptor
	adaptiveCtor func() T

	instances sync.Map // name -> T singleton
	adaptive  T
	adaptiveOnce sync.Once
	adaptiveBuilt bool
}

var (
	loadersMu sync.Mutex
	loaders   = map[string]any{} // typeName -> *Loader[T], boxed
)

// LoaderFor returns the per-type registry for typeName, lazily constructed
// and memoized process-wide (spec.md §4.2's loaderFor(T)). Each capability
// type must call this with a stable, unique name (its own package chooses
// one, e.g. "Protocol", "Cluster").
func LoaderFor[T any](typeName string) *Loader[T] {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	if existing, ok := loaders[typeName]; ok {
		l, ok := existing.(*Loader[T])
		if !ok {
			panic(errs.New(errs.NotAnExtensionPoint, typeName+" already registered with a different Go type", nil))
		}
		return l
	}
	l := &Loader[T]{
		typeName:   typeName,
		impls:      make(map[string]func() T),
		activation: make(map[string]ActivationDescriptor),
	}
	loaders[typeName] = l
	return l
}

// SetDefault declares T's default extension name (from T's own declaration,
// per spec.md §3's extension record).
func (l *Loader[T]) SetDefault(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defaultName = name
}

func (l *Loader[T]) DefaultName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultName
}

// Register adds a named ordinary implementation. A second Register call
// with the same name is a DuplicateExtension only if the two constructors
// are observably different; since Go can't compare funcs, any
// re-registration of the same name is treated as a replace — manifest
// loading instead enforces the duplicate check (see LoadManifest).
func (l *Loader[T]) Register(name string, ctor func() T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.impls[name] = ctor
}

// RegisterWrapper adds a decorator over T; wrapper application order is
// unspecified (spec.md §4.2/§9) — callers must not depend on it, and this
// Loader applies them in registration order, which tests must treat as
// one arbitrary, but fixed-for-a-process, ordering.
func (l *Loader[T]) RegisterWrapper(w func(T) T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wrappers = append(l.wrappers, w)
}

// RegisterActivation attaches an activation descriptor to a named extension
// for getActivated.
func (l *Loader[T]) RegisterActivation(name string, desc ActivationDescriptor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activation[name] = desc
}

// SetAdaptiveCtor declares T's adaptive constructor, either because T
// declares an adaptive class directly or because the capability package
// synthesized one (spec.md §4.2's getAdaptive, case "T declares an
// adaptive class").
func (l *Loader[T]) SetAdaptiveCtor(ctor func() T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adaptiveCtor = ctor
}

// Get returns the named singleton, building (and wrapper-composing) it on
// first call. "true" and the default name both resolve to the default
// extension, matching spec.md §4.2.
func (l *Loader[T]) Get(name string) (T, error) {
	var zero T
	if name == "true" || name == "" {
		l.mu.RLock()
		name = l.defaultName
		l.mu.RUnlock()
	}
	if name == "" {
		return zero, errs.New(errs.NoSuchExtension, l.typeName+": no default extension configured", nil)
	}

	if v, ok := l.instances.Load(name); ok {
		return v.(T), nil
	}

	l.mu.RLock()
	ctor, ok := l.impls[name]
	wrappers := append([]func(T) T(nil), l.wrappers...)
	l.mu.RUnlock()
	if !ok {
		return zero, errs.New(errs.NoSuchExtension, l.typeName+": no extension named "+name, nil)
	}

	instance := ctor()
	if injectable, ok := any(instance).(Injectable); ok {
		injectDeps(injectable)
	}
	for _, w := range wrappers {
		instance = w(instance)
		if injectable, ok := any(instance).(Injectable); ok {
			injectDeps(injectable)
		}
	}

	actual, _ := l.instances.LoadOrStore(name, instance)
	return actual.(T), nil
}

// injectDeps resolves each declared Dependency to its adaptive instance;
// it is intentionally generic-free (uses the untyped loader map) because
// Dependency.DepType is a dynamic string chosen by the dependent extension.
func injectDeps(injectable Injectable) {
	names := injectable.Deps()
	if len(names) == 0 {
		return
	}
	resolved := make([]any, len(names))
	for i, n := range names {
		resolved[i] = getAdaptiveByTypeName(n)
	}
	injectable.Inject(resolved)
}

// getAdaptiveByTypeName looks up a registered Loader by its type name and
// returns its adaptive instance as `any`; it is implemented via a small
// side-table of closures since Go generics can't recover T from a string.
var adaptiveLookup = map[string]func() any{}

// RegisterAdaptiveLookup lets a capability package expose "give me my
// adaptive instance as `any`" for cross-capability injection. Each
// capability package calls this once at init time.
func RegisterAdaptiveLookup(typeName string, fn func() any) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	adaptiveLookup[typeName] = fn
}

func getAdaptiveByTypeName(typeName string) any {
	loadersMu.Lock()
	fn, ok := adaptiveLookup[typeName]
	loadersMu.Unlock()
	if !ok {
		return nil
	}
	return fn()
}

// GetAdaptive returns T's adaptive singleton, per spec.md §4.2: if T
// declared an adaptive class it is used as-is (after injection); otherwise
// T has none here to synthesize from (Go can't synthesize bytecode), so a
// capability package without an explicit SetAdaptiveCtor call gets
// NoAdaptiveMethod.
func (l *Loader[T]) GetAdaptive() (T, error) {
	var zero T
	var buildErr error
	l.adaptiveOnce.Do(func() {
		l.mu.RLock()
		ctor := l.adaptiveCtor
		l.mu.RUnlock()
		if ctor == nil {
			buildErr = errs.New(errs.NoAdaptiveMethod, l.typeName+": no adaptive implementation declared", nil)
			return
		}
		instance := ctor()
		if injectable, ok := any(instance).(Injectable); ok {
			injectDeps(injectable)
		}
		l.adaptive = instance
		l.adaptiveBuilt = true
	})
	if buildErr != nil {
		return zero, buildErr
	}
	if !l.adaptiveBuilt {
		return zero, errs.New(errs.NoAdaptiveMethod, l.typeName+": no adaptive implementation declared", nil)
	}
	return l.adaptive, nil
}

// GetActivated returns the ordered list of extensions whose activation
// descriptor matches url and group, spliced with any user-specified names
// from the url parameter key (spec.md §4.2's getActivated). The literal
// "default" in the key's value list marks where the auto-activated block
// is inserted; "-name" removes name from the auto-activated block.
func (l *Loader[T]) GetActivated(url *common.URL, key, group string) ([]T, error) {
	raw := url.GetParam(key, "")
	var requested []string
	if raw != "" {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				requested = append(requested, n)
			}
		}
	}

	removed := map[string]bool{}
	var before, after []string
	sawDefault := false
	for _, n := range requested {
		switch {
		case strings.HasPrefix(n, "-"):
			removed[strings.TrimPrefix(n, "-")] = true
		case n == "default":
			sawDefault = true
		case sawDefault:
			after = append(after, n)
		default:
			before = append(before, n)
		}
	}

	l.mu.RLock()
	type candidate struct {
		name string
		desc ActivationDescriptor
	}
	var candidates []candidate
	for name, desc := range l.activation {
		if removed[name] {
			continue
		}
		if !activationGroupMatches(desc, group) {
			continue
		}
		if !activationValueMatches(desc, url) {
			continue
		}
		candidates = append(candidates, candidate{name, desc})
	}
	l.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].desc.Order != candidates[j].desc.Order {
			return candidates[i].desc.Order < candidates[j].desc.Order
		}
		return candidates[i].name < candidates[j].name
	})

	var autoNames []string
	for _, c := range candidates {
		if !removed[c.name] {
			autoNames = append(autoNames, c.name)
		}
	}

	var finalNames []string
	if len(requested) == 0 {
		finalNames = autoNames
	} else if !sawDefault {
		finalNames = requested
		for _, n := range finalNames {
			if strings.HasPrefix(n, "-") {
				finalNames = removeString(finalNames, n)
			}
		}
	} else {
		finalNames = append(finalNames, before...)
		finalNames = append(finalNames, autoNames...)
		finalNames = append(finalNames, after...)
	}

	seen := map[string]bool{}
	result := make([]T, 0, len(finalNames))
	for _, n := range finalNames {
		if seen[n] || removed[n] || strings.HasPrefix(n, "-") {
			continue
		}
		seen[n] = true
		inst, err := l.Get(n)
		if err != nil {
			logger.Warnf("extension %s: activated name %q not found: %v", l.typeName, n, err)
			continue
		}
		result = append(result, inst)
	}
	return result, nil
}

func removeString(ss []string, v string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func activationGroupMatches(desc ActivationDescriptor, group string) bool {
	if len(desc.Group) == 0 {
		return true
	}
	for _, g := range desc.Group {
		if g == group {
			return true
		}
	}
	return false
}

func activationValueMatches(desc ActivationDescriptor, url *common.URL) bool {
	if len(desc.Value) == 0 {
		return true
	}
	matched := false
	url.RangeParams(func(k, v string) bool {
		if v == "" {
			return true
		}
		for _, want := range desc.Value {
			if k == want || strings.HasSuffix(k, "."+want) {
				matched = true
				return false
			}
		}
		return true
	})
	return matched
}

// ManifestEntry is one parsed "name = key" (or bare "key") line.
type ManifestEntry struct {
	Name string
	Key  string
}

// ParseManifest parses the extension manifest file format of spec.md §6:
// UTF-8, "#" comments, blank lines ignored, "name = FQN" or bare "FQN"
// (name derived from the key's last path/dot segment, lowercased, with the
// typeSuffix stripped).
func ParseManifest(r io.Reader, typeSuffix string) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var name, key string
		if idx := strings.Index(line, "="); idx != -1 {
			name = strings.TrimSpace(line[:idx])
			key = strings.TrimSpace(line[idx+1:])
		} else {
			key = line
			name = deriveName(key, typeSuffix)
		}
		entries = append(entries, ManifestEntry{Name: name, Key: key})
	}
	return entries, scanner.Err()
}

func deriveName(key, typeSuffix string) string {
	last := key
	if i := strings.LastIndexAny(key, "./"); i != -1 {
		last = key[i+1:]
	}
	last = strings.TrimSuffix(last, typeSuffix)
	return strings.ToLower(last)
}

// LoadManifest discovers and registers T's implementations for every file
// named by typeFQN under each of ManifestPrefixes found in fsys (spec.md
// §4.2/§6). A duplicate name pointing at a different ctor key fails with
// DuplicateExtension.
func (l *Loader[T]) LoadManifest(fsys fs.FS, typeFQN, typeSuffix string) error {
	seen := map[string]string{} // name -> key, to detect duplicates across prefixes
	for _, prefix := range ManifestPrefixes {
		path := prefix + typeFQN
		f, err := fsys.Open(path)
		if err != nil {
			continue // this prefix doesn't carry a manifest for T; not an error
		}
		entries, perr := ParseManifest(f, typeSuffix)
		f.Close()
		if perr != nil {
			return perr
		}
		for _, e := range entries {
			if prevKey, ok := seen[e.Name]; ok && prevKey != e.Key {
				return errs.New(errs.DuplicateExtension, typeFQN+": name "+e.Name+" maps to both "+prevKey+" and "+e.Key, nil)
			}
			seen[e.Name] = e.Key

			entry, ok := lookupCtor(e.Key)
			if !ok {
				logger.Warnf("extension %s: manifest entry %s=%s has no registered constructor, skipping", typeFQN, e.Name, e.Key)
				continue
			}
			switch {
			case entry.isAdaptive:
				l.SetAdaptiveCtor(func() T { return entry.ctor().(T) })
			default:
				l.Register(e.Name, func() T { return entry.ctor().(T) })
			}
		}
	}
	return nil
}
