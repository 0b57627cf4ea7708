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

// Package dispatch is the Method Dispatcher of spec.md §4.3: a reflective
// invocation surface over an arbitrary service implementation, built on
// the standard library's reflect package rather than the class-synthesis
// technique spec.md §9 rules out of scope for Go.
package dispatch

import (
	"reflect"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	perrors "github.com/pkg/errors"

	"go.corerpc.dev/corerpc/common/errs"
)

// descriptor is the reflective surface cached per concrete type: its
// declared methods (exported, non-promoted-from-fmt.Stringer-only) and a
// case-insensitive property accessor index (Get<Name>/Is<Name>/Set<Name>
// triples).
type descriptor struct {
	typ        reflect.Type
	methods    map[string]reflect.Method
	methodList []string
	properties map[string]reflect.Method // propertyName -> getter method
	setters    map[string]reflect.Method // propertyName -> setter method
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

const cacheSize = 4096

var (
	cacheOnce sync.Once
	cache     *lru.Cache
)

func typeCache() *lru.Cache {
	cacheOnce.Do(func() {
		c, err := lru.New(cacheSize)
		if err != nil {
			panic(err) // only fails on a non-positive size, which cacheSize never is
		}
		cache = c
	})
	return cache
}

// Dispatcher wraps a concrete service instance with the method-dispatch
// surface of spec.md §4.3.
type Dispatcher struct {
	target any
	desc   *descriptor
}

// New builds a Dispatcher over target, building (or reusing from cache)
// target's reflective descriptor keyed by the string form of target's
// dynamic type (so *T and T are cached separately).
func New(target any) *Dispatcher {
	t := reflect.TypeOf(target)
	d := descriptorFor(t)
	return &Dispatcher{target: target, desc: d}
}

func descriptorFor(t reflect.Type) *descriptor {
	key := t.String()
	c := typeCache()
	if v, ok := c.Get(key); ok {
		return v.(*descriptor)
	}

	d := &descriptor{
		typ:        t,
		methods:    map[string]reflect.Method{},
		properties: map[string]reflect.Method{},
		setters:    map[string]reflect.Method{},
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		d.methods[m.Name] = m
		d.methodList = append(d.methodList, m.Name)

		if prop, ok := propertyName(m); ok {
			d.properties[strings.ToLower(prop)] = m
		}
		if prop, ok := setterName(m); ok {
			d.setters[strings.ToLower(prop)] = m
		}
	}
	c.Add(key, d)
	return d
}

func propertyName(m reflect.Method) (string, bool) {
	// A property accessor takes only the receiver and returns exactly one
	// value: Get<Name>() T or Is<Name>() bool.
	if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return "", false
	}
	switch {
	case strings.HasPrefix(m.Name, "Get") && len(m.Name) > 3:
		return lowerFirst(m.Name[3:]), true
	case strings.HasPrefix(m.Name, "Is") && len(m.Name) > 2 && m.Type.Out(0).Kind() == reflect.Bool:
		return lowerFirst(m.Name[2:]), true
	default:
		return "", false
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// setterName reports the property name a Set<Name>(T) or Set<Name>(T) error
// method writes, mirroring propertyName's shape for the write side.
func setterName(m reflect.Method) (string, bool) {
	if !strings.HasPrefix(m.Name, "Set") || len(m.Name) <= 3 {
		return "", false
	}
	if m.Type.NumIn() != 2 {
		return "", false
	}
	switch m.Type.NumOut() {
	case 0:
		return lowerFirst(m.Name[3:]), true
	case 1:
		if m.Type.Out(0) == errType {
			return lowerFirst(m.Name[3:]), true
		}
	}
	return "", false
}

// MethodNames returns every exported method name (spec.md §4.3's "all
// method names").
func (d *Dispatcher) MethodNames() []string {
	out := make([]string, len(d.desc.methodList))
	copy(out, d.desc.methodList)
	return out
}

// HasMethod reports whether name is declared.
func (d *Dispatcher) HasMethod(name string) bool {
	_, ok := d.desc.methods[name]
	return ok
}

// InvokeMethod calls the named method reflectively, resolving it by exact
// parameter-type match against paramTypes when given (spec.md §4.3). Go
// disallows method overloading, so a name resolves to at most one method;
// paramTypes still guards against a stale or mismatched invocation (wrong
// arity, wrong wire type) reaching a same-named but incompatible method.
// A panic from a wrong argument count/type is converted into a returned
// error rather than propagated as a runtime panic (the NoSuchMethod edge
// case plus graceful handling of caller mistakes).
func (d *Dispatcher) InvokeMethod(name string, paramTypes []string, args []any) (results []any, err error) {
	m, ok := d.desc.methods[name]
	if !ok {
		return nil, errs.New(errs.NoSuchMethod, "no method named "+name+" on "+d.desc.typ.String(), nil)
	}
	if len(paramTypes) > 0 && !paramTypesMatch(m, paramTypes) {
		return nil, errs.New(errs.NoSuchMethod,
			"no overload of "+name+" matches parameter types ("+strings.Join(paramTypes, ",")+") on "+d.desc.typ.String(), nil)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.NoSuchMethod, "invoking "+name, perrors.Errorf("%v", r))
		}
	}()

	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, reflect.ValueOf(d.target))
	for _, a := range args {
		in = append(in, reflect.ValueOf(a))
	}

	out := m.Func.Call(in)
	results = make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// paramTypesMatch reports whether m's declared (non-receiver) parameter
// types exactly match paramTypes, by both Go type name ("int32") and full
// type string (so pointer/slice/qualified types still resolve).
func paramTypesMatch(m reflect.Method, paramTypes []string) bool {
	if m.Type.NumIn()-1 != len(paramTypes) {
		return false
	}
	for i, want := range paramTypes {
		in := m.Type.In(i + 1)
		if in.Name() != want && in.String() != want {
			return false
		}
	}
	return true
}

// GetProperty reads a bean-style property via its Get<Name>/Is<Name>
// accessor (spec.md §4.3's property-accessor surface).
func (d *Dispatcher) GetProperty(name string) (any, error) {
	m, ok := d.desc.properties[strings.ToLower(name)]
	if !ok {
		return nil, errs.New(errs.NoSuchProperty, "no property named "+name+" on "+d.desc.typ.String(), nil)
	}
	out := m.Func.Call([]reflect.Value{reflect.ValueOf(d.target)})
	return out[0].Interface(), nil
}

// SetProperty writes a bean-style property via its Set<Name> accessor
// (spec.md §4.3's property-accessor surface), returning the setter's own
// error when it declares one.
func (d *Dispatcher) SetProperty(name string, value any) error {
	m, ok := d.desc.setters[strings.ToLower(name)]
	if !ok {
		return errs.New(errs.NoSuchProperty, "no property named "+name+" on "+d.desc.typ.String(), nil)
	}
	out := m.Func.Call([]reflect.Value{reflect.ValueOf(d.target), reflect.ValueOf(value)})
	if len(out) == 1 {
		if errVal, _ := out[0].Interface().(error); errVal != nil {
			return errVal
		}
	}
	return nil
}
