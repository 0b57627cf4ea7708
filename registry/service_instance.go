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
	"sort"
	"strconv"
	"sync"

	gxsort "github.com/dubbogo/gost/sort"

	"go.corerpc.dev/corerpc/common"
)

// ServiceInstance is an application-level registration record: one
// process, possibly exporting several interface-level services, as a
// single discovery entry. This supplements spec.md's interface-level
// Registry contract with the "register once per app instance, derive
// per-interface URLs from it" model real Dubbo3 registries offer
// alongside (not instead of) per-interface registration.
type ServiceInstance interface {
	GetID() string
	GetServiceName() string
	GetHost() string
	GetPort() int
	IsEnable() bool
	IsHealthy() bool
	GetMetadata() map[string]string
	GetWeight() int64
	GetTag() string
	GetAddress() string
	// ToURL derives the per-interface URL this instance exposes for
	// protocol/path/interfaceName, using this instance's host and port.
	ToURL(protocol, path, interfaceName string) *common.URL
}

// DefaultServiceInstance is the reference ServiceInstance implementation.
type DefaultServiceInstance struct {
	ID          string
	ServiceName string
	Host        string
	Port        int
	Weight      int64
	Enable      bool
	Healthy     bool
	Metadata    map[string]string
	Tag         string

	address string
}

func (d *DefaultServiceInstance) GetID() string { return d.ID }
func (d *DefaultServiceInstance) GetServiceName() string { return d.ServiceName }
func (d *DefaultServiceInstance) GetHost() string { return d.Host }
func (d *DefaultServiceInstance) GetPort() int { return d.Port }
func (d *DefaultServiceInstance) IsEnable() bool { return d.Enable }
func (d *DefaultServiceInstance) IsHealthy() bool { return d.Healthy }
func (d *DefaultServiceInstance) GetTag() string { return d.Tag }

func (d *DefaultServiceInstance) GetWeight() int64 {
	if d.Weight <= 0 {
		return 100
	}
	return d.Weight
}

func (d *DefaultServiceInstance) GetMetadata() map[string]string {
	if d.Metadata == nil {
		d.Metadata = make(map[string]string)
	}
	return d.Metadata
}

func (d *DefaultServiceInstance) GetAddress() string {
	if d.address != "" {
		return d.address
	}
	if d.Port <= 0 {
		d.address = d.Host
	} else {
		d.address = d.Host + ":" + strconv.Itoa(d.Port)
	}
	return d.address
}

// ServiceInstanceCustomizer lets an embedding application mutate a
// ServiceInstance before it is registered (adding metadata, adjusting
// weight from a live metric, tagging a canary build). Customizers run in
// ascending priority order; per the teacher's own convention, user
// customizers should use a priority in [100, 9000] — lower numbers are
// reserved for this package's own future built-ins.
type ServiceInstanceCustomizer interface {
	gxsort.Prioritizer
	Customize(instance ServiceInstance)
}

var (
	customizerMu sync.Mutex
	customizers  []ServiceInstanceCustomizer
)

// RegisterCustomizer adds c to the set applied by ApplyCustomizers.
func RegisterCustomizer(c ServiceInstanceCustomizer) {
	customizerMu.Lock()
	defer customizerMu.Unlock()
	customizers = append(customizers, c)
}

// ApplyCustomizers runs every registered ServiceInstanceCustomizer over
// instance, in ascending priority order.
func ApplyCustomizers(instance ServiceInstance) {
	customizerMu.Lock()
	ordered := append([]ServiceInstanceCustomizer(nil), customizers...)
	customizerMu.Unlock()

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].GetPriority() < ordered[j].GetPriority()
	})
	for _, c := range ordered {
		c.Customize(instance)
	}
}

func (d *DefaultServiceInstance) ToURL(protocol, path, interfaceName string) *common.URL {
	opts := []common.Option{
		common.WithProtocol(protocol),
		common.WithIp(d.Host),
		common.WithPort(strconv.Itoa(d.Port)),
		common.WithPath(path),
		common.WithInterface(interfaceName),
		common.WithWeight(d.GetWeight()),
	}
	if d.Tag != "" {
		opts = append(opts, common.WithParams(map[string][]string{"tag": {d.Tag}}))
	}
	return common.NewURLWithOptions(opts...)
}
