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

package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/creasty/defaults"

	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/common/dispatch"
	"go.corerpc.dev/corerpc/protocol"
	"go.corerpc.dev/corerpc/protocol/base"
)

// ServiceOptions is the provider-side declaration of spec.md §4.6's
// Export operation, the ServiceConfig counterpart to ReferenceOptions.
type ServiceOptions struct {
	InterfaceName string            `yaml:"interface" default:""`
	Protocol      string            `yaml:"protocol" default:"dubbo"`
	Registry      string            `yaml:"registry" default:""`
	Group         string            `yaml:"group" default:""`
	Version       string            `yaml:"version" default:""`
	Weight        int64             `yaml:"weight" default:"100"`
	Register      bool              `yaml:"register" default:"true"`
	Params        map[string]string `yaml:"params"`

	applicationName string
	exporter        protocol.Exporter
}

func NewServiceOptions() (*ServiceOptions, error) {
	o := &ServiceOptions{}
	if err := defaults.Set(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *ServiceOptions) WithApplicationName(name string) *ServiceOptions {
	o.applicationName = name
	return o
}

func (o *ServiceOptions) urlParams() url.Values {
	values := url.Values{}
	for k, v := range o.Params {
		values.Set(k, v)
	}
	values.Set(constant.InterfaceKey, o.InterfaceName)
	values.Set(constant.TimestampKey, strconv.FormatInt(time.Now().Unix(), 10))
	values.Set(constant.GroupKey, o.Group)
	values.Set(constant.VersionKey, o.Version)
	values.Set(constant.WeightKey, strconv.FormatInt(o.Weight, 10))
	values.Set(constant.RegisterKey, strconv.FormatBool(o.Register))
	values.Set(constant.SideKey, constant.PROVIDER.Role())
	if o.applicationName != "" {
		values.Set(constant.ApplicationKey, o.applicationName)
	}
	return values
}

// serviceInvoker adapts a reflective dispatch.Dispatcher over impl to the
// protocol.Invoker contract, so Export can hand the adaptive Protocol a
// real Invoker without impl needing to implement Invoker itself.
type serviceInvoker struct {
	*base.Invoker
	dispatcher *dispatch.Dispatcher
}

func (s *serviceInvoker) Invoke(invocation common.Invocation) common.Result {
	result := common.NewRPCResult()
	out, err := s.dispatcher.InvokeMethod(invocation.MethodName(), invocation.ParameterTypes(), invocation.Arguments())
	if err != nil {
		result.SetError(err)
		return result
	}
	if len(out) > 0 {
		result.SetValue(out[0])
	}
	if len(out) > 1 {
		if errVal, ok := out[len(out)-1].(error); ok {
			result.SetError(errVal)
		}
	}
	return result
}

// Export publishes impl (any Go value whose methods are the service's
// RPC surface, dispatched reflectively per spec.md §4.3) at the URL this
// ServiceOptions describes, via the adaptive Protocol (spec.md §4.6).
func (o *ServiceOptions) Export(impl any) (protocol.Exporter, error) {
	providerURL := common.NewURLWithOptions(
		common.WithPath(o.InterfaceName),
		common.WithProtocol(o.Protocol),
		common.WithInterface(o.InterfaceName),
		common.WithParams(o.urlParams()),
		common.WithWeight(o.Weight),
	)

	invoker := &serviceInvoker{
		Invoker:    base.NewInvoker(providerURL),
		dispatcher: dispatch.New(impl),
	}

	adaptiveProtocol, err := protocol.GetAdaptive()
	if err != nil {
		return nil, err
	}

	if o.Registry == "" {
		exporter := adaptiveProtocol.Export(invoker)
		o.exporter = exporter
		return exporter, nil
	}

	registryURL := common.NewURLWithOptions(
		common.WithProtocol(constant.RegistryProtocol),
		common.WithIp(o.Registry),
	)
	registryURL.SetParam(constant.ExportKey, providerURL.String())
	registryURL.SubURL = providerURL

	exporter := adaptiveProtocol.Export(&registryInvoker{Invoker: invoker, url: registryURL})
	o.exporter = exporter
	return exporter, nil
}

// registryInvoker substitutes GetURL with the registry-wrapping URL, the
// shape protocol.Export expects from the Registry Protocol (spec.md
// §4.6's external interface: the export URL is carried in the "export"
// query parameter of a registry-scheme URL).
type registryInvoker struct {
	protocol.Invoker
	url *common.URL
}

func (r *registryInvoker) GetURL() *common.URL { return r.url }

func (o *ServiceOptions) GetExporter() protocol.Exporter { return o.exporter }

// ServiceOptionsBuilder is the fluent constructor mirroring
// ReferenceOptionsBuilder.
type ServiceOptionsBuilder struct {
	opts *ServiceOptions
}

func NewServiceOptionsBuilder() *ServiceOptionsBuilder {
	o, _ := NewServiceOptions()
	return &ServiceOptionsBuilder{opts: o}
}

func (b *ServiceOptionsBuilder) SetInterface(name string) *ServiceOptionsBuilder {
	b.opts.InterfaceName = name
	return b
}

func (b *ServiceOptionsBuilder) SetRegistry(registry string) *ServiceOptionsBuilder {
	b.opts.Registry = registry
	return b
}

func (b *ServiceOptionsBuilder) SetGroup(group string) *ServiceOptionsBuilder {
	b.opts.Group = group
	return b
}

func (b *ServiceOptionsBuilder) SetVersion(version string) *ServiceOptionsBuilder {
	b.opts.Version = version
	return b
}

func (b *ServiceOptionsBuilder) SetWeight(weight int64) *ServiceOptionsBuilder {
	b.opts.Weight = weight
	return b
}

func (b *ServiceOptionsBuilder) SetParams(params map[string]string) *ServiceOptionsBuilder {
	b.opts.Params = params
	return b
}

func (b *ServiceOptionsBuilder) Build() *ServiceOptions {
	return b.opts
}
