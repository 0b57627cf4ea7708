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

// Package config is the bootstrap surface that turns user-declared
// service/reference configuration into the URLs the rest of the module
// operates on, adapted from the teacher's config.ReferenceConfig
// (config/reference_config.go). spec.md's Non-goals exclude a
// configuration file grammar, so this package stops at Go-level structs
// and builders; binding those structs from a YAML/properties file is left
// to the embedding application, the same way creasty/defaults here only
// fills in zero-valued fields rather than reading any file itself.
package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/creasty/defaults"

	"go.corerpc.dev/corerpc/cluster"
	"go.corerpc.dev/corerpc/cluster/directory/static"
	"go.corerpc.dev/corerpc/common"
	"go.corerpc.dev/corerpc/common/constant"
	"go.corerpc.dev/corerpc/protocol"
)

// ReferenceOptions is the consumer-side declaration of spec.md §4.6's
// Refer operation: which interface, through which registry role, under
// which fault-tolerance policy.
type ReferenceOptions struct {
	InterfaceName  string            `yaml:"interface" default:""`
	URL            string            `yaml:"url" default:""`
	Protocol       string            `yaml:"protocol" default:"dubbo"`
	Registry       string            `yaml:"registry" default:""`
	Cluster        string            `yaml:"cluster" default:"failover"`
	Loadbalance    string            `yaml:"loadbalance" default:"random"`
	Retries        int               `yaml:"retries" default:"2"`
	Group          string            `yaml:"group" default:""`
	Version        string            `yaml:"version" default:""`
	RequestTimeout time.Duration     `yaml:"timeout" default:"1s"`
	Sticky         bool              `yaml:"sticky" default:"false"`
	Params         map[string]string `yaml:"params"`

	applicationName string
	invoker         protocol.Invoker
}

// NewReferenceOptions applies creasty/defaults to a zero-valued
// ReferenceOptions, the same defaulting idiom the teacher's
// ReferenceConfig.Init uses.
func NewReferenceOptions() (*ReferenceOptions, error) {
	o := &ReferenceOptions{}
	if err := defaults.Set(o); err != nil {
		return nil, err
	}
	return o, nil
}

// WithApplicationName records the owning application's name, folded into
// the reference URL's "application" parameter.
func (o *ReferenceOptions) WithApplicationName(name string) *ReferenceOptions {
	o.applicationName = name
	return o
}

func (o *ReferenceOptions) urlParams() url.Values {
	values := url.Values{}
	for k, v := range o.Params {
		values.Set(k, v)
	}
	values.Set(constant.InterfaceKey, o.InterfaceName)
	values.Set(constant.TimestampKey, strconv.FormatInt(time.Now().Unix(), 10))
	values.Set(constant.ClusterKey, o.Cluster)
	values.Set(constant.LoadbalanceKey, o.Loadbalance)
	values.Set(constant.RetriesKey, strconv.Itoa(o.Retries))
	values.Set(constant.GroupKey, o.Group)
	values.Set(constant.VersionKey, o.Version)
	values.Set(constant.StickyKey, strconv.FormatBool(o.Sticky))
	values.Set(constant.SideKey, constant.CONSUMER.Role())
	if o.RequestTimeout > 0 {
		values.Set(constant.TimeoutKey, o.RequestTimeout.String())
	}
	if o.applicationName != "" {
		values.Set(constant.ApplicationKey, o.applicationName)
	}
	return values
}

// Refer builds the reference URL(s) and the resulting Invoker, following
// the teacher's direct-URL-vs-registry branch (reference_config.go's
// Refer): a non-empty URL means direct connection(s); an empty URL with a
// Registry set means "refer entirely through the Registry Protocol".
func (o *ReferenceOptions) Refer() (protocol.Invoker, error) {
	cfgURL := common.NewURLWithOptions(
		common.WithPath(o.InterfaceName),
		common.WithProtocol(o.Protocol),
		common.WithInterface(o.InterfaceName),
		common.WithParams(o.urlParams()),
	)

	adaptiveProtocol, err := protocol.GetAdaptive()
	if err != nil {
		return nil, err
	}

	if o.URL == "" && o.Registry != "" {
		registryURL := common.NewURLWithOptions(
			common.WithProtocol(constant.RegistryProtocol),
			common.WithIp(o.Registry),
		)
		registryURL.SubURL = cfgURL
		invoker := adaptiveProtocol.Refer(registryURL)
		o.invoker = invoker
		return invoker, nil
	}

	serviceURL, err := common.NewURL(o.URL)
	if err != nil {
		return nil, err
	}
	merged := serviceURL.MergeURL(cfgURL)

	invoker := adaptiveProtocol.Refer(merged)
	cl, err := cluster.GetCluster(o.Cluster)
	if err != nil {
		cl, _ = cluster.GetCluster(cluster.DefaultName)
	}
	dir := static.New(merged, []protocol.Invoker{invoker}, nil)
	o.invoker = cl.Join(dir)
	return o.invoker, nil
}

// GetInvoker returns the Invoker built by the last Refer call.
func (o *ReferenceOptions) GetInvoker() protocol.Invoker { return o.invoker }

// ReferenceOptionsBuilder is the fluent constructor the teacher's
// ReferenceConfigBuilder models, trimmed to the fields SPEC_FULL.md
// actually drives.
type ReferenceOptionsBuilder struct {
	opts *ReferenceOptions
}

func NewReferenceOptionsBuilder() *ReferenceOptionsBuilder {
	o, _ := NewReferenceOptions()
	return &ReferenceOptionsBuilder{opts: o}
}

func (b *ReferenceOptionsBuilder) SetInterface(name string) *ReferenceOptionsBuilder {
	b.opts.InterfaceName = name
	return b
}

func (b *ReferenceOptionsBuilder) SetURL(u string) *ReferenceOptionsBuilder {
	b.opts.URL = u
	return b
}

func (b *ReferenceOptionsBuilder) SetRegistry(registry string) *ReferenceOptionsBuilder {
	b.opts.Registry = registry
	return b
}

func (b *ReferenceOptionsBuilder) SetCluster(c string) *ReferenceOptionsBuilder {
	b.opts.Cluster = c
	return b
}

func (b *ReferenceOptionsBuilder) SetLoadbalance(lb string) *ReferenceOptionsBuilder {
	b.opts.Loadbalance = lb
	return b
}

func (b *ReferenceOptionsBuilder) SetGroup(group string) *ReferenceOptionsBuilder {
	b.opts.Group = group
	return b
}

func (b *ReferenceOptionsBuilder) SetVersion(version string) *ReferenceOptionsBuilder {
	b.opts.Version = version
	return b
}

func (b *ReferenceOptionsBuilder) SetParams(params map[string]string) *ReferenceOptionsBuilder {
	b.opts.Params = params
	return b
}

func (b *ReferenceOptionsBuilder) Build() *ReferenceOptions {
	return b.opts
}
