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

// Package constant holds the URL parameter keys and well-known values
// recognized by the core, as enumerated in spec.md §6.
package constant

const (
	ProtocolKey = "protocol"
	RegistryKey = "registry"
	CategoryKey = "category"
	CheckKey    = "check"
	RegisterKey = "register"
	DynamicKey  = "dynamic"
	EnabledKey  = "enabled"
	GroupKey    = "group"
	VersionKey  = "version"
	InterfaceKey = "interface"
	MethodsKey  = "methods"
	TimeoutKey  = "timeout"
	RetriesKey  = "retries"
	ClusterKey  = "cluster"
	LoadbalanceKey = "loadbalance"
	ProxyKey    = "proxy"
	MockKey     = "mock"
	ExportKey   = "export"
	ReferKey    = "refer"
	AnyhostKey  = "anyhost"
	SideKey     = "side"
	PathKey     = "path"
	SimplifiedKey = "simplified"
	ExtraKeysKey  = "extra-keys"
	WeightKey     = "weight"
	TokenKey      = "token"
	TimestampKey  = "timestamp"
	RemoteTimestampKey = "remote.timestamp"
	BeanNameKey   = "bean.name"
	MetadataTypeKey = "metadata.type"
	ApplicationKey  = "application"
	RegistryRoleKey = "registry.role"
	StickyKey       = "sticky"
	ForceUseTag     = "dubbo.force.tag"
	GenericKey      = "generic"
	TracingConfigKey = "tracing"
	RegistryGroupKey = "registry.group"

	// Registry protocol / category constants (§4.6)
	RegistryProtocol = "registry"
	ProviderProtocol = "provider"
	CategoryConfigurators = "configurators"
	CategoryProviders     = "providers"
	CategoryRouters       = "routers"

	DefaultCategory = CategoryProviders

	AnyValue          = "*"
	RemoveValuePrefix = "-"
	PathSeparator     = "/"
	KeySeparator      = ":"

	DefaultRegistryProtocol = "dubbo"
	DefaultClusterKey       = "failover"
	DefaultLoadbalanceKey   = "random"

	ShutdownTimeoutKeyDefault = 5000 // ms, default grace period for Exporter.unexport
)

// RoleType mirrors the teacher's common.RoleType: which side of a call a
// URL describes.
type RoleType int

const (
	CONSUMER RoleType = iota
	CONFIGURATOR
	ROUTER
	PROVIDER
)

var (
	DubboNodes = [...]string{"consumers", "configurators", "routers", "providers"}
	DubboRole  = [...]string{"consumer", "", "routers", "provider"}
)

func (t RoleType) String() string { return DubboNodes[t] }
func (t RoleType) Role() string   { return DubboRole[t] }
