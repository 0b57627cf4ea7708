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

// Package cluster is the fault-tolerance extension point of spec.md
// §4.5: a Cluster policy joins a Directory into a single Invoker that
// picks one live candidate per call and reacts to failure.
package cluster

import (
	"go.corerpc.dev/corerpc/cluster/directory"
	"go.corerpc.dev/corerpc/common/extension"
	"go.corerpc.dev/corerpc/protocol"
)

// Cluster joins a Directory into one Invoker.
type Cluster interface {
	Join(dir directory.Directory) protocol.Invoker
}

const TypeName = "Cluster"

var loader = extension.LoaderFor[Cluster](TypeName)

func init() {
	loader.SetDefault(DefaultName)
}

const DefaultName = "failover"

func SetCluster(name string, ctor func() Cluster) { loader.Register(name, ctor) }
func GetCluster(name string) (Cluster, error)     { return loader.Get(name) }

// RegisterClusterWrapper registers a Cluster decorator, applied around
// every named Cluster instance at construction time.
func RegisterClusterWrapper(w func(Cluster) Cluster) { loader.RegisterWrapper(w) }
