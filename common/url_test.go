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

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLRoundTrip(t *testing.T) {
	u, err := NewURL("dubbo://10.0.0.1:20880/svc.Demo?methods=hello&side=provider&group=g1&version=1.0.0")
	assert.NoError(t, err)

	u2, err := NewURL(u.String())
	assert.NoError(t, err)

	assert.True(t, IsEquals(u, u2))
	assert.Equal(t, u.ServiceKey(), u2.ServiceKey())
}

func TestURLKeyIgnoresParamOrder(t *testing.T) {
	u1, _ := NewURL("dubbo://127.0.0.1:20880/svc.Demo?a=1&b=2")
	u2, _ := NewURL("dubbo://127.0.0.1:20880/svc.Demo?b=2&a=1")
	assert.True(t, IsEquals(u1, u2))
}

func TestURLServiceKeyWithGroupVersion(t *testing.T) {
	assert.Equal(t, "g1/svc.Demo:1.0.0", ServiceKey("svc.Demo", "g1", "1.0.0"))
	assert.Equal(t, "svc.Demo", ServiceKey("svc.Demo", "", ""))
	assert.Equal(t, "svc.Demo", ServiceKey("svc.Demo", "", "0.0.0"))

	intf, group, version := ParseServiceKey("g1/svc.Demo:1.0.0")
	assert.Equal(t, "svc.Demo", intf)
	assert.Equal(t, "g1", group)
	assert.Equal(t, "1.0.0", version)
}

func TestURLCacheKeyExcludesDynamicAndEnabled(t *testing.T) {
	u, _ := NewURL("dubbo://10.0.0.1:20880/svc.Demo?dynamic=true&enabled=true&weight=100")
	key := u.CacheKey()
	assert.NotContains(t, key, "dynamic=")
	assert.NotContains(t, key, "enabled=")
	assert.Contains(t, key, "weight=100")
}

func TestURLEqualWildcardGroup(t *testing.T) {
	u1, _ := NewURL("dubbo://10.0.0.1:20880/svc.Demo?group=*")
	u2, _ := NewURL("dubbo://10.0.0.1:20880/svc.Demo?group=g1")
	assert.True(t, u1.URLEqual(u2))
}

func TestURLMergePreservesOwnValuesAddsMissing(t *testing.T) {
	c, _ := NewURL("dubbo://10.0.0.1:20880/svc.Demo?a=1")
	other, _ := NewURL("dubbo://10.0.0.2:20880/svc.Demo?a=2&b=3")

	merged := c.MergeURL(other)
	assert.Equal(t, "1", merged.GetParam("a", ""))
	assert.Equal(t, "3", merged.GetParam("b", ""))
}

func TestURLCloneIsIndependent(t *testing.T) {
	u, _ := NewURL("dubbo://10.0.0.1:20880/svc.Demo?a=1")
	clone := u.Clone()
	clone.SetParam("a", "2")
	assert.Equal(t, "1", u.GetParam("a", ""))
	assert.Equal(t, "2", clone.GetParam("a", ""))
}
