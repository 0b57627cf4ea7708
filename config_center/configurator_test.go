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

package config_center

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.corerpc.dev/corerpc/common"
)

const validRule = `
configVersion: v3.0
scope: service
key: g1/svc.Demo:1.0.0
enabled: true
configs:
  - side: provider
    parameters:
      weight: "200"
`

func TestParseOverrideRuleAppliesMatchingSide(t *testing.T) {
	c, err := ParseOverrideRule([]byte(validRule))
	require.NoError(t, err)

	u, err := common.NewURL("dubbo://10.0.0.1:20880/svc.Demo?side=provider&weight=100")
	require.NoError(t, err)

	out := c.Configure(u)
	assert.Equal(t, "200", out.GetParam("weight", ""))
	assert.Equal(t, "100", u.GetParam("weight", ""), "Configure must not mutate its input")
}

func TestConfigurationListenerFailOpenKeepsPreviousOnParseFailure(t *testing.T) {
	var changes int
	l := NewConfigurationListener(func() { changes++ })

	l.Process(Event{Key: "k1", Type: EventAdded, Content: []byte(validRule)})
	require.Len(t, l.Snapshot(), 1)

	l.Process(Event{Key: "k1", Type: EventModified, Content: []byte("not: [valid yaml")})
	assert.Len(t, l.Snapshot(), 1, "a parse failure must not clear the previous binding")
	assert.Equal(t, 1, changes, "onChange must not fire for a rejected update")
}

func TestConfigurationListenerDeletedClearsBinding(t *testing.T) {
	l := NewConfigurationListener(nil)
	l.Process(Event{Key: "k1", Type: EventAdded, Content: []byte(validRule)})
	require.Len(t, l.Snapshot(), 1)

	l.Process(Event{Key: "k1", Type: EventDeleted})
	assert.Len(t, l.Snapshot(), 0)
}
