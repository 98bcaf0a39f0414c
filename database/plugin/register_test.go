// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

func TestRegisterAndLookup(t *testing.T) {
	blobName := "blob-" + t.Name()
	metaName := "meta-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               blobName,
		NewFromOptionsFunc: func(plugin.Env) plugin.Plugin { return &mockPlugin{} },
	})
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               metaName,
		NewFromOptionsFunc: func(plugin.Env) plugin.Plugin { return &mockPlugin{} },
	})

	p := plugin.GetPlugin(plugin.PluginTypeBlob, blobName, plugin.Env{})
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, blobName, plugin.Env{}))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name(), plugin.Env{}))

	names := func(pluginType plugin.PluginType) []string {
		var ret []string
		for _, entry := range plugin.GetPlugins(pluginType) {
			ret = append(ret, entry.Name)
		}
		return ret
	}
	assert.Contains(t, names(plugin.PluginTypeBlob), blobName)
	assert.NotContains(t, names(plugin.PluginTypeBlob), metaName)
	assert.Contains(t, names(plugin.PluginTypeMetadata), metaName)
}

func TestPluginTypeName(t *testing.T) {
	assert.Equal(t, "blob", plugin.PluginTypeName(plugin.PluginTypeBlob))
	assert.Equal(t, "metadata", plugin.PluginTypeName(plugin.PluginTypeMetadata))
	pt, ok := plugin.PluginTypeFromName("metadata")
	require.True(t, ok)
	assert.Equal(t, plugin.PluginTypeMetadata, pt)
	_, ok = plugin.PluginTypeFromName("queue")
	assert.False(t, ok)
}
