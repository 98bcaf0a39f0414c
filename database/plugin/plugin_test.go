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
	"errors"
	"strings"
	"testing"

	"github.com/blinklabs-io/lendgov/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionDests struct {
	dataDir   string
	gc        bool
	workers   int
	cacheSize uint64
}

func registerOptionPlugin(t *testing.T) (string, *optionDests) {
	t.Helper()
	name := "opts-" + t.Name()
	dests := &optionDests{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func(plugin.Env) plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: ".lendgov",
				Dest:         &dests.dataDir,
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: true,
				Dest:         &dests.gc,
			},
			{
				Name: "workers",
				Type: plugin.PluginOptionTypeInt,
				Dest: &dests.workers,
			},
			{
				Name: "cache-size",
				Type: plugin.PluginOptionTypeUint,
				Dest: &dests.cacheSize,
			},
		},
	})
	return name, dests
}

func TestSetPluginOption(t *testing.T) {
	name, dests := registerOptionPlugin(t)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", ""))
	assert.Empty(t, dests.dataDir)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "gc", true))
	assert.True(t, dests.gc)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "workers", 4))
	assert.Equal(t, 4, dests.workers)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", uint64(100)))
	assert.Equal(t, uint64(100), dests.cacheSize)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", 200))
	assert.Equal(t, uint64(200), dests.cacheSize)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", 123))
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", -1))
	// Unknown options are ignored
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "does-not-exist", "x"))
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", "x"))
}

func TestProcessConfig(t *testing.T) {
	name, dests := registerOptionPlugin(t)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			name: {
				"data-dir":   "/var/lib/lendgov",
				"cache-size": 1024,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/lendgov", dests.dataDir)
	assert.Equal(t, uint64(1024), dests.cacheSize)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"bogus": {},
	})
	require.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	name, dests := registerOptionPlugin(t)
	prefix := "LENDGOV_BLOB_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	t.Setenv(prefix+"_GC", "true")
	t.Setenv(prefix+"_WORKERS", "7")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.True(t, dests.gc)
	assert.Equal(t, 7, dests.workers)

	t.Setenv(prefix+"_WORKERS", "many")
	require.Error(t, plugin.ProcessEnvVars())
}

func TestPopulateCmdlineOptions(t *testing.T) {
	name, dests := registerOptionPlugin(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NoError(t, fs.Parse([]string{
		"--blob-" + name + "-data-dir=/tmp/x",
		"--blob-" + name + "-cache-size=5",
	}))
	assert.Equal(t, "/tmp/x", dests.dataDir)
	assert.Equal(t, uint64(5), dests.cacheSize)
	assert.True(t, dests.gc)
}

func TestStartPlugin(t *testing.T) {
	okName := "start-ok-" + t.Name()
	failName := "start-fail-" + t.Name()
	boom := errors.New("boom")
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               okName,
		NewFromOptionsFunc: func(plugin.Env) plugin.Plugin { return &mockPlugin{} },
	})
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               failName,
		NewFromOptionsFunc: func(plugin.Env) plugin.Plugin { return plugin.NewErrorPlugin(boom) },
	})
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, okName, plugin.Env{})
	require.NoError(t, err)
	require.NotNil(t, p)
	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, failName, plugin.Env{})
	require.ErrorIs(t, err, boom)
	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, "missing-"+t.Name(), plugin.Env{})
	require.Error(t, err)
}
