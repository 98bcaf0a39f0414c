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

package plugin

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return ""
	}
}

// PluginTypeFromName returns the plugin type for a config section name
func PluginTypeFromName(name string) (PluginType, bool) {
	switch name {
	case "blob":
		return PluginTypeBlob, true
	case "metadata":
		return PluginTypeMetadata, true
	default:
		return 0, false
	}
}

// Env carries the process handles a plugin instance is built with. Either
// field may be nil.
type Env struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func(Env) Plugin
	Options            []PluginOption
}

var pluginEntries []PluginEntry

// Register adds a plugin to the registry. Plugins register themselves from
// init() in their own package.
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, plugin := range pluginEntries {
		if plugin.Type == pluginType {
			ret = append(ret, plugin)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin built from the
// current option values, or nil if no such plugin is registered
func GetPlugin(pluginType PluginType, name string, env Env) Plugin {
	for _, plugin := range pluginEntries {
		if plugin.Type == pluginType && plugin.Name == name {
			return plugin.NewFromOptionsFunc(env)
		}
	}
	return nil
}
