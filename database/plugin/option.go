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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	Dest         any
}

// flagName returns the command line flag for an option, for example
// --blob-badger-data-dir
func (p PluginOption) flagName(pluginType PluginType, pluginName string) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(pluginType),
		pluginName,
		p.Name,
	)
}

// envVarName returns the environment variable for an option, for example
// LENDGOV_BLOB_BADGER_DATA_DIR
func (p PluginOption) envVarName(pluginType PluginType, pluginName string) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		EnvPrefix,
		PluginTypeName(pluginType),
		pluginName,
		p.Name,
	)
	ret = strings.ReplaceAll(ret, "-", "_")
	return strings.ToUpper(ret)
}

// EnvPrefix is prepended to plugin option environment variables
var EnvPrefix = "LENDGOV"

func (p PluginOption) AddToFlagSet(
	fs *pflag.FlagSet,
	pluginType PluginType,
	pluginName string,
) error {
	name := p.flagName(pluginType, pluginName)
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok {
			return fmt.Errorf("option %s: destination is not *string", name)
		}
		def, _ := p.DefaultValue.(string)
		fs.StringVar(dest, name, def, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok {
			return fmt.Errorf("option %s: destination is not *bool", name)
		}
		def, _ := p.DefaultValue.(bool)
		fs.BoolVar(dest, name, def, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok {
			return fmt.Errorf("option %s: destination is not *int", name)
		}
		def, _ := p.DefaultValue.(int)
		fs.IntVar(dest, name, def, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok {
			return fmt.Errorf("option %s: destination is not *uint64", name)
		}
		def, _ := p.DefaultValue.(uint64)
		fs.Uint64Var(dest, name, def, p.Description)
	default:
		return fmt.Errorf("option %s: unknown option type %d", name, p.Type)
	}
	return nil
}

// PopulateCmdlineOptions adds flags for every option of every registered
// plugin
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, entry := range pluginEntries {
		for _, option := range entry.Options {
			if err := option.AddToFlagSet(fs, entry.Type, entry.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options found in the environment
func ProcessEnvVars() error {
	for _, entry := range pluginEntries {
		for _, option := range entry.Options {
			val, ok := os.LookupEnv(option.envVarName(entry.Type, entry.Name))
			if !ok {
				continue
			}
			if err := setOptionFromString(entry, option, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file. The map is keyed
// by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for typeName, plugins := range pluginConfig {
		pluginType, ok := PluginTypeFromName(typeName)
		if !ok {
			return fmt.Errorf("unknown plugin type: %s", typeName)
		}
		for pluginName, options := range plugins {
			for optionName, value := range options {
				if err := SetPluginOption(pluginType, pluginName, optionName, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setOptionFromString(entry PluginEntry, option PluginOption, val string) error {
	var value any
	var err error
	switch option.Type {
	case PluginOptionTypeString:
		value = val
	case PluginOptionTypeBool:
		value, err = strconv.ParseBool(val)
	case PluginOptionTypeInt:
		value, err = strconv.Atoi(val)
	case PluginOptionTypeUint:
		value, err = strconv.ParseUint(val, 10, 64)
	}
	if err != nil {
		return fmt.Errorf(
			"invalid value for %s: %w",
			option.envVarName(entry.Type, entry.Name),
			err,
		)
	}
	return SetPluginOption(entry.Type, entry.Name, option.Name, value)
}
