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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/lendgov/database/plugin"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "lendgov.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
	DefaultDatabasePath   = ".lendgov"
	DefaultInitialVersion = "1.0.0"

	// DefaultUpgradeTimelock is 24h
	DefaultUpgradeTimelock = 86400
	// DefaultRecoveryDelay is 48h
	DefaultRecoveryDelay = 172800
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "lendgov"

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Config holds the process configuration. Durations are in seconds of
// protocol time.
type Config struct {
	DatabasePath      string `yaml:"databasePath"      split_words:"true"`
	BlobPlugin        string `yaml:"blobPlugin"        split_words:"true"`
	MetadataPlugin    string `yaml:"metadataPlugin"    split_words:"true"`
	InitialVersion    string `yaml:"initialVersion"    split_words:"true"`
	ProposalPolicy    string `yaml:"proposalPolicy"    split_words:"true"`
	QuorumBps         uint64 `yaml:"quorumBps"         split_words:"true"`
	GovTimelock       uint64 `yaml:"govTimelock"       split_words:"true"`
	MinVotingPeriod   uint64 `yaml:"minVotingPeriod"   split_words:"true"`
	MaxVotingPeriod   uint64 `yaml:"maxVotingPeriod"   split_words:"true"`
	ExecutionWindow   uint64 `yaml:"executionWindow"   split_words:"true"`
	UpgradeTimelock   uint64 `yaml:"upgradeTimelock"   split_words:"true"`
	RecoveryDelay     uint64 `yaml:"recoveryDelay"     split_words:"true"`
	RecoveryWindow    uint64 `yaml:"recoveryWindow"    split_words:"true"`
	MaxDelegationHops uint32 `yaml:"maxDelegationHops" split_words:"true"`
	Tracing           bool   `yaml:"tracing"`
	TracingStdout     bool   `yaml:"tracingStdout"     split_words:"true"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	gov := governance.DefaultConfig()
	return &Config{
		DatabasePath:      DefaultDatabasePath,
		BlobPlugin:        DefaultBlobPlugin,
		MetadataPlugin:    DefaultMetadataPlugin,
		InitialVersion:    DefaultInitialVersion,
		ProposalPolicy:    gov.Policy.String(),
		QuorumBps:         gov.QuorumBps,
		GovTimelock:       gov.Timelock,
		MinVotingPeriod:   gov.MinVotingPeriod,
		MaxVotingPeriod:   gov.MaxVotingPeriod,
		ExecutionWindow:   gov.ExecutionWindow,
		MaxDelegationHops: gov.MaxDelegationHops,
		UpgradeTimelock:   DefaultUpgradeTimelock,
		RecoveryDelay:     DefaultRecoveryDelay,
	}
}

// Governance returns the governance settings described by the config
func (c *Config) Governance() (governance.Config, error) {
	policy, err := governance.ParsePolicy(c.ProposalPolicy)
	if err != nil {
		return governance.Config{}, err
	}
	ret := governance.Config{
		QuorumBps:         c.QuorumBps,
		Timelock:          c.GovTimelock,
		MinVotingPeriod:   c.MinVotingPeriod,
		MaxVotingPeriod:   c.MaxVotingPeriod,
		ExecutionWindow:   c.ExecutionWindow,
		MaxDelegationHops: c.MaxDelegationHops,
		Policy:            policy,
	}
	if err := ret.Validate(); err != nil {
		return governance.Config{}, err
	}
	return ret, nil
}

// Validate checks the settings that are not checked by the plugins
func (c *Config) Validate() error {
	if c.InitialVersion == "" {
		return errors.New("initialVersion must not be empty")
	}
	if _, err := c.Governance(); err != nil {
		return fmt.Errorf("invalid governance settings: %w", err)
	}
	return nil
}

var globalConfig = DefaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process(EnvPrefix, globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// findConfigFile checks ~/.lendgov/lendgov.yaml, then /etc/lendgov/lendgov.yaml
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".lendgov", "lendgov.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/lendgov/lendgov.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	buf, err = decryptIfNeeded(buf)
	if err != nil {
		return fmt.Errorf("error decrypting config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay config values onto existing defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			mergePluginSection(
				pluginConfig,
				"blob",
				tempCfg.Database.Blob,
				&globalConfig.BlobPlugin,
			)
		}
		if tempCfg.Database.Metadata != nil {
			mergePluginSection(
				pluginConfig,
				"metadata",
				tempCfg.Database.Metadata,
				&globalConfig.MetadataPlugin,
			)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// mergePluginSection folds a database.<type> section into pluginConfig. A
// "plugin" key selects the plugin, every map value is that plugin's options.
func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]any,
	pluginName *string,
) {
	if pluginVal, ok := section["plugin"].(string); ok {
		*pluginName = pluginVal
	}
	sectionConfig := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			sectionConfig[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			sectionConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType,
				k,
				v,
			)
		}
	}
	// Merge with existing config instead of overwriting
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = sectionConfig
	} else {
		maps.Copy(pluginConfig[pluginType], sectionConfig)
	}
}
