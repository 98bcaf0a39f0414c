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

package lendgov

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/lendgov/database"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/blinklabs-io/lendgov/recovery"
	"github.com/blinklabs-io/lendgov/upgrade"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultInitialVersion = "1.0.0"

// TimeSource returns the current protocol time in unix seconds
type TimeSource func() uint64

func systemTime() uint64 {
	return uint64(time.Now().Unix()) //nolint:gosec
}

// Defaults are the settings written to storage by Initialize
type Defaults struct {
	Governance      governance.Config
	Params          params.Params
	Recovery        recovery.Config
	InitialVersion  string
	VersionMetadata string
	UpgradeTimelock uint64
}

func DefaultDefaults() Defaults {
	return Defaults{
		Governance:      governance.DefaultConfig(),
		Params:          params.Defaults(),
		Recovery:        recovery.DefaultConfig(),
		InitialVersion:  DefaultInitialVersion,
		UpgradeTimelock: upgrade.DefaultTimelock,
	}
}

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	db             *database.Database
	eventBus       *event.EventBus
	timeSource     TimeSource
	observer       ParameterObserver
	weights        governance.WeightSource
	defaults       Defaults
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	tracing        bool
	tracingStdout  bool
}

// ConfigOptionFunc is a type that represents functions that modify the Protocol config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new Protocol config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		defaults:   DefaultDefaults(),
		timeSource: systemTime,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPromRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPromRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDatabase uses an already opened database. The Protocol does not close
// a database it did not open.
func WithDatabase(db *database.Database) ConfigOptionFunc {
	return func(c *Config) {
		c.db = db
	}
}

// WithDataDir specifies the persistent data directory. An empty value keeps
// all state in memory.
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithEventBus specifies the event bus that protocol events are published to
func WithEventBus(eventBus *event.EventBus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = eventBus
	}
}

// WithTimeSource overrides the clock used for "now" in every call
func WithTimeSource(ts TimeSource) ConfigOptionFunc {
	return func(c *Config) {
		if ts != nil {
			c.timeSource = ts
		}
	}
}

// WithParameterObserver registers the external module notified about
// parameter and ownership changes
func WithParameterObserver(observer ParameterObserver) ConfigOptionFunc {
	return func(c *Config) {
		c.observer = observer
	}
}

// WithWeightSource replaces the stored voting weights. GovSetVotingWeight is
// unavailable when an external source is used.
func WithWeightSource(weights governance.WeightSource) ConfigOptionFunc {
	return func(c *Config) {
		c.weights = weights
	}
}

// WithDefaults specifies the settings written by Initialize
func WithDefaults(defaults Defaults) ConfigOptionFunc {
	return func(c *Config) {
		c.defaults = defaults
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
