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

// Package upgrade manages the contract version state machine: propose,
// approve and execute a new version, or roll back to the previous one.
package upgrade

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/threshold"
	"github.com/blinklabs-io/lendgov/timelock"
)

const (
	DefaultTimelock  uint64 = 24 * 60 * 60
	MaxVersionLength        = 64
	MaxMetadataSize         = 1024
)

type Config struct {
	Approvers []common.Address `json:"approvers"`
	Threshold uint32           `json:"threshold"`
	Timelock  uint64           `json:"timelock"`
}

func (c Config) Validate() error {
	return threshold.ValidateConfig(c.Approvers, c.Threshold)
}

// Record is the persisted version state. Empty strings mean absent.
type Record struct {
	CurrentVersion   string           `json:"currentVersion"`
	CurrentMetadata  string           `json:"currentMetadata,omitempty"`
	PendingVersion   string           `json:"pendingVersion,omitempty"`
	PendingMetadata  string           `json:"pendingMetadata,omitempty"`
	PreviousVersion  string           `json:"previousVersion,omitempty"`
	PreviousMetadata string           `json:"previousMetadata,omitempty"`
	ProposedBy       common.Address   `json:"proposedBy,omitempty"`
	ProposedAt       uint64           `json:"proposedAt,omitempty"`
	Approvals        []common.Address `json:"approvals,omitempty"`
	ExecutedAt       uint64           `json:"executedAt,omitempty"`
}

func (r Record) HasPending() bool {
	return r.PendingVersion != ""
}

// Status is the read view returned to callers
type Status struct {
	Current         string           `json:"current"`
	Previous        string           `json:"previous,omitempty"`
	Pending         string           `json:"pending,omitempty"`
	Metadata        string           `json:"metadata,omitempty"`
	PendingMetadata string           `json:"pendingMetadata,omitempty"`
	Approvals       []common.Address `json:"approvals,omitempty"`
	ExecutableAt    uint64           `json:"executableAt,omitempty"`
	ExecutedAt      uint64           `json:"executedAt,omitempty"`
}

var (
	keyConfig = types.MakeKey(types.ModuleUpgrade, "config", nil)
	keyRecord = types.MakeKey(types.ModuleUpgrade, "record", nil)
)

type Engine struct {
	kv types.KV
}

func New(kv types.KV) *Engine {
	return &Engine{kv: kv}
}

func validateVersion(version, metadata string) error {
	if version == "" || len(version) > MaxVersionLength {
		return fmt.Errorf(
			"%w: version length %d outside 1..%d",
			common.ErrInvalidConfiguration,
			len(version),
			MaxVersionLength,
		)
	}
	if len(metadata) > MaxMetadataSize {
		return fmt.Errorf(
			"%w: metadata exceeds %d bytes",
			common.ErrInvalidConfiguration,
			MaxMetadataSize,
		)
	}
	return nil
}

// Init stores the initial version and approver configuration
func (e *Engine) Init(version, metadata string, cfg Config) error {
	if err := validateVersion(version, metadata); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := types.SetValue(e.kv, keyConfig, cfg); err != nil {
		return err
	}
	return types.SetValue(e.kv, keyRecord, Record{
		CurrentVersion:  version,
		CurrentMetadata: metadata,
	})
}

func (e *Engine) Config() (Config, error) {
	cfg, ok, err := types.GetValue[Config](e.kv, keyConfig)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: upgrade config", common.ErrNotInitialized)
	}
	return cfg, nil
}

// SetApprovers replaces the approver set. Approvals already given for a
// pending upgrade only count while the approver remains in the set.
func (e *Engine) SetApprovers(approvers []common.Address, required uint32) (Config, error) {
	cfg, err := e.Config()
	if err != nil {
		return Config{}, err
	}
	cfg.Approvers = approvers
	cfg.Threshold = required
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := types.SetValue(e.kv, keyConfig, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (e *Engine) Record() (Record, error) {
	r, ok, err := types.GetValue[Record](e.kv, keyRecord)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: upgrade record", common.ErrNotInitialized)
	}
	return r, nil
}

func (e *Engine) Status() (Status, error) {
	cfg, err := e.Config()
	if err != nil {
		return Status{}, err
	}
	r, err := e.Record()
	if err != nil {
		return Status{}, err
	}
	ret := Status{
		Current:         r.CurrentVersion,
		Previous:        r.PreviousVersion,
		Pending:         r.PendingVersion,
		Metadata:        r.CurrentMetadata,
		PendingMetadata: r.PendingMetadata,
		ExecutedAt:      r.ExecutedAt,
	}
	if r.HasPending() {
		ret.Approvals = threshold.Eligible(r.Approvals, cfg.Approvers)
		ret.ExecutableAt = timelock.Schedule(r.ProposedAt, cfg.Timelock)
	}
	return ret, nil
}

func (e *Engine) load(caller common.Address) (Config, Record, error) {
	cfg, err := e.Config()
	if err != nil {
		return Config{}, Record{}, err
	}
	r, err := e.Record()
	if err != nil {
		return Config{}, Record{}, err
	}
	if !common.ContainsAddress(cfg.Approvers, caller) {
		return Config{}, Record{}, fmt.Errorf(
			"%w: %s is not an upgrade approver",
			common.ErrUnauthorized,
			caller,
		)
	}
	return cfg, r, nil
}

func (e *Engine) Propose(
	caller common.Address,
	version string,
	metadata string,
	now uint64,
) (Record, error) {
	_, r, err := e.load(caller)
	if err != nil {
		return Record{}, err
	}
	if r.HasPending() {
		return Record{}, fmt.Errorf(
			"%w: %s",
			common.ErrUpgradeAlreadyPending,
			r.PendingVersion,
		)
	}
	if err := validateVersion(version, metadata); err != nil {
		return Record{}, err
	}
	if version == r.CurrentVersion {
		return Record{}, fmt.Errorf(
			"%w: %s is already the current version",
			common.ErrInvalidConfiguration,
			version,
		)
	}
	r.PendingVersion = version
	r.PendingMetadata = metadata
	r.ProposedBy = caller
	r.ProposedAt = now
	r.Approvals = nil
	if err := types.SetValue(e.kv, keyRecord, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (e *Engine) Approve(caller common.Address) (Record, error) {
	cfg, err := e.Config()
	if err != nil {
		return Record{}, err
	}
	r, err := e.Record()
	if err != nil {
		return Record{}, err
	}
	if !r.HasPending() {
		return Record{}, common.ErrNoPendingUpgrade
	}
	approvals, err := threshold.Approve(r.Approvals, caller, cfg.Approvers)
	if err != nil {
		return Record{}, err
	}
	r.Approvals = approvals
	if err := types.SetValue(e.kv, keyRecord, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Execute promotes the pending version once enough approvals are in and the
// timelock measured from the proposal has elapsed. Anyone may execute.
func (e *Engine) Execute(caller common.Address, now uint64) (Record, error) {
	if err := caller.Validate(); err != nil {
		return Record{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return Record{}, err
	}
	r, err := e.Record()
	if err != nil {
		return Record{}, err
	}
	if !r.HasPending() {
		return Record{}, common.ErrNoPendingUpgrade
	}
	if err := threshold.CheckSatisfied(r.Approvals, cfg.Approvers, cfg.Threshold); err != nil {
		return Record{}, fmt.Errorf("upgrade %s: %w", r.PendingVersion, err)
	}
	lock := timelock.NewLock(r.ProposedAt, cfg.Timelock, 0)
	if err := lock.CheckExecutable(now); err != nil {
		return Record{}, fmt.Errorf("upgrade %s: %w", r.PendingVersion, err)
	}
	r = Record{
		CurrentVersion:   r.PendingVersion,
		CurrentMetadata:  r.PendingMetadata,
		PreviousVersion:  r.CurrentVersion,
		PreviousMetadata: r.CurrentMetadata,
		ExecutedAt:       now,
	}
	if err := types.SetValue(e.kv, keyRecord, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Rollback restores the previous version. Only one level of history is
// kept, and any pending upgrade is discarded.
func (e *Engine) Rollback(caller common.Address, now uint64) (Record, error) {
	_, r, err := e.load(caller)
	if err != nil {
		return Record{}, err
	}
	if r.PreviousVersion == "" {
		return Record{}, common.ErrNoPreviousVersion
	}
	r = Record{
		CurrentVersion:  r.PreviousVersion,
		CurrentMetadata: r.PreviousMetadata,
		ExecutedAt:      now,
	}
	if err := types.SetValue(e.kv, keyRecord, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Cancel discards the pending upgrade
func (e *Engine) Cancel(caller common.Address) (Record, error) {
	_, r, err := e.load(caller)
	if err != nil {
		return Record{}, err
	}
	if !r.HasPending() {
		return Record{}, common.ErrNoPendingUpgrade
	}
	r.PendingVersion = ""
	r.PendingMetadata = ""
	r.ProposedBy = ""
	r.ProposedAt = 0
	r.Approvals = nil
	if err := types.SetValue(e.kv, keyRecord, r); err != nil {
		return Record{}, err
	}
	return r, nil
}
