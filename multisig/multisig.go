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

// Package multisig implements threshold-of-admins approval for sensitive
// parameter changes.
package multisig

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/threshold"
)

type Config struct {
	Admins    []common.Address `json:"admins"`
	Threshold uint32           `json:"threshold"`
}

func (c Config) Validate() error {
	return threshold.ValidateConfig(c.Admins, c.Threshold)
}

type Proposal struct {
	ID         uint64           `json:"id"`
	Proposer   common.Address   `json:"proposer"`
	Action     action.Envelope  `json:"action"`
	Approvals  []common.Address `json:"approvals"`
	CreatedAt  uint64           `json:"createdAt"`
	Executed   bool             `json:"executed"`
	Canceled   bool             `json:"canceled"`
	ExecutedAt uint64           `json:"executedAt,omitempty"`
}

var (
	keyConfig  = types.MakeKey(types.ModuleMultisig, "config", nil)
	keyCounter = types.MakeKey(types.ModuleMultisig, "counter", nil)
)

func proposalKey(id uint64) []byte {
	return types.MakeKey(types.ModuleMultisig, "proposal", types.Uint64ID(id))
}

type Engine struct {
	kv types.KV
}

func New(kv types.KV) *Engine {
	return &Engine{kv: kv}
}

func (e *Engine) Config() (Config, error) {
	cfg, ok, err := types.GetValue[Config](e.kv, keyConfig)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: multisig config", common.ErrNotInitialized)
	}
	return cfg, nil
}

func (e *Engine) HasConfig() (bool, error) {
	return e.kv.Has(keyConfig)
}

// Bootstrap installs the first admin set. Only the protocol admin may do
// this, and only while no admin set exists; later changes must pass through
// a multisig proposal.
func (e *Engine) Bootstrap(
	caller common.Address,
	protocolAdmin common.Address,
	admins []common.Address,
	required uint32,
) (Config, error) {
	if caller != protocolAdmin {
		return Config{}, fmt.Errorf(
			"%w: %s is not the protocol admin",
			common.ErrUnauthorized,
			caller,
		)
	}
	exists, err := e.HasConfig()
	if err != nil {
		return Config{}, err
	}
	if exists {
		return Config{}, fmt.Errorf(
			"%w: admin set already configured, changes require a multisig proposal",
			common.ErrUnauthorized,
		)
	}
	return e.SetAdmins(admins, required)
}

// SetAdmins replaces the admin set without authorization checks. It is the
// apply step of an approved SetMultisigAdmins action.
func (e *Engine) SetAdmins(admins []common.Address, required uint32) (Config, error) {
	cfg := Config{Admins: admins, Threshold: required}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := types.SetValue(e.kv, keyConfig, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (e *Engine) Proposal(id uint64) (Proposal, error) {
	p, ok, err := types.GetValue[Proposal](e.kv, proposalKey(id))
	if err != nil {
		return Proposal{}, err
	}
	if !ok {
		return Proposal{}, fmt.Errorf("%w: multisig %d", common.ErrProposalNotFound, id)
	}
	return p, nil
}

func (e *Engine) requireAdmin(cfg Config, addr common.Address) error {
	if !common.ContainsAddress(cfg.Admins, addr) {
		return fmt.Errorf("%w: %s is not a multisig admin", common.ErrUnauthorized, addr)
	}
	return nil
}

// Propose records a change proposed by an admin. The proposer does not
// implicitly approve.
func (e *Engine) Propose(
	admin common.Address,
	act action.Action,
	now uint64,
) (Proposal, error) {
	cfg, err := e.Config()
	if err != nil {
		return Proposal{}, err
	}
	if err := e.requireAdmin(cfg, admin); err != nil {
		return Proposal{}, err
	}
	env, err := action.Wrap(act)
	if err != nil {
		return Proposal{}, err
	}
	id, err := types.NextCounter(e.kv, keyCounter)
	if err != nil {
		return Proposal{}, err
	}
	p := Proposal{
		ID:        id,
		Proposer:  admin,
		Action:    env,
		CreatedAt: now,
	}
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (e *Engine) Approve(admin common.Address, id uint64) (Proposal, error) {
	cfg, err := e.Config()
	if err != nil {
		return Proposal{}, err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if err := checkOpen(p); err != nil {
		return Proposal{}, err
	}
	approvals, err := threshold.Approve(p.Approvals, admin, cfg.Admins)
	if err != nil {
		return Proposal{}, err
	}
	p.Approvals = approvals
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// Execute applies an approved proposal. Only approvals from current admins
// count toward the threshold. Anyone may execute.
func (e *Engine) Execute(
	caller common.Address,
	id uint64,
	now uint64,
	apply func(action.Action) error,
) (Proposal, error) {
	if err := caller.Validate(); err != nil {
		return Proposal{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return Proposal{}, err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if err := checkOpen(p); err != nil {
		return Proposal{}, err
	}
	if err := threshold.CheckSatisfied(p.Approvals, cfg.Admins, cfg.Threshold); err != nil {
		return Proposal{}, fmt.Errorf("multisig %d: %w", id, err)
	}
	act, err := p.Action.Unwrap()
	if err != nil {
		return Proposal{}, err
	}
	if err := apply(act); err != nil {
		return Proposal{}, err
	}
	p.Executed = true
	p.ExecutedAt = now
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (e *Engine) Cancel(admin common.Address, id uint64) (Proposal, error) {
	cfg, err := e.Config()
	if err != nil {
		return Proposal{}, err
	}
	if err := e.requireAdmin(cfg, admin); err != nil {
		return Proposal{}, err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if err := checkOpen(p); err != nil {
		return Proposal{}, err
	}
	p.Canceled = true
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func checkOpen(p Proposal) error {
	if p.Executed {
		return fmt.Errorf("multisig %d: %w", p.ID, common.ErrAlreadyExecuted)
	}
	if p.Canceled {
		return fmt.Errorf("multisig %d: %w", p.ID, common.ErrAlreadyCanceled)
	}
	return nil
}
