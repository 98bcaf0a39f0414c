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

// Package recovery implements guardian-based social recovery of account
// ownership with a threshold of guardian approvals and a timelock.
package recovery

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/threshold"
	"github.com/blinklabs-io/lendgov/timelock"
)

const DefaultDelay uint64 = 48 * 60 * 60

// Config holds the delay before an approved recovery may execute and the
// optional window after which it expires
type Config struct {
	Delay  uint64 `json:"delay"`
	Window uint64 `json:"window"`
}

func DefaultConfig() Config {
	return Config{Delay: DefaultDelay}
}

type GuardianSet struct {
	Guardians []common.Address `json:"guardians"`
	Threshold uint32           `json:"threshold"`
}

type Request struct {
	Account      common.Address   `json:"account"`
	Proposer     common.Address   `json:"proposer"`
	NewOwner     common.Address   `json:"newOwner"`
	Approvals    []common.Address `json:"approvals"`
	CreatedAt    uint64           `json:"createdAt"`
	ExecuteAfter uint64           `json:"executeAfter"`
	Window       uint64           `json:"window"`
	Executed     bool             `json:"executed"`
	Canceled     bool             `json:"canceled"`
	ExecutedAt   uint64           `json:"executedAt,omitempty"`
}

func (r Request) lock() timelock.Lock {
	return timelock.Lock{
		ExecuteAfter: r.ExecuteAfter,
		Window:       r.Window,
		Executed:     r.Executed,
		Canceled:     r.Canceled,
	}
}

func (r Request) State(now uint64) timelock.State {
	return r.lock().State(now)
}

var keyConfig = types.MakeKey(types.ModuleRecovery, "config", nil)

func accountKey(entity string, account common.Address) []byte {
	return types.MakeKey(types.ModuleRecovery, entity, types.ID(string(account)))
}

type Engine struct {
	kv types.KV
}

func New(kv types.KV) *Engine {
	return &Engine{kv: kv}
}

func (e *Engine) Init(cfg Config) error {
	return types.SetValue(e.kv, keyConfig, cfg)
}

func (e *Engine) Config() (Config, error) {
	cfg, ok, err := types.GetValue[Config](e.kv, keyConfig)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: recovery config", common.ErrNotInitialized)
	}
	return cfg, nil
}

// OwnerOf returns the current owner of account. An account that was never
// recovered owns itself.
func (e *Engine) OwnerOf(account common.Address) (common.Address, error) {
	owner, ok, err := types.GetValue[common.Address](e.kv, accountKey("owner", account))
	if err != nil {
		return "", err
	}
	if !ok {
		return account, nil
	}
	return owner, nil
}

func (e *Engine) Guardians(account common.Address) (GuardianSet, bool, error) {
	return types.GetValue[GuardianSet](e.kv, accountKey("guardians", account))
}

func (e *Engine) Request(account common.Address) (Request, error) {
	r, ok, err := types.GetValue[Request](e.kv, accountKey("request", account))
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", common.ErrRequestNotFound, account)
	}
	return r, nil
}

func (e *Engine) requireOwner(caller, account common.Address) error {
	owner, err := e.OwnerOf(account)
	if err != nil {
		return err
	}
	if caller != owner {
		return fmt.Errorf(
			"%w: %s does not own %s",
			common.ErrUnauthorized,
			caller,
			account,
		)
	}
	return nil
}

func (e *Engine) requireGuardian(
	guardian common.Address,
	account common.Address,
) (GuardianSet, error) {
	set, ok, err := e.Guardians(account)
	if err != nil {
		return GuardianSet{}, err
	}
	if !ok || !common.ContainsAddress(set.Guardians, guardian) {
		return GuardianSet{}, fmt.Errorf(
			"%w: %s for %s",
			common.ErrNotAGuardian,
			guardian,
			account,
		)
	}
	return set, nil
}

// SetGuardians replaces the guardian set of account. Only the current owner
// may do this.
func (e *Engine) SetGuardians(
	caller common.Address,
	account common.Address,
	guardians []common.Address,
	required uint32,
) (GuardianSet, error) {
	if err := account.Validate(); err != nil {
		return GuardianSet{}, err
	}
	if _, err := e.Config(); err != nil {
		return GuardianSet{}, err
	}
	if err := e.requireOwner(caller, account); err != nil {
		return GuardianSet{}, err
	}
	if err := threshold.ValidateConfig(guardians, required); err != nil {
		return GuardianSet{}, err
	}
	set := GuardianSet{Guardians: guardians, Threshold: required}
	if err := types.SetValue(e.kv, accountKey("guardians", account), set); err != nil {
		return GuardianSet{}, err
	}
	return set, nil
}

// Propose opens a recovery request moving account to newOwner. The
// proposing guardian does not implicitly approve. An open request blocks new
// proposals until it executes, is canceled or expires.
func (e *Engine) Propose(
	guardian common.Address,
	account common.Address,
	newOwner common.Address,
	now uint64,
) (Request, error) {
	cfg, err := e.Config()
	if err != nil {
		return Request{}, err
	}
	if _, err := e.requireGuardian(guardian, account); err != nil {
		return Request{}, err
	}
	if err := newOwner.Validate(); err != nil {
		return Request{}, err
	}
	owner, err := e.OwnerOf(account)
	if err != nil {
		return Request{}, err
	}
	if newOwner == owner {
		return Request{}, fmt.Errorf(
			"%w: %s already owns %s",
			common.ErrInvalidConfiguration,
			newOwner,
			account,
		)
	}
	prev, ok, err := types.GetValue[Request](e.kv, accountKey("request", account))
	if err != nil {
		return Request{}, err
	}
	if ok {
		switch prev.State(now) {
		case timelock.StateScheduled, timelock.StateReady:
			return Request{}, fmt.Errorf(
				"%w: %s",
				common.ErrRequestAlreadyPending,
				account,
			)
		}
	}
	lock := timelock.NewLock(now, cfg.Delay, cfg.Window)
	r := Request{
		Account:      account,
		Proposer:     guardian,
		NewOwner:     newOwner,
		CreatedAt:    now,
		ExecuteAfter: lock.ExecuteAfter,
		Window:       lock.Window,
	}
	if err := types.SetValue(e.kv, accountKey("request", account), r); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (e *Engine) Approve(guardian, account common.Address) (Request, error) {
	r, err := e.Request(account)
	if err != nil {
		return Request{}, err
	}
	if err := r.lock().CheckCancelable(); err != nil {
		return Request{}, fmt.Errorf("recovery %s: %w", account, err)
	}
	set, err := e.requireGuardian(guardian, account)
	if err != nil {
		return Request{}, err
	}
	approvals, err := threshold.Approve(r.Approvals, guardian, set.Guardians)
	if err != nil {
		return Request{}, err
	}
	r.Approvals = approvals
	if err := types.SetValue(e.kv, accountKey("request", account), r); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Execute transfers ownership of account once the delay has elapsed and
// enough current guardians approved. It returns the request and the previous
// owner. Anyone may execute.
func (e *Engine) Execute(
	caller common.Address,
	account common.Address,
	now uint64,
) (Request, common.Address, error) {
	if err := caller.Validate(); err != nil {
		return Request{}, "", err
	}
	r, err := e.Request(account)
	if err != nil {
		return Request{}, "", err
	}
	if err := r.lock().CheckExecutable(now); err != nil {
		return Request{}, "", fmt.Errorf("recovery %s: %w", account, err)
	}
	set, _, err := e.Guardians(account)
	if err != nil {
		return Request{}, "", err
	}
	if err := threshold.CheckSatisfied(r.Approvals, set.Guardians, set.Threshold); err != nil {
		return Request{}, "", fmt.Errorf("recovery %s: %w", account, err)
	}
	prevOwner, err := e.OwnerOf(account)
	if err != nil {
		return Request{}, "", err
	}
	if err := types.SetValue(e.kv, accountKey("owner", account), r.NewOwner); err != nil {
		return Request{}, "", err
	}
	r.Executed = true
	r.ExecutedAt = now
	if err := types.SetValue(e.kv, accountKey("request", account), r); err != nil {
		return Request{}, "", err
	}
	return r, prevOwner, nil
}

// Cancel lets the current owner abort an open recovery request
func (e *Engine) Cancel(caller, account common.Address) (Request, error) {
	if err := e.requireOwner(caller, account); err != nil {
		return Request{}, err
	}
	r, err := e.Request(account)
	if err != nil {
		return Request{}, err
	}
	if err := r.lock().CheckCancelable(); err != nil {
		return Request{}, fmt.Errorf("recovery %s: %w", account, err)
	}
	r.Canceled = true
	if err := types.SetValue(e.kv, accountKey("request", account), r); err != nil {
		return Request{}, err
	}
	return r, nil
}
