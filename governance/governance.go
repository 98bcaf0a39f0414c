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

// Package governance implements weighted proposal voting with delegation,
// quorum evaluation and timelocked execution of protocol actions.
package governance

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
)

const (
	DefaultQuorumBps         uint64 = 1_000
	DefaultTimelock          uint64 = 60
	DefaultMinVotingPeriod   uint64 = 60
	DefaultMaxVotingPeriod   uint64 = 30 * 24 * 60 * 60
	DefaultMaxDelegationHops uint32 = 2

	maxDelegationHopsLimit uint32 = 16
	bpsDenominator         uint64 = 10_000
)

// Policy controls who may create proposals
type Policy uint8

const (
	PolicyOpen Policy = iota
	PolicyAllowlist
)

func (p Policy) String() string {
	switch p {
	case PolicyOpen:
		return "open"
	case PolicyAllowlist:
		return "allowlist"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return PolicyOpen, nil
	case "allowlist":
		return PolicyAllowlist, nil
	default:
		return 0, fmt.Errorf(
			"%w: unknown proposal policy %q",
			common.ErrInvalidConfiguration,
			s,
		)
	}
}

// Config is the persisted governance configuration. All durations are in
// seconds.
type Config struct {
	QuorumBps         uint64 `json:"quorumBps"`
	Timelock          uint64 `json:"timelock"`
	MinVotingPeriod   uint64 `json:"minVotingPeriod"`
	MaxVotingPeriod   uint64 `json:"maxVotingPeriod"`
	ExecutionWindow   uint64 `json:"executionWindow"`
	MaxDelegationHops uint32 `json:"maxDelegationHops"`
	Policy            Policy `json:"policy"`
}

func DefaultConfig() Config {
	return Config{
		QuorumBps:         DefaultQuorumBps,
		Timelock:          DefaultTimelock,
		MinVotingPeriod:   DefaultMinVotingPeriod,
		MaxVotingPeriod:   DefaultMaxVotingPeriod,
		MaxDelegationHops: DefaultMaxDelegationHops,
	}
}

func (c Config) Validate() error {
	if c.QuorumBps == 0 || c.QuorumBps > bpsDenominator {
		return fmt.Errorf(
			"%w: quorum %d bps outside 1..%d",
			common.ErrInvalidConfiguration,
			c.QuorumBps,
			bpsDenominator,
		)
	}
	if c.MaxVotingPeriod == 0 || c.MinVotingPeriod > c.MaxVotingPeriod {
		return fmt.Errorf(
			"%w: voting period bounds %d..%d",
			common.ErrInvalidConfiguration,
			c.MinVotingPeriod,
			c.MaxVotingPeriod,
		)
	}
	if c.MaxDelegationHops == 0 || c.MaxDelegationHops > maxDelegationHopsLimit {
		return fmt.Errorf(
			"%w: delegation hops %d outside 1..%d",
			common.ErrInvalidConfiguration,
			c.MaxDelegationHops,
			maxDelegationHopsLimit,
		)
	}
	if c.Policy > PolicyAllowlist {
		return fmt.Errorf(
			"%w: proposal policy %s",
			common.ErrInvalidConfiguration,
			c.Policy,
		)
	}
	return nil
}

var (
	keyConfig      = types.MakeKey(types.ModuleGov, "config", nil)
	keyCounter     = types.MakeKey(types.ModuleGov, "counter", nil)
	keyTotalWeight = types.MakeKey(types.ModuleGov, "total_weight", nil)
)

func proposalKey(id uint64) []byte {
	return types.MakeKey(types.ModuleGov, "proposal", types.Uint64ID(id))
}

func receiptKey(id uint64, voter common.Address) []byte {
	return types.MakeKey(
		types.ModuleGov,
		"receipts",
		types.ID(string(types.Uint64ID(id)), string(voter)),
	)
}

// countedKey records which receipt of proposal id carries the weight of addr
func countedKey(id uint64, addr common.Address) []byte {
	return types.MakeKey(
		types.ModuleGov,
		"counted",
		types.ID(string(types.Uint64ID(id)), string(addr)),
	)
}

func votersKey(id uint64) []byte {
	return types.MakeKey(types.ModuleGov, "voters", types.Uint64ID(id))
}

func addrKey(entity string, addr common.Address) []byte {
	return types.MakeKey(types.ModuleGov, entity, types.ID(string(addr)))
}

// Engine operates on governance state within a single transaction
type Engine struct {
	kv      types.KV
	weights WeightSource
}

// New returns an engine over kv. A nil weight source selects the weights
// stored in kv.
func New(kv types.KV, weights WeightSource) *Engine {
	if weights == nil {
		weights = NewStoredWeights(kv)
	}
	return &Engine{
		kv:      kv,
		weights: weights,
	}
}

// Init stores the initial configuration
func (e *Engine) Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return types.SetValue(e.kv, keyConfig, cfg)
}

func (e *Engine) Config() (Config, error) {
	cfg, ok, err := types.GetValue[Config](e.kv, keyConfig)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: governance config", common.ErrNotInitialized)
	}
	return cfg, nil
}

// UpdateConfig applies fn to the stored configuration and persists the
// result if it is still valid
func (e *Engine) UpdateConfig(fn func(*Config)) error {
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	fn(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return types.SetValue(e.kv, keyConfig, cfg)
}

// SetProposer grants or revokes proposal rights under the allowlist policy
func (e *Engine) SetProposer(addr common.Address, allowed bool) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if _, err := e.Config(); err != nil {
		return err
	}
	if !allowed {
		return e.kv.Delete(addrKey("proposer", addr))
	}
	return types.SetValue(e.kv, addrKey("proposer", addr), true)
}

func (e *Engine) IsProposer(addr common.Address) (bool, error) {
	return e.kv.Has(addrKey("proposer", addr))
}

func (e *Engine) canPropose(cfg Config, proposer common.Address) error {
	if cfg.Policy == PolicyOpen {
		return nil
	}
	ok, err := e.IsProposer(proposer)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf(
			"%w: %s has no proposal rights",
			common.ErrUnauthorized,
			proposer,
		)
	}
	return nil
}

func getList(kv types.KV, key []byte) ([]common.Address, error) {
	ret, _, err := types.GetValue[[]common.Address](kv, key)
	return ret, err
}

func setList(kv types.KV, key []byte, list []common.Address) error {
	if len(list) == 0 {
		return kv.Delete(key)
	}
	return types.SetValue(kv, key, list)
}
