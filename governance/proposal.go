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

package governance

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/timelock"
)

type Proposal struct {
	ID             uint64          `json:"id"`
	Proposer       common.Address  `json:"proposer"`
	Action         action.Envelope `json:"action"`
	CreatedAt      uint64          `json:"createdAt"`
	VotingDeadline uint64          `json:"votingDeadline"`
	ExecuteAfter   uint64          `json:"executeAfter"`
	Window         uint64          `json:"window"`
	Executed       bool            `json:"executed"`
	Canceled       bool            `json:"canceled"`
	ExecutedAt     uint64          `json:"executedAt,omitempty"`
}

func (p Proposal) lock() timelock.Lock {
	return timelock.Lock{
		ExecuteAfter: p.ExecuteAfter,
		Window:       p.Window,
		Executed:     p.Executed,
		Canceled:     p.Canceled,
	}
}

// State returns the timelock state of the proposal as of now
func (p Proposal) State(now uint64) timelock.State {
	return p.lock().State(now)
}

// VoteReceipt records the latest vote counted for a resolved voter.
// Contributors lists the accounts whose own weight makes up Weight; each
// account is counted in at most one receipt per proposal.
type VoteReceipt struct {
	Voter        common.Address   `json:"voter"`
	Caster       common.Address   `json:"caster"`
	Weight       uint64           `json:"weight"`
	Support      bool             `json:"support"`
	Timestamp    uint64           `json:"timestamp"`
	Contributors []common.Address `json:"contributors,omitempty"`
}

type Tally struct {
	For         uint64 `json:"for"`
	Against     uint64 `json:"against"`
	TotalWeight uint64 `json:"totalWeight"`
	QuorumBps   uint64 `json:"quorumBps"`
	QuorumMet   bool   `json:"quorumMet"`
}

// Passed reports whether the proposal reached quorum with strictly more
// weight for than against
func (t Tally) Passed() bool {
	return t.QuorumMet && t.For > t.Against
}

// QuorumMet reports whether participating weight reaches quorumBps of the
// total eligible weight
func QuorumMet(participating, total, quorumBps uint64) bool {
	if total == 0 {
		return false
	}
	lhs := new(big.Int).Mul(
		new(big.Int).SetUint64(participating),
		new(big.Int).SetUint64(bpsDenominator),
	)
	rhs := new(big.Int).Mul(
		new(big.Int).SetUint64(quorumBps),
		new(big.Int).SetUint64(total),
	)
	return lhs.Cmp(rhs) >= 0
}

func (e *Engine) Proposal(id uint64) (Proposal, error) {
	p, ok, err := types.GetValue[Proposal](e.kv, proposalKey(id))
	if err != nil {
		return Proposal{}, err
	}
	if !ok {
		return Proposal{}, fmt.Errorf("%w: %d", common.ErrProposalNotFound, id)
	}
	return p, nil
}

// ProposalCount returns the highest proposal ID allocated so far
func (e *Engine) ProposalCount() (uint64, error) {
	ret, _, err := types.GetValue[uint64](e.kv, keyCounter)
	return ret, err
}

// Propose creates a proposal open for votingPeriod seconds from now
func (e *Engine) Propose(
	proposer common.Address,
	act action.Action,
	votingPeriod uint64,
	now uint64,
) (Proposal, error) {
	if err := proposer.Validate(); err != nil {
		return Proposal{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return Proposal{}, err
	}
	if err := e.canPropose(cfg, proposer); err != nil {
		return Proposal{}, err
	}
	if votingPeriod < cfg.MinVotingPeriod || votingPeriod > cfg.MaxVotingPeriod {
		return Proposal{}, fmt.Errorf(
			"%w: voting period %d outside %d..%d",
			common.ErrInvalidConfiguration,
			votingPeriod,
			cfg.MinVotingPeriod,
			cfg.MaxVotingPeriod,
		)
	}
	env, err := action.Wrap(act)
	if err != nil {
		return Proposal{}, err
	}
	id, err := types.NextCounter(e.kv, keyCounter)
	if err != nil {
		return Proposal{}, err
	}
	deadline := timelock.Schedule(now, votingPeriod)
	p := Proposal{
		ID:             id,
		Proposer:       proposer,
		Action:         env,
		CreatedAt:      now,
		VotingDeadline: deadline,
		ExecuteAfter:   timelock.Schedule(deadline, cfg.Timelock),
		Window:         cfg.ExecutionWindow,
	}
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// Vote records a vote for the final delegate of voter, carrying the weight
// delegated to it. Weight already counted in another receipt of the same
// proposal is left out, so a change of delegation during voting never counts
// an account twice. A later vote for the same delegate replaces the earlier
// one and recounts its contributors.
func (e *Engine) Vote(
	voter common.Address,
	id uint64,
	support bool,
	now uint64,
) (VoteReceipt, error) {
	if err := voter.Validate(); err != nil {
		return VoteReceipt{}, err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return VoteReceipt{}, err
	}
	if p.Executed {
		return VoteReceipt{}, fmt.Errorf("%w: proposal %d", common.ErrAlreadyExecuted, id)
	}
	if p.Canceled {
		return VoteReceipt{}, fmt.Errorf("%w: proposal %d", common.ErrAlreadyCanceled, id)
	}
	if now > p.VotingDeadline {
		return VoteReceipt{}, fmt.Errorf(
			"%w: deadline %d, now %d",
			common.ErrVotingClosed,
			p.VotingDeadline,
			now,
		)
	}
	resolved, err := e.Resolve(voter)
	if err != nil {
		return VoteReceipt{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return VoteReceipt{}, err
	}
	prev, hadPrev, err := e.Receipt(id, resolved)
	if err != nil {
		return VoteReceipt{}, err
	}
	candidates, err := e.contributors(resolved, cfg.MaxDelegationHops)
	if err != nil {
		return VoteReceipt{}, err
	}
	var weight uint64
	var counted []common.Address
	for _, addr := range candidates {
		holder, ok, err := types.GetValue[common.Address](e.kv, countedKey(id, addr))
		if err != nil {
			return VoteReceipt{}, err
		}
		if ok && holder != resolved {
			continue
		}
		w, err := e.weights.WeightOf(addr)
		if err != nil {
			return VoteReceipt{}, err
		}
		weight = saturatingAdd(weight, w)
		counted = append(counted, addr)
	}
	if weight == 0 {
		return VoteReceipt{}, fmt.Errorf(
			"%w: %s has no uncounted voting weight on proposal %d",
			common.ErrNotEligible,
			resolved,
			id,
		)
	}
	// Release contributions of the replaced receipt before recounting
	if hadPrev {
		for _, addr := range prev.Contributors {
			if err := e.kv.Delete(countedKey(id, addr)); err != nil {
				return VoteReceipt{}, err
			}
		}
	}
	for _, addr := range counted {
		if err := types.SetValue(e.kv, countedKey(id, addr), resolved); err != nil {
			return VoteReceipt{}, err
		}
	}
	voters, err := getList(e.kv, votersKey(id))
	if err != nil {
		return VoteReceipt{}, err
	}
	if !common.ContainsAddress(voters, resolved) {
		if err := setList(e.kv, votersKey(id), append(voters, resolved)); err != nil {
			return VoteReceipt{}, err
		}
	}
	receipt := VoteReceipt{
		Voter:        resolved,
		Caster:       voter,
		Weight:       weight,
		Support:      support,
		Timestamp:    now,
		Contributors: counted,
	}
	if err := types.SetValue(e.kv, receiptKey(id, resolved), receipt); err != nil {
		return VoteReceipt{}, err
	}
	return receipt, nil
}

func (e *Engine) Receipt(id uint64, voter common.Address) (VoteReceipt, bool, error) {
	return types.GetValue[VoteReceipt](e.kv, receiptKey(id, voter))
}

// Voters returns the resolved voters of a proposal in first-vote order
func (e *Engine) Voters(id uint64) ([]common.Address, error) {
	return getList(e.kv, votersKey(id))
}

func (e *Engine) Tally(id uint64) (Tally, error) {
	if _, err := e.Proposal(id); err != nil {
		return Tally{}, err
	}
	cfg, err := e.Config()
	if err != nil {
		return Tally{}, err
	}
	total, err := e.weights.TotalWeight()
	if err != nil {
		return Tally{}, err
	}
	voters, err := e.Voters(id)
	if err != nil {
		return Tally{}, err
	}
	ret := Tally{
		TotalWeight: total,
		QuorumBps:   cfg.QuorumBps,
	}
	for _, voter := range voters {
		receipt, ok, err := e.Receipt(id, voter)
		if err != nil {
			return Tally{}, err
		}
		if !ok {
			continue
		}
		if receipt.Support {
			ret.For = saturatingAdd(ret.For, receipt.Weight)
		} else {
			ret.Against = saturatingAdd(ret.Against, receipt.Weight)
		}
	}
	ret.QuorumMet = QuorumMet(
		saturatingAdd(ret.For, ret.Against),
		total,
		cfg.QuorumBps,
	)
	return ret, nil
}

// Execute applies the proposal action once voting has closed, quorum is met,
// the vote passed and the timelock has elapsed. Anyone may execute.
func (e *Engine) Execute(
	caller common.Address,
	id uint64,
	now uint64,
	apply func(action.Action) error,
) (Proposal, error) {
	if err := caller.Validate(); err != nil {
		return Proposal{}, err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if err := p.lock().CheckCancelable(); err != nil {
		return Proposal{}, fmt.Errorf("proposal %d: %w", id, err)
	}
	if now <= p.VotingDeadline {
		return Proposal{}, fmt.Errorf(
			"%w: deadline %d, now %d",
			common.ErrVotingStillOpen,
			p.VotingDeadline,
			now,
		)
	}
	tally, err := e.Tally(id)
	if err != nil {
		return Proposal{}, err
	}
	if !tally.QuorumMet {
		return Proposal{}, fmt.Errorf(
			"%w: %d of %d weight participated",
			common.ErrQuorumNotMet,
			saturatingAdd(tally.For, tally.Against),
			tally.TotalWeight,
		)
	}
	if tally.For <= tally.Against {
		return Proposal{}, fmt.Errorf(
			"%w: %d for, %d against",
			common.ErrProposalDefeated,
			tally.For,
			tally.Against,
		)
	}
	if err := p.lock().CheckExecutable(now); err != nil {
		return Proposal{}, fmt.Errorf("proposal %d: %w", id, err)
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

// Cancel stops a proposal that has not executed. Only the proposer or the
// protocol admin may cancel.
func (e *Engine) Cancel(
	caller common.Address,
	admin common.Address,
	id uint64,
) (Proposal, error) {
	p, err := e.Proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if caller != p.Proposer && caller != admin {
		return Proposal{}, fmt.Errorf(
			"%w: %s may not cancel proposal %d",
			common.ErrUnauthorized,
			caller,
			id,
		)
	}
	if err := p.lock().CheckCancelable(); err != nil {
		return Proposal{}, fmt.Errorf("proposal %d: %w", id, err)
	}
	p.Canceled = true
	if err := types.SetValue(e.kv, proposalKey(id), p); err != nil {
		return Proposal{}, err
	}
	return p, nil
}
