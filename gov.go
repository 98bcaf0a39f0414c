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
	"context"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/governance"
)

func (p *Protocol) governance(kv types.KV) *governance.Engine {
	return governance.New(kv, p.weights(kv))
}

// GovPropose opens a governance proposal carrying act and returns its id
func (p *Protocol) GovPropose(
	ctx context.Context,
	proposer common.Address,
	act action.Action,
	votingPeriod uint64,
) (uint64, error) {
	var ret uint64
	err := p.mutate(ctx, "gov_propose", proposer, func(c *call) error {
		prop, err := p.governance(c.kv).Propose(proposer, act, votingPeriod, c.now)
		if err != nil {
			return err
		}
		ret = prop.ID
		c.subject = strconv.FormatUint(prop.ID, 10)
		c.detail = action.Describe(act)
		c.emit(event.ProposalCreatedEventType, event.ProposalEvent{
			Source: event.SourceGovernance,
			ID:     prop.ID,
			Actor:  proposer.String(),
			Kind:   act.Kind().String(),
		})
		return nil
	})
	return ret, err
}

// GovVote records a vote. The weight is taken from the end of the voter's
// delegation chain at the time of the vote.
func (p *Protocol) GovVote(
	ctx context.Context,
	voter common.Address,
	id uint64,
	support bool,
) (governance.VoteReceipt, error) {
	var ret governance.VoteReceipt
	err := p.mutate(ctx, "gov_vote", voter, func(c *call) error {
		receipt, err := p.governance(c.kv).Vote(voter, id, support, c.now)
		if err != nil {
			return err
		}
		ret = receipt
		c.subject = strconv.FormatUint(id, 10)
		c.detail = fmt.Sprintf(
			"%s support=%t weight=%d",
			receipt.Voter,
			support,
			receipt.Weight,
		)
		c.emit(event.VoteCastEventType, event.VoteCastEvent{
			ProposalID: id,
			Voter:      receipt.Voter.String(),
			Caster:     voter.String(),
			Weight:     receipt.Weight,
			Support:    support,
		})
		return nil
	})
	return ret, err
}

// GovDelegate points the delegator's votes at delegate. Delegating to
// oneself is the same as GovUndelegate.
func (p *Protocol) GovDelegate(
	ctx context.Context,
	delegator common.Address,
	delegate common.Address,
) error {
	return p.mutate(ctx, "gov_delegate", delegator, func(c *call) error {
		if err := p.governance(c.kv).Delegate(delegator, delegate); err != nil {
			return err
		}
		c.subject = delegator.String()
		evt := event.DelegationChangedEvent{Delegator: delegator.String()}
		if delegate != delegator {
			evt.Delegatee = delegate.String()
			c.detail = "to " + delegate.String()
		}
		c.emit(event.DelegationChangedEventType, evt)
		return nil
	})
}

func (p *Protocol) GovUndelegate(ctx context.Context, delegator common.Address) error {
	return p.mutate(ctx, "gov_undelegate", delegator, func(c *call) error {
		if err := p.governance(c.kv).Undelegate(delegator); err != nil {
			return err
		}
		c.subject = delegator.String()
		c.emit(event.DelegationChangedEventType, event.DelegationChangedEvent{
			Delegator: delegator.String(),
		})
		return nil
	})
}

// GovExecute applies a passed proposal once its timelock has elapsed
func (p *Protocol) GovExecute(
	ctx context.Context,
	caller common.Address,
	id uint64,
) error {
	return p.mutate(ctx, "gov_execute", caller, func(c *call) error {
		prop, err := p.governance(c.kv).Execute(caller, id, c.now, p.applier(c))
		if err != nil {
			return err
		}
		c.subject = strconv.FormatUint(id, 10)
		c.detail = prop.Action.Kind.String()
		c.emit(event.ProposalExecutedEventType, event.ProposalEvent{
			Source: event.SourceGovernance,
			ID:     id,
			Actor:  caller.String(),
			Kind:   prop.Action.Kind.String(),
		})
		return nil
	})
}

// GovCancel stops an open proposal. Only the proposer or the admin may
// cancel.
func (p *Protocol) GovCancel(
	ctx context.Context,
	caller common.Address,
	id uint64,
) error {
	return p.mutate(ctx, "gov_cancel", caller, func(c *call) error {
		admin, err := adminOf(c.kv)
		if err != nil {
			return err
		}
		prop, err := p.governance(c.kv).Cancel(caller, admin, id)
		if err != nil {
			return err
		}
		c.subject = strconv.FormatUint(id, 10)
		c.emit(event.ProposalCanceledEventType, event.ProposalEvent{
			Source: event.SourceGovernance,
			ID:     id,
			Actor:  caller.String(),
			Kind:   prop.Action.Kind.String(),
		})
		return nil
	})
}

// GovSetVotingWeight sets the stored voting weight of addr. Only the admin
// may do this, and only when no external weight source is configured.
func (p *Protocol) GovSetVotingWeight(
	ctx context.Context,
	caller common.Address,
	addr common.Address,
	weight uint64,
) error {
	return p.mutate(ctx, "gov_set_voting_weight", caller, func(c *call) error {
		if err := requireAdmin(c.kv, caller); err != nil {
			return err
		}
		stored, ok := p.weights(c.kv).(*governance.StoredWeights)
		if !ok {
			return fmt.Errorf(
				"%w: voting weights come from an external source",
				common.ErrInvalidConfiguration,
			)
		}
		if err := stored.SetWeight(addr, weight); err != nil {
			return err
		}
		c.subject = addr.String()
		c.detail = strconv.FormatUint(weight, 10)
		return nil
	})
}

// GovSetProposer grants or revokes proposal rights used by the allowlist
// policy. Only the admin may do this.
func (p *Protocol) GovSetProposer(
	ctx context.Context,
	caller common.Address,
	addr common.Address,
	allowed bool,
) error {
	return p.mutate(ctx, "gov_set_proposer", caller, func(c *call) error {
		if err := requireAdmin(c.kv, caller); err != nil {
			return err
		}
		if err := p.governance(c.kv).SetProposer(addr, allowed); err != nil {
			return err
		}
		c.subject = addr.String()
		c.detail = strconv.FormatBool(allowed)
		return nil
	})
}

func (p *Protocol) GovProposal(id uint64) (governance.Proposal, error) {
	var ret governance.Proposal
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = p.governance(kv).Proposal(id)
		return err
	})
	return ret, err
}

func (p *Protocol) GovTally(id uint64) (governance.Tally, error) {
	var ret governance.Tally
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = p.governance(kv).Tally(id)
		return err
	})
	return ret, err
}

// GovDelegateOf returns the direct delegate of addr. The boolean result is
// false when addr has not delegated.
func (p *Protocol) GovDelegateOf(addr common.Address) (common.Address, bool, error) {
	var ret common.Address
	var ok bool
	err := p.query(func(kv types.KV) error {
		var err error
		ret, ok, err = p.governance(kv).DelegateOf(addr)
		return err
	})
	return ret, ok, err
}

func (p *Protocol) GovConfig() (governance.Config, error) {
	var ret governance.Config
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = p.governance(kv).Config()
		return err
	})
	return ret, err
}

func (p *Protocol) GovVotingPower(addr common.Address) (uint64, error) {
	var ret uint64
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = p.governance(kv).VotingPower(addr)
		return err
	})
	return ret, err
}
