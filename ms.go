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
	"strconv"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/multisig"
)

// MsSetAdmins installs the first multisig admin set. Only the admin given
// to Initialize may call it, and only once; later changes are made by a
// multisig proposal carrying action.SetMultisigAdmins.
func (p *Protocol) MsSetAdmins(
	ctx context.Context,
	caller common.Address,
	admins []common.Address,
	required uint32,
) error {
	return p.mutate(ctx, "ms_set_admins", caller, func(c *call) error {
		admin, err := adminOf(c.kv)
		if err != nil {
			return err
		}
		cfg, err := multisig.New(c.kv).Bootstrap(caller, admin, admins, required)
		if err != nil {
			return err
		}
		c.detail = describeSet(cfg.Admins, cfg.Threshold)
		c.emit(event.ParameterChangedEventType, event.ParameterChangedEvent{
			Name:  settingMultisigAdmins,
			Value: c.detail,
		})
		return nil
	})
}

// MsProposeSetMinCR proposes a new minimum collateral ratio in basis points
func (p *Protocol) MsProposeSetMinCR(
	ctx context.Context,
	admin common.Address,
	ratioBps uint64,
) (uint64, error) {
	return p.msPropose(
		ctx,
		"ms_propose_set_min_cr",
		admin,
		action.SetMinCollateralRatio{RatioBps: ratioBps},
	)
}

// MsPropose proposes any action for multisig approval
func (p *Protocol) MsPropose(
	ctx context.Context,
	admin common.Address,
	act action.Action,
) (uint64, error) {
	return p.msPropose(ctx, "ms_propose", admin, act)
}

func (p *Protocol) msPropose(
	ctx context.Context,
	entrypoint string,
	admin common.Address,
	act action.Action,
) (uint64, error) {
	var ret uint64
	err := p.mutate(ctx, entrypoint, admin, func(c *call) error {
		prop, err := multisig.New(c.kv).Propose(admin, act, c.now)
		if err != nil {
			return err
		}
		ret = prop.ID
		c.subject = strconv.FormatUint(prop.ID, 10)
		c.detail = action.Describe(act)
		c.emit(event.ProposalCreatedEventType, event.ProposalEvent{
			Source: event.SourceMultisig,
			ID:     prop.ID,
			Actor:  admin.String(),
			Kind:   act.Kind().String(),
		})
		return nil
	})
	return ret, err
}

func (p *Protocol) MsApprove(
	ctx context.Context,
	admin common.Address,
	id uint64,
) error {
	return p.mutate(ctx, "ms_approve", admin, func(c *call) error {
		prop, err := multisig.New(c.kv).Approve(admin, id)
		if err != nil {
			return err
		}
		c.subject = strconv.FormatUint(id, 10)
		c.detail = strconv.Itoa(len(prop.Approvals)) + " approvals"
		c.emit(event.ProposalApprovedEventType, event.ProposalEvent{
			Source: event.SourceMultisig,
			ID:     id,
			Actor:  admin.String(),
			Kind:   prop.Action.Kind.String(),
		})
		return nil
	})
}

// MsExecute applies a multisig proposal that has reached its threshold.
// Anyone may execute.
func (p *Protocol) MsExecute(
	ctx context.Context,
	caller common.Address,
	id uint64,
) error {
	return p.mutate(ctx, "ms_execute", caller, func(c *call) error {
		prop, err := multisig.New(c.kv).Execute(caller, id, c.now, p.applier(c))
		if err != nil {
			return err
		}
		c.subject = strconv.FormatUint(id, 10)
		c.detail = prop.Action.Kind.String()
		c.emit(event.ProposalExecutedEventType, event.ProposalEvent{
			Source: event.SourceMultisig,
			ID:     id,
			Actor:  caller.String(),
			Kind:   prop.Action.Kind.String(),
		})
		return nil
	})
}

func (p *Protocol) MsCancel(
	ctx context.Context,
	admin common.Address,
	id uint64,
) error {
	return p.mutate(ctx, "ms_cancel", admin, func(c *call) error {
		prop, err := multisig.New(c.kv).Cancel(admin, id)
		if err != nil {
			return err
		}
		c.subject = strconv.FormatUint(id, 10)
		c.emit(event.ProposalCanceledEventType, event.ProposalEvent{
			Source: event.SourceMultisig,
			ID:     id,
			Actor:  admin.String(),
			Kind:   prop.Action.Kind.String(),
		})
		return nil
	})
}

func (p *Protocol) MsProposal(id uint64) (multisig.Proposal, error) {
	var ret multisig.Proposal
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = multisig.New(kv).Proposal(id)
		return err
	})
	return ret, err
}

func (p *Protocol) MsConfig() (multisig.Config, error) {
	var ret multisig.Config
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = multisig.New(kv).Config()
		return err
	})
	return ret, err
}
