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

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/recovery"
)

// RecoverySetGuardians replaces the guardian set of account. Only the
// current owner may call it.
func (p *Protocol) RecoverySetGuardians(
	ctx context.Context,
	owner common.Address,
	account common.Address,
	guardians []common.Address,
	required uint32,
) error {
	return p.mutate(ctx, "recovery_set_guardians", owner, func(c *call) error {
		set, err := recovery.New(c.kv).SetGuardians(owner, account, guardians, required)
		if err != nil {
			return err
		}
		c.subject = account.String()
		c.detail = describeSet(set.Guardians, set.Threshold)
		c.emit(event.RecoveryEventType, event.RecoveryEvent{
			Step:    event.StepSetGuardians,
			Account: account.String(),
			Actor:   owner.String(),
		})
		return nil
	})
}

func (p *Protocol) RecoveryPropose(
	ctx context.Context,
	guardian common.Address,
	account common.Address,
	newOwner common.Address,
) error {
	return p.mutate(ctx, "recovery_propose", guardian, func(c *call) error {
		r, err := recovery.New(c.kv).Propose(guardian, account, newOwner, c.now)
		if err != nil {
			return err
		}
		c.subject = account.String()
		c.detail = "to " + newOwner.String() +
			" after " + strconv.FormatUint(r.ExecuteAfter, 10)
		c.emit(event.RecoveryEventType, event.RecoveryEvent{
			Step:     event.StepPropose,
			Account:  account.String(),
			Actor:    guardian.String(),
			NewOwner: newOwner.String(),
		})
		return nil
	})
}

func (p *Protocol) RecoveryApprove(
	ctx context.Context,
	guardian common.Address,
	account common.Address,
) error {
	return p.mutate(ctx, "recovery_approve", guardian, func(c *call) error {
		r, err := recovery.New(c.kv).Approve(guardian, account)
		if err != nil {
			return err
		}
		c.subject = account.String()
		c.detail = strconv.Itoa(len(r.Approvals)) + " approvals"
		c.emit(event.RecoveryEventType, event.RecoveryEvent{
			Step:     event.StepApprove,
			Account:  account.String(),
			Actor:    guardian.String(),
			NewOwner: r.NewOwner.String(),
		})
		return nil
	})
}

// RecoveryExecute transfers ownership of account to the proposed owner and
// notifies the observer. Anyone may execute.
func (p *Protocol) RecoveryExecute(
	ctx context.Context,
	caller common.Address,
	account common.Address,
) error {
	return p.mutate(ctx, "recovery_execute", caller, func(c *call) error {
		r, prevOwner, err := recovery.New(c.kv).Execute(caller, account, c.now)
		if err != nil {
			return err
		}
		err = p.callout(c, "OnOwnershipTransferred", func(ctx context.Context) error {
			return p.config.observer.OnOwnershipTransferred(
				ctx,
				account,
				prevOwner,
				r.NewOwner,
			)
		})
		if err != nil {
			return err
		}
		c.subject = account.String()
		c.detail = prevOwner.String() + " -> " + r.NewOwner.String()
		c.emit(event.RecoveryEventType, event.RecoveryEvent{
			Step:     event.StepExecute,
			Account:  account.String(),
			Actor:    caller.String(),
			NewOwner: r.NewOwner.String(),
		})
		return nil
	})
}

// RecoveryCancel lets the current owner abort an open recovery request
func (p *Protocol) RecoveryCancel(
	ctx context.Context,
	owner common.Address,
	account common.Address,
) error {
	return p.mutate(ctx, "recovery_cancel", owner, func(c *call) error {
		r, err := recovery.New(c.kv).Cancel(owner, account)
		if err != nil {
			return err
		}
		c.subject = account.String()
		c.emit(event.RecoveryEventType, event.RecoveryEvent{
			Step:     event.StepCancel,
			Account:  account.String(),
			Actor:    owner.String(),
			NewOwner: r.NewOwner.String(),
		})
		return nil
	})
}

func (p *Protocol) RecoveryRequest(account common.Address) (recovery.Request, error) {
	var ret recovery.Request
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = recovery.New(kv).Request(account)
		return err
	})
	return ret, err
}

// RecoveryGuardians returns the guardian set of account. The boolean result
// is false when none is configured.
func (p *Protocol) RecoveryGuardians(
	account common.Address,
) (recovery.GuardianSet, bool, error) {
	var ret recovery.GuardianSet
	var ok bool
	err := p.query(func(kv types.KV) error {
		var err error
		ret, ok, err = recovery.New(kv).Guardians(account)
		return err
	})
	return ret, ok, err
}
