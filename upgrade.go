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
	"github.com/blinklabs-io/lendgov/upgrade"
)

// UpgradePropose stages version as the pending upgrade. Only an upgrade
// approver may propose.
func (p *Protocol) UpgradePropose(
	ctx context.Context,
	caller common.Address,
	version string,
	metadata string,
) error {
	return p.mutate(ctx, "upgrade_propose", caller, func(c *call) error {
		r, err := upgrade.New(c.kv).Propose(caller, version, metadata, c.now)
		if err != nil {
			return err
		}
		c.subject = version
		c.detail = metadata
		c.emit(event.UpgradeEventType, event.UpgradeEvent{
			Step:            event.StepPropose,
			Actor:           caller.String(),
			Version:         version,
			PreviousVersion: r.CurrentVersion,
		})
		return nil
	})
}

func (p *Protocol) UpgradeApprove(ctx context.Context, caller common.Address) error {
	return p.mutate(ctx, "upgrade_approve", caller, func(c *call) error {
		r, err := upgrade.New(c.kv).Approve(caller)
		if err != nil {
			return err
		}
		c.subject = r.PendingVersion
		c.detail = strconv.Itoa(len(r.Approvals)) + " approvals"
		c.emit(event.UpgradeEventType, event.UpgradeEvent{
			Step:            event.StepApprove,
			Actor:           caller.String(),
			Version:         r.PendingVersion,
			PreviousVersion: r.CurrentVersion,
		})
		return nil
	})
}

// UpgradeExecute makes the pending version current. Anyone may execute once
// the approvals and the timelock are satisfied.
func (p *Protocol) UpgradeExecute(ctx context.Context, caller common.Address) error {
	return p.mutate(ctx, "upgrade_execute", caller, func(c *call) error {
		r, err := upgrade.New(c.kv).Execute(caller, c.now)
		if err != nil {
			return err
		}
		c.subject = r.CurrentVersion
		c.detail = "from " + r.PreviousVersion
		c.emit(event.UpgradeEventType, event.UpgradeEvent{
			Step:            event.StepExecute,
			Actor:           caller.String(),
			Version:         r.CurrentVersion,
			PreviousVersion: r.PreviousVersion,
		})
		return nil
	})
}

// UpgradeRollback restores the version that was current before the last
// executed upgrade
func (p *Protocol) UpgradeRollback(ctx context.Context, caller common.Address) error {
	return p.mutate(ctx, "upgrade_rollback", caller, func(c *call) error {
		mgr := upgrade.New(c.kv)
		prev, err := mgr.Record()
		if err != nil {
			return err
		}
		r, err := mgr.Rollback(caller, c.now)
		if err != nil {
			return err
		}
		c.subject = r.CurrentVersion
		c.detail = "from " + prev.CurrentVersion
		c.emit(event.UpgradeEventType, event.UpgradeEvent{
			Step:            event.StepRollback,
			Actor:           caller.String(),
			Version:         r.CurrentVersion,
			PreviousVersion: prev.CurrentVersion,
		})
		return nil
	})
}

func (p *Protocol) UpgradeCancel(ctx context.Context, caller common.Address) error {
	return p.mutate(ctx, "upgrade_cancel", caller, func(c *call) error {
		mgr := upgrade.New(c.kv)
		prev, err := mgr.Record()
		if err != nil {
			return err
		}
		r, err := mgr.Cancel(caller)
		if err != nil {
			return err
		}
		c.subject = prev.PendingVersion
		c.emit(event.UpgradeEventType, event.UpgradeEvent{
			Step:            event.StepCancel,
			Actor:           caller.String(),
			Version:         prev.PendingVersion,
			PreviousVersion: r.CurrentVersion,
		})
		return nil
	})
}

func (p *Protocol) UpgradeStatus() (upgrade.Status, error) {
	var ret upgrade.Status
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = upgrade.New(kv).Status()
		return err
	})
	return ret, err
}

func (p *Protocol) UpgradeConfig() (upgrade.Config, error) {
	var ret upgrade.Config
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = upgrade.New(kv).Config()
		return err
	})
	return ret, err
}
