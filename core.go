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

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/blinklabs-io/lendgov/recovery"
	"github.com/blinklabs-io/lendgov/upgrade"
)

// SchemaVersion is the storage layout version written by Initialize
const SchemaVersion uint32 = 1

var (
	keyInitialized   = types.MakeKey(types.ModuleCore, "initialized", nil)
	keyAdmin         = types.MakeKey(types.ModuleCore, "admin", nil)
	keySchemaVersion = types.MakeKey(types.ModuleCore, "schema_version", nil)
)

func userActionsKey(user common.Address) []byte {
	return types.MakeKey(types.ModuleCore, "user_actions", types.ID(string(user)))
}

func requireInitialized(kv types.KV) error {
	ok, err := kv.Has(keyInitialized)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNotInitialized
	}
	return nil
}

func adminOf(kv types.KV) (common.Address, error) {
	admin, ok, err := types.GetValue[common.Address](kv, keyAdmin)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: admin", common.ErrNotInitialized)
	}
	return admin, nil
}

func requireAdmin(kv types.KV, caller common.Address) error {
	admin, err := adminOf(kv)
	if err != nil {
		return err
	}
	if caller != admin {
		return fmt.Errorf(
			"%w: %s is not the protocol admin",
			common.ErrUnauthorized,
			caller,
		)
	}
	return nil
}

func (p *Protocol) weights(kv types.KV) governance.WeightSource {
	if p.config.weights != nil {
		return p.config.weights
	}
	return governance.NewStoredWeights(kv)
}

// Initialize performs the one-time setup. The admin becomes the bootstrap
// multisig authority and the sole upgrade approver until changed by an
// approved action.
func (p *Protocol) Initialize(ctx context.Context, admin common.Address) error {
	d := p.config.defaults
	err := p.run(ctx, "initialize", admin, false, func(c *call) error {
		if err := admin.Validate(); err != nil {
			return err
		}
		ok, err := c.kv.Has(keyInitialized)
		if err != nil {
			return err
		}
		if ok {
			return common.ErrAlreadyInitialized
		}
		if err := (action.SetMinCollateralRatio{RatioBps: d.Params.MinCollateralRatioBps}).Validate(); err != nil {
			return err
		}
		if err := (action.SetFlashLoanFee{FeeBps: d.Params.FlashLoanFeeBps}).Validate(); err != nil {
			return err
		}
		if err := governance.New(c.kv, p.weights(c.kv)).Init(d.Governance); err != nil {
			return err
		}
		if err := params.Init(c.kv, d.Params); err != nil {
			return err
		}
		err = upgrade.New(c.kv).Init(
			d.InitialVersion,
			d.VersionMetadata,
			upgrade.Config{
				Approvers: []common.Address{admin},
				Threshold: 1,
				Timelock:  d.UpgradeTimelock,
			},
		)
		if err != nil {
			return err
		}
		if err := recovery.New(c.kv).Init(d.Recovery); err != nil {
			return err
		}
		if err := types.SetValue(c.kv, keyAdmin, admin); err != nil {
			return err
		}
		if err := types.SetValue(c.kv, keySchemaVersion, SchemaVersion); err != nil {
			return err
		}
		if err := types.SetValue(c.kv, keyInitialized, true); err != nil {
			return err
		}
		c.subject = admin.String()
		c.detail = "version " + d.InitialVersion
		c.emit(event.InitializedEventType, event.InitializedEvent{
			Admin:   admin.String(),
			Version: d.InitialVersion,
		})
		return nil
	})
	if err != nil {
		return err
	}
	p.metrics.setInitialized(true)
	return nil
}

func (p *Protocol) Initialized() (bool, error) {
	var ret bool
	err := p.view(func(kv types.KV) error {
		var err error
		ret, err = kv.Has(keyInitialized)
		return err
	})
	return ret, err
}

// Admin returns the address given to Initialize
func (p *Protocol) Admin() (common.Address, error) {
	var ret common.Address
	err := p.view(func(kv types.KV) error {
		var err error
		ret, err = adminOf(kv)
		return err
	})
	return ret, err
}

func (p *Protocol) SchemaVersion() (uint32, error) {
	var ret uint32
	err := p.view(func(kv types.KV) error {
		v, ok, err := types.GetValue[uint32](kv, keySchemaVersion)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: schema version", common.ErrNotInitialized)
		}
		ret = v
		return nil
	})
	return ret, err
}

func (p *Protocol) Params() (params.Params, error) {
	var ret params.Params
	err := p.view(func(kv types.KV) error {
		var err error
		ret, err = params.Load(kv)
		return err
	})
	return ret, err
}

// RecordUserAction is the hook used by the lending modules to report user
// activity. It returns the number of actions recorded for user so far.
func (p *Protocol) RecordUserAction(
	ctx context.Context,
	user common.Address,
	name string,
) (uint64, error) {
	var ret uint64
	err := p.mutate(ctx, "record_user_action", user, func(c *call) error {
		if err := user.Validate(); err != nil {
			return err
		}
		count, err := types.NextCounter(c.kv, userActionsKey(user))
		if err != nil {
			return err
		}
		ret = count
		c.subject = user.String()
		c.detail = name
		c.emit(event.UserActionEventType, event.UserActionEvent{
			User:  user.String(),
			Count: count,
		})
		return nil
	})
	return ret, err
}

func (p *Protocol) UserActionCount(user common.Address) (uint64, error) {
	var ret uint64
	err := p.query(func(kv types.KV) error {
		var err error
		ret, _, err = types.GetValue[uint64](kv, userActionsKey(user))
		return err
	})
	return ret, err
}

// OwnerOf returns the current owner of account as tracked by recovery
func (p *Protocol) OwnerOf(account common.Address) (common.Address, error) {
	var ret common.Address
	err := p.query(func(kv types.KV) error {
		var err error
		ret, err = recovery.New(kv).OwnerOf(account)
		return err
	})
	return ret, err
}
