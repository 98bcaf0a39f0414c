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
	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/blinklabs-io/lendgov/multisig"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/blinklabs-io/lendgov/upgrade"
)

// Names used in parameter change events for settings outside params
const (
	settingQuorumBps        = "quorum_bps"
	settingGovTimelock      = "gov_timelock"
	settingMultisigAdmins   = "multisig_admins"
	settingUpgradeApprovers = "upgrade_approvers"
	settingProposalPolicy   = "proposal_policy"
)

func (p *Protocol) applier(c *call) func(action.Action) error {
	return func(act action.Action) error {
		return p.apply(c, act)
	}
}

// apply performs an authorized action. The switch must stay exhaustive over
// the action kinds.
func (p *Protocol) apply(c *call, act action.Action) error {
	if err := act.Validate(); err != nil {
		return err
	}
	switch a := act.(type) {
	case action.SetMinCollateralRatio:
		if err := params.SetMinCollateralRatio(c.kv, a.RatioBps); err != nil {
			return err
		}
		return p.parameterChanged(
			c,
			params.NameMinCollateralRatio,
			strconv.FormatUint(a.RatioBps, 10),
		)
	case action.SetFlashLoanFee:
		if err := params.SetFlashLoanFeeBps(c.kv, a.FeeBps); err != nil {
			return err
		}
		return p.parameterChanged(
			c,
			params.NameFlashLoanFee,
			strconv.FormatUint(a.FeeBps, 10),
		)
	case action.SetOracle:
		if err := params.SetOracle(c.kv, a.Oracle); err != nil {
			return err
		}
		return p.parameterChanged(c, params.NameOracle, a.Oracle.String())
	case action.SetPaused:
		if err := params.SetPaused(c.kv, a.Paused); err != nil {
			return err
		}
		return p.parameterChanged(
			c,
			params.NamePaused,
			strconv.FormatBool(a.Paused),
		)
	case action.SetQuorumBps:
		err := governance.New(c.kv, p.weights(c.kv)).UpdateConfig(
			func(cfg *governance.Config) {
				cfg.QuorumBps = a.QuorumBps
			},
		)
		if err != nil {
			return err
		}
		p.settingChanged(c, settingQuorumBps, strconv.FormatUint(a.QuorumBps, 10))
	case action.SetGovTimelock:
		err := governance.New(c.kv, p.weights(c.kv)).UpdateConfig(
			func(cfg *governance.Config) {
				cfg.Timelock = a.Seconds
			},
		)
		if err != nil {
			return err
		}
		p.settingChanged(c, settingGovTimelock, strconv.FormatUint(a.Seconds, 10))
	case action.SetMultisigAdmins:
		cfg, err := multisig.New(c.kv).SetAdmins(a.Admins, a.Threshold)
		if err != nil {
			return err
		}
		p.settingChanged(c, settingMultisigAdmins, describeSet(cfg.Admins, cfg.Threshold))
	case action.SetUpgradeApprovers:
		cfg, err := upgrade.New(c.kv).SetApprovers(a.Approvers, a.Threshold)
		if err != nil {
			return err
		}
		p.settingChanged(c, settingUpgradeApprovers, describeSet(cfg.Approvers, cfg.Threshold))
	case action.SetProposalPolicy:
		policy := governance.PolicyOpen
		if a.Allowlist {
			policy = governance.PolicyAllowlist
		}
		err := governance.New(c.kv, p.weights(c.kv)).UpdateConfig(
			func(cfg *governance.Config) {
				cfg.Policy = policy
			},
		)
		if err != nil {
			return err
		}
		p.settingChanged(c, settingProposalPolicy, policy.String())
	default:
		return fmt.Errorf(
			"%w: unsupported kind %s",
			common.ErrInvalidAction,
			act.Kind(),
		)
	}
	return nil
}

func (p *Protocol) settingChanged(c *call, name, value string) {
	c.emit(event.ParameterChangedEventType, event.ParameterChangedEvent{
		Name:  name,
		Value: value,
	})
}

// parameterChanged announces a lending parameter change and notifies the
// observer inside the same call
func (p *Protocol) parameterChanged(c *call, name params.Name, value string) error {
	p.settingChanged(c, string(name), value)
	return p.callout(c, "OnParameterChanged", func(ctx context.Context) error {
		return p.config.observer.OnParameterChanged(ctx, name, value)
	})
}

func describeSet(set []common.Address, threshold uint32) string {
	return fmt.Sprintf("%d of %v", threshold, set)
}
