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

// Package action defines the closed set of parameter changes that governance
// and multisig proposals can carry.
//
// Each kind has its own typed payload. Proposals persist actions as an
// Envelope, and the applier that executes them matches on the concrete type
// exhaustively.
package action

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/threshold"
)

type Kind uint8

const (
	KindSetMinCollateralRatio Kind = iota + 1
	KindSetFlashLoanFee
	KindSetOracle
	KindSetPaused
	KindSetQuorumBps
	KindSetGovTimelock
	KindSetMultisigAdmins
	KindSetUpgradeApprovers
	KindSetProposalPolicy
)

// Parameter bounds
const (
	BpsDenominator        = 10_000
	MinCollateralRatioBps = 10_000
	MaxCollateralRatioBps = 1_000_000
	MaxFlashLoanFeeBps    = 1_000
	MaxGovTimelock        = 365 * 24 * 60 * 60
)

func (k Kind) String() string {
	switch k {
	case KindSetMinCollateralRatio:
		return "set_min_collateral_ratio"
	case KindSetFlashLoanFee:
		return "set_flash_loan_fee"
	case KindSetOracle:
		return "set_oracle"
	case KindSetPaused:
		return "set_paused"
	case KindSetQuorumBps:
		return "set_quorum_bps"
	case KindSetGovTimelock:
		return "set_gov_timelock"
	case KindSetMultisigAdmins:
		return "set_multisig_admins"
	case KindSetUpgradeApprovers:
		return "set_upgrade_approvers"
	case KindSetProposalPolicy:
		return "set_proposal_policy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Action is a single parameter change. The interface is sealed.
type Action interface {
	Kind() Kind
	Validate() error
	isAction()
}

type SetMinCollateralRatio struct {
	RatioBps uint64
}

type SetFlashLoanFee struct {
	FeeBps uint64
}

type SetOracle struct {
	Oracle common.Address
}

type SetPaused struct {
	Paused bool
}

type SetQuorumBps struct {
	QuorumBps uint64
}

// SetGovTimelock changes the delay between the end of voting and the
// earliest execution of a governance proposal
type SetGovTimelock struct {
	Seconds uint64
}

type SetMultisigAdmins struct {
	Admins    []common.Address
	Threshold uint32
}

type SetUpgradeApprovers struct {
	Approvers []common.Address
	Threshold uint32
}

// SetProposalPolicy switches governance proposal rights between open and
// allowlist-gated
type SetProposalPolicy struct {
	Allowlist bool
}

func (SetMinCollateralRatio) Kind() Kind { return KindSetMinCollateralRatio }
func (SetFlashLoanFee) Kind() Kind       { return KindSetFlashLoanFee }
func (SetOracle) Kind() Kind             { return KindSetOracle }
func (SetPaused) Kind() Kind             { return KindSetPaused }
func (SetQuorumBps) Kind() Kind          { return KindSetQuorumBps }
func (SetGovTimelock) Kind() Kind        { return KindSetGovTimelock }
func (SetMultisigAdmins) Kind() Kind     { return KindSetMultisigAdmins }
func (SetUpgradeApprovers) Kind() Kind   { return KindSetUpgradeApprovers }
func (SetProposalPolicy) Kind() Kind     { return KindSetProposalPolicy }

func (SetMinCollateralRatio) isAction() {}
func (SetFlashLoanFee) isAction()       {}
func (SetOracle) isAction()             {}
func (SetPaused) isAction()             {}
func (SetQuorumBps) isAction()          {}
func (SetGovTimelock) isAction()        {}
func (SetMultisigAdmins) isAction()     {}
func (SetUpgradeApprovers) isAction()   {}
func (SetProposalPolicy) isAction()     {}

func (a SetMinCollateralRatio) Validate() error {
	if a.RatioBps < MinCollateralRatioBps || a.RatioBps > MaxCollateralRatioBps {
		return fmt.Errorf(
			"%w: collateral ratio %d bps outside %d..%d",
			common.ErrInvalidAction,
			a.RatioBps,
			MinCollateralRatioBps,
			MaxCollateralRatioBps,
		)
	}
	return nil
}

func (a SetFlashLoanFee) Validate() error {
	if a.FeeBps > MaxFlashLoanFeeBps {
		return fmt.Errorf(
			"%w: flash loan fee %d bps above %d",
			common.ErrInvalidAction,
			a.FeeBps,
			MaxFlashLoanFeeBps,
		)
	}
	return nil
}

func (a SetOracle) Validate() error {
	if err := a.Oracle.Validate(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidAction, err)
	}
	return nil
}

func (SetPaused) Validate() error {
	return nil
}

func (a SetQuorumBps) Validate() error {
	if a.QuorumBps == 0 || a.QuorumBps > BpsDenominator {
		return fmt.Errorf(
			"%w: quorum %d bps outside 1..%d",
			common.ErrInvalidAction,
			a.QuorumBps,
			BpsDenominator,
		)
	}
	return nil
}

func (a SetGovTimelock) Validate() error {
	if a.Seconds > MaxGovTimelock {
		return fmt.Errorf(
			"%w: timelock %ds above %ds",
			common.ErrInvalidAction,
			a.Seconds,
			MaxGovTimelock,
		)
	}
	return nil
}

func (a SetMultisigAdmins) Validate() error {
	if err := threshold.ValidateConfig(a.Admins, a.Threshold); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidAction, err)
	}
	return nil
}

func (a SetUpgradeApprovers) Validate() error {
	if err := threshold.ValidateConfig(a.Approvers, a.Threshold); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidAction, err)
	}
	return nil
}

func (SetProposalPolicy) Validate() error {
	return nil
}

// Envelope is the persisted form of an Action
type Envelope struct {
	Kind    Kind
	Payload []byte
}

// Wrap validates and encodes an action into an Envelope
func Wrap(a Action) (Envelope, error) {
	if a == nil {
		return Envelope{}, fmt.Errorf("%w: nil action", common.ErrInvalidAction)
	}
	if err := a.Validate(); err != nil {
		return Envelope{}, err
	}
	payload, err := types.EncodeValue(a)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: a.Kind(), Payload: payload}, nil
}

// Unwrap decodes the Envelope back into its typed action
func (e Envelope) Unwrap() (Action, error) {
	var ret Action
	var err error
	switch e.Kind {
	case KindSetMinCollateralRatio:
		ret, err = decodeAs[SetMinCollateralRatio](e.Payload)
	case KindSetFlashLoanFee:
		ret, err = decodeAs[SetFlashLoanFee](e.Payload)
	case KindSetOracle:
		ret, err = decodeAs[SetOracle](e.Payload)
	case KindSetPaused:
		ret, err = decodeAs[SetPaused](e.Payload)
	case KindSetQuorumBps:
		ret, err = decodeAs[SetQuorumBps](e.Payload)
	case KindSetGovTimelock:
		ret, err = decodeAs[SetGovTimelock](e.Payload)
	case KindSetMultisigAdmins:
		ret, err = decodeAs[SetMultisigAdmins](e.Payload)
	case KindSetUpgradeApprovers:
		ret, err = decodeAs[SetUpgradeApprovers](e.Payload)
	case KindSetProposalPolicy:
		ret, err = decodeAs[SetProposalPolicy](e.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", common.ErrInvalidAction, e.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidAction, e.Kind, err)
	}
	return ret, nil
}

func decodeAs[T Action](payload []byte) (Action, error) {
	var ret T
	if err := types.DecodeValue(payload, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Describe returns a short human readable summary of an action
func Describe(a Action) string {
	switch v := a.(type) {
	case SetMinCollateralRatio:
		return fmt.Sprintf("set min collateral ratio to %d bps", v.RatioBps)
	case SetFlashLoanFee:
		return fmt.Sprintf("set flash loan fee to %d bps", v.FeeBps)
	case SetOracle:
		return fmt.Sprintf("set oracle to %s", v.Oracle)
	case SetPaused:
		return fmt.Sprintf("set paused to %t", v.Paused)
	case SetQuorumBps:
		return fmt.Sprintf("set quorum to %d bps", v.QuorumBps)
	case SetGovTimelock:
		return fmt.Sprintf("set governance timelock to %ds", v.Seconds)
	case SetMultisigAdmins:
		return fmt.Sprintf(
			"set multisig admins to %v (threshold %d)",
			v.Admins,
			v.Threshold,
		)
	case SetUpgradeApprovers:
		return fmt.Sprintf(
			"set upgrade approvers to %v (threshold %d)",
			v.Approvers,
			v.Threshold,
		)
	case SetProposalPolicy:
		if v.Allowlist {
			return "restrict proposal rights to the allowlist"
		}
		return "open proposal rights to everyone"
	default:
		return "unknown action"
	}
}
