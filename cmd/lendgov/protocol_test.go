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

package main

import (
	"testing"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		kind  string
		value string
		want  action.Action
	}{
		{kind: "min-cr", value: "15000", want: action.SetMinCollateralRatio{RatioBps: 15000}},
		{kind: "flash-fee", value: "9", want: action.SetFlashLoanFee{FeeBps: 9}},
		{kind: "oracle", value: "oracle1", want: action.SetOracle{Oracle: "oracle1"}},
		{kind: "paused", value: "true", want: action.SetPaused{Paused: true}},
		{kind: "quorum", value: "4000", want: action.SetQuorumBps{QuorumBps: 4000}},
		{kind: "gov-timelock", value: "3600", want: action.SetGovTimelock{Seconds: 3600}},
		{
			kind:  "multisig-admins",
			value: "alice,bob:2",
			want: action.SetMultisigAdmins{
				Admins:    []common.Address{"alice", "bob"},
				Threshold: 2,
			},
		},
		{
			kind:  "upgrade-approvers",
			value: "carol:1",
			want: action.SetUpgradeApprovers{
				Approvers: []common.Address{"carol"},
				Threshold: 1,
			},
		},
		{kind: "proposal-policy", value: "allowlist", want: action.SetProposalPolicy{Allowlist: true}},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			got, err := parseAction(tc.kind, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseActionErrors(t *testing.T) {
	_, err := parseAction("mint", "1")
	require.ErrorIs(t, err, common.ErrInvalidAction)

	_, err = parseAction("min-cr", "lots")
	require.Error(t, err)

	_, err = parseAction("multisig-admins", "alice,bob")
	require.Error(t, err)

	_, err = parseAction("proposal-policy", "closed")
	require.Error(t, err)
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "true", yesNo("yes"))
	assert.Equal(t, "false", yesNo("against"))
	assert.Equal(t, "1", yesNo("1"))
}
