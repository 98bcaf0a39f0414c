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

package threshold_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admins = []common.Address{"GADMIN1", "GADMIN2", "GADMIN3"}

func TestApproveFlow(t *testing.T) {
	var approvals []common.Address
	approvals, err := threshold.Approve(approvals, "GADMIN1", admins)
	require.NoError(t, err)
	assert.False(t, threshold.IsSatisfied(approvals, 2))

	approvals, err = threshold.Approve(approvals, "GADMIN2", admins)
	require.NoError(t, err)
	assert.True(t, threshold.IsSatisfied(approvals, 2))

	_, err = threshold.Approve(approvals, "GADMIN2", admins)
	require.ErrorIs(t, err, common.ErrDuplicateApproval)
	assert.Len(t, approvals, 2)
	assert.True(t, threshold.IsSatisfied(approvals, 2))

	_, err = threshold.Approve(approvals, "GOUTSIDER", admins)
	require.ErrorIs(t, err, common.ErrNotEligible)
}

func TestApproveDoesNotAlias(t *testing.T) {
	base := make([]common.Address, 1, 4)
	base[0] = "GADMIN1"
	a, err := threshold.Approve(base, "GADMIN2", admins)
	require.NoError(t, err)
	b, err := threshold.Approve(base, "GADMIN3", admins)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{"GADMIN1", "GADMIN2"}, a)
	assert.Equal(t, []common.Address{"GADMIN1", "GADMIN3"}, b)
}

func TestCheckSatisfiedIgnoresRemoved(t *testing.T) {
	approvals := []common.Address{"GADMIN1", "GOLD"}
	assert.Equal(t, 1, threshold.Count(approvals, admins))
	require.ErrorIs(
		t,
		threshold.CheckSatisfied(approvals, admins, 2),
		common.ErrThresholdNotMet,
	)
	require.NoError(t, threshold.CheckSatisfied(approvals, admins, 1))
}

func TestValidateConfig(t *testing.T) {
	testDefs := []struct {
		name      string
		eligible  []common.Address
		threshold uint32
		valid     bool
	}{
		{name: "zero threshold", eligible: admins, threshold: 0},
		{name: "threshold above set", eligible: admins, threshold: 4},
		{name: "empty set", eligible: nil, threshold: 1},
		{
			name:      "duplicates",
			eligible:  []common.Address{"GA", "GA"},
			threshold: 1,
		},
		{name: "all of set", eligible: admins, threshold: 3, valid: true},
		{name: "one of set", eligible: admins, threshold: 1, valid: true},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := threshold.ValidateConfig(testDef.eligible, testDef.threshold)
			if testDef.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, common.ErrInvalidConfiguration)
			}
		})
	}
}
