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

package upgrade_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/blinklabs-io/lendgov/upgrade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, required uint32, delay uint64) *upgrade.Engine {
	t.Helper()
	e := upgrade.New(testutil.NewMemKV())
	require.NoError(t, e.Init("1.0.0", "sha256:aaaa", upgrade.Config{
		Approvers: []common.Address{"alice", "bob", "carol"},
		Threshold: required,
		Timelock:  delay,
	}))
	return e
}

func TestRollbackRestoresPrevious(t *testing.T) {
	e := newEngine(t, 1, 0)
	_, err := e.Propose("alice", "1.1.0", "sha256:bbbb", 10)
	require.NoError(t, err)
	_, err = e.Approve("bob")
	require.NoError(t, err)
	r, err := e.Execute("anyone", 10)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", r.CurrentVersion)
	assert.Equal(t, "1.0.0", r.PreviousVersion)
	assert.False(t, r.HasPending())

	r, err = e.Rollback("carol", 20)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", r.CurrentVersion)
	assert.Equal(t, "sha256:aaaa", r.CurrentMetadata)
	assert.Empty(t, r.PreviousVersion)

	_, err = e.Rollback("carol", 21)
	require.ErrorIs(t, err, common.ErrNoPreviousVersion)

	status, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, upgrade.Status{
		Current:    "1.0.0",
		Metadata:   "sha256:aaaa",
		ExecutedAt: 20,
	}, status)
}

func TestExecuteRequirements(t *testing.T) {
	e := newEngine(t, 2, 3600)
	_, err := e.Execute("anyone", 0)
	require.ErrorIs(t, err, common.ErrNoPendingUpgrade)
	_, err = e.Approve("alice")
	require.ErrorIs(t, err, common.ErrNoPendingUpgrade)

	_, err = e.Propose("mallory", "2.0.0", "", 100)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = e.Propose("alice", "1.0.0", "", 100)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
	_, err = e.Propose("alice", "2.0.0", "meta", 100)
	require.NoError(t, err)
	_, err = e.Propose("bob", "3.0.0", "", 100)
	require.ErrorIs(t, err, common.ErrUpgradeAlreadyPending)

	_, err = e.Approve("alice")
	require.NoError(t, err)
	_, err = e.Approve("alice")
	require.ErrorIs(t, err, common.ErrDuplicateApproval)
	_, err = e.Approve("mallory")
	require.ErrorIs(t, err, common.ErrNotEligible)
	_, err = e.Execute("anyone", 5000)
	require.ErrorIs(t, err, common.ErrThresholdNotMet)

	_, err = e.Approve("bob")
	require.NoError(t, err)
	status, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", status.Pending)
	assert.Equal(t, uint64(3700), status.ExecutableAt)
	assert.Len(t, status.Approvals, 2)

	_, err = e.Execute("anyone", 3699)
	require.ErrorIs(t, err, common.ErrTimelockNotElapsed)
	r, err := e.Execute("anyone", 3700)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", r.CurrentVersion)
	assert.Equal(t, "meta", r.CurrentMetadata)
	_, err = e.Execute("anyone", 3701)
	require.ErrorIs(t, err, common.ErrNoPendingUpgrade)
}

func TestRollbackDiscardsPending(t *testing.T) {
	e := newEngine(t, 1, 0)
	_, err := e.Rollback("alice", 1)
	require.ErrorIs(t, err, common.ErrNoPreviousVersion)
	_, err = e.Propose("alice", "2.0.0", "", 1)
	require.NoError(t, err)
	_, err = e.Approve("alice")
	require.NoError(t, err)
	_, err = e.Execute("alice", 1)
	require.NoError(t, err)
	_, err = e.Propose("alice", "3.0.0", "", 2)
	require.NoError(t, err)
	_, err = e.Rollback("mallory", 3)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	r, err := e.Rollback("bob", 3)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", r.CurrentVersion)
	assert.False(t, r.HasPending())
}

func TestCancelAndApprovers(t *testing.T) {
	e := newEngine(t, 2, 0)
	_, err := e.Cancel("alice")
	require.ErrorIs(t, err, common.ErrNoPendingUpgrade)
	_, err = e.Propose("alice", "2.0.0", "", 1)
	require.NoError(t, err)
	_, err = e.Approve("alice")
	require.NoError(t, err)
	_, err = e.Approve("carol")
	require.NoError(t, err)

	// carol leaves the approver set, so only one approval still counts
	_, err = e.SetApprovers([]common.Address{"alice", "bob"}, 2)
	require.NoError(t, err)
	_, err = e.Execute("anyone", 1)
	require.ErrorIs(t, err, common.ErrThresholdNotMet)

	_, err = e.SetApprovers([]common.Address{"alice"}, 2)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)

	r, err := e.Cancel("bob")
	require.NoError(t, err)
	assert.False(t, r.HasPending())
	assert.Equal(t, "1.0.0", r.CurrentVersion)
}

func TestNotInitialized(t *testing.T) {
	e := upgrade.New(testutil.NewMemKV())
	_, err := e.Status()
	require.ErrorIs(t, err, common.ErrNotInitialized)
	_, err = e.Propose("alice", "2.0.0", "", 1)
	require.ErrorIs(t, err, common.ErrNotInitialized)
}
