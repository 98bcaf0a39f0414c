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

package recovery_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/blinklabs-io/lendgov/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guardians = []common.Address{"g1", "g2", "g3"}

func newEngine(t *testing.T, cfg recovery.Config) *recovery.Engine {
	t.Helper()
	e := recovery.New(testutil.NewMemKV())
	require.NoError(t, e.Init(cfg))
	_, err := e.SetGuardians("acct", "acct", guardians, 2)
	require.NoError(t, err)
	return e
}

func TestTwoOfThreeAfterDelay(t *testing.T) {
	e := newEngine(t, recovery.DefaultConfig())
	const start = uint64(1_000_000)
	const delay = 48 * 60 * 60
	r, err := e.Propose("g1", "acct", "new-owner", start)
	require.NoError(t, err)
	assert.Equal(t, start+delay, r.ExecuteAfter)
	assert.Empty(t, r.Approvals)

	_, err = e.Approve("g1", "acct")
	require.NoError(t, err)
	_, _, err = e.Execute("anyone", "acct", start+delay-1)
	require.ErrorIs(t, err, common.ErrTimelockNotElapsed)
	_, _, err = e.Execute("anyone", "acct", start+delay)
	require.ErrorIs(t, err, common.ErrThresholdNotMet)

	_, err = e.Approve("g2", "acct")
	require.NoError(t, err)
	_, _, err = e.Execute("anyone", "acct", start+delay-1)
	require.ErrorIs(t, err, common.ErrTimelockNotElapsed)
	done, prev, err := e.Execute("anyone", "acct", start+delay)
	require.NoError(t, err)
	assert.True(t, done.Executed)
	assert.Equal(t, common.Address("acct"), prev)
	owner, err := e.OwnerOf("acct")
	require.NoError(t, err)
	assert.Equal(t, common.Address("new-owner"), owner)

	_, _, err = e.Execute("anyone", "acct", start+delay+1)
	require.ErrorIs(t, err, common.ErrAlreadyExecuted)
	owner, err = e.OwnerOf("acct")
	require.NoError(t, err)
	assert.Equal(t, common.Address("new-owner"), owner)
}

func TestGuardianRules(t *testing.T) {
	e := newEngine(t, recovery.Config{Delay: 10})
	_, err := e.SetGuardians("mallory", "acct", guardians, 2)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = e.SetGuardians("acct", "acct", guardians, 4)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = e.Propose("mallory", "acct", "new-owner", 1)
	require.ErrorIs(t, err, common.ErrNotAGuardian)
	_, err = e.Propose("g1", "other", "new-owner", 1)
	require.ErrorIs(t, err, common.ErrNotAGuardian)
	_, err = e.Approve("g1", "acct")
	require.ErrorIs(t, err, common.ErrRequestNotFound)
	_, err = e.Propose("g1", "acct", "acct", 1)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)

	_, err = e.Propose("g1", "acct", "new-owner", 1)
	require.NoError(t, err)
	_, err = e.Propose("g2", "acct", "other-owner", 2)
	require.ErrorIs(t, err, common.ErrRequestAlreadyPending)
	_, err = e.Approve("mallory", "acct")
	require.ErrorIs(t, err, common.ErrNotAGuardian)
	_, err = e.Approve("g3", "acct")
	require.NoError(t, err)
	_, err = e.Approve("g3", "acct")
	require.ErrorIs(t, err, common.ErrDuplicateApproval)
}

func TestExpiryAndCancel(t *testing.T) {
	e := newEngine(t, recovery.Config{Delay: 10, Window: 5})
	_, err := e.Propose("g1", "acct", "new-owner", 100)
	require.NoError(t, err)
	_, err = e.Approve("g1", "acct")
	require.NoError(t, err)
	_, err = e.Approve("g2", "acct")
	require.NoError(t, err)
	_, _, err = e.Execute("anyone", "acct", 116)
	require.ErrorIs(t, err, common.ErrTimelockExpired)

	// An expired request no longer blocks a new one
	_, err = e.Propose("g2", "acct", "other-owner", 200)
	require.NoError(t, err)
	_, err = e.Cancel("g2", "acct")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	r, err := e.Cancel("acct", "acct")
	require.NoError(t, err)
	assert.True(t, r.Canceled)
	_, err = e.Approve("g1", "acct")
	require.ErrorIs(t, err, common.ErrAlreadyCanceled)
	_, _, err = e.Execute("anyone", "acct", 300)
	require.ErrorIs(t, err, common.ErrAlreadyCanceled)
}

func TestNewOwnerControlsGuardians(t *testing.T) {
	e := newEngine(t, recovery.Config{})
	_, err := e.Propose("g1", "acct", "new-owner", 1)
	require.NoError(t, err)
	_, err = e.Approve("g1", "acct")
	require.NoError(t, err)
	_, err = e.Approve("g2", "acct")
	require.NoError(t, err)
	_, _, err = e.Execute("g3", "acct", 1)
	require.NoError(t, err)

	_, err = e.SetGuardians("acct", "acct", guardians, 1)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	set, err := e.SetGuardians("new-owner", "acct", []common.Address{"g4"}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), set.Threshold)
}

func TestNotInitialized(t *testing.T) {
	e := recovery.New(testutil.NewMemKV())
	_, err := e.SetGuardians("acct", "acct", guardians, 2)
	require.ErrorIs(t, err, common.ErrNotInitialized)
}
