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

package governance_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/blinklabs-io/lendgov/timelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(
	t *testing.T,
	cfg governance.Config,
	weights map[common.Address]uint64,
) *governance.Engine {
	t.Helper()
	kv := testutil.NewMemKV()
	e := governance.New(kv, nil)
	require.NoError(t, e.Init(cfg))
	stored := governance.NewStoredWeights(kv)
	for addr, w := range weights {
		require.NoError(t, stored.SetWeight(addr, w))
	}
	return e
}

var quorumAction = action.SetQuorumBps{QuorumBps: 2_000}

func TestQuorumBoundary(t *testing.T) {
	assert.True(t, governance.QuorumMet(500, 1000, 5000))
	assert.False(t, governance.QuorumMet(499, 1000, 5000))
	assert.False(t, governance.QuorumMet(0, 0, 5000))
	assert.True(t, governance.QuorumMet(^uint64(0), ^uint64(0), 10_000))

	cfg := governance.DefaultConfig()
	cfg.QuorumBps = 5000
	e := newEngine(t, cfg, map[common.Address]uint64{
		"alice": 500,
		"bob":   499,
		"carol": 1,
	})
	exact, err := e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	under, err := e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	_, err = e.Vote("alice", exact.ID, true, 1010)
	require.NoError(t, err)
	_, err = e.Vote("bob", under.ID, true, 1010)
	require.NoError(t, err)

	tally, err := e.Tally(exact.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), tally.TotalWeight)
	assert.True(t, tally.QuorumMet)
	tally, err = e.Tally(under.ID)
	require.NoError(t, err)
	assert.False(t, tally.QuorumMet)
}

func TestProposalLifecycle(t *testing.T) {
	e := newEngine(t, governance.DefaultConfig(), map[common.Address]uint64{
		"alice": 600,
		"bob":   400,
	})
	p, err := e.Propose("bob", quorumAction, 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, uint64(1100), p.VotingDeadline)
	assert.Equal(t, uint64(1160), p.ExecuteAfter)

	_, err = e.Vote("alice", p.ID, true, 1050)
	require.NoError(t, err)
	// Voting is still open at the deadline itself
	_, err = e.Vote("bob", p.ID, false, 1100)
	require.NoError(t, err)
	_, err = e.Vote("bob", p.ID, false, 1101)
	require.ErrorIs(t, err, common.ErrVotingClosed)

	var applied []action.Action
	apply := func(a action.Action) error {
		applied = append(applied, a)
		return nil
	}
	_, err = e.Execute("carol", p.ID, 1050, apply)
	require.ErrorIs(t, err, common.ErrVotingStillOpen)
	_, err = e.Execute("carol", p.ID, 1100, apply)
	require.ErrorIs(t, err, common.ErrVotingStillOpen)
	_, err = e.Execute("carol", p.ID, 1159, apply)
	require.ErrorIs(t, err, common.ErrTimelockNotElapsed)
	assert.Empty(t, applied)

	done, err := e.Execute("carol", p.ID, 1160, apply)
	require.NoError(t, err)
	assert.True(t, done.Executed)
	assert.Equal(t, uint64(1160), done.ExecutedAt)
	assert.Equal(t, timelock.StateExecuted, done.State(2000))
	require.Equal(t, []action.Action{quorumAction}, applied)

	_, err = e.Execute("carol", p.ID, 1200, apply)
	require.ErrorIs(t, err, common.ErrAlreadyExecuted)
	_, err = e.Vote("alice", p.ID, true, 1200)
	require.ErrorIs(t, err, common.ErrAlreadyExecuted)
	assert.Len(t, applied, 1)

	count, err := e.ProposalCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestExecuteOutcomes(t *testing.T) {
	noop := func(action.Action) error { return nil }
	weights := map[common.Address]uint64{
		"alice": 500,
		"bob":   500,
		"carol": 9000,
	}
	testDefs := []struct {
		name   string
		votes  map[common.Address]bool
		window uint64
		execAt uint64
		err    error
	}{
		{
			name:   "tie is defeated",
			votes:  map[common.Address]bool{"alice": true, "bob": false},
			execAt: 1160,
			err:    common.ErrProposalDefeated,
		},
		{
			name:   "against wins",
			votes:  map[common.Address]bool{"carol": false, "alice": true},
			execAt: 1160,
			err:    common.ErrProposalDefeated,
		},
		{
			name:   "no votes",
			execAt: 1160,
			err:    common.ErrQuorumNotMet,
		},
		{
			name:   "expired",
			votes:  map[common.Address]bool{"carol": true},
			window: 10,
			execAt: 1171,
			err:    common.ErrTimelockExpired,
		},
		{
			name:   "last second of window",
			votes:  map[common.Address]bool{"carol": true},
			window: 10,
			execAt: 1170,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := governance.DefaultConfig()
			cfg.ExecutionWindow = testDef.window
			e := newEngine(t, cfg, weights)
			p, err := e.Propose("alice", quorumAction, 100, 1000)
			require.NoError(t, err)
			for voter, support := range testDef.votes {
				_, err := e.Vote(voter, p.ID, support, 1010)
				require.NoError(t, err)
			}
			_, err = e.Execute("dave", p.ID, testDef.execAt, noop)
			if testDef.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, testDef.err)
		})
	}
}

func TestLastVoteWins(t *testing.T) {
	e := newEngine(t, governance.DefaultConfig(), map[common.Address]uint64{
		"alice": 600,
		"bob":   400,
	})
	p, err := e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	_, err = e.Vote("alice", p.ID, true, 1001)
	require.NoError(t, err)
	_, err = e.Vote("alice", p.ID, false, 1002)
	require.NoError(t, err)
	tally, err := e.Tally(p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tally.For)
	assert.Equal(t, uint64(600), tally.Against)
	voters, err := e.Voters(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{"alice"}, voters)
	receipt, ok, err := e.Receipt(p.ID, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1002), receipt.Timestamp)
}

func TestVoteWithoutWeight(t *testing.T) {
	e := newEngine(t, governance.DefaultConfig(), map[common.Address]uint64{
		"alice": 1,
	})
	p, err := e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	_, err = e.Vote("nobody", p.ID, true, 1001)
	require.ErrorIs(t, err, common.ErrNotEligible)
	_, err = e.Vote("alice", 42, true, 1001)
	require.ErrorIs(t, err, common.ErrProposalNotFound)
}

func TestProposeRules(t *testing.T) {
	cfg := governance.DefaultConfig()
	cfg.Policy = governance.PolicyAllowlist
	e := newEngine(t, cfg, nil)

	_, err := e.Propose("alice", quorumAction, 100, 1000)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.NoError(t, e.SetProposer("alice", true))
	_, err = e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	require.NoError(t, e.SetProposer("alice", false))
	_, err = e.Propose("alice", quorumAction, 100, 1000)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, e.UpdateConfig(func(c *governance.Config) {
		c.Policy = governance.PolicyOpen
	}))
	_, err = e.Propose("alice", quorumAction, cfg.MinVotingPeriod-1, 1000)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
	_, err = e.Propose("alice", quorumAction, cfg.MaxVotingPeriod+1, 1000)
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
	_, err = e.Propose("alice", action.SetQuorumBps{}, 100, 1000)
	require.ErrorIs(t, err, common.ErrInvalidAction)
	_, err = e.Propose("", quorumAction, 100, 1000)
	require.ErrorIs(t, err, common.ErrInvalidAddress)

	err = e.UpdateConfig(func(c *governance.Config) { c.QuorumBps = 0 })
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestCancel(t *testing.T) {
	e := newEngine(t, governance.DefaultConfig(), map[common.Address]uint64{
		"alice": 1,
	})
	p, err := e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	_, err = e.Cancel("mallory", "admin", p.ID)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	canceled, err := e.Cancel("alice", "admin", p.ID)
	require.NoError(t, err)
	assert.True(t, canceled.Canceled)
	_, err = e.Cancel("admin", "admin", p.ID)
	require.ErrorIs(t, err, common.ErrAlreadyCanceled)
	_, err = e.Vote("alice", p.ID, true, 1001)
	require.ErrorIs(t, err, common.ErrAlreadyCanceled)
	_, err = e.Execute("alice", p.ID, 5000, func(action.Action) error { return nil })
	require.ErrorIs(t, err, common.ErrAlreadyCanceled)

	p, err = e.Propose("alice", quorumAction, 100, 1000)
	require.NoError(t, err)
	_, err = e.Cancel("admin", "admin", p.ID)
	require.NoError(t, err)
}

func TestNotInitialized(t *testing.T) {
	e := governance.New(testutil.NewMemKV(), nil)
	_, err := e.Propose("alice", quorumAction, 100, 1000)
	require.ErrorIs(t, err, common.ErrNotInitialized)
	require.ErrorIs(t, e.Delegate("alice", "bob"), common.ErrNotInitialized)
}

func TestParsePolicy(t *testing.T) {
	p, err := governance.ParsePolicy("Allowlist")
	require.NoError(t, err)
	assert.Equal(t, governance.PolicyAllowlist, p)
	p, err = governance.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, governance.PolicyOpen, p)
	_, err = governance.ParsePolicy("council")
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
}
