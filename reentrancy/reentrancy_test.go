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

package reentrancy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/blinklabs-io/lendgov/reentrancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMarksContext(t *testing.T) {
	kv := testutil.NewMemKV()
	ctx := context.Background()
	require.NoError(t, reentrancy.Check(ctx))
	err := reentrancy.Call(ctx, kv, "observer", func(inner context.Context) error {
		locked, err := reentrancy.Locked(kv)
		require.NoError(t, err)
		assert.True(t, locked)
		return reentrancy.Check(inner)
	})
	require.ErrorIs(t, err, common.ErrReentrancyDetected)
	locked, err := reentrancy.Locked(kv)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestNestedCallRejected(t *testing.T) {
	kv := testutil.NewMemKV()
	var nestedCalled bool
	err := reentrancy.Call(
		context.Background(),
		kv,
		"outer",
		func(inner context.Context) error {
			return reentrancy.Call(
				context.Background(),
				kv,
				"inner",
				func(context.Context) error {
					nestedCalled = true
					return nil
				},
			)
		},
	)
	require.ErrorIs(t, err, common.ErrReentrancyDetected)
	assert.False(t, nestedCalled)
}

func TestCallClearsFlagOnError(t *testing.T) {
	kv := testutil.NewMemKV()
	boom := errors.New("boom")
	err := reentrancy.Call(
		context.Background(),
		kv,
		"observer",
		func(context.Context) error { return boom },
	)
	require.ErrorIs(t, err, boom)
	require.NoError(t, reentrancy.Lock(kv))
	require.ErrorIs(t, reentrancy.Lock(kv), common.ErrReentrancyDetected)
	require.NoError(t, reentrancy.Unlock(kv))
}
