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

package params_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotInitialized(t *testing.T) {
	kv := testutil.NewMemKV()
	_, err := params.MinCollateralRatio(kv)
	require.ErrorIs(t, err, common.ErrNotInitialized)
	_, err = params.Load(kv)
	require.ErrorIs(t, err, common.ErrNotInitialized)
	err = params.SetPaused(kv, true)
	require.ErrorIs(t, err, common.ErrNotInitialized)
	assert.Empty(t, kv.Keys())
}

func TestInitAndUpdate(t *testing.T) {
	kv := testutil.NewMemKV()
	require.NoError(t, params.Init(kv, params.Defaults()))
	p, err := params.Load(kv)
	require.NoError(t, err)
	assert.Equal(t, params.Defaults(), p)

	require.NoError(t, params.SetMinCollateralRatio(kv, 20_000))
	require.NoError(t, params.SetFlashLoanFeeBps(kv, 5))
	require.NoError(t, params.SetOracle(kv, "oracle-1"))
	require.NoError(t, params.SetPaused(kv, true))
	p, err = params.Load(kv)
	require.NoError(t, err)
	assert.Equal(
		t,
		params.Params{
			MinCollateralRatioBps: 20_000,
			FlashLoanFeeBps:       5,
			Oracle:                "oracle-1",
			Paused:                true,
		},
		p,
	)
	assert.Len(t, kv.KeysWithPrefix("params:"), 4)
}
