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

package types_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/stretchr/testify/require"
)

type codecRecord struct {
	Name    string
	Members []string
	Count   uint64
	Done    bool
}

func TestGetValueMissing(t *testing.T) {
	kv := testutil.NewMemKV()
	val, ok, err := types.GetValue[codecRecord](kv, []byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, codecRecord{}, val)
}

func TestSetGetValue(t *testing.T) {
	kv := testutil.NewMemKV()
	key := types.MakeKey("test", "record", types.Uint64ID(1))
	rec := codecRecord{
		Name:    "alpha",
		Members: []string{"GA", "GB"},
		Count:   7,
		Done:    true,
	}
	require.NoError(t, types.SetValue(kv, key, rec))
	got, ok, err := types.GetValue[codecRecord](kv, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)
}

func TestGetValueCorrupt(t *testing.T) {
	kv := testutil.NewMemKV()
	key := []byte("test:corrupt")
	require.NoError(t, kv.Set(key, []byte{0xff, 0x00}))
	_, _, err := types.GetValue[codecRecord](kv, key)
	require.Error(t, err)
}

func TestNextCounter(t *testing.T) {
	kv := testutil.NewMemKV()
	key := types.MakeKey(types.ModuleGov, "counter", nil)
	for expected := uint64(1); expected <= 3; expected++ {
		got, err := types.NextCounter(kv, key)
		require.NoError(t, err)
		require.Equal(t, expected, got)
	}
}
