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

package badger_test

import (
	"testing"

	"github.com/blinklabs-io/lendgov/database/plugin/blob/badger"
	"github.com/blinklabs-io/lendgov/database/types"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...badger.BlobStoreBadgerOptionFunc) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetDelete(t *testing.T) {
	store := newStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("gov:counter"), []byte{1}))
	require.NoError(t, store.Set(txn, []byte("gov:config"), []byte{2}))
	require.NoError(t, store.Set(txn, []byte("ms:config"), []byte{3}))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("gov:counter"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, val)
	_, err = store.Get(txn, []byte("gov:missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.ErrorIs(t, store.Set(txn, []byte("x"), nil), types.ErrReadOnlyTxn)

	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("gov:")})
	var keys []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	iter.Close()
	assert.Equal(t, []string{"gov:config", "gov:counter"}, keys)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("gov:counter")))
	require.NoError(t, txn.Rollback())
	txn = store.NewTransaction(false)
	_, err = store.Get(txn, []byte("gov:counter"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
	_, err = store.Get(txn, []byte("gov:counter"))
	require.Error(t, err)
}

func TestTxnValidation(t *testing.T) {
	store := newStore(t)
	other := newStore(t)
	_, err := store.Get(nil, []byte("k"))
	require.ErrorIs(t, err, types.ErrNilTxn)
	otherTxn := other.NewTransaction(false)
	_, err = store.Get(otherTxn, []byte("k"))
	require.Error(t, err)
	require.NoError(t, otherTxn.Rollback())
	iter := store.NewIterator(nil, types.BlobIteratorOptions{})
	assert.False(t, iter.Valid())
	require.ErrorIs(t, iter.Err(), types.ErrNilTxn)
}

func TestCommitTimestamp(t *testing.T) {
	store := newStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1_760_000_000_000, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1_760_000_000_000), ts)
	require.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := newStore(t, badger.WithPromRegistry(reg))
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("a:b"), []byte{1}))
	_, err := store.Get(txn, []byte("a:b"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
	count, err := promtest.GatherAndCount(reg, "database_blob_ops_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
