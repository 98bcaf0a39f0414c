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

package database

import (
	"errors"

	"github.com/blinklabs-io/lendgov/database/types"
)

// KV returns a key-value view over the blob side of the transaction
func (t *Txn) KV() types.KV {
	return &txnKV{txn: t}
}

type txnKV struct {
	txn *Txn
}

func (k *txnKV) blobTxn() (types.Txn, error) {
	if k.txn.blobTxn == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	return k.txn.blobTxn, nil
}

func (k *txnKV) Get(key []byte) ([]byte, error) {
	txn, err := k.blobTxn()
	if err != nil {
		return nil, err
	}
	return k.txn.db.Blob().Get(txn, key)
}

func (k *txnKV) Set(key, val []byte) error {
	if !k.txn.readWrite {
		return types.ErrReadOnlyTxn
	}
	txn, err := k.blobTxn()
	if err != nil {
		return err
	}
	return k.txn.db.Blob().Set(txn, key, val)
}

func (k *txnKV) Has(key []byte) (bool, error) {
	if _, err := k.Get(key); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (k *txnKV) Delete(key []byte) error {
	if !k.txn.readWrite {
		return types.ErrReadOnlyTxn
	}
	txn, err := k.blobTxn()
	if err != nil {
		return err
	}
	return k.txn.db.Blob().Delete(txn, key)
}
