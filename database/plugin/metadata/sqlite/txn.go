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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/lendgov/database/types"
	"gorm.io/gorm"
)

// sqliteTxn wraps a gorm transaction and implements types.Txn
type sqliteTxn struct {
	store    *MetadataStoreSqlite
	tx       *gorm.DB
	finished bool
}

// Transaction begins a new read-write transaction
func (d *MetadataStoreSqlite) Transaction() types.Txn {
	if d.db == nil {
		return nil
	}
	return &sqliteTxn{store: d, tx: d.DB().Begin()}
}

func (t *sqliteTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Commit().Error
}

func (t *sqliteTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Rollback().Error
}

// resolveDB returns the handle to run a query on. A nil txn runs outside of
// any transaction.
func (d *MetadataStoreSqlite) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		if d.db == nil {
			return nil, types.ErrNoStoreAvailable
		}
		return d.DB(), nil
	}
	t, ok := txn.(*sqliteTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if t.store != d {
		return nil, errors.New("transaction from different store")
	}
	if t.finished {
		return nil, errors.New("transaction already finished")
	}
	if t.tx.Error != nil {
		return nil, t.tx.Error
	}
	return t.tx, nil
}
