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
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/lendgov/database/models"
	"github.com/blinklabs-io/lendgov/database/types"
)

// Txn spans one protocol call. Protocol state is written to the blob store
// and the audit row of the call to the metadata store. Both commit together
// under a shared commit timestamp, or neither does.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	audit       *models.AuditEntry
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

func newTxn(db *Database, readWrite, withBlob, withMetadata bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if withBlob && db.blob != nil {
		t.blobTxn = db.blob.NewTransaction(readWrite)
	}
	if withMetadata && db.metadata != nil {
		t.metadataTxn = db.metadata.Transaction()
		if t.metadataTxn == nil {
			db.logger.Warn(
				"metadata store returned no transaction, audit rows will be rejected",
				"component", "database",
			)
		}
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// SetAudit stages the audit row of the call. It is written as part of the
// commit and discarded on rollback. A later call replaces the staged row.
func (t *Txn) SetAudit(entry *models.AuditEntry) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.audit = entry
}

// Do runs fn and commits. An error from fn rolls back both stores and drops
// the staged audit row.
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	if t.blobTxn == nil && t.metadataTxn == nil {
		t.finished = true
		return types.ErrNoStoreAvailable
	}
	if t.audit != nil {
		if err := t.writeAudit(); err != nil {
			_ = t.rollback()
			return err
		}
	}
	// Both stores carry the same stamp so a partial commit is detected on
	// the next open
	if t.blobTxn != nil && t.metadataTxn != nil {
		if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
			_ = t.rollback()
			return fmt.Errorf("failed to update commit timestamp: %w", err)
		}
	}
	// Blob first: protocol state is authoritative, a lagging audit trail is
	// recoverable
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			if t.metadataTxn != nil {
				_ = t.metadataTxn.Rollback()
			}
			t.finished = true
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			t.db.logger.Error(
				"partial commit: protocol state committed, audit row lost",
				"component", "database",
				"entrypoint", t.auditEntrypoint(),
				"error", err,
			)
			_ = t.metadataTxn.Rollback()
			t.finished = true
			return fmt.Errorf(
				"partial commit: metadata commit failed after blob commit: %w",
				err,
			)
		}
	}
	t.finished = true
	return nil
}

func (t *Txn) writeAudit() error {
	if t.metadataTxn == nil {
		return fmt.Errorf("audit row for %s: %w", t.audit.Entrypoint, types.ErrNoStoreAvailable)
	}
	if err := t.db.metadata.AddAuditEntry(t.audit, t.metadataTxn); err != nil {
		return fmt.Errorf("audit row for %s: %w", t.audit.Entrypoint, err)
	}
	return nil
}

func (t *Txn) auditEntrypoint() string {
	if t.audit == nil {
		return ""
	}
	return t.audit.Entrypoint
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("blob rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	t.audit = nil
	t.finished = true
	return errors.Join(errs...)
}

// Release ends the transaction without committing. Safe to defer.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}

// RecordAudit writes entry in a transaction of its own, without touching
// protocol state. Calls that were rejected or rolled back are recorded this
// way.
func (d *Database) RecordAudit(entry *models.AuditEntry) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}
	return newTxn(d, true, false, true).Do(func(txn *Txn) error {
		txn.SetAudit(entry)
		return nil
	})
}
