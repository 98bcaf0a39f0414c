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

	"github.com/blinklabs-io/lendgov/database/models"
	"github.com/blinklabs-io/lendgov/database/types"
)

// AddAuditEntry inserts an audit entry. The entry ID is set on success.
func (d *MetadataStoreSqlite) AddAuditEntry(
	entry *models.AuditEntry,
	txn types.Txn,
) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(entry); result.Error != nil {
		return result.Error
	}
	d.metrics.observeAudit(entry.Outcome)
	return nil
}

// GetAuditEntries returns matching audit entries, oldest first
func (d *MetadataStoreSqlite) GetAuditEntries(
	query models.AuditQuery,
) ([]models.AuditEntry, error) {
	db, err := d.resolveDB(nil)
	if err != nil {
		return nil, err
	}
	db = db.Model(&models.AuditEntry{})
	if query.Entrypoint != "" {
		db = db.Where("entrypoint = ?", query.Entrypoint)
	}
	if query.Caller != "" {
		db = db.Where("caller = ?", query.Caller)
	}
	if query.Since > 0 {
		db = db.Where("timestamp >= ?", types.Uint64(query.Since))
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	ret := []models.AuditEntry{}
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
