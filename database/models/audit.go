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

package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/blinklabs-io/lendgov/database/types"
)

// Outcome is the result recorded for an entrypoint call
type Outcome uint8

const (
	OutcomeOk Outcome = iota
	OutcomeRejected
	OutcomeFailed
)

const maxOutcomeValue = OutcomeFailed

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Value implements the driver.Valuer interface for database storage.
// Use a value receiver so both Outcome and *Outcome satisfy driver.Valuer.
func (o Outcome) Value() (driver.Value, error) {
	return int64(o), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (o *Outcome) Scan(value any) error {
	if value == nil {
		*o = OutcomeOk
		return nil
	}
	var val int64
	switch v := value.(type) {
	case int64:
		val = v
	case int:
		val = int64(v)
	case []byte:
		var err error
		val, err = strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse []byte as int64 for Outcome: %w", err)
		}
	case string:
		var err error
		val, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse string as int64 for Outcome: %w", err)
		}
	default:
		return fmt.Errorf("cannot scan %T into Outcome", value)
	}
	if val < 0 || val > int64(maxOutcomeValue) {
		return fmt.Errorf("invalid outcome value: %d", val)
	}
	*o = Outcome(val)
	return nil
}

// AuditEntry records one state-changing entrypoint call. Timestamp is the
// protocol time in seconds the call ran at, CreatedAt is wall-clock time.
type AuditEntry struct {
	ID         uint         `gorm:"primaryKey"`
	Timestamp  types.Uint64 `gorm:"index"`
	Entrypoint string       `gorm:"size:64;index"`
	Caller     string       `gorm:"size:128;index"`
	Subject    string       `gorm:"size:128"`
	Outcome    Outcome      `gorm:"index"`
	Code       uint32
	Detail     string
	CreatedAt  time.Time
}

// TableName returns the database table name for the AuditEntry model
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// AuditQuery filters audit entries. Zero values match everything and a zero
// Limit returns all matching rows.
type AuditQuery struct {
	Entrypoint string
	Caller     string
	Since      uint64
	Limit      int
}
