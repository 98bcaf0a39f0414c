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
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeValue(t *testing.T) {
	for _, o := range []Outcome{OutcomeOk, OutcomeRejected, OutcomeFailed} {
		val, err := o.Value()
		require.NoError(t, err)
		assert.Equal(t, int64(o), val)
	}
	var _ driver.Valuer = OutcomeOk
	var _ sql.Scanner = new(Outcome)
}

func TestOutcomeScan(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Outcome
		wantErr  bool
	}{
		{name: "nil", input: nil, expected: OutcomeOk},
		{name: "int64", input: int64(1), expected: OutcomeRejected},
		{name: "int", input: 2, expected: OutcomeFailed},
		{name: "bytes", input: []byte("1"), expected: OutcomeRejected},
		{name: "string", input: "2", expected: OutcomeFailed},
		{name: "out of range", input: int64(3), wantErr: true},
		{name: "negative", input: int64(-1), wantErr: true},
		{name: "garbage", input: "x", wantErr: true},
		{name: "wrong type", input: 1.5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Outcome
			err := o.Scan(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, o)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOk.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
