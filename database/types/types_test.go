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
	"github.com/stretchr/testify/require"
)

func TestUint64ScanValue(t *testing.T) {
	testDefs := []struct {
		value    types.Uint64
		expected string
	}{
		{value: 0, expected: "0"},
		{value: 123, expected: "123"},
		{value: types.Uint64(^uint64(0)), expected: "18446744073709551615"},
	}
	for _, testDef := range testDefs {
		valueOut, err := testDef.value.Value()
		require.NoError(t, err)
		require.Equal(t, testDef.expected, valueOut)
		var scanned types.Uint64
		require.NoError(t, scanned.Scan(valueOut))
		require.Equal(t, testDef.value, scanned)
	}
}

func TestUint64ScanWrongType(t *testing.T) {
	var scanned types.Uint64
	require.Error(t, scanned.Scan(int64(5)))
}
