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

package common_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeWrapped(t *testing.T) {
	err := fmt.Errorf("execute proposal 3: %w", common.ErrAlreadyExecuted)
	assert.Equal(t, uint32(17), common.Code(err))
	assert.Equal(t, uint32(0), common.Code(nil))
	assert.Equal(t, common.CodeInternal, common.Code(errors.New("disk on fire")))
}

func TestValidateAddressSet(t *testing.T) {
	testDefs := []struct {
		name    string
		set     []common.Address
		wantErr error
	}{
		{name: "empty", set: nil, wantErr: common.ErrInvalidConfiguration},
		{
			name:    "duplicate",
			set:     []common.Address{"GA", "GB", "GA"},
			wantErr: common.ErrInvalidConfiguration,
		},
		{
			name:    "blank member",
			set:     []common.Address{"GA", ""},
			wantErr: common.ErrInvalidConfiguration,
		},
		{name: "valid", set: []common.Address{"GA", "GB", "GC"}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := common.ValidateAddressSet(testDef.set)
			if testDef.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, testDef.wantErr)
		})
	}
}

func TestParseAddressList(t *testing.T) {
	addrs, err := common.ParseAddressList(" GA, GB ,GC")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{"GA", "GB", "GC"}, addrs)

	_, err = common.ParseAddressList("GA,,GB")
	require.ErrorIs(t, err, common.ErrInvalidAddress)

	_, err = common.ParseAddress("G A")
	require.ErrorIs(t, err, common.ErrInvalidAddress)
}
