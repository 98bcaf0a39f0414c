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

// Package threshold implements N-of-M approval tracking over a persisted
// approval set.
package threshold

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/lendgov/common"
)

// Approve adds approver to approvals. It fails with ErrNotEligible if the
// approver is not in eligible, and with ErrDuplicateApproval if the approver
// has already approved. The input slice is never modified.
func Approve(
	approvals []common.Address,
	approver common.Address,
	eligible []common.Address,
) ([]common.Address, error) {
	if !common.ContainsAddress(eligible, approver) {
		return nil, fmt.Errorf("%w: %s", common.ErrNotEligible, approver)
	}
	if common.ContainsAddress(approvals, approver) {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateApproval, approver)
	}
	ret := make([]common.Address, 0, len(approvals)+1)
	ret = append(ret, approvals...)
	ret = append(ret, approver)
	return ret, nil
}

// IsSatisfied reports whether the approval set reaches threshold
func IsSatisfied(approvals []common.Address, threshold uint32) bool {
	return uint64(len(approvals)) >= uint64(threshold)
}

// Count returns the number of approvals that are still eligible. Approvals
// from addresses removed from the eligible set no longer count.
func Count(approvals []common.Address, eligible []common.Address) int {
	count := 0
	for _, addr := range approvals {
		if common.ContainsAddress(eligible, addr) {
			count++
		}
	}
	return count
}

// Eligible returns the approvals that are members of eligible, preserving
// order
func Eligible(
	approvals []common.Address,
	eligible []common.Address,
) []common.Address {
	return slices.DeleteFunc(
		slices.Clone(approvals),
		func(addr common.Address) bool {
			return !common.ContainsAddress(eligible, addr)
		},
	)
}

// CheckSatisfied returns ErrThresholdNotMet unless the eligible approvals
// reach threshold
func CheckSatisfied(
	approvals []common.Address,
	eligible []common.Address,
	threshold uint32,
) error {
	current := Eligible(approvals, eligible)
	if !IsSatisfied(current, threshold) {
		return fmt.Errorf(
			"%w: %d of %d approvals",
			common.ErrThresholdNotMet,
			len(current),
			threshold,
		)
	}
	return nil
}

// ValidateConfig checks that eligible is a valid unique address set and that
// 1 <= threshold <= len(eligible)
func ValidateConfig(eligible []common.Address, threshold uint32) error {
	if err := common.ValidateAddressSet(eligible); err != nil {
		return err
	}
	if threshold < 1 || uint64(threshold) > uint64(len(eligible)) {
		return fmt.Errorf(
			"%w: threshold %d outside 1..%d",
			common.ErrInvalidConfiguration,
			threshold,
			len(eligible),
		)
	}
	return nil
}
