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

package common

import "errors"

// Error kinds surfaced to callers. Every failure aborts the whole call.
var (
	ErrNotInitialized        = errors.New("not initialized")
	ErrAlreadyInitialized    = errors.New("already initialized")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotEligible           = errors.New("approver not eligible")
	ErrNotAGuardian          = errors.New("not a guardian")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrRequestNotFound       = errors.New("recovery request not found")
	ErrRequestAlreadyPending = errors.New("recovery request already pending")
	ErrDuplicateApproval     = errors.New("duplicate approval")
	ErrThresholdNotMet       = errors.New("approval threshold not met")
	ErrQuorumNotMet          = errors.New("quorum not met")
	ErrProposalDefeated      = errors.New("proposal defeated")
	ErrVotingStillOpen       = errors.New("voting still open")
	ErrVotingClosed          = errors.New("voting closed")
	ErrTimelockNotElapsed    = errors.New("timelock not elapsed")
	ErrTimelockExpired       = errors.New("timelock expired")
	ErrAlreadyExecuted       = errors.New("already executed")
	ErrAlreadyCanceled       = errors.New("already canceled")
	ErrUpgradeAlreadyPending = errors.New("upgrade already pending")
	ErrNoPendingUpgrade      = errors.New("no pending upgrade")
	ErrNoPreviousVersion     = errors.New("no previous version")
	ErrReentrancyDetected    = errors.New("reentrancy detected")
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrDelegationCycle       = errors.New("delegation cycle")
	ErrDelegationTooDeep     = errors.New("delegation chain too deep")
	ErrInvalidAction         = errors.New("invalid action")
	ErrInvalidAddress        = errors.New("invalid address")
)

// errorCodes assigns stable numeric codes to error kinds. Codes are part of
// the external call surface and must never be renumbered.
var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrNotInitialized, 1},
	{ErrAlreadyInitialized, 2},
	{ErrUnauthorized, 3},
	{ErrNotEligible, 4},
	{ErrNotAGuardian, 5},
	{ErrProposalNotFound, 6},
	{ErrRequestNotFound, 7},
	{ErrRequestAlreadyPending, 8},
	{ErrDuplicateApproval, 9},
	{ErrThresholdNotMet, 10},
	{ErrQuorumNotMet, 11},
	{ErrProposalDefeated, 12},
	{ErrVotingStillOpen, 13},
	{ErrVotingClosed, 14},
	{ErrTimelockNotElapsed, 15},
	{ErrTimelockExpired, 16},
	{ErrAlreadyExecuted, 17},
	{ErrAlreadyCanceled, 18},
	{ErrUpgradeAlreadyPending, 19},
	{ErrNoPendingUpgrade, 20},
	{ErrNoPreviousVersion, 21},
	{ErrReentrancyDetected, 22},
	{ErrInvalidConfiguration, 23},
	{ErrDelegationCycle, 24},
	{ErrDelegationTooDeep, 25},
	{ErrInvalidAction, 26},
	{ErrInvalidAddress, 27},
}

// CodeInternal is returned by Code for errors that are not a known kind,
// such as storage failures
const CodeInternal uint32 = 255

// Code returns the numeric code for the error kind wrapped by err. A nil
// error maps to 0.
func Code(err error) uint32 {
	if err == nil {
		return 0
	}
	for _, item := range errorCodes {
		if errors.Is(err, item.err) {
			return item.code
		}
	}
	return CodeInternal
}
