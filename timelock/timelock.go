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

// Package timelock implements the delayed-execution primitive shared by
// governance, upgrades and social recovery.
//
// An action is scheduled at some time T with a delay D and becomes ready at
// T+D. If an expiry window W is configured, the action expires once the
// current time passes T+D+W. All times are ledger timestamps in seconds.
package timelock

import (
	"fmt"
	"math"

	"github.com/blinklabs-io/lendgov/common"
)

type State uint8

const (
	StateScheduled State = iota
	StateReady
	StateExecuted
	StateExpired
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateReady:
		return "ready"
	case StateExecuted:
		return "executed"
	case StateExpired:
		return "expired"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Schedule returns the earliest execution time for an action scheduled at
// now with the given delay. The sum saturates instead of wrapping.
func Schedule(now, delay uint64) uint64 {
	return saturatingAdd(now, delay)
}

// IsReady reports whether now has reached executeAfter
func IsReady(now, executeAfter uint64) bool {
	return now >= executeAfter
}

// IsExpired reports whether now is past the expiry window following
// executeAfter. A zero window means the action never expires.
func IsExpired(now, executeAfter, window uint64) bool {
	if window == 0 {
		return false
	}
	return now > saturatingAdd(executeAfter, window)
}

// Lock is the persisted timelock state of a single action
type Lock struct {
	ExecuteAfter uint64
	Window       uint64
	Executed     bool
	Canceled     bool
}

// NewLock schedules a lock at now with the given delay and expiry window
func NewLock(now, delay, window uint64) Lock {
	return Lock{
		ExecuteAfter: Schedule(now, delay),
		Window:       window,
	}
}

// State returns the lock state as of now
func (l Lock) State(now uint64) State {
	switch {
	case l.Executed:
		return StateExecuted
	case l.Canceled:
		return StateCanceled
	case IsExpired(now, l.ExecuteAfter, l.Window):
		return StateExpired
	case IsReady(now, l.ExecuteAfter):
		return StateReady
	default:
		return StateScheduled
	}
}

// CheckExecutable returns nil if the action may execute at now
func (l Lock) CheckExecutable(now uint64) error {
	switch l.State(now) {
	case StateReady:
		return nil
	case StateExecuted:
		return common.ErrAlreadyExecuted
	case StateCanceled:
		return common.ErrAlreadyCanceled
	case StateExpired:
		return fmt.Errorf(
			"%w: window closed at %d, now %d",
			common.ErrTimelockExpired,
			saturatingAdd(l.ExecuteAfter, l.Window),
			now,
		)
	default:
		return fmt.Errorf(
			"%w: executable at %d, now %d",
			common.ErrTimelockNotElapsed,
			l.ExecuteAfter,
			now,
		)
	}
}

// CheckCancelable returns nil if the action is still in a non-terminal state
func (l Lock) CheckCancelable() error {
	if l.Executed {
		return common.ErrAlreadyExecuted
	}
	if l.Canceled {
		return common.ErrAlreadyCanceled
	}
	return nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
