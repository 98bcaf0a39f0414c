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

// Package testutil holds helpers shared by the lendgov tests: an in-memory
// KV store for engine tests and bounded waits for event bus deliveries.
package testutil

import (
	"testing"
	"time"

	"github.com/blinklabs-io/lendgov/event"
	"github.com/stretchr/testify/require"
)

const pollInterval = 10 * time.Millisecond

// WaitForCondition polls condition until it holds or timeout passes
func WaitForCondition(
	t *testing.T,
	condition func() bool,
	timeout time.Duration,
	msg string,
) {
	t.Helper()
	require.Eventually(t, condition, timeout, pollInterval, msg)
}

// RequireReceive returns the next value from ch, failing the test after
// timeout
func RequireReceive[T any](
	t *testing.T,
	ch <-chan T,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-ch:
		return v
	case <-timer.C:
		require.FailNow(t, "nothing received before timeout", msg)
	}
	var zero T
	return zero
}

// RequireNoReceive fails the test if ch delivers anything within wait
func RequireNoReceive[T any](
	t *testing.T,
	ch <-chan T,
	wait time.Duration,
	msg string,
) {
	t.Helper()
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case v := <-ch:
		require.FailNow(t, "unexpected receive", "%s: %v", msg, v)
	case <-timer.C:
	}
}

// RequireEvent receives the next event from a bus subscription and returns
// its payload as T
func RequireEvent[T any](
	t *testing.T,
	ch <-chan event.Event,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	evt := RequireReceive(t, ch, timeout, msg)
	data, ok := evt.Data.(T)
	require.True(t, ok, "%s: unexpected %s payload %T", msg, evt.Type, evt.Data)
	return data
}
