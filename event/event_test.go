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

package event_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/lendgov/event"
	"github.com/blinklabs-io/lendgov/internal/test/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, subCh := eb.Subscribe(event.VoteCastEventType)
	eb.Publish(
		event.VoteCastEventType,
		event.NewEvent(
			event.VoteCastEventType,
			event.VoteCastEvent{ProposalID: 1, Voter: "alice", Weight: 10, Support: true},
		),
	)
	data := testutil.RequireEvent[event.VoteCastEvent](t, subCh, time.Second, "vote event")
	assert.Equal(t, "alice", data.Voter)
	assert.True(t, data.Support)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, sub1Ch := eb.Subscribe(event.ProposalCreatedEventType)
	_, sub2Ch := eb.Subscribe(event.ProposalCreatedEventType)
	_, otherCh := eb.Subscribe(event.ProposalExecutedEventType)
	eb.Publish(
		event.ProposalCreatedEventType,
		event.NewEvent(event.ProposalCreatedEventType, event.ProposalEvent{ID: 1}),
	)
	testutil.RequireReceive(t, sub1Ch, time.Second, "first subscriber")
	testutil.RequireReceive(t, sub2Ch, time.Second, "second subscriber")
	testutil.RequireNoReceive(t, otherCh, 50*time.Millisecond, "other type")
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	subId, subCh := eb.Subscribe(event.RecoveryEventType)
	eb.Unsubscribe(event.RecoveryEventType, subId)
	eb.Publish(event.RecoveryEventType, event.NewEvent(event.RecoveryEventType, nil))
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after Unsubscribe")
	}
	// Unknown ids are ignored
	eb.Unsubscribe(event.RecoveryEventType, subId)
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	var count atomic.Int32
	eb.SubscribeFunc(event.UpgradeEventType, func(event.Event) {
		count.Add(1)
	})
	for range 3 {
		require.True(t, eb.PublishAsync(
			event.UpgradeEventType,
			event.NewEvent(event.UpgradeEventType, event.UpgradeEvent{Step: event.StepPropose}),
		))
	}
	testutil.WaitForCondition(t, func() bool {
		return count.Load() == 3
	}, time.Second, "handler calls")
}

func TestEventBusStopAndReuse(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, subCh := eb.Subscribe(event.InitializedEventType)
	eb.Stop()
	_, ok := <-subCh
	require.False(t, ok)

	_, subCh = eb.Subscribe(event.InitializedEventType)
	require.True(t, eb.PublishAsync(
		event.InitializedEventType,
		event.NewEvent(event.InitializedEventType, event.InitializedEvent{Admin: "admin"}),
	))
	testutil.RequireReceive(t, subCh, time.Second, "event after restart")
}

func TestEventBusClosed(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	eb.Close()
	eb.Close()
	eb.Stop()
	assert.False(t, eb.PublishAsync(
		event.InitializedEventType,
		event.NewEvent(event.InitializedEventType, nil),
	))
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Close()
	subId, subCh := eb.Subscribe(event.ParameterChangedEventType)
	eb.Publish(
		event.ParameterChangedEventType,
		event.NewEvent(
			event.ParameterChangedEventType,
			event.ParameterChangedEvent{Name: "paused", Value: "true"},
		),
	)
	testutil.RequireReceive(t, subCh, time.Second, "parameter event")
	expected := `
# HELP event_bus_events_total Total number of events published
# TYPE event_bus_events_total counter
event_bus_events_total{type="protocol.parameter_changed"} 1
# HELP event_bus_subscribers Current number of subscribers
# TYPE event_bus_subscribers gauge
event_bus_subscribers{type="protocol.parameter_changed"} 1
`
	require.NoError(t, promtest.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"event_bus_events_total",
		"event_bus_subscribers",
	))
	eb.Unsubscribe(event.ParameterChangedEventType, subId)
}
