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

package event

import "github.com/prometheus/client_golang/prometheus"

type eventMetrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
}

func newEventMetrics(promRegistry prometheus.Registerer) *eventMetrics {
	m := &eventMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_bus_events_total",
				Help: "Total number of events published",
			},
			[]string{"type"},
		),
		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "event_bus_subscribers",
				Help: "Current number of subscribers",
			},
			[]string{"type"},
		),
		deliveryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_bus_delivery_errors_total",
				Help: "Total number of failed or dropped deliveries",
			},
			[]string{"type"},
		),
	}
	promRegistry.MustRegister(m.eventsTotal, m.subscribers, m.deliveryErrors)
	return m
}

func (m *eventMetrics) published(eventType EventType) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(eventType)).Inc()
}

func (m *eventMetrics) subscribed(eventType EventType, delta float64) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(string(eventType)).Add(delta)
}

func (m *eventMetrics) deliveryError(eventType EventType) {
	if m == nil {
		return
	}
	m.deliveryErrors.WithLabelValues(string(eventType)).Inc()
}

func (m *eventMetrics) reset() {
	if m == nil {
		return
	}
	m.subscribers.Reset()
}
