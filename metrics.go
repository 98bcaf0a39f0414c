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

package lendgov

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type protocolMetrics struct {
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	initialized prometheus.Gauge
}

func (m *protocolMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.calls = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendgov_entrypoint_calls_total",
			Help: "total number of state-changing entrypoint calls",
		},
		[]string{"entrypoint", "outcome"},
	)
	m.duration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendgov_entrypoint_duration_seconds",
			Help:    "duration of state-changing entrypoint calls",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100us to ~1.6s
		},
		[]string{"entrypoint"},
	)
	m.initialized = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "lendgov_initialized",
		Help: "whether the protocol has been initialized (0 or 1)",
	})
}

func (m *protocolMetrics) observe(entrypoint, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(entrypoint, outcome).Inc()
	m.duration.WithLabelValues(entrypoint).Observe(time.Since(start).Seconds())
}

func (m *protocolMetrics) setInitialized(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.initialized.Set(1)
		return
	}
	m.initialized.Set(0)
}
