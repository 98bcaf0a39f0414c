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

package sqlite

import (
	"github.com/blinklabs-io/lendgov/database/models"
	"github.com/prometheus/client_golang/prometheus"
)

type metadataMetrics struct {
	registry    prometheus.Registerer
	auditWrites *prometheus.CounterVec
}

func newMetadataMetrics(registry prometheus.Registerer) *metadataMetrics {
	m := &metadataMetrics{
		registry: registry,
		auditWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_metadata_audit_writes_total",
				Help: "Total number of audit entries written",
			},
			[]string{"outcome"},
		),
	}
	registry.MustRegister(m.auditWrites)
	return m
}

func (m *metadataMetrics) observeAudit(outcome models.Outcome) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(outcome.String()).Inc()
}

func (m *metadataMetrics) unregister() {
	m.registry.Unregister(m.auditWrites)
}
