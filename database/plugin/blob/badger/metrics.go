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

package badger

import (
	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const badgerMetricNamePrefix = "database_blob_"

const (
	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"
)

type blobMetrics struct {
	registry prometheus.Registerer
	ops      *prometheus.CounterVec
	lsmSize  prometheus.GaugeFunc
	vlogSize prometheus.GaugeFunc
}

func newBlobMetrics(registry prometheus.Registerer, db *badger.DB) *blobMetrics {
	m := &blobMetrics{
		registry: registry,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: badgerMetricNamePrefix + "ops_total",
				Help: "Total number of blob operations",
			},
			[]string{"op"},
		),
		lsmSize: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: badgerMetricNamePrefix + "lsm_size_bytes",
				Help: "Size of the badger LSM tree",
			},
			func() float64 {
				lsm, _ := db.Size()
				return float64(lsm)
			},
		),
		vlogSize: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: badgerMetricNamePrefix + "vlog_size_bytes",
				Help: "Size of the badger value log",
			},
			func() float64 {
				_, vlog := db.Size()
				return float64(vlog)
			},
		),
	}
	registry.MustRegister(m.ops, m.lsmSize, m.vlogSize)
	return m
}

func (m *blobMetrics) observe(op string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op).Inc()
}

func (m *blobMetrics) unregister() {
	m.registry.Unregister(m.ops)
	m.registry.Unregister(m.lsmSize)
	m.registry.Unregister(m.vlogSize)
}
