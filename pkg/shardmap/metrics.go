// Copyright 2024 Matrix Origin
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

package shardmap

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpInsert         = "insert"
	OpInsertIfAbsent = "insert_if_absent"
	OpLookup         = "lookup"
	OpRemove         = "remove"

	ResultOK   = "ok"
	ResultHit  = "hit"
	ResultMiss = "miss"
)

type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics creates the operation counters and registers them with reg
// when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chainmap",
			Subsystem: "shard",
			Name:      "ops_total",
			Help:      "Total number of shardmap operations by kind and result.",
		}, []string{"op", "result"})
	if reg != nil {
		reg.MustRegister(ops)
	}
	return &Metrics{ops: ops}
}

func (m *Metrics) inc(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}

// Count returns the counter for op and result.
func (m *Metrics) Count(op, result string) prometheus.Counter {
	return m.ops.WithLabelValues(op, result)
}

func hitOrMiss(hit bool) string {
	if hit {
		return ResultHit
	}
	return ResultMiss
}
