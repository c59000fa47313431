// Copyright 2025 Tom Barlow
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

package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-call dispatch metrics on its own Prometheus registry,
// so tests and embedded servers never collide with the process-global
// default registry.
type Metrics struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates a collector. A nil registry gets a fresh one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "tool_calls_total",
			Help:      "Tool calls dispatched, by tool and outcome status.",
		}, []string{"tool", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toolgate",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call duration from dispatch to result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	reg.MustRegister(m.calls, m.duration)
	return m
}

// Gatherer exposes the underlying registry for a /metrics handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) observe(tool, status string, elapsed time.Duration) {
	m.calls.WithLabelValues(tool, status).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}
