// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later
package walk

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry is a thin wrapper around a prometheus.Registry, owned by
// the caller driving Execute/SmoothingLengthLoop, incremented at the same
// points spec.md §5's "thread-private reductions merged at join" describes
// (SPEC_FULL.md §4.11). Safe for concurrent use: the underlying prometheus
// collectors are.
type MetricsRegistry struct {
	Registry *prometheus.Registry

	Interactions    prometheus.Counter
	ExportSum       prometheus.Counter
	OverflowRetries prometheus.Counter
	Iterations      prometheus.Counter

	IterationSeconds *prometheus.HistogramVec
}

// NewMetricsRegistry builds and registers the collectors under the given
// namespace (e.g. "treewalk_density", "treewalk_hydro") so multiple Run
// instances in one process don't collide.
func NewMetricsRegistry(namespace string) *MetricsRegistry {
	reg := prometheus.NewRegistry()
	m := &MetricsRegistry{
		Registry: reg,
		Interactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "interactions_total",
			Help: "Cumulative neighbour interactions evaluated.",
		}),
		ExportSum: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "export_sum_total",
			Help: "Cumulative export-table entries produced across all TopTree passes.",
		}),
		OverflowRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "overflow_retries_total",
			Help: "Number of export-buffer overflow retries.",
		}),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "iterations_total",
			Help: "Number of completed ev_begin..ev_finish passes.",
		}),
		IterationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "phase_seconds",
			Help:    "Wall-clock time spent in each Execute phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}
	reg.MustRegister(m.Interactions, m.ExportSum, m.OverflowRetries, m.Iterations, m.IterationSeconds)
	return m
}

// Observe folds one Run's Stats snapshot into the registered collectors.
// Counters are cumulative, so the caller passes the delta since the last
// observation, not the running total stored on Stats.
func (m *MetricsRegistry) Observe(delta Stats) {
	m.Interactions.Add(float64(delta.Ninteractions))
	m.ExportSum.Add(float64(delta.NexportSum))
	m.OverflowRetries.Add(float64(delta.OverflowRetries))
	m.Iterations.Add(float64(delta.Niteration))

	m.IterationSeconds.WithLabelValues("preprocess").Observe(delta.PreprocessTime.Seconds())
	m.IterationSeconds.WithLabelValues("toptree").Observe(delta.TopTreeTime.Seconds())
	m.IterationSeconds.WithLabelValues("primary").Observe(delta.PrimaryTime.Seconds())
	m.IterationSeconds.WithLabelValues("exchange").Observe(delta.ExchangeTime.Seconds())
	m.IterationSeconds.WithLabelValues("secondary").Observe(delta.SecondaryTime.Seconds())
	m.IterationSeconds.WithLabelValues("reduce").Observe(delta.ReduceTime.Seconds())
	m.IterationSeconds.WithLabelValues("postprocess").Observe(delta.PostprocessTime.Seconds())
}
