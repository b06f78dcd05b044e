package walk

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegistry_StartsAtZero(t *testing.T) {
	m := NewMetricsRegistry("treewalk_test_zero")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Interactions))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ExportSum))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OverflowRetries))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Iterations))
}

func TestObserve_AddsCountersCumulatively(t *testing.T) {
	m := NewMetricsRegistry("treewalk_test_cumulative")
	delta := Stats{Niteration: 1, Ninteractions: 10, NexportSum: 5, OverflowRetries: 2}

	m.Observe(delta)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Iterations))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Interactions))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ExportSum))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OverflowRetries))

	m.Observe(delta)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Iterations), "counters accumulate across Observe calls")
	assert.Equal(t, 20.0, testutil.ToFloat64(m.Interactions))
}

func TestObserve_RecordsOneHistogramSeriesPerPhase(t *testing.T) {
	m := NewMetricsRegistry("treewalk_test_histogram")
	m.Observe(Stats{
		PreprocessTime:  10 * time.Millisecond,
		TopTreeTime:     20 * time.Millisecond,
		PrimaryTime:     30 * time.Millisecond,
		ExchangeTime:    40 * time.Millisecond,
		SecondaryTime:   50 * time.Millisecond,
		ReduceTime:      60 * time.Millisecond,
		PostprocessTime: 70 * time.Millisecond,
	})

	assert.Equal(t, 7, testutil.CollectAndCount(m.IterationSeconds), "one series per distinct phase label")
}

func TestNewMetricsRegistry_NamespacesMetricNames(t *testing.T) {
	m := NewMetricsRegistry("treewalk_density")
	m.Interactions.Inc()

	got := testutil.ToFloat64(m.Interactions)
	assert.Equal(t, 1.0, got)

	families, err := m.Registry.Gather()
	assert.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "treewalk_density_interactions_total" {
			found = true
		}
	}
	assert.True(t, found, "counter should be registered under the given namespace")
}
