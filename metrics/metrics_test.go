package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.HTTPAttempts.WithLabelValues("ok").Inc()
	m.HTTPRetries.Inc()
	m.CacheLookups.WithLabelValues("hit").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPAttempts.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))

	// Registering the same collectors twice on one registry must panic
	assert.Panics(t, func() { New(reg) })
}

func TestSummary(t *testing.T) {
	m := New(nil)
	m.CacheWrites.WithLabelValues("ok").Add(3)
	m.HTTPRetries.Inc()

	out, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, out, `dexbrowse_cache_writes_total{result="ok"} 3`)
	assert.Contains(t, out, "dexbrowse_http_retries_total 1")
	assert.NotContains(t, out, "attempt_duration_seconds")
}
