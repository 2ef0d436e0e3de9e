// Package metrics holds the Prometheus collectors shared by the HTTP client
// and the cache store.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dexbrowse"

// Metrics groups the collectors used across the data-access stack
type Metrics struct {
	HTTPAttempts *prometheus.CounterVec
	HTTPRetries  prometheus.Counter
	HTTPDuration *prometheus.HistogramVec
	CacheLookups *prometheus.CounterVec
	CacheWrites  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// A nil registry gets a fresh private one so tests never collide on the default registerer.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "attempts_total",
				Help:      "Upstream request attempts by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "retries_total",
				Help:      "Delayed retries scheduled after a retryable failure",
			},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of single upstream attempts",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups by result (hit, stale_hit, miss, expired, corrupt)",
			},
			[]string{"result"},
		),
		CacheWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "writes_total",
				Help:      "Cache writes by result (ok, recovered, dropped)",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.HTTPAttempts, m.HTTPRetries, m.HTTPDuration, m.CacheLookups, m.CacheWrites)
	return m
}

// Summary renders counter values as sorted "name{labels} value" lines
func (m *Metrics) Summary() (string, error) {
	families, err := m.gatherer.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if metric.GetCounter() == nil {
				continue
			}
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %.0f", name, metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
