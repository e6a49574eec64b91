package prefixcache

import (
	"fmt"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "prefixdiff"

// Metrics are the simulator's counters. Each Simulator owns a registry so
// runs in the same process do not share counts.
type Metrics struct {
	registry *prometheus.Registry

	Lookups       prometheus.Counter
	Hits          prometheus.Counter
	Admissions    prometheus.Counter
	Evictions     prometheus.Counter
	LookupLatency prometheus.Histogram
}

// NewMetrics creates the counters and registers them on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Number of prompt lookups",
		}),
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "hit_blocks_total",
			Help: "Number of leading blocks found in the cache",
		}),
		Admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "admissions_total",
			Help: "Number of blocks offered to the cache",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "evictions_total",
			Help: "Number of blocks evicted from the cache",
		}),
		LookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "lookup_latency_seconds",
			Help:    "Latency of prompt lookups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.Lookups, m.Hits, m.Admissions, m.Evictions, m.LookupLatency)
	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the counters to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() model.CacheMetrics {
	return model.CacheMetrics{
		Lookups:    counterValue(m.Lookups),
		Hits:       counterValue(m.Hits),
		Admissions: counterValue(m.Admissions),
		Evictions:  counterValue(m.Evictions),
	}
}

func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
