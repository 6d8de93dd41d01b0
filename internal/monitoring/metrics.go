// Package monitoring exposes ingestion counters and catalog gauges.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/cellar-app/cellar/internal/model"
)

// Entity labels used on ingestion counters.
const (
	EntityWinery = "winery"
	EntityWine   = "wine"
)

// IngestMetrics counts per-record ingestion outcomes for a single run.
type IngestMetrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
}

// NewIngestMetrics creates counters on a fresh registry.
func NewIngestMetrics() *IngestMetrics {
	m := &IngestMetrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellar",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Records processed by ingestion, by entity and outcome.",
		}, []string{"entity", "outcome"}),
	}
	m.registry.MustRegister(m.records)
	return m
}

// Observe counts one record outcome.
func (m *IngestMetrics) Observe(entity string, outcome model.Outcome) {
	m.records.WithLabelValues(entity, string(outcome)).Inc()
}

// Registry returns the registry holding the counters.
func (m *IngestMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the counters in the node-exporter textfile format.
func (m *IngestMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "monitoring: write textfile %s", path)
	}
	return nil
}
