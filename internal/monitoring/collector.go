package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/cellar-app/cellar/internal/model"
)

// StatsSource abstracts the store method the collector needs.
type StatsSource interface {
	Stats(ctx context.Context) (*model.CatalogStats, error)
}

// Collector reads catalog counts from the store and mirrors them into gauges.
type Collector struct {
	source StatsSource

	wineries    prometheus.Gauge
	wines       prometheus.Gauge
	linked      prometheus.Gauge
	undescribed prometheus.Gauge
}

// NewCollector creates a collector and registers its gauges on reg.
func NewCollector(src StatsSource, reg prometheus.Registerer) *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cellar",
			Subsystem: "catalog",
			Name:      name,
			Help:      help,
		})
	}
	c := &Collector{
		source:      src,
		wineries:    gauge("wineries", "Wineries in the catalog."),
		wines:       gauge("wines", "Wines in the catalog."),
		linked:      gauge("linked_wines", "Wines linked to a winery."),
		undescribed: gauge("undescribed_wines", "Wines with no description."),
	}
	reg.MustRegister(c.wineries, c.wines, c.linked, c.undescribed)
	return c
}

// Collect fetches the current catalog counts and updates the gauges.
func (c *Collector) Collect(ctx context.Context) (*model.CatalogStats, error) {
	stats, err := c.source.Stats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: collect stats")
	}

	c.wineries.Set(float64(stats.Wineries))
	c.wines.Set(float64(stats.Wines))
	c.linked.Set(float64(stats.LinkedWines))
	c.undescribed.Set(float64(stats.UndescribedWines))
	return stats, nil
}
