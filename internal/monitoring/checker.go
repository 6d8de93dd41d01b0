package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker refreshes catalog gauges in the background.
type Checker struct {
	collector *Collector
	interval  time.Duration
}

// NewChecker creates a background refresher. A non-positive interval
// defaults to one minute.
func NewChecker(collector *Collector, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Checker{collector: collector, interval: interval}
}

// Run collects once immediately, then on every tick until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting catalog checker", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.check(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("catalog checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	stats, err := c.collector.Collect(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect catalog stats", zap.Error(err))
		return
	}
	log.Debug("monitoring: catalog stats refreshed",
		zap.Int("wineries", stats.Wineries),
		zap.Int("wines", stats.Wines),
		zap.Int("linked_wines", stats.LinkedWines),
	)
}
