package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker periodically snapshots pipeline health and pushes webhook
// alerts for sync failures and backlogs. It is started by serve mode
// when a webhook URL is configured.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
}

func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		lookback:  cfg.LookbackWindowHours,
	}
}

// Run blocks until ctx is cancelled. The first check happens
// immediately so a freshly started server reports a bad state
// without waiting out a full interval.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting health checker",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	c.runOnce(ctx, log)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("health checker stopped")
			return
		case <-ticker.C:
			c.runOnce(ctx, log)
		}
	}
}

func (c *Checker) runOnce(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		log.Error("health check failed", zap.Error(err))
		return
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("health check clean",
			zap.Int("submissions", snap.SubmissionsTotal),
			zap.Float64("sync_fail_rate", snap.SyncFailRate),
		)
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("health check raised alerts",
		zap.Int("triggered", len(alerts)),
		zap.Int("delivered", sent),
	)
}
