package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/revenuepulse/leakcalc/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Submission scoring coverage (all time).
	SubmissionsTotal    int `json:"submissions_total"`
	SubmissionsScored   int `json:"submissions_scored"`
	SubmissionsUnscored int `json:"submissions_unscored"`

	// CRM sync outcomes (within lookback window).
	SyncSuccess  int     `json:"sync_success"`
	SyncFailure  int     `json:"sync_failure"`
	SyncFailRate float64 `json:"sync_fail_rate"`

	// Calculator session backlog.
	SessionsPending int `json:"sessions_pending"`
	SessionsExpired int `json:"sessions_expired"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of system metrics. Sync outcomes are restricted
// to the given lookback window; scoring and session counts are current state.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	scores, err := c.store.ScoreStats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: score stats")
	}
	snap.SubmissionsTotal = scores.Total
	snap.SubmissionsScored = scores.Scored
	snap.SubmissionsUnscored = scores.Unscored

	syncs, err := c.store.SyncStats(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: sync stats")
	}
	snap.SyncSuccess = syncs.Success
	snap.SyncFailure = syncs.Failure
	if attempts := syncs.Success + syncs.Failure; attempts > 0 {
		snap.SyncFailRate = float64(syncs.Failure) / float64(attempts)
	}

	sessions, err := c.store.SessionStats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: session stats")
	}
	snap.SessionsPending = sessions.Pending
	snap.SessionsExpired = sessions.Expired

	return snap, nil
}
