package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertSyncFailureRate AlertType = "crm_sync_failure_rate"
	AlertUnscoredBacklog AlertType = "unscored_backlog"
	AlertSessionBacklog  AlertType = "session_backlog"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// CRM sync failure rate, only once there is a meaningful sample.
	attempts := snap.SyncSuccess + snap.SyncFailure
	if attempts >= 5 && snap.SyncFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertSyncFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"CRM sync failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempts in last %dh)",
				snap.SyncFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.SyncFailure, attempts, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.SyncFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.SyncFailure,
				"attempts":     attempts,
			},
			Timestamp: now,
		})
	}

	// Unscored submissions piling up means the scoring path is broken.
	if a.cfg.UnscoredThreshold > 0 && snap.SubmissionsUnscored > a.cfg.UnscoredThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertUnscoredBacklog,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d submission(s) without a lead score exceeds threshold %d",
				snap.SubmissionsUnscored, a.cfg.UnscoredThreshold,
			),
			Details: map[string]any{
				"unscored":  snap.SubmissionsUnscored,
				"threshold": a.cfg.UnscoredThreshold,
				"total":     snap.SubmissionsTotal,
			},
			Timestamp: now,
		})
	}

	// Expired sessions accumulating means the cleanup sweep is not running.
	if a.cfg.ExpiredSessionThreshold > 0 && snap.SessionsExpired > a.cfg.ExpiredSessionThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertSessionBacklog,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d expired calculator session(s) awaiting cleanup exceeds threshold %d",
				snap.SessionsExpired, a.cfg.ExpiredSessionThreshold,
			),
			Details: map[string]any{
				"expired":   snap.SessionsExpired,
				"pending":   snap.SessionsPending,
				"threshold": a.cfg.ExpiredSessionThreshold,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
