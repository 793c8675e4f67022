package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/monitoring"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatSubmissionsList(t *testing.T) {
	subs := []model.Submission{
		{
			ID:           "aaaabbbb-0000-1111-2222-333344445555",
			CompanyName:  "Acme Analytics",
			ContactEmail: "cfo@acme.com",
			LeadScore:    85,
			TotalLeak:    410000,
			CRMCompanyID: "c-1",
			CRMContactID: "p-1",
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:           "ccccdddd-0000-1111-2222-333344445555",
			CompanyName:  "A Company With A Very Long Name Indeed LLC",
			ContactEmail: "ops@long.com",
			CRMCompanyID: "c-2",
		},
	}

	var buf bytes.Buffer
	formatSubmissionsList(&buf, subs)
	out := buf.String()

	assert.Contains(t, out, "aaaabbbb")
	assert.Contains(t, out, "Acme Analytics")
	assert.Contains(t, out, "linked")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2026-03-01 12:00")
}

func TestFormatSnapshot(t *testing.T) {
	snap := &monitoring.MetricsSnapshot{
		SubmissionsTotal:    10,
		SubmissionsScored:   7,
		SubmissionsUnscored: 3,
		SyncSuccess:         8,
		SyncFailure:         2,
		SyncFailRate:        0.2,
		SessionsPending:     4,
		SessionsExpired:     1,
		LookbackHours:       24,
	}

	var buf bytes.Buffer
	formatSnapshot(&buf, snap)
	out := buf.String()

	assert.Contains(t, out, "Submissions:")
	assert.Contains(t, out, "last 24h")
	assert.Contains(t, out, "20.0%")
}
