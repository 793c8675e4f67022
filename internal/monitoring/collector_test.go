package monitoring

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedSubmission(t *testing.T, st store.Store, score int) *model.Submission {
	t.Helper()
	sub, err := st.CreateSubmission(context.Background(), &model.Submission{
		CompanyName:  "Acme Analytics",
		ContactEmail: "cfo@acme.com",
		Industry:     "saas",
		LeadScore:    score,
	})
	require.NoError(t, err)
	return sub
}

func seedSyncLog(t *testing.T, st store.Store, submissionID string, status model.LogStatus) {
	t.Helper()
	require.NoError(t, st.AppendIntegrationLog(context.Background(), &model.IntegrationLog{
		IntegrationType: "twenty_crm",
		SubmissionID:    submissionID,
		Status:          status,
	}))
}

func TestCollector_EmptyStore(t *testing.T) {
	c := NewCollector(newTestStore(t))

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.SubmissionsTotal)
	assert.Equal(t, 0, snap.SyncFailure)
	assert.Equal(t, 0.0, snap.SyncFailRate)
	assert.Equal(t, 0, snap.SessionsPending)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_ScoreCoverage(t *testing.T) {
	st := newTestStore(t)
	seedSubmission(t, st, 85)
	seedSubmission(t, st, 60)
	seedSubmission(t, st, 0)

	c := NewCollector(st)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.SubmissionsTotal)
	assert.Equal(t, 2, snap.SubmissionsScored)
	assert.Equal(t, 1, snap.SubmissionsUnscored)
}

func TestCollector_SyncOutcomes(t *testing.T) {
	st := newTestStore(t)
	sub := seedSubmission(t, st, 85)

	seedSyncLog(t, st, sub.ID, model.LogStatusSuccess)
	seedSyncLog(t, st, sub.ID, model.LogStatusSuccess)
	seedSyncLog(t, st, sub.ID, model.LogStatusSuccess)
	seedSyncLog(t, st, sub.ID, model.LogStatusError)

	c := NewCollector(st)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.SyncSuccess)
	assert.Equal(t, 1, snap.SyncFailure)
	assert.InDelta(t, 0.25, snap.SyncFailRate, 0.001)
}

func TestCollector_SessionBacklog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:    uuid.NewString(),
		ExpiresAt: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:    uuid.NewString(),
		ExpiresAt: now.Add(-1 * time.Hour),
	})
	require.NoError(t, err)

	c := NewCollector(st)
	snap, err := c.Collect(ctx, 24)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.SessionsPending)
	assert.Equal(t, 1, snap.SessionsExpired)
}
