package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/leakcalc/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetSubmission_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM submissions WHERE id = \$1`).
		WithArgs("nonexistent-sub").
		WillReturnError(pgx.ErrNoRows)

	sub, err := s.GetSubmission(context.Background(), "nonexistent-sub")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSubmission(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	subArgs := make([]any, 33)
	for i := range subArgs {
		subArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO submissions`).
		WithArgs(subArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sub, err := s.CreateSubmission(context.Background(), &model.Submission{
		CompanyName:  "Acme",
		ContactEmail: "cfo@acme.com",
		CurrentARR:   1_000_000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCRMRefs_Partial(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Only the company id is set; contact and opportunity columns must not
	// be touched.
	mock.ExpectExec(`UPDATE submissions SET crm_company_id = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("crm-co-1", pgxmock.AnyArg(), "sub-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateCRMRefs(context.Background(), "sub-1", CRMRefs{CompanyID: "crm-co-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCRMRefs_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// No refs set means no query at all.
	err := s.UpdateCRMRefs(context.Background(), "sub-1", CRMRefs{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCRMRefs_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE submissions SET`).
		WithArgs("opp-1", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateCRMRefs(context.Background(), "missing", CRMRefs{OpportunityID: "opp-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submission not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLeadScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE submissions SET lead_score = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(85, pgxmock.AnyArg(), "sub-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateLeadScore(context.Background(), "sub-1", 85)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteSubmission_LogsFirst(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM integration_logs WHERE submission_id = \$1`).
		WithArgs("sub-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM email_sequences WHERE submission_id = \$1`).
		WithArgs("sub-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM submissions WHERE id = \$1`).
		WithArgs("sub-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := s.DeleteSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestLinkedSubmission_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`crm_company_id IS NOT NULL AND crm_contact_id IS NOT NULL`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	sub, err := s.LatestLinkedSubmission(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendIntegrationLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO integration_logs`).
		WithArgs(pgxmock.AnyArg(), "twenty_crm", pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry := &model.IntegrationLog{
		IntegrationType: "twenty_crm",
		SubmissionID:    "sub-1",
		Status:          model.LogStatusSuccess,
		ResponseData:    map[string]any{"companyId": "crm-co-1"},
	}
	err := s.AppendIntegrationLog(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEmailSequence(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO email_sequences`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "leak_report_followup", 1, pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	seq, err := s.CreateEmailSequence(context.Background(), &model.EmailSequence{
		SubmissionID: "sub-1",
		SequenceType: "leak_report_followup",
		EmailStep:    1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, seq.ID)
	assert.Equal(t, model.SequenceNotStarted, seq.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateEmailSequenceStatus_Partial(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Only the sent timestamp accompanies the status change; the other
	// engagement columns must not be touched.
	sent := time.Now().UTC()
	mock.ExpectExec(`UPDATE email_sequences SET status = \$1, sent_at = \$2 WHERE id = \$3`).
		WithArgs("sent", sent, "seq-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateEmailSequenceStatus(context.Background(), "seq-1", model.SequenceSent, SequenceStamps{SentAt: &sent})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateEmailSequenceStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE email_sequences SET status = \$1 WHERE id = \$2`).
		WithArgs("opened", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateEmailSequenceStatus(context.Background(), "missing", model.SequenceOpened, SequenceStamps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email sequence not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LinkSubmissionsToUser(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE submissions SET user_id = \$1, updated_at = \$2 WHERE contact_email = \$3 AND user_id IS NULL`).
		WithArgs("user-1", pgxmock.AnyArg(), "cfo@acme.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := s.LinkSubmissionsToUser(context.Background(), "user-1", "cfo@acme.com")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScoreStats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\), count\(\*\) FILTER`).
		WillReturnRows(pgxmock.NewRows([]string{"total", "scored"}).AddRow(10, 7))

	st, err := s.ScoreStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, st.Total)
	assert.Equal(t, 7, st.Scored)
	assert.Equal(t, 3, st.Unscored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SyncStats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(`FROM integration_logs WHERE created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"success", "failure"}).AddRow(5, 1))

	st, err := s.SyncStats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Success)
	assert.Equal(t, 1, st.Failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredTempSubmissions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM temporary_submissions WHERE expires_at <= now\(\) AND converted_to_user_id IS NULL`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := s.DeleteExpiredTempSubmissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
