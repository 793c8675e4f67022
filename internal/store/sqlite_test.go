package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/leakcalc/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleSubmission() *model.Submission {
	return &model.Submission{
		CompanyName:       "Acme SaaS",
		ContactEmail:      "cfo@acme.com",
		Phone:             "+1-555-0100",
		Industry:          "technology",
		CurrentARR:        2_000_000,
		MonthlyMRR:        166_000,
		MonthlyLeads:      120,
		AverageDealValue:  8_000,
		LeadResponseHours: 6,
		TotalLeak:         410_000,
		LeadScore:         0,
		UTMSource:         "google",
	}
}

// --- Submissions ---

func TestSQLite_Submission_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme SaaS", got.CompanyName)
	assert.Equal(t, "cfo@acme.com", got.ContactEmail)
	assert.Equal(t, 2_000_000.0, got.CurrentARR)
	assert.Equal(t, "google", got.UTMSource)
	assert.Empty(t, got.CRMCompanyID)
	assert.Empty(t, got.UserID)
}

func TestSQLite_Submission_Update(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	created.CompanyName = "Acme SaaS Inc"
	created.CurrentARR = 2_400_000
	created.LeadScore = 85
	require.NoError(t, st.UpdateSubmission(ctx, created))

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme SaaS Inc", got.CompanyName)
	assert.Equal(t, 2_400_000.0, got.CurrentARR)
	assert.Equal(t, 85, got.LeadScore)
}

func TestSQLite_Submission_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetSubmission(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Submission_ListByEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sub := sampleSubmission()
		_, err := st.CreateSubmission(ctx, sub)
		require.NoError(t, err)
	}
	other := sampleSubmission()
	other.ContactEmail = "ceo@other.io"
	_, err := st.CreateSubmission(ctx, other)
	require.NoError(t, err)

	subs, err := st.ListSubmissions(ctx, SubmissionFilter{Email: "cfo@acme.com"})
	require.NoError(t, err)
	assert.Len(t, subs, 3)

	all, err := st.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLite_Submission_ListLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateSubmission(ctx, sampleSubmission())
		require.NoError(t, err)
	}

	subs, err := st.ListSubmissions(ctx, SubmissionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSQLite_Submission_UpdateCRMRefs_Stepwise(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	// Company persisted first, then contact, then opportunity, mirroring
	// the stepwise sync workflow.
	require.NoError(t, st.UpdateCRMRefs(ctx, created.ID, CRMRefs{CompanyID: "co-1"}))
	require.NoError(t, st.UpdateCRMRefs(ctx, created.ID, CRMRefs{ContactID: "ct-1"}))
	require.NoError(t, st.UpdateCRMRefs(ctx, created.ID, CRMRefs{OpportunityID: "op-1"}))

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "co-1", got.CRMCompanyID)
	assert.Equal(t, "ct-1", got.CRMContactID)
	assert.Equal(t, "op-1", got.CRMOpportunityID)
	assert.True(t, got.HasCRMLink())
}

func TestSQLite_Submission_UpdateCRMRefs_PartialPreserves(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	require.NoError(t, st.UpdateCRMRefs(ctx, created.ID, CRMRefs{CompanyID: "co-1", ContactID: "ct-1"}))
	// A later partial update must not clear the earlier ids.
	require.NoError(t, st.UpdateCRMRefs(ctx, created.ID, CRMRefs{OpportunityID: "op-1"}))

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "co-1", got.CRMCompanyID)
	assert.Equal(t, "ct-1", got.CRMContactID)
}

func TestSQLite_Submission_UpdateCRMRefs_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateCRMRefs(context.Background(), "missing", CRMRefs{CompanyID: "co-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Submission_UpdateLeadScore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	require.NoError(t, st.UpdateLeadScore(ctx, created.ID, 80))

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.LeadScore)

	unscored, err := st.ListUnscoredSubmissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, unscored)
}

func TestSQLite_Submission_ListUnscored(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)
	b := sampleSubmission()
	b.LeadScore = 55
	_, err = st.CreateSubmission(ctx, b)
	require.NoError(t, err)

	unscored, err := st.ListUnscoredSubmissions(ctx)
	require.NoError(t, err)
	require.Len(t, unscored, 1)
	assert.Equal(t, a.ID, unscored[0].ID)
}

func TestSQLite_LatestLinkedSubmission(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Unlinked submission for the user.
	first := sampleSubmission()
	first.UserID = "user-1"
	_, err := st.CreateSubmission(ctx, first)
	require.NoError(t, err)

	got, err := st.LatestLinkedSubmission(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	linked := sampleSubmission()
	linked.UserID = "user-1"
	linked.CRMCompanyID = "co-9"
	linked.CRMContactID = "ct-9"
	created, err := st.CreateSubmission(ctx, linked)
	require.NoError(t, err)

	got, err = st.LatestLinkedSubmission(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "co-9", got.CRMCompanyID)
}

func TestSQLite_DeleteSubmission_RemovesLogs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	require.NoError(t, st.AppendIntegrationLog(ctx, &model.IntegrationLog{
		IntegrationType: "twenty_crm",
		SubmissionID:    created.ID,
		Status:          model.LogStatusSuccess,
	}))
	_, err = st.CreateEmailSequence(ctx, &model.EmailSequence{
		SubmissionID: created.ID,
		SequenceType: "leak_report_followup",
		EmailStep:    1,
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteSubmission(ctx, created.ID))

	got, err := st.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	logs, err := st.ListIntegrationLogs(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	seqs, err := st.ListEmailSequences(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, seqs)
}

// --- Temporary submissions ---

func TestSQLite_TempSubmission_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tmp := &model.TemporarySubmission{
		TempID:      "temp-abc",
		Email:       "early@acme.com",
		CurrentStep: 2,
		CalculatorData: map[string]any{
			"currentARR": 500000.0,
		},
		PageViews: 1,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	_, err := st.UpsertTempSubmission(ctx, tmp)
	require.NoError(t, err)

	got, err := st.GetTempSubmission(ctx, "temp-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.CurrentStep)
	assert.Equal(t, 500000.0, got.CalculatorData["currentARR"])

	// Second upsert with the same temp id updates in place.
	tmp.CurrentStep = 4
	tmp.PageViews = 3
	_, err = st.UpsertTempSubmission(ctx, tmp)
	require.NoError(t, err)

	got, err = st.GetTempSubmission(ctx, "temp-abc")
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStep)
	assert.Equal(t, 3, got.PageViews)
}

func TestSQLite_TempSubmission_MarkConverted(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:    "temp-conv",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, st.MarkTempConverted(ctx, "temp-conv", "user-7"))

	got, err := st.GetTempSubmission(ctx, "temp-conv")
	require.NoError(t, err)
	assert.Equal(t, "user-7", got.ConvertedToUserID)
}

func TestSQLite_TempSubmission_SweepExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:    "temp-old",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:    "temp-live",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
	// Converted sessions are kept even past expiry.
	_, err = st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID:            "temp-converted",
		ConvertedToUserID: "user-1",
		ExpiresAt:         time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)

	n, err := st.DeleteExpiredTempSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	live, err := st.GetTempSubmission(ctx, "temp-live")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

// --- Integration logs ---

func TestSQLite_IntegrationLogs_AppendAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	require.NoError(t, st.AppendIntegrationLog(ctx, &model.IntegrationLog{
		IntegrationType: "twenty_crm",
		SubmissionID:    created.ID,
		Status:          model.LogStatusSuccess,
		ResponseData:    map[string]any{"companyId": "co-1"},
	}))
	require.NoError(t, st.AppendIntegrationLog(ctx, &model.IntegrationLog{
		IntegrationType: "twenty_crm",
		SubmissionID:    created.ID,
		Status:          model.LogStatusError,
		ErrorMessage:    "opportunity create failed",
	}))

	logs, err := st.ListIntegrationLogs(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "co-1", logs[0].ResponseData["companyId"])
	assert.Equal(t, model.LogStatusError, logs[1].Status)
	assert.Equal(t, "opportunity create failed", logs[1].ErrorMessage)

	byType, err := st.ListIntegrationLogsByType(ctx, "twenty_crm", 10)
	require.NoError(t, err)
	assert.Len(t, byType, 2)
}

// --- Analytics events ---

func TestSQLite_AnalyticsEvents(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertAnalyticsEvent(ctx, &model.AnalyticsEvent{
		EventType:  "calculator_completed",
		UserID:     "user-1",
		Properties: map[string]any{"step": 5.0},
	}))

	events, err := st.ListAnalyticsEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "calculator_completed", events[0].EventType)
	assert.Equal(t, 5.0, events[0].Properties["step"])
}

// --- Email sequences ---

func TestSQLite_EmailSequence_CreateAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	seq, err := st.CreateEmailSequence(ctx, &model.EmailSequence{
		SubmissionID: created.ID,
		SequenceType: "leak_report_followup",
		EmailStep:    1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, seq.ID)
	assert.Equal(t, model.SequenceNotStarted, seq.Status)

	seqs, err := st.ListEmailSequences(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "leak_report_followup", seqs[0].SequenceType)
	assert.Equal(t, 1, seqs[0].EmailStep)
	assert.Nil(t, seqs[0].SentAt)
}

func TestSQLite_EmailSequence_UpdateStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)

	seq, err := st.CreateEmailSequence(ctx, &model.EmailSequence{
		SubmissionID: created.ID,
		SequenceType: "leak_report_followup",
		EmailStep:    1,
	})
	require.NoError(t, err)

	sent := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.UpdateEmailSequenceStatus(ctx, seq.ID, model.SequenceSent, SequenceStamps{
		SentAt: &sent,
	}))

	seqs, err := st.ListEmailSequences(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceSent, seqs[0].Status)
	require.NotNil(t, seqs[0].SentAt)
	assert.True(t, seqs[0].SentAt.Equal(sent))
	assert.Nil(t, seqs[0].OpenedAt)
}

func TestSQLite_EmailSequence_UpdateMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateEmailSequenceStatus(context.Background(), "no-such-id", model.SequenceSent, SequenceStamps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// --- User profiles ---

func TestSQLite_UserProfile_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := &model.UserProfile{
		ID:    "user-1",
		Email: "cfo@acme.com",
	}
	require.NoError(t, st.UpsertUserProfile(ctx, p))

	got, err := st.GetUserProfile(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.ClassificationStandard, got.Classification)

	p.Classification = model.ClassificationConsultant
	p.CompaniesAnalyzed = 4
	require.NoError(t, st.UpsertUserProfile(ctx, p))

	got, err = st.GetUserProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.ClassificationConsultant, got.Classification)
	assert.Equal(t, 4, got.CompaniesAnalyzed)
}

func TestSQLite_UserProfile_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetUserProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UserProfile_IncrementAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertUserProfile(ctx, &model.UserProfile{
		ID: "user-1", Email: "cfo@acme.com", CompaniesAnalyzed: 1, TotalOpportunity: 100_000,
	}))

	require.NoError(t, st.IncrementProfileAnalysis(ctx, "user-1", 50_000))

	got, err := st.GetUserProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompaniesAnalyzed)
	assert.Equal(t, 150_000.0, got.TotalOpportunity)
}

func TestSQLite_LinkSubmissionsToUser(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := st.CreateSubmission(ctx, sampleSubmission())
		require.NoError(t, err)
	}
	owned := sampleSubmission()
	owned.UserID = "someone-else"
	_, err := st.CreateSubmission(ctx, owned)
	require.NoError(t, err)

	n, err := st.LinkSubmissionsToUser(ctx, "user-1", "cfo@acme.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	subs, err := st.ListSubmissions(ctx, SubmissionFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

// --- User-company relationships ---

func TestSQLite_UserCompanyRelationships(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUserCompanyRelationship(ctx, &model.UserCompanyRelationship{
		UserID:         "user-1",
		SubmissionID:   "sub-1",
		CompanyName:    "Acme SaaS",
		CompanyARR:     2_000_000,
		SubmissionDate: time.Now().UTC(),
	}))

	rels, err := st.ListUserCompanyRelationships(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Acme SaaS", rels[0].CompanyName)
}

// --- Experiments ---

func TestSQLite_Experiment_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	exp := &model.Experiment{
		Name:   "headline-test",
		Status: model.ExperimentRunning,
		Variants: []model.ExperimentVariant{
			{Name: "control", Weight: 1},
			{Name: "variant-a", Weight: 1},
		},
	}
	require.NoError(t, st.CreateExperiment(ctx, exp))

	got, err := st.GetExperiment(ctx, exp.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "headline-test", got.Name)
	assert.Len(t, got.Variants, 2)
}

func TestSQLite_AssignVariant_Deterministic(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	exp := &model.Experiment{
		Name:   "cta-test",
		Status: model.ExperimentRunning,
		Variants: []model.ExperimentVariant{
			{Name: "control", Weight: 1},
			{Name: "variant-a", Weight: 3},
		},
	}
	require.NoError(t, st.CreateExperiment(ctx, exp))

	first, err := st.AssignVariant(ctx, exp.ID, "session-42")
	require.NoError(t, err)

	// Repeat calls for the same subject return the identical assignment.
	second, err := st.AssignVariant(ctx, exp.ID, "session-42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VariantID, second.VariantID)

	assignments, err := st.ListAssignments(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "session-42", assignments[0].SubjectID)
	assert.Equal(t, first.VariantID, assignments[0].VariantID)
}

func TestSQLite_AssignVariant_NotRunning(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	exp := &model.Experiment{
		Name:     "draft-test",
		Variants: []model.ExperimentVariant{{Name: "control", Weight: 1}},
	}
	require.NoError(t, st.CreateExperiment(ctx, exp))

	_, err := st.AssignVariant(ctx, exp.ID, "session-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

// --- Stats ---

func TestSQLite_ScoreStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateSubmission(ctx, sampleSubmission())
	require.NoError(t, err)
	scored := sampleSubmission()
	scored.LeadScore = 70
	_, err = st.CreateSubmission(ctx, scored)
	require.NoError(t, err)

	stats, err := st.ScoreStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Scored)
	assert.Equal(t, 1, stats.Unscored)
}

func TestSQLite_SyncStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendIntegrationLog(ctx, &model.IntegrationLog{
		IntegrationType: "twenty_crm", Status: model.LogStatusSuccess,
	}))
	require.NoError(t, st.AppendIntegrationLog(ctx, &model.IntegrationLog{
		IntegrationType: "twenty_crm", Status: model.LogStatusError,
	}))

	stats, err := st.SyncStats(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 1, stats.Failure)
}

func TestSQLite_SessionStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID: "t1", ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = st.UpsertTempSubmission(ctx, &model.TemporarySubmission{
		TempID: "t2", ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)

	stats, err := st.SessionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Expired)
}
