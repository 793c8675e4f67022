package store

import (
	"context"
	"time"

	"github.com/revenuepulse/leakcalc/internal/model"
)

// SubmissionFilter specifies criteria for listing submissions.
type SubmissionFilter struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CRMRefs carries external CRM ids to persist onto a submission. Only
// non-empty fields are written, so the sync workflow can record partial
// progress after each step.
type CRMRefs struct {
	CompanyID     string
	ContactID     string
	OpportunityID string
}

// SequenceStamps carries engagement timestamps to set alongside an email
// sequence status change. Only non-nil fields are written.
type SequenceStamps struct {
	SentAt    *time.Time
	OpenedAt  *time.Time
	ClickedAt *time.Time
	RepliedAt *time.Time
}

// ScoreStats summarizes lead-score coverage across all submissions.
type ScoreStats struct {
	Total    int `json:"total"`
	Scored   int `json:"scored"`
	Unscored int `json:"unscored"`
}

// SyncStats counts integration log outcomes within a lookback window.
type SyncStats struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// SessionStats counts in-progress calculator sessions.
type SessionStats struct {
	Pending int `json:"pending"`
	Expired int `json:"expired"`
}

// Store defines the persistence interface for the calculator backend.
// Implementations do not provide cross-call transactions; the sync workflow
// and batch rescoring are explicitly non-transactional. Get methods return
// (nil, nil) when the record does not exist.
type Store interface {
	// Submissions
	CreateSubmission(ctx context.Context, s *model.Submission) (*model.Submission, error)
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error)
	ListSubmissionsWithUserData(ctx context.Context, limit int) ([]model.SubmissionWithUser, error)
	UpdateSubmission(ctx context.Context, s *model.Submission) error
	UpdateCRMRefs(ctx context.Context, submissionID string, refs CRMRefs) error
	UpdateLeadScore(ctx context.Context, submissionID string, score int) error
	ListUnscoredSubmissions(ctx context.Context) ([]model.Submission, error)
	// LatestLinkedSubmission returns the most recent submission by the user
	// that already carries both CRM ids, or nil when none exists.
	LatestLinkedSubmission(ctx context.Context, userID string) (*model.Submission, error)
	// DeleteSubmission removes a submission after deleting its dependent
	// integration log rows.
	DeleteSubmission(ctx context.Context, id string) error

	// Temporary (in-progress) sessions
	UpsertTempSubmission(ctx context.Context, t *model.TemporarySubmission) (*model.TemporarySubmission, error)
	GetTempSubmission(ctx context.Context, tempID string) (*model.TemporarySubmission, error)
	MarkTempConverted(ctx context.Context, tempID, userID string) error
	DeleteExpiredTempSubmissions(ctx context.Context) (int, error)

	// Integration logs (append-only)
	AppendIntegrationLog(ctx context.Context, entry *model.IntegrationLog) error
	ListIntegrationLogs(ctx context.Context, submissionID string) ([]model.IntegrationLog, error)
	ListIntegrationLogsByType(ctx context.Context, integrationType string, limit int) ([]model.IntegrationLog, error)

	// Email sequences
	CreateEmailSequence(ctx context.Context, seq *model.EmailSequence) (*model.EmailSequence, error)
	ListEmailSequences(ctx context.Context, submissionID string) ([]model.EmailSequence, error)
	UpdateEmailSequenceStatus(ctx context.Context, id string, status model.SequenceStatus, stamps SequenceStamps) error

	// Analytics events
	InsertAnalyticsEvent(ctx context.Context, ev *model.AnalyticsEvent) error
	ListAnalyticsEvents(ctx context.Context, limit int) ([]model.AnalyticsEvent, error)

	// User profiles
	GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpsertUserProfile(ctx context.Context, p *model.UserProfile) error
	IncrementProfileAnalysis(ctx context.Context, userID string, opportunityValue float64) error
	// LinkSubmissionsToUser attaches prior email-matched anonymous
	// submissions to a newly registered user. Returns rows linked.
	LinkSubmissionsToUser(ctx context.Context, userID, email string) (int, error)

	// User-company relationships
	CreateUserCompanyRelationship(ctx context.Context, rel *model.UserCompanyRelationship) error
	ListUserCompanyRelationships(ctx context.Context, userID string) ([]model.UserCompanyRelationship, error)

	// Experiments
	CreateExperiment(ctx context.Context, exp *model.Experiment) error
	GetExperiment(ctx context.Context, id string) (*model.Experiment, error)
	AssignVariant(ctx context.Context, experimentID, subjectID string) (*model.ExperimentAssignment, error)
	ListAssignments(ctx context.Context, experimentID string) ([]model.ExperimentAssignment, error)

	// Stats
	ScoreStats(ctx context.Context) (*ScoreStats, error)
	SyncStats(ctx context.Context, since time.Time) (*SyncStats, error)
	SessionStats(ctx context.Context) (*SessionStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
