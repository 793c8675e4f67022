package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/revenuepulse/leakcalc/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for local development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                        TEXT PRIMARY KEY,
	user_id                   TEXT,
	company_name              TEXT NOT NULL,
	contact_email             TEXT NOT NULL,
	phone                     TEXT,
	industry                  TEXT,
	current_arr               REAL NOT NULL DEFAULT 0,
	monthly_mrr               REAL NOT NULL DEFAULT 0,
	monthly_leads             REAL NOT NULL DEFAULT 0,
	average_deal_value        REAL NOT NULL DEFAULT 0,
	lead_response_hours       REAL NOT NULL DEFAULT 0,
	monthly_free_signups      REAL NOT NULL DEFAULT 0,
	free_to_paid_conversion   REAL NOT NULL DEFAULT 0,
	failed_payment_rate       REAL NOT NULL DEFAULT 0,
	manual_hours_per_week     REAL NOT NULL DEFAULT 0,
	hourly_rate               REAL NOT NULL DEFAULT 0,
	lead_response_loss        REAL NOT NULL DEFAULT 0,
	failed_payment_loss       REAL NOT NULL DEFAULT 0,
	selfserve_gap_loss        REAL NOT NULL DEFAULT 0,
	process_inefficiency_loss REAL NOT NULL DEFAULT 0,
	total_leak                REAL NOT NULL DEFAULT 0,
	leak_percentage           REAL NOT NULL DEFAULT 0,
	recovery_potential_70     REAL NOT NULL DEFAULT 0,
	recovery_potential_85     REAL NOT NULL DEFAULT 0,
	lead_score                INTEGER NOT NULL DEFAULT 0,
	crm_company_id            TEXT,
	crm_contact_id            TEXT,
	crm_opportunity_id        TEXT,
	utm_source                TEXT,
	utm_medium                TEXT,
	utm_campaign              TEXT,
	created_at                DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id);
CREATE INDEX IF NOT EXISTS idx_submissions_contact_email ON submissions(contact_email);
CREATE INDEX IF NOT EXISTS idx_submissions_lead_score ON submissions(lead_score);

CREATE TABLE IF NOT EXISTS temporary_submissions (
	id                    TEXT PRIMARY KEY,
	temp_id               TEXT NOT NULL UNIQUE,
	session_id            TEXT,
	email                 TEXT,
	company_name          TEXT,
	industry              TEXT,
	current_step          INTEGER NOT NULL DEFAULT 0,
	steps_completed       INTEGER NOT NULL DEFAULT 0,
	completion_percentage REAL NOT NULL DEFAULT 0,
	calculator_data       TEXT,
	page_views            INTEGER NOT NULL DEFAULT 0,
	return_visits         INTEGER NOT NULL DEFAULT 0,
	time_spent_seconds    INTEGER NOT NULL DEFAULT 0,
	lead_score            INTEGER NOT NULL DEFAULT 0,
	converted_to_user_id  TEXT,
	last_activity_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at            DATETIME NOT NULL,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_temp_submissions_expires_at ON temporary_submissions(expires_at);

CREATE TABLE IF NOT EXISTS integration_logs (
	id               TEXT PRIMARY KEY,
	integration_type TEXT NOT NULL,
	submission_id    TEXT REFERENCES submissions(id),
	status           TEXT NOT NULL,
	response_data    TEXT,
	error_message    TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_integration_logs_submission_id ON integration_logs(submission_id);
CREATE INDEX IF NOT EXISTS idx_integration_logs_type ON integration_logs(integration_type);

CREATE TABLE IF NOT EXISTS analytics_events (
	id            TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	user_id       TEXT,
	submission_id TEXT,
	properties    TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS email_sequences (
	id            TEXT PRIMARY KEY,
	submission_id TEXT REFERENCES submissions(id),
	sequence_type TEXT NOT NULL,
	email_step    INTEGER NOT NULL,
	status        TEXT NOT NULL DEFAULT 'not_started',
	campaign_id   TEXT,
	prospect_id   TEXT,
	sent_at       DATETIME,
	opened_at     DATETIME,
	clicked_at    DATETIME,
	replied_at    DATETIME,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_email_sequences_submission_id ON email_sequences(submission_id);

CREATE TABLE IF NOT EXISTS user_profiles (
	id                    TEXT PRIMARY KEY,
	email                 TEXT NOT NULL,
	company_name          TEXT,
	role                  TEXT,
	phone                 TEXT,
	business_model        TEXT,
	classification        TEXT NOT NULL DEFAULT 'standard',
	companies_analyzed    INTEGER NOT NULL DEFAULT 0,
	unique_industries     INTEGER NOT NULL DEFAULT 0,
	total_opportunity     REAL NOT NULL DEFAULT 0,
	total_portfolio_arr   REAL NOT NULL DEFAULT 0,
	partnership_qualified INTEGER NOT NULL DEFAULT 0,
	enterprise_qualified  INTEGER NOT NULL DEFAULT 0,
	high_value_user       INTEGER NOT NULL DEFAULT 0,
	last_analysis_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	first_submission_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	created_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_user_profiles_email ON user_profiles(email);

CREATE TABLE IF NOT EXISTS user_company_relationships (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	submission_id     TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	relationship_type TEXT,
	company_arr       REAL NOT NULL DEFAULT 0,
	submission_date   DATETIME NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_user_company_rel_user_id ON user_company_relationships(user_id);

CREATE TABLE IF NOT EXISTS experiments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS experiment_variants (
	id            TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL REFERENCES experiments(id),
	name          TEXT NOT NULL,
	weight        INTEGER NOT NULL DEFAULT 1,
	config        TEXT
);

CREATE TABLE IF NOT EXISTS experiment_assignments (
	id            TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL REFERENCES experiments(id),
	variant_id    TEXT NOT NULL,
	subject_id    TEXT NOT NULL,
	assigned_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (experiment_id, subject_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, nullStr(sub.UserID), sub.CompanyName, sub.ContactEmail, nullStr(sub.Phone), nullStr(sub.Industry),
		sub.CurrentARR, sub.MonthlyMRR, sub.MonthlyLeads, sub.AverageDealValue, sub.LeadResponseHours,
		sub.MonthlyFreeSignups, sub.FreeToPaidConversion, sub.FailedPaymentRate,
		sub.ManualHoursPerWeek, sub.HourlyRate,
		sub.LeadResponseLoss, sub.FailedPaymentLoss, sub.SelfServeGapLoss, sub.ProcessInefficiencyLoss,
		sub.TotalLeak, sub.LeakPercentage, sub.RecoveryPotential70, sub.RecoveryPotential85, sub.LeadScore,
		nullStr(sub.CRMCompanyID), nullStr(sub.CRMContactID), nullStr(sub.CRMOpportunityID),
		nullStr(sub.UTMSource), nullStr(sub.UTMMedium), nullStr(sub.UTMCampaign),
		now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert submission")
	}
	return sub, nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get submission %s", id)
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE true`
	args := []any{}

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Email != "" {
		query += ` AND contact_email = ?`
		args = append(args, filter.Email)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: list submissions")
}

func (s *SQLiteStore) ListSubmissionsWithUserData(ctx context.Context, limit int) ([]model.SubmissionWithUser, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+qualifiedSubmissionColumns("s")+`, p.email, p.classification
		FROM submissions s
		LEFT JOIN user_profiles p ON s.user_id = p.id
		ORDER BY s.created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions with user data")
	}
	defer rows.Close()

	var out []model.SubmissionWithUser
	for rows.Next() {
		var swu model.SubmissionWithUser
		var sub model.Submission
		var userID, phone, industry *string
		var crmCompany, crmContact, crmOpp *string
		var utmSource, utmMedium, utmCampaign *string
		var userEmail, classification *string

		err := rows.Scan(
			&sub.ID, &userID, &sub.CompanyName, &sub.ContactEmail, &phone, &industry,
			&sub.CurrentARR, &sub.MonthlyMRR, &sub.MonthlyLeads, &sub.AverageDealValue, &sub.LeadResponseHours,
			&sub.MonthlyFreeSignups, &sub.FreeToPaidConversion, &sub.FailedPaymentRate,
			&sub.ManualHoursPerWeek, &sub.HourlyRate,
			&sub.LeadResponseLoss, &sub.FailedPaymentLoss, &sub.SelfServeGapLoss, &sub.ProcessInefficiencyLoss,
			&sub.TotalLeak, &sub.LeakPercentage, &sub.RecoveryPotential70, &sub.RecoveryPotential85, &sub.LeadScore,
			&crmCompany, &crmContact, &crmOpp,
			&utmSource, &utmMedium, &utmCampaign,
			&sub.CreatedAt, &sub.UpdatedAt,
			&userEmail, &classification,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission with user data")
		}
		sub.UserID = deref(userID)
		sub.Phone = deref(phone)
		sub.Industry = deref(industry)
		sub.CRMCompanyID = deref(crmCompany)
		sub.CRMContactID = deref(crmContact)
		sub.CRMOpportunityID = deref(crmOpp)
		sub.UTMSource = deref(utmSource)
		sub.UTMMedium = deref(utmMedium)
		sub.UTMCampaign = deref(utmCampaign)
		swu.Submission = sub
		swu.UserEmail = deref(userEmail)
		swu.UserClassification = model.UserClassification(deref(classification))
		out = append(out, swu)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list submissions with user data")
}

func (s *SQLiteStore) UpdateSubmission(ctx context.Context, sub *model.Submission) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET
			company_name = ?, contact_email = ?, phone = ?, industry = ?,
			current_arr = ?, monthly_mrr = ?, monthly_leads = ?, average_deal_value = ?,
			lead_response_hours = ?, monthly_free_signups = ?, free_to_paid_conversion = ?,
			failed_payment_rate = ?, manual_hours_per_week = ?, hourly_rate = ?,
			lead_response_loss = ?, failed_payment_loss = ?, selfserve_gap_loss = ?,
			process_inefficiency_loss = ?, total_leak = ?, leak_percentage = ?,
			recovery_potential_70 = ?, recovery_potential_85 = ?, lead_score = ?,
			utm_source = ?, utm_medium = ?, utm_campaign = ?, updated_at = ?
		WHERE id = ?`,
		sub.CompanyName, sub.ContactEmail, nullStr(sub.Phone), nullStr(sub.Industry),
		sub.CurrentARR, sub.MonthlyMRR, sub.MonthlyLeads, sub.AverageDealValue,
		sub.LeadResponseHours, sub.MonthlyFreeSignups, sub.FreeToPaidConversion,
		sub.FailedPaymentRate, sub.ManualHoursPerWeek, sub.HourlyRate,
		sub.LeadResponseLoss, sub.FailedPaymentLoss, sub.SelfServeGapLoss,
		sub.ProcessInefficiencyLoss, sub.TotalLeak, sub.LeakPercentage,
		sub.RecoveryPotential70, sub.RecoveryPotential85, sub.LeadScore,
		nullStr(sub.UTMSource), nullStr(sub.UTMMedium), nullStr(sub.UTMCampaign), now,
		sub.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update submission %s", sub.ID)
	}
	if err := checkRowsAffected(res, "submission", sub.ID); err != nil {
		return err
	}
	sub.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateCRMRefs(ctx context.Context, submissionID string, refs CRMRefs) error {
	sets := []string{}
	args := []any{}

	if refs.CompanyID != "" {
		sets = append(sets, "crm_company_id = ?")
		args = append(args, refs.CompanyID)
	}
	if refs.ContactID != "" {
		sets = append(sets, "crm_contact_id = ?")
		args = append(args, refs.ContactID)
	}
	if refs.OpportunityID != "" {
		sets = append(sets, "crm_opportunity_id = ?")
		args = append(args, refs.OpportunityID)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, submissionID)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE submissions SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update crm refs %s", submissionID)
	}
	return checkRowsAffected(res, "submission", submissionID)
}

func (s *SQLiteStore) UpdateLeadScore(ctx context.Context, submissionID string, score int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET lead_score = ?, updated_at = ? WHERE id = ?`,
		score, time.Now().UTC(), submissionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead score %s", submissionID)
	}
	return checkRowsAffected(res, "submission", submissionID)
}

func (s *SQLiteStore) ListUnscoredSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE lead_score = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unscored submissions")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: list unscored submissions")
}

func (s *SQLiteStore) LatestLinkedSubmission(ctx context.Context, userID string) (*model.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE user_id = ? AND crm_company_id IS NOT NULL AND crm_contact_id IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`,
		userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: latest linked submission %s", userID)
	}
	return sub, nil
}

func (s *SQLiteStore) DeleteSubmission(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM integration_logs WHERE submission_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete integration logs %s", id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM email_sequences WHERE submission_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete email sequences %s", id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete submission %s", id)
	}
	return checkRowsAffected(res, "submission", id)
}

func (s *SQLiteStore) UpsertTempSubmission(ctx context.Context, t *model.TemporarySubmission) (*model.TemporarySubmission, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.LastActivityAt.IsZero() {
		t.LastActivityAt = now
	}

	dataJSON, err := json.Marshal(t.CalculatorData)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal calculator data")
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO temporary_submissions (
			id, temp_id, session_id, email, company_name, industry,
			current_step, steps_completed, completion_percentage, calculator_data,
			page_views, return_visits, time_spent_seconds, lead_score,
			converted_to_user_id, last_activity_at, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (temp_id) DO UPDATE SET
			session_id = excluded.session_id,
			email = excluded.email,
			company_name = excluded.company_name,
			industry = excluded.industry,
			current_step = excluded.current_step,
			steps_completed = excluded.steps_completed,
			completion_percentage = excluded.completion_percentage,
			calculator_data = excluded.calculator_data,
			page_views = excluded.page_views,
			return_visits = excluded.return_visits,
			time_spent_seconds = excluded.time_spent_seconds,
			lead_score = excluded.lead_score,
			last_activity_at = excluded.last_activity_at,
			expires_at = excluded.expires_at
		RETURNING id, created_at`,
		t.ID, t.TempID, nullStr(t.SessionID), nullStr(t.Email), nullStr(t.CompanyName), nullStr(t.Industry),
		t.CurrentStep, t.StepsCompleted, t.CompletionPercentage, string(dataJSON),
		t.PageViews, t.ReturnVisits, t.TimeSpentSeconds, t.LeadScore,
		nullStr(t.ConvertedToUserID), t.LastActivityAt, t.ExpiresAt, now,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert temp submission %s", t.TempID)
	}
	return t, nil
}

func (s *SQLiteStore) GetTempSubmission(ctx context.Context, tempID string) (*model.TemporarySubmission, error) {
	var t model.TemporarySubmission
	var sessionID, email, companyName, industry, convertedTo *string
	var dataJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, temp_id, session_id, email, company_name, industry,
			current_step, steps_completed, completion_percentage, calculator_data,
			page_views, return_visits, time_spent_seconds, lead_score,
			converted_to_user_id, last_activity_at, expires_at, created_at
		FROM temporary_submissions WHERE temp_id = ?`,
		tempID,
	).Scan(
		&t.ID, &t.TempID, &sessionID, &email, &companyName, &industry,
		&t.CurrentStep, &t.StepsCompleted, &t.CompletionPercentage, &dataJSON,
		&t.PageViews, &t.ReturnVisits, &t.TimeSpentSeconds, &t.LeadScore,
		&convertedTo, &t.LastActivityAt, &t.ExpiresAt, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get temp submission %s", tempID)
	}

	t.SessionID = deref(sessionID)
	t.Email = deref(email)
	t.CompanyName = deref(companyName)
	t.Industry = deref(industry)
	t.ConvertedToUserID = deref(convertedTo)
	if dataJSON.Valid && dataJSON.String != "" && dataJSON.String != "null" {
		if err := json.Unmarshal([]byte(dataJSON.String), &t.CalculatorData); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal calculator data")
		}
	}
	return &t, nil
}

func (s *SQLiteStore) MarkTempConverted(ctx context.Context, tempID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE temporary_submissions SET converted_to_user_id = ?, last_activity_at = ? WHERE temp_id = ?`,
		userID, time.Now().UTC(), tempID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark temp converted %s", tempID)
	}
	return checkRowsAffected(res, "temp submission", tempID)
}

func (s *SQLiteStore) DeleteExpiredTempSubmissions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM temporary_submissions WHERE expires_at <= ? AND converted_to_user_id IS NULL`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired temp submissions")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) AppendIntegrationLog(ctx context.Context, entry *model.IntegrationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	respJSON, err := json.Marshal(entry.ResponseData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal response data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO integration_logs (id, integration_type, submission_id, status, response_data, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.IntegrationType, nullStr(entry.SubmissionID),
		string(entry.Status), string(respJSON), nullStr(entry.ErrorMessage), entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert integration log")
}

func (s *SQLiteStore) ListIntegrationLogs(ctx context.Context, submissionID string) ([]model.IntegrationLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, integration_type, submission_id, status, response_data, error_message, created_at
		FROM integration_logs WHERE submission_id = ? ORDER BY created_at ASC`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list integration logs")
	}
	defer rows.Close()
	return collectIntegrationLogs(rows)
}

func (s *SQLiteStore) ListIntegrationLogsByType(ctx context.Context, integrationType string, limit int) ([]model.IntegrationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, integration_type, submission_id, status, response_data, error_message, created_at
		FROM integration_logs WHERE integration_type = ? ORDER BY created_at DESC LIMIT ?`,
		integrationType, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list integration logs by type")
	}
	defer rows.Close()
	return collectIntegrationLogs(rows)
}

func (s *SQLiteStore) CreateEmailSequence(ctx context.Context, seq *model.EmailSequence) (*model.EmailSequence, error) {
	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}
	if seq.Status == "" {
		seq.Status = model.SequenceNotStarted
	}
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_sequences (id, submission_id, sequence_type, email_step, status,
			campaign_id, prospect_id, sent_at, opened_at, clicked_at, replied_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq.ID, nullStr(seq.SubmissionID), seq.SequenceType, seq.EmailStep, string(seq.Status),
		nullStr(seq.CampaignID), nullStr(seq.ProspectID),
		seq.SentAt, seq.OpenedAt, seq.ClickedAt, seq.RepliedAt, seq.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert email sequence")
	}
	return seq, nil
}

func (s *SQLiteStore) ListEmailSequences(ctx context.Context, submissionID string) ([]model.EmailSequence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+emailSequenceColumns+`
		FROM email_sequences WHERE submission_id = ? ORDER BY created_at DESC`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list email sequences")
	}
	defer rows.Close()
	return collectEmailSequences(rows)
}

func (s *SQLiteStore) UpdateEmailSequenceStatus(ctx context.Context, id string, status model.SequenceStatus, stamps SequenceStamps) error {
	sets := []string{"status = ?"}
	args := []any{string(status)}

	if stamps.SentAt != nil {
		sets = append(sets, "sent_at = ?")
		args = append(args, *stamps.SentAt)
	}
	if stamps.OpenedAt != nil {
		sets = append(sets, "opened_at = ?")
		args = append(args, *stamps.OpenedAt)
	}
	if stamps.ClickedAt != nil {
		sets = append(sets, "clicked_at = ?")
		args = append(args, *stamps.ClickedAt)
	}
	if stamps.RepliedAt != nil {
		sets = append(sets, "replied_at = ?")
		args = append(args, *stamps.RepliedAt)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE email_sequences SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update email sequence %s", id)
	}
	return checkRowsAffected(res, "email sequence", id)
}

func (s *SQLiteStore) InsertAnalyticsEvent(ctx context.Context, ev *model.AnalyticsEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	propsJSON, err := json.Marshal(ev.Properties)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal event properties")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (id, event_type, user_id, submission_id, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.EventType, nullStr(ev.UserID), nullStr(ev.SubmissionID), string(propsJSON), ev.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert analytics event")
}

func (s *SQLiteStore) ListAnalyticsEvents(ctx context.Context, limit int) ([]model.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, user_id, submission_id, properties, created_at
		FROM analytics_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analytics events")
	}
	defer rows.Close()

	var events []model.AnalyticsEvent
	for rows.Next() {
		var ev model.AnalyticsEvent
		var userID, submissionID *string
		var propsJSON sql.NullString
		if err := rows.Scan(&ev.ID, &ev.EventType, &userID, &submissionID, &propsJSON, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analytics event")
		}
		ev.UserID = deref(userID)
		ev.SubmissionID = deref(submissionID)
		if propsJSON.Valid && propsJSON.String != "" && propsJSON.String != "null" {
			if err := json.Unmarshal([]byte(propsJSON.String), &ev.Properties); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal event properties")
			}
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list analytics events")
}

func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	var companyName, role, phone, businessModel *string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, company_name, role, phone, business_model, classification,
			companies_analyzed, unique_industries, total_opportunity, total_portfolio_arr,
			partnership_qualified, enterprise_qualified, high_value_user,
			last_analysis_at, first_submission_at, created_at, updated_at
		FROM user_profiles WHERE id = ?`,
		userID,
	).Scan(
		&p.ID, &p.Email, &companyName, &role, &phone, &businessModel, &p.Classification,
		&p.CompaniesAnalyzed, &p.UniqueIndustries, &p.TotalOpportunity, &p.TotalPortfolioARR,
		&p.PartnershipQual, &p.EnterpriseQual, &p.HighValue,
		&p.LastAnalysisAt, &p.FirstSubmissionAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get user profile %s", userID)
	}

	p.CompanyName = deref(companyName)
	p.Role = deref(role)
	p.Phone = deref(phone)
	p.BusinessModel = deref(businessModel)
	return &p, nil
}

func (s *SQLiteStore) UpsertUserProfile(ctx context.Context, p *model.UserProfile) error {
	now := time.Now().UTC()
	if p.Classification == "" {
		p.Classification = model.ClassificationStandard
	}
	if p.FirstSubmissionAt.IsZero() {
		p.FirstSubmissionAt = now
	}
	if p.LastAnalysisAt.IsZero() {
		p.LastAnalysisAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (
			id, email, company_name, role, phone, business_model, classification,
			companies_analyzed, unique_industries, total_opportunity, total_portfolio_arr,
			partnership_qualified, enterprise_qualified, high_value_user,
			last_analysis_at, first_submission_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			company_name = excluded.company_name,
			role = excluded.role,
			phone = excluded.phone,
			business_model = excluded.business_model,
			classification = excluded.classification,
			companies_analyzed = excluded.companies_analyzed,
			unique_industries = excluded.unique_industries,
			total_opportunity = excluded.total_opportunity,
			total_portfolio_arr = excluded.total_portfolio_arr,
			partnership_qualified = excluded.partnership_qualified,
			enterprise_qualified = excluded.enterprise_qualified,
			high_value_user = excluded.high_value_user,
			last_analysis_at = excluded.last_analysis_at,
			updated_at = excluded.updated_at`,
		p.ID, p.Email, nullStr(p.CompanyName), nullStr(p.Role), nullStr(p.Phone), nullStr(p.BusinessModel),
		string(p.Classification), p.CompaniesAnalyzed, p.UniqueIndustries, p.TotalOpportunity, p.TotalPortfolioARR,
		p.PartnershipQual, p.EnterpriseQual, p.HighValue,
		p.LastAnalysisAt, p.FirstSubmissionAt, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert user profile %s", p.ID)
}

func (s *SQLiteStore) IncrementProfileAnalysis(ctx context.Context, userID string, opportunityValue float64) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_profiles SET
			companies_analyzed = companies_analyzed + 1,
			total_opportunity = total_opportunity + ?,
			last_analysis_at = ?, updated_at = ?
		WHERE id = ?`,
		opportunityValue, now, now, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment profile analysis %s", userID)
	}
	return checkRowsAffected(res, "user profile", userID)
}

func (s *SQLiteStore) LinkSubmissionsToUser(ctx context.Context, userID, email string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET user_id = ?, updated_at = ? WHERE contact_email = ? AND user_id IS NULL`,
		userID, time.Now().UTC(), email,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: link submissions to user %s", userID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateUserCompanyRelationship(ctx context.Context, rel *model.UserCompanyRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_company_relationships (
			id, user_id, submission_id, company_name, relationship_type, company_arr, submission_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.UserID, rel.SubmissionID, rel.CompanyName,
		nullStr(rel.RelationshipType), rel.CompanyARR, rel.SubmissionDate, rel.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert user company relationship")
}

func (s *SQLiteStore) ListUserCompanyRelationships(ctx context.Context, userID string) ([]model.UserCompanyRelationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, submission_id, company_name, relationship_type, company_arr, submission_date, created_at
		FROM user_company_relationships WHERE user_id = ? ORDER BY submission_date DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list user company relationships")
	}
	defer rows.Close()

	var rels []model.UserCompanyRelationship
	for rows.Next() {
		var rel model.UserCompanyRelationship
		var relType *string
		if err := rows.Scan(&rel.ID, &rel.UserID, &rel.SubmissionID, &rel.CompanyName,
			&relType, &rel.CompanyARR, &rel.SubmissionDate, &rel.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user company relationship")
		}
		rel.RelationshipType = deref(relType)
		rels = append(rels, rel)
	}
	return rels, eris.Wrap(rows.Err(), "sqlite: list user company relationships")
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, exp *model.Experiment) error {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	exp.CreatedAt = now
	exp.UpdatedAt = now
	if exp.Status == "" {
		exp.Status = model.ExperimentDraft
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (id, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		exp.ID, exp.Name, string(exp.Status), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert experiment")
	}

	for i := range exp.Variants {
		v := &exp.Variants[i]
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		v.ExperimentID = exp.ID

		configJSON, err := json.Marshal(v.Config)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal variant config")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO experiment_variants (id, experiment_id, name, weight, config) VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.ExperimentID, v.Name, v.Weight, string(configJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert experiment variant %s", v.Name)
		}
	}
	return nil
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (*model.Experiment, error) {
	var exp model.Experiment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, updated_at FROM experiments WHERE id = ?`,
		id,
	).Scan(&exp.ID, &exp.Name, &exp.Status, &exp.CreatedAt, &exp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get experiment %s", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment_id, name, weight, config FROM experiment_variants WHERE experiment_id = ? ORDER BY name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list experiment variants")
	}
	defer rows.Close()

	for rows.Next() {
		var v model.ExperimentVariant
		var configJSON sql.NullString
		if err := rows.Scan(&v.ID, &v.ExperimentID, &v.Name, &v.Weight, &configJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan experiment variant")
		}
		if configJSON.Valid && configJSON.String != "" && configJSON.String != "null" {
			if err := json.Unmarshal([]byte(configJSON.String), &v.Config); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal variant config")
			}
		}
		exp.Variants = append(exp.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list experiment variants")
	}
	return &exp, nil
}

func (s *SQLiteStore) AssignVariant(ctx context.Context, experimentID, subjectID string) (*model.ExperimentAssignment, error) {
	exp, err := s.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, eris.Errorf("experiment not found: %s", experimentID)
	}
	if exp.Status != model.ExperimentRunning {
		return nil, eris.Errorf("experiment not running: %s", experimentID)
	}

	variant := pickVariant(experimentID, subjectID, exp.Variants)
	if variant == nil {
		return nil, eris.Errorf("experiment has no variants: %s", experimentID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experiment_assignments (id, experiment_id, variant_id, subject_id, assigned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (experiment_id, subject_id) DO NOTHING`,
		uuid.New().String(), experimentID, variant.ID, subjectID, time.Now().UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert experiment assignment")
	}

	var a model.ExperimentAssignment
	err = s.db.QueryRowContext(ctx,
		`SELECT id, experiment_id, variant_id, subject_id, assigned_at
		FROM experiment_assignments WHERE experiment_id = ? AND subject_id = ?`,
		experimentID, subjectID,
	).Scan(&a.ID, &a.ExperimentID, &a.VariantID, &a.SubjectID, &a.AssignedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get experiment assignment")
	}
	return &a, nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, experimentID string) ([]model.ExperimentAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment_id, variant_id, subject_id, assigned_at
		FROM experiment_assignments WHERE experiment_id = ? ORDER BY assigned_at`,
		experimentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list experiment assignments")
	}
	defer rows.Close()

	var out []model.ExperimentAssignment
	for rows.Next() {
		var a model.ExperimentAssignment
		if err := rows.Scan(&a.ID, &a.ExperimentID, &a.VariantID, &a.SubjectID, &a.AssignedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan experiment assignment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list experiment assignments")
}

func (s *SQLiteStore) ScoreStats(ctx context.Context) (*ScoreStats, error) {
	var st ScoreStats
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(CASE WHEN lead_score > 0 THEN 1 ELSE 0 END), 0) FROM submissions`,
	).Scan(&st.Total, &st.Scored)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: score stats")
	}
	st.Unscored = st.Total - st.Scored
	return &st, nil
}

func (s *SQLiteStore) SyncStats(ctx context.Context, since time.Time) (*SyncStats, error) {
	var st SyncStats
	err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(sum(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			coalesce(sum(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		FROM integration_logs WHERE created_at >= ?`,
		since,
	).Scan(&st.Success, &st.Failure)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sync stats")
	}
	return &st, nil
}

func (s *SQLiteStore) SessionStats(ctx context.Context) (*SessionStats, error) {
	now := time.Now().UTC()
	var st SessionStats
	err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(sum(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
			coalesce(sum(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM temporary_submissions WHERE converted_to_user_id IS NULL`,
		now, now,
	).Scan(&st.Pending, &st.Expired)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: session stats")
	}
	return &st, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
