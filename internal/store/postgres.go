package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/revenuepulse/leakcalc/internal/db"
	"github.com/revenuepulse/leakcalc/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlGetSubmission = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sqlUpdateLeadScore = `UPDATE submissions SET lead_score = $1, updated_at = $2 WHERE id = $3`

	sqlInsertIntegrationLog = `INSERT INTO integration_logs (id, integration_type, submission_id, status, response_data, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	sqlGetTempSubmission = `SELECT id, temp_id, session_id, email, company_name, industry,
		current_step, steps_completed, completion_percentage, calculator_data,
		page_views, return_visits, time_spent_seconds, lead_score,
		converted_to_user_id, last_activity_at, expires_at, created_at
		FROM temporary_submissions WHERE temp_id = $1`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_submission":         sqlGetSubmission,
	"update_lead_score":      sqlUpdateLeadScore,
	"insert_integration_log": sqlInsertIntegrationLog,
	"get_temp_submission":    sqlGetTempSubmission,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., bulk CSV import).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                        TEXT PRIMARY KEY,
	user_id                   TEXT,
	company_name              TEXT NOT NULL,
	contact_email             TEXT NOT NULL,
	phone                     TEXT,
	industry                  TEXT,
	current_arr               DOUBLE PRECISION NOT NULL DEFAULT 0,
	monthly_mrr               DOUBLE PRECISION NOT NULL DEFAULT 0,
	monthly_leads             DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_deal_value        DOUBLE PRECISION NOT NULL DEFAULT 0,
	lead_response_hours       DOUBLE PRECISION NOT NULL DEFAULT 0,
	monthly_free_signups      DOUBLE PRECISION NOT NULL DEFAULT 0,
	free_to_paid_conversion   DOUBLE PRECISION NOT NULL DEFAULT 0,
	failed_payment_rate       DOUBLE PRECISION NOT NULL DEFAULT 0,
	manual_hours_per_week     DOUBLE PRECISION NOT NULL DEFAULT 0,
	hourly_rate               DOUBLE PRECISION NOT NULL DEFAULT 0,
	lead_response_loss        DOUBLE PRECISION NOT NULL DEFAULT 0,
	failed_payment_loss       DOUBLE PRECISION NOT NULL DEFAULT 0,
	selfserve_gap_loss        DOUBLE PRECISION NOT NULL DEFAULT 0,
	process_inefficiency_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_leak                DOUBLE PRECISION NOT NULL DEFAULT 0,
	leak_percentage           DOUBLE PRECISION NOT NULL DEFAULT 0,
	recovery_potential_70     DOUBLE PRECISION NOT NULL DEFAULT 0,
	recovery_potential_85     DOUBLE PRECISION NOT NULL DEFAULT 0,
	lead_score                INTEGER NOT NULL DEFAULT 0,
	crm_company_id            TEXT,
	crm_contact_id            TEXT,
	crm_opportunity_id        TEXT,
	utm_source                TEXT,
	utm_medium                TEXT,
	utm_campaign              TEXT,
	created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id);
CREATE INDEX IF NOT EXISTS idx_submissions_contact_email ON submissions(contact_email);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);
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
	completion_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	calculator_data       JSONB,
	page_views            INTEGER NOT NULL DEFAULT 0,
	return_visits         INTEGER NOT NULL DEFAULT 0,
	time_spent_seconds    INTEGER NOT NULL DEFAULT 0,
	lead_score            INTEGER NOT NULL DEFAULT 0,
	converted_to_user_id  TEXT,
	last_activity_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at            TIMESTAMPTZ NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_temp_submissions_expires_at ON temporary_submissions(expires_at);

CREATE TABLE IF NOT EXISTS integration_logs (
	id               TEXT PRIMARY KEY,
	integration_type TEXT NOT NULL,
	submission_id    TEXT REFERENCES submissions(id),
	status           TEXT NOT NULL,
	response_data    JSONB,
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_integration_logs_submission_id ON integration_logs(submission_id);
CREATE INDEX IF NOT EXISTS idx_integration_logs_type ON integration_logs(integration_type);

CREATE TABLE IF NOT EXISTS analytics_events (
	id            TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	user_id       TEXT,
	submission_id TEXT,
	properties    JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_created_at ON analytics_events(created_at DESC);

CREATE TABLE IF NOT EXISTS email_sequences (
	id            TEXT PRIMARY KEY,
	submission_id TEXT REFERENCES submissions(id),
	sequence_type TEXT NOT NULL,
	email_step    INTEGER NOT NULL,
	status        TEXT NOT NULL DEFAULT 'not_started',
	campaign_id   TEXT,
	prospect_id   TEXT,
	sent_at       TIMESTAMPTZ,
	opened_at     TIMESTAMPTZ,
	clicked_at    TIMESTAMPTZ,
	replied_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
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
	total_opportunity     DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_portfolio_arr   DOUBLE PRECISION NOT NULL DEFAULT 0,
	partnership_qualified BOOLEAN NOT NULL DEFAULT false,
	enterprise_qualified  BOOLEAN NOT NULL DEFAULT false,
	high_value_user       BOOLEAN NOT NULL DEFAULT false,
	last_analysis_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	first_submission_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_user_profiles_email ON user_profiles(email);

CREATE TABLE IF NOT EXISTS user_company_relationships (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	submission_id     TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	relationship_type TEXT,
	company_arr       DOUBLE PRECISION NOT NULL DEFAULT 0,
	submission_date   TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_user_company_rel_user_id ON user_company_relationships(user_id);

CREATE TABLE IF NOT EXISTS experiments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS experiment_variants (
	id            TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL REFERENCES experiments(id),
	name          TEXT NOT NULL,
	weight        INTEGER NOT NULL DEFAULT 1,
	config        JSONB
);

CREATE INDEX IF NOT EXISTS idx_experiment_variants_experiment ON experiment_variants(experiment_id);

CREATE TABLE IF NOT EXISTS experiment_assignments (
	id            TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL REFERENCES experiments(id),
	variant_id    TEXT NOT NULL,
	subject_id    TEXT NOT NULL,
	assigned_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (experiment_id, subject_id)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (`+submissionColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)`,
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
		return nil, eris.Wrap(err, "postgres: insert submission")
	}
	return sub, nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := scanSubmission(s.pool.QueryRow(ctx, sqlGetSubmission, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get submission %s", id)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Email != "" {
		query += fmt.Sprintf(` AND contact_email = $%d`, argIdx)
		args = append(args, filter.Email)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: list submissions")
}

func (s *PostgresStore) ListSubmissionsWithUserData(ctx context.Context, limit int) ([]model.SubmissionWithUser, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + qualifiedSubmissionColumns("s") + `, p.email, p.classification
		FROM submissions s
		LEFT JOIN user_profiles p ON s.user_id = p.id
		ORDER BY s.created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions with user data")
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
			return nil, eris.Wrap(err, "postgres: scan submission with user data")
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
	return out, eris.Wrap(rows.Err(), "postgres: list submissions with user data")
}

func (s *PostgresStore) UpdateSubmission(ctx context.Context, sub *model.Submission) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET
			company_name = $1, contact_email = $2, phone = $3, industry = $4,
			current_arr = $5, monthly_mrr = $6, monthly_leads = $7, average_deal_value = $8,
			lead_response_hours = $9, monthly_free_signups = $10, free_to_paid_conversion = $11,
			failed_payment_rate = $12, manual_hours_per_week = $13, hourly_rate = $14,
			lead_response_loss = $15, failed_payment_loss = $16, selfserve_gap_loss = $17,
			process_inefficiency_loss = $18, total_leak = $19, leak_percentage = $20,
			recovery_potential_70 = $21, recovery_potential_85 = $22, lead_score = $23,
			utm_source = $24, utm_medium = $25, utm_campaign = $26, updated_at = $27
		WHERE id = $28`,
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
		return eris.Wrapf(err, "postgres: update submission %s", sub.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("submission not found: %s", sub.ID)
	}
	sub.UpdatedAt = now
	return nil
}

func (s *PostgresStore) UpdateCRMRefs(ctx context.Context, submissionID string, refs CRMRefs) error {
	sets := []string{}
	args := []any{}
	argIdx := 1

	if refs.CompanyID != "" {
		sets = append(sets, fmt.Sprintf("crm_company_id = $%d", argIdx))
		args = append(args, refs.CompanyID)
		argIdx++
	}
	if refs.ContactID != "" {
		sets = append(sets, fmt.Sprintf("crm_contact_id = $%d", argIdx))
		args = append(args, refs.ContactID)
		argIdx++
	}
	if refs.OpportunityID != "" {
		sets = append(sets, fmt.Sprintf("crm_opportunity_id = $%d", argIdx))
		args = append(args, refs.OpportunityID)
		argIdx++
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++
	args = append(args, submissionID)

	query := fmt.Sprintf(`UPDATE submissions SET %s WHERE id = $%d`, strings.Join(sets, ", "), argIdx)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update crm refs %s", submissionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("submission not found: %s", submissionID)
	}
	return nil
}

func (s *PostgresStore) UpdateLeadScore(ctx context.Context, submissionID string, score int) error {
	tag, err := s.pool.Exec(ctx, sqlUpdateLeadScore, score, time.Now().UTC(), submissionID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead score %s", submissionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("submission not found: %s", submissionID)
	}
	return nil
}

func (s *PostgresStore) ListUnscoredSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE lead_score = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unscored submissions")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: list unscored submissions")
}

func (s *PostgresStore) LatestLinkedSubmission(ctx context.Context, userID string) (*model.Submission, error) {
	sub, err := scanSubmission(s.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE user_id = $1 AND crm_company_id IS NOT NULL AND crm_contact_id IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`,
		userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest linked submission %s", userID)
	}
	return sub, nil
}

func (s *PostgresStore) DeleteSubmission(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM integration_logs WHERE submission_id = $1`, id); err != nil {
		return eris.Wrapf(err, "postgres: delete integration logs %s", id)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM email_sequences WHERE submission_id = $1`, id); err != nil {
		return eris.Wrapf(err, "postgres: delete email sequences %s", id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete submission %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("submission not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpsertTempSubmission(ctx context.Context, t *model.TemporarySubmission) (*model.TemporarySubmission, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.LastActivityAt.IsZero() {
		t.LastActivityAt = now
	}

	dataJSON, err := json.Marshal(t.CalculatorData)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal calculator data")
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO temporary_submissions (
			id, temp_id, session_id, email, company_name, industry,
			current_step, steps_completed, completion_percentage, calculator_data,
			page_views, return_visits, time_spent_seconds, lead_score,
			converted_to_user_id, last_activity_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (temp_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			email = EXCLUDED.email,
			company_name = EXCLUDED.company_name,
			industry = EXCLUDED.industry,
			current_step = EXCLUDED.current_step,
			steps_completed = EXCLUDED.steps_completed,
			completion_percentage = EXCLUDED.completion_percentage,
			calculator_data = EXCLUDED.calculator_data,
			page_views = EXCLUDED.page_views,
			return_visits = EXCLUDED.return_visits,
			time_spent_seconds = EXCLUDED.time_spent_seconds,
			lead_score = EXCLUDED.lead_score,
			last_activity_at = EXCLUDED.last_activity_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id, created_at`,
		t.ID, t.TempID, nullStr(t.SessionID), nullStr(t.Email), nullStr(t.CompanyName), nullStr(t.Industry),
		t.CurrentStep, t.StepsCompleted, t.CompletionPercentage, dataJSON,
		t.PageViews, t.ReturnVisits, t.TimeSpentSeconds, t.LeadScore,
		nullStr(t.ConvertedToUserID), t.LastActivityAt, t.ExpiresAt, now,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert temp submission %s", t.TempID)
	}
	return t, nil
}

func (s *PostgresStore) GetTempSubmission(ctx context.Context, tempID string) (*model.TemporarySubmission, error) {
	var t model.TemporarySubmission
	var sessionID, email, companyName, industry, convertedTo *string
	var dataJSON []byte

	err := s.pool.QueryRow(ctx, sqlGetTempSubmission, tempID).Scan(
		&t.ID, &t.TempID, &sessionID, &email, &companyName, &industry,
		&t.CurrentStep, &t.StepsCompleted, &t.CompletionPercentage, &dataJSON,
		&t.PageViews, &t.ReturnVisits, &t.TimeSpentSeconds, &t.LeadScore,
		&convertedTo, &t.LastActivityAt, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get temp submission %s", tempID)
	}

	t.SessionID = deref(sessionID)
	t.Email = deref(email)
	t.CompanyName = deref(companyName)
	t.Industry = deref(industry)
	t.ConvertedToUserID = deref(convertedTo)
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &t.CalculatorData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal calculator data")
		}
	}
	return &t, nil
}

func (s *PostgresStore) MarkTempConverted(ctx context.Context, tempID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE temporary_submissions SET converted_to_user_id = $1, last_activity_at = $2 WHERE temp_id = $3`,
		userID, time.Now().UTC(), tempID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark temp converted %s", tempID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("temp submission not found: %s", tempID)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredTempSubmissions(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM temporary_submissions WHERE expires_at <= now() AND converted_to_user_id IS NULL`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired temp submissions")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) AppendIntegrationLog(ctx context.Context, entry *model.IntegrationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	respJSON, err := json.Marshal(entry.ResponseData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal response data")
	}

	_, err = s.pool.Exec(ctx, sqlInsertIntegrationLog,
		entry.ID, entry.IntegrationType, nullStr(entry.SubmissionID),
		string(entry.Status), respJSON, nullStr(entry.ErrorMessage), entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert integration log")
}

func (s *PostgresStore) ListIntegrationLogs(ctx context.Context, submissionID string) ([]model.IntegrationLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, integration_type, submission_id, status, response_data, error_message, created_at
		FROM integration_logs WHERE submission_id = $1 ORDER BY created_at ASC`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list integration logs")
	}
	defer rows.Close()
	return collectIntegrationLogs(rows)
}

func (s *PostgresStore) ListIntegrationLogsByType(ctx context.Context, integrationType string, limit int) ([]model.IntegrationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, integration_type, submission_id, status, response_data, error_message, created_at
		FROM integration_logs WHERE integration_type = $1 ORDER BY created_at DESC LIMIT $2`,
		integrationType, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list integration logs by type")
	}
	defer rows.Close()
	return collectIntegrationLogs(rows)
}

func (s *PostgresStore) CreateEmailSequence(ctx context.Context, seq *model.EmailSequence) (*model.EmailSequence, error) {
	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}
	if seq.Status == "" {
		seq.Status = model.SequenceNotStarted
	}
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO email_sequences (id, submission_id, sequence_type, email_step, status,
			campaign_id, prospect_id, sent_at, opened_at, clicked_at, replied_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		seq.ID, nullStr(seq.SubmissionID), seq.SequenceType, seq.EmailStep, string(seq.Status),
		nullStr(seq.CampaignID), nullStr(seq.ProspectID),
		seq.SentAt, seq.OpenedAt, seq.ClickedAt, seq.RepliedAt, seq.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert email sequence")
	}
	return seq, nil
}

func (s *PostgresStore) ListEmailSequences(ctx context.Context, submissionID string) ([]model.EmailSequence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+emailSequenceColumns+`
		FROM email_sequences WHERE submission_id = $1 ORDER BY created_at DESC`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list email sequences")
	}
	defer rows.Close()
	return collectEmailSequences(rows)
}

func (s *PostgresStore) UpdateEmailSequenceStatus(ctx context.Context, id string, status model.SequenceStatus, stamps SequenceStamps) error {
	sets := []string{"status = $1"}
	args := []any{string(status)}

	addStamp := func(col string, t *time.Time) {
		if t != nil {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
			args = append(args, *t)
		}
	}
	addStamp("sent_at", stamps.SentAt)
	addStamp("opened_at", stamps.OpenedAt)
	addStamp("clicked_at", stamps.ClickedAt)
	addStamp("replied_at", stamps.RepliedAt)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE email_sequences SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update email sequence %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("email sequence not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) InsertAnalyticsEvent(ctx context.Context, ev *model.AnalyticsEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	propsJSON, err := json.Marshal(ev.Properties)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal event properties")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analytics_events (id, event_type, user_id, submission_id, properties, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.EventType, nullStr(ev.UserID), nullStr(ev.SubmissionID), propsJSON, ev.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert analytics event")
}

func (s *PostgresStore) ListAnalyticsEvents(ctx context.Context, limit int) ([]model.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_type, user_id, submission_id, properties, created_at
		FROM analytics_events ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analytics events")
	}
	defer rows.Close()

	var events []model.AnalyticsEvent
	for rows.Next() {
		var ev model.AnalyticsEvent
		var userID, submissionID *string
		var propsJSON []byte
		if err := rows.Scan(&ev.ID, &ev.EventType, &userID, &submissionID, &propsJSON, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analytics event")
		}
		ev.UserID = deref(userID)
		ev.SubmissionID = deref(submissionID)
		if len(propsJSON) > 0 {
			if err := json.Unmarshal(propsJSON, &ev.Properties); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal event properties")
			}
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list analytics events")
}

func (s *PostgresStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	var companyName, role, phone, businessModel *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, email, company_name, role, phone, business_model, classification,
			companies_analyzed, unique_industries, total_opportunity, total_portfolio_arr,
			partnership_qualified, enterprise_qualified, high_value_user,
			last_analysis_at, first_submission_at, created_at, updated_at
		FROM user_profiles WHERE id = $1`,
		userID,
	).Scan(
		&p.ID, &p.Email, &companyName, &role, &phone, &businessModel, &p.Classification,
		&p.CompaniesAnalyzed, &p.UniqueIndustries, &p.TotalOpportunity, &p.TotalPortfolioARR,
		&p.PartnershipQual, &p.EnterpriseQual, &p.HighValue,
		&p.LastAnalysisAt, &p.FirstSubmissionAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user profile %s", userID)
	}

	p.CompanyName = deref(companyName)
	p.Role = deref(role)
	p.Phone = deref(phone)
	p.BusinessModel = deref(businessModel)
	return &p, nil
}

func (s *PostgresStore) UpsertUserProfile(ctx context.Context, p *model.UserProfile) error {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (
			id, email, company_name, role, phone, business_model, classification,
			companies_analyzed, unique_industries, total_opportunity, total_portfolio_arr,
			partnership_qualified, enterprise_qualified, high_value_user,
			last_analysis_at, first_submission_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			company_name = EXCLUDED.company_name,
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			business_model = EXCLUDED.business_model,
			classification = EXCLUDED.classification,
			companies_analyzed = EXCLUDED.companies_analyzed,
			unique_industries = EXCLUDED.unique_industries,
			total_opportunity = EXCLUDED.total_opportunity,
			total_portfolio_arr = EXCLUDED.total_portfolio_arr,
			partnership_qualified = EXCLUDED.partnership_qualified,
			enterprise_qualified = EXCLUDED.enterprise_qualified,
			high_value_user = EXCLUDED.high_value_user,
			last_analysis_at = EXCLUDED.last_analysis_at,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Email, nullStr(p.CompanyName), nullStr(p.Role), nullStr(p.Phone), nullStr(p.BusinessModel),
		string(p.Classification), p.CompaniesAnalyzed, p.UniqueIndustries, p.TotalOpportunity, p.TotalPortfolioARR,
		p.PartnershipQual, p.EnterpriseQual, p.HighValue,
		p.LastAnalysisAt, p.FirstSubmissionAt, now, now,
	)
	return eris.Wrapf(err, "postgres: upsert user profile %s", p.ID)
}

func (s *PostgresStore) IncrementProfileAnalysis(ctx context.Context, userID string, opportunityValue float64) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_profiles SET
			companies_analyzed = companies_analyzed + 1,
			total_opportunity = total_opportunity + $1,
			last_analysis_at = $2, updated_at = $2
		WHERE id = $3`,
		opportunityValue, now, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment profile analysis %s", userID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("user profile not found: %s", userID)
	}
	return nil
}

func (s *PostgresStore) LinkSubmissionsToUser(ctx context.Context, userID, email string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET user_id = $1, updated_at = $2 WHERE contact_email = $3 AND user_id IS NULL`,
		userID, time.Now().UTC(), email,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: link submissions to user %s", userID)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateUserCompanyRelationship(ctx context.Context, rel *model.UserCompanyRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_company_relationships (
			id, user_id, submission_id, company_name, relationship_type, company_arr, submission_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rel.ID, rel.UserID, rel.SubmissionID, rel.CompanyName,
		nullStr(rel.RelationshipType), rel.CompanyARR, rel.SubmissionDate, rel.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert user company relationship")
}

func (s *PostgresStore) ListUserCompanyRelationships(ctx context.Context, userID string) ([]model.UserCompanyRelationship, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, submission_id, company_name, relationship_type, company_arr, submission_date, created_at
		FROM user_company_relationships WHERE user_id = $1 ORDER BY submission_date DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list user company relationships")
	}
	defer rows.Close()

	var rels []model.UserCompanyRelationship
	for rows.Next() {
		var rel model.UserCompanyRelationship
		var relType *string
		if err := rows.Scan(&rel.ID, &rel.UserID, &rel.SubmissionID, &rel.CompanyName,
			&relType, &rel.CompanyARR, &rel.SubmissionDate, &rel.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user company relationship")
		}
		rel.RelationshipType = deref(relType)
		rels = append(rels, rel)
	}
	return rels, eris.Wrap(rows.Err(), "postgres: list user company relationships")
}

func (s *PostgresStore) CreateExperiment(ctx context.Context, exp *model.Experiment) error {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	exp.CreatedAt = now
	exp.UpdatedAt = now
	if exp.Status == "" {
		exp.Status = model.ExperimentDraft
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO experiments (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		exp.ID, exp.Name, string(exp.Status), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert experiment")
	}

	for i := range exp.Variants {
		v := &exp.Variants[i]
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		v.ExperimentID = exp.ID

		configJSON, err := json.Marshal(v.Config)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal variant config")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO experiment_variants (id, experiment_id, name, weight, config) VALUES ($1, $2, $3, $4, $5)`,
			v.ID, v.ExperimentID, v.Name, v.Weight, configJSON,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert experiment variant %s", v.Name)
		}
	}
	return nil
}

func (s *PostgresStore) GetExperiment(ctx context.Context, id string) (*model.Experiment, error) {
	var exp model.Experiment
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, status, created_at, updated_at FROM experiments WHERE id = $1`,
		id,
	).Scan(&exp.ID, &exp.Name, &exp.Status, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get experiment %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, experiment_id, name, weight, config FROM experiment_variants WHERE experiment_id = $1 ORDER BY name`,
		id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list experiment variants")
	}
	defer rows.Close()

	for rows.Next() {
		var v model.ExperimentVariant
		var configJSON []byte
		if err := rows.Scan(&v.ID, &v.ExperimentID, &v.Name, &v.Weight, &configJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan experiment variant")
		}
		if len(configJSON) > 0 {
			if err := json.Unmarshal(configJSON, &v.Config); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal variant config")
			}
		}
		exp.Variants = append(exp.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list experiment variants")
	}
	return &exp, nil
}

func (s *PostgresStore) AssignVariant(ctx context.Context, experimentID, subjectID string) (*model.ExperimentAssignment, error) {
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

	// Insert-then-select keeps assignment stable under concurrent requests
	// for the same subject.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO experiment_assignments (id, experiment_id, variant_id, subject_id, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (experiment_id, subject_id) DO NOTHING`,
		uuid.New().String(), experimentID, variant.ID, subjectID, time.Now().UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert experiment assignment")
	}

	var a model.ExperimentAssignment
	err = s.pool.QueryRow(ctx,
		`SELECT id, experiment_id, variant_id, subject_id, assigned_at
		FROM experiment_assignments WHERE experiment_id = $1 AND subject_id = $2`,
		experimentID, subjectID,
	).Scan(&a.ID, &a.ExperimentID, &a.VariantID, &a.SubjectID, &a.AssignedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get experiment assignment")
	}
	return &a, nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, experimentID string) ([]model.ExperimentAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, experiment_id, variant_id, subject_id, assigned_at
		FROM experiment_assignments WHERE experiment_id = $1 ORDER BY assigned_at`,
		experimentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list experiment assignments")
	}
	defer rows.Close()

	var out []model.ExperimentAssignment
	for rows.Next() {
		var a model.ExperimentAssignment
		if err := rows.Scan(&a.ID, &a.ExperimentID, &a.VariantID, &a.SubjectID, &a.AssignedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan experiment assignment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list experiment assignments")
}

func (s *PostgresStore) ScoreStats(ctx context.Context) (*ScoreStats, error) {
	var st ScoreStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE lead_score > 0) FROM submissions`,
	).Scan(&st.Total, &st.Scored)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: score stats")
	}
	st.Unscored = st.Total - st.Scored
	return &st, nil
}

func (s *PostgresStore) SyncStats(ctx context.Context, since time.Time) (*SyncStats, error) {
	var st SyncStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE status = 'success'), count(*) FILTER (WHERE status = 'error')
		FROM integration_logs WHERE created_at >= $1`,
		since,
	).Scan(&st.Success, &st.Failure)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sync stats")
	}
	return &st, nil
}

func (s *PostgresStore) SessionStats(ctx context.Context) (*SessionStats, error) {
	var st SessionStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE expires_at > now() AND converted_to_user_id IS NULL),
			count(*) FILTER (WHERE expires_at <= now() AND converted_to_user_id IS NULL)
		FROM temporary_submissions`,
	).Scan(&st.Pending, &st.Expired)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: session stats")
	}
	return &st, nil
}
