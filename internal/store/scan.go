package store

import (
	"encoding/json"
	"hash/fnv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/revenuepulse/leakcalc/internal/model"
)

// submissionColumns is the canonical column order used by every submission
// SELECT in both backends. scanSubmission must stay in sync with it.
const submissionColumns = `id, user_id, company_name, contact_email, phone, industry,
	current_arr, monthly_mrr, monthly_leads, average_deal_value, lead_response_hours,
	monthly_free_signups, free_to_paid_conversion, failed_payment_rate,
	manual_hours_per_week, hourly_rate,
	lead_response_loss, failed_payment_loss, selfserve_gap_loss, process_inefficiency_loss,
	total_leak, leak_percentage, recovery_potential_70, recovery_potential_85, lead_score,
	crm_company_id, crm_contact_id, crm_opportunity_id,
	utm_source, utm_medium, utm_campaign,
	created_at, updated_at`

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row, and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubmission reads one submission row in submissionColumns order.
func scanSubmission(row rowScanner) (*model.Submission, error) {
	var s model.Submission
	var userID, phone, industry *string
	var crmCompany, crmContact, crmOpp *string
	var utmSource, utmMedium, utmCampaign *string

	err := row.Scan(
		&s.ID, &userID, &s.CompanyName, &s.ContactEmail, &phone, &industry,
		&s.CurrentARR, &s.MonthlyMRR, &s.MonthlyLeads, &s.AverageDealValue, &s.LeadResponseHours,
		&s.MonthlyFreeSignups, &s.FreeToPaidConversion, &s.FailedPaymentRate,
		&s.ManualHoursPerWeek, &s.HourlyRate,
		&s.LeadResponseLoss, &s.FailedPaymentLoss, &s.SelfServeGapLoss, &s.ProcessInefficiencyLoss,
		&s.TotalLeak, &s.LeakPercentage, &s.RecoveryPotential70, &s.RecoveryPotential85, &s.LeadScore,
		&crmCompany, &crmContact, &crmOpp,
		&utmSource, &utmMedium, &utmCampaign,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.UserID = deref(userID)
	s.Phone = deref(phone)
	s.Industry = deref(industry)
	s.CRMCompanyID = deref(crmCompany)
	s.CRMContactID = deref(crmContact)
	s.CRMOpportunityID = deref(crmOpp)
	s.UTMSource = deref(utmSource)
	s.UTMMedium = deref(utmMedium)
	s.UTMCampaign = deref(utmCampaign)
	return &s, nil
}

// qualifiedSubmissionColumns prefixes every submission column with a table
// alias for use in JOIN queries.
func qualifiedSubmissionColumns(alias string) string {
	parts := strings.Split(submissionColumns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// nullStr maps "" to SQL NULL for nullable text columns.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// logRows abstracts pgx.Rows and *sql.Rows for the shared log collector.
type logRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectIntegrationLogs(rows logRows) ([]model.IntegrationLog, error) {
	var logs []model.IntegrationLog
	for rows.Next() {
		var l model.IntegrationLog
		var submissionID, errMsg *string
		var respJSON []byte
		if err := rows.Scan(&l.ID, &l.IntegrationType, &submissionID, &l.Status, &respJSON, &errMsg, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan integration log")
		}
		l.SubmissionID = deref(submissionID)
		l.ErrorMessage = deref(errMsg)
		if len(respJSON) > 0 && string(respJSON) != "null" {
			if err := json.Unmarshal(respJSON, &l.ResponseData); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal response data")
			}
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "store: collect integration logs")
}

// emailSequenceColumns is the canonical column order for email sequence
// SELECTs in both backends. collectEmailSequences must stay in sync with it.
const emailSequenceColumns = `id, submission_id, sequence_type, email_step, status,
	campaign_id, prospect_id, sent_at, opened_at, clicked_at, replied_at, created_at`

func collectEmailSequences(rows logRows) ([]model.EmailSequence, error) {
	var seqs []model.EmailSequence
	for rows.Next() {
		var seq model.EmailSequence
		var submissionID, campaignID, prospectID *string
		if err := rows.Scan(
			&seq.ID, &submissionID, &seq.SequenceType, &seq.EmailStep, &seq.Status,
			&campaignID, &prospectID,
			&seq.SentAt, &seq.OpenedAt, &seq.ClickedAt, &seq.RepliedAt, &seq.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan email sequence")
		}
		seq.SubmissionID = deref(submissionID)
		seq.CampaignID = deref(campaignID)
		seq.ProspectID = deref(prospectID)
		seqs = append(seqs, seq)
	}
	return seqs, eris.Wrap(rows.Err(), "store: collect email sequences")
}

// pickVariant deterministically selects a weighted variant for a subject, so
// repeat visits by the same session land on the same experiment arm.
func pickVariant(experimentID, subjectID string, variants []model.ExperimentVariant) *model.ExperimentVariant {
	if len(variants) == 0 {
		return nil
	}

	total := 0
	for _, v := range variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total == 0 {
		return &variants[0]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(experimentID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(subjectID))
	bucket := int(h.Sum32() % uint32(total))

	for i := range variants {
		if variants[i].Weight <= 0 {
			continue
		}
		bucket -= variants[i].Weight
		if bucket < 0 {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}
