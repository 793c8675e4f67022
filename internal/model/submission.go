package model

import "time"

// Submission is one completed calculator run: raw financial inputs, the
// derived leak metrics, and references into the external CRM.
type Submission struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id,omitempty"`
	CompanyName  string `json:"company_name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone,omitempty"`
	Industry     string `json:"industry,omitempty"`

	// Financial inputs.
	CurrentARR           float64 `json:"current_arr"`
	MonthlyMRR           float64 `json:"monthly_mrr"`
	MonthlyLeads         float64 `json:"monthly_leads"`
	AverageDealValue     float64 `json:"average_deal_value"`
	LeadResponseHours    float64 `json:"lead_response_hours"`
	MonthlyFreeSignups   float64 `json:"monthly_free_signups"`
	FreeToPaidConversion float64 `json:"free_to_paid_conversion"`
	FailedPaymentRate    float64 `json:"failed_payment_rate"`
	ManualHoursPerWeek   float64 `json:"manual_hours_per_week"`
	HourlyRate           float64 `json:"hourly_rate"`

	// Derived outputs. TotalLeak is always the exact sum of the four loss
	// components; the recovery figures are fixed fractions of TotalLeak.
	LeadResponseLoss        float64 `json:"lead_response_loss"`
	FailedPaymentLoss       float64 `json:"failed_payment_loss"`
	SelfServeGapLoss        float64 `json:"selfserve_gap_loss"`
	ProcessInefficiencyLoss float64 `json:"process_inefficiency_loss"`
	TotalLeak               float64 `json:"total_leak"`
	LeakPercentage          float64 `json:"leak_percentage"`
	RecoveryPotential70     float64 `json:"recovery_potential_70"`
	RecoveryPotential85     float64 `json:"recovery_potential_85"`
	LeadScore               int     `json:"lead_score"`

	// External CRM references, written back by the sync workflow. Empty
	// string means the record has not been pushed yet.
	CRMCompanyID     string `json:"crm_company_id,omitempty"`
	CRMContactID     string `json:"crm_contact_id,omitempty"`
	CRMOpportunityID string `json:"crm_opportunity_id,omitempty"`

	// Attribution.
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCRMLink reports whether this submission already owns both external ids
// needed to attach a new opportunity.
func (s *Submission) HasCRMLink() bool {
	return s.CRMCompanyID != "" && s.CRMContactID != ""
}

// TemporarySubmission is a partially completed calculator session keyed by an
// ephemeral temp id. It is promoted to a Submission on completion or swept
// after ExpiresAt.
type TemporarySubmission struct {
	ID                   string         `json:"id"`
	TempID               string         `json:"temp_id"`
	SessionID            string         `json:"session_id,omitempty"`
	Email                string         `json:"email,omitempty"`
	CompanyName          string         `json:"company_name,omitempty"`
	Industry             string         `json:"industry,omitempty"`
	CurrentStep          int            `json:"current_step"`
	StepsCompleted       int            `json:"steps_completed"`
	CompletionPercentage float64        `json:"completion_percentage"`
	CalculatorData       map[string]any `json:"calculator_data,omitempty"`
	PageViews            int            `json:"page_views"`
	ReturnVisits         int            `json:"return_visits"`
	TimeSpentSeconds     int            `json:"time_spent_seconds"`
	LeadScore            int            `json:"lead_score"`
	ConvertedToUserID    string         `json:"converted_to_user_id,omitempty"`
	LastActivityAt       time.Time      `json:"last_activity_at"`
	ExpiresAt            time.Time      `json:"expires_at"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Expired reports whether the session has passed its expiry.
func (t *TemporarySubmission) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
