package model

import "time"

// UserClassification buckets a user by the pattern of their submissions.
type UserClassification string

const (
	ClassificationConsultant UserClassification = "consultant"
	ClassificationEnterprise UserClassification = "enterprise"
	ClassificationStandard   UserClassification = "standard"
)

// UserProfile aggregates per-user analysis state derived from all submissions
// sharing the user's email. It exists independently of any single submission
// and is updated as new submissions arrive.
type UserProfile struct {
	ID                 string             `json:"id"` // auth user id
	Email              string             `json:"email"`
	CompanyName        string             `json:"company_name,omitempty"`
	Role               string             `json:"role,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	BusinessModel      string             `json:"business_model,omitempty"`
	Classification     UserClassification `json:"classification"`
	CompaniesAnalyzed  int                `json:"companies_analyzed"`
	UniqueIndustries   int                `json:"unique_industries"`
	TotalOpportunity   float64            `json:"total_opportunity"`
	TotalPortfolioARR  float64            `json:"total_portfolio_arr"`
	PartnershipQual    bool               `json:"partnership_qualified"`
	EnterpriseQual     bool               `json:"enterprise_qualified"`
	HighValue          bool               `json:"high_value_user"`
	LastAnalysisAt     time.Time          `json:"last_analysis_at"`
	FirstSubmissionAt  time.Time          `json:"first_submission_at"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// SubmissionWithUser is a submission joined with the owning user's
// classification, used by the admin dashboard listing.
type SubmissionWithUser struct {
	Submission
	UserEmail          string             `json:"user_email,omitempty"`
	UserClassification UserClassification `json:"user_classification,omitempty"`
}

// UserCompanyRelationship records that a user analyzed a particular company
// in one submission, with the context of that analysis.
type UserCompanyRelationship struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	SubmissionID     string    `json:"submission_id"`
	CompanyName      string    `json:"company_name"`
	RelationshipType string    `json:"relationship_type,omitempty"` // own_company, client, prospect
	CompanyARR       float64   `json:"company_arr"`
	SubmissionDate   time.Time `json:"submission_date"`
	CreatedAt        time.Time `json:"created_at"`
}
