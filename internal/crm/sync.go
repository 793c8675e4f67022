package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
	"github.com/revenuepulse/leakcalc/pkg/twenty"
)

const (
	// integrationType labels every audit log row written by this workflow.
	integrationType = "twenty_crm"

	stageNewLead = "NEW_LEAD"
)

// industryEnums maps calculator industry values to the CRM's industry enum.
var industryEnums = map[string]string{
	"saas":                    "SAAS",
	"technology":              "TECHNOLOGY",
	"financial-services":      "FINTECH",
	"healthcare":              "HEALTHCARE",
	"education":               "EDUCATION",
	"retail-ecommerce":        "RETAIL",
	"manufacturing":           "MANUFACTURING",
	"consulting-professional": "CONSULTING",
	"real-estate":             "REAL_ESTATE",
	"media-marketing":         "MARKETING",
	"hospitality-travel":      "HOSPITALITY",
	"nonprofit":               "NONPROFIT",
	"government":              "GOVERNMENT",
}

// IndustryEnum converts a calculator industry value to the CRM enum,
// defaulting to OTHER.
func IndustryEnum(industry string) string {
	if v, ok := industryEnums[strings.ToLower(strings.TrimSpace(industry))]; ok {
		return v
	}
	return "OTHER"
}

// LeadCategory buckets a lead score into the CRM's category enum.
func LeadCategory(score int) string {
	switch {
	case score > 80:
		return "ENTERPRISE"
	case score > 60:
		return "PREMIUM"
	default:
		return "STANDARD"
	}
}

// Syncer pushes completed submissions into the CRM. Each step persists its
// id before the next step runs, so a partial failure leaves resumable state
// rather than orphaned records.
type Syncer struct {
	store      store.Store
	client     twenty.Client
	resultsURL string
	titler     cases.Caser
}

// NewSyncer creates a Syncer. resultsURL is the public base URL used to link
// CRM contacts back to their calculator results page.
func NewSyncer(st store.Store, client twenty.Client, resultsURL string) *Syncer {
	return &Syncer{
		store:      st,
		client:     client,
		resultsURL: strings.TrimRight(resultsURL, "/"),
		titler:     cases.Title(language.English),
	}
}

// Sync runs the scenario named by the request. The returned result is always
// non-nil; step failures are folded into it instead of an error. The error
// return is reserved for invalid requests.
func (s *Syncer) Sync(ctx context.Context, req model.SyncRequest) (*model.SyncResult, error) {
	if !req.Scenario.Valid() {
		return nil, eris.Errorf("crm: unknown scenario: %s", req.Scenario)
	}

	var result *model.SyncResult
	switch req.Scenario {
	case model.ScenarioAnonymous:
		result = &model.SyncResult{
			Success: true,
			Message: "anonymous calculator session, no CRM sync required",
		}
	case model.ScenarioNewUser:
		result = s.syncNewUser(ctx, req.UserID, req.SubmissionID)
	case model.ScenarioExistingUser:
		result = s.syncExistingUser(ctx, req.UserID, req.SubmissionID)
	}

	s.logOutcome(ctx, req.SubmissionID, result)
	return result, nil
}

// syncNewUser creates company, person, and opportunity in order, reusing CRM
// records that already match by name or email.
func (s *Syncer) syncNewUser(ctx context.Context, userID, submissionID string) *model.SyncResult {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return failure("load submission", err)
	}
	if sub == nil {
		return failure("load submission", eris.Errorf("submission not found: %s", submissionID))
	}

	// Profile data enriches the CRM records but is optional; brand-new users
	// may not have one yet.
	var profile *model.UserProfile
	if userID != "" {
		profile, err = s.store.GetUserProfile(ctx, userID)
		if err != nil {
			zap.L().Warn("crm: profile lookup failed, using submission data only",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	companyID, err := s.ensureCompany(ctx, sub, profile)
	if err != nil {
		return failure("create company", err)
	}

	contactID, err := s.ensureContact(ctx, sub, profile, companyID)
	if err != nil {
		return &model.SyncResult{
			Success:   false,
			CompanyID: companyID,
			Error:     eris.Wrap(err, "create contact").Error(),
		}
	}

	result := &model.SyncResult{
		Success:   true,
		CompanyID: companyID,
		ContactID: contactID,
	}

	// An opportunity failure does not sink the sync: company and contact are
	// already linked, and the opportunity can be recreated later.
	oppID, err := s.createOpportunity(ctx, sub, companyID, contactID)
	if err != nil {
		zap.L().Warn("crm: opportunity creation failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.OpportunityID = oppID
	return result
}

// syncExistingUser reuses the company and contact ids from the user's most
// recent linked submission and only creates a fresh opportunity. When no
// linked submission exists it falls back to the full new-user path.
func (s *Syncer) syncExistingUser(ctx context.Context, userID, submissionID string) *model.SyncResult {
	prior, err := s.store.LatestLinkedSubmission(ctx, userID)
	if err != nil {
		return failure("load linked submission", err)
	}
	if prior == nil {
		zap.L().Info("crm: no linked submission for returning user, running full sync",
			zap.String("user_id", userID))
		return s.syncNewUser(ctx, userID, submissionID)
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return failure("load submission", err)
	}
	if sub == nil {
		return failure("load submission", eris.Errorf("submission not found: %s", submissionID))
	}

	// Carry the prior ids onto the current submission so it becomes linked
	// too.
	s.persistRefs(ctx, sub.ID, store.CRMRefs{
		CompanyID: prior.CRMCompanyID,
		ContactID: prior.CRMContactID,
	})

	result := &model.SyncResult{
		Success:   true,
		CompanyID: prior.CRMCompanyID,
		ContactID: prior.CRMContactID,
	}

	oppID, err := s.createOpportunity(ctx, sub, prior.CRMCompanyID, prior.CRMContactID)
	if err != nil {
		zap.L().Warn("crm: opportunity creation failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.OpportunityID = oppID
	return result
}

// ensureCompany finds a company by name or creates one, and persists its id
// onto the submission.
func (s *Syncer) ensureCompany(ctx context.Context, sub *model.Submission, profile *model.UserProfile) (string, error) {
	name := sub.CompanyName
	if profile != nil && profile.CompanyName != "" {
		name = profile.CompanyName
	}

	existing, err := s.client.SearchCompanyByName(ctx, name)
	if err != nil {
		// A failed search falls through to creation; the CRM may still
		// accept the record.
		zap.L().Warn("crm: company search failed", zap.String("company", name), zap.Error(err))
	}
	if existing != nil {
		zap.L().Info("crm: reusing existing company",
			zap.String("company", name), zap.String("company_id", existing.ID))
		s.persistRefs(ctx, sub.ID, store.CRMRefs{CompanyID: existing.ID})
		return existing.ID, nil
	}

	created, err := s.client.CreateCompany(ctx, twenty.CompanyInput{
		Name:                 name,
		DomainURL:            guessDomain(name),
		AnnualRecurringRev:   sub.CurrentARR,
		MonthlyMRR:           sub.MonthlyMRR,
		TotalRevenueLeak:     sub.TotalLeak,
		RecoveryPotential:    sub.RecoveryPotential70,
		MonthlyLeads:         sub.MonthlyLeads,
		LeadScore:            sub.LeadScore,
		LeadCategory:         LeadCategory(sub.LeadScore),
		IdealCustomerProfile: sub.LeadScore > 70,
		CompletionDate:       time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	s.persistRefs(ctx, sub.ID, store.CRMRefs{CompanyID: created.ID})
	return created.ID, nil
}

// ensureContact finds a person by email or creates one attached to the
// company, and persists the id onto the submission.
func (s *Syncer) ensureContact(ctx context.Context, sub *model.Submission, profile *model.UserProfile, companyID string) (string, error) {
	existing, err := s.client.SearchPersonByEmail(ctx, sub.ContactEmail)
	if err != nil {
		zap.L().Warn("crm: person search failed", zap.String("email", sub.ContactEmail), zap.Error(err))
	}
	if existing != nil {
		if err := s.client.UpdatePersonCompany(ctx, existing.ID, companyID); err != nil {
			zap.L().Warn("crm: failed to attach existing person to company",
				zap.String("person_id", existing.ID), zap.Error(err))
		}
		s.persistRefs(ctx, sub.ID, store.CRMRefs{ContactID: existing.ID})
		return existing.ID, nil
	}

	firstName, lastName := s.contactName(sub)
	in := twenty.PersonInput{
		Email:     sub.ContactEmail,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     sub.Phone,
		JobTitle:  "Decision Maker",
		Industry:  IndustryEnum(sub.Industry),
		CompanyID: companyID,
	}
	if profile != nil {
		if profile.Phone != "" {
			in.Phone = profile.Phone
		}
		if profile.Role != "" {
			in.JobTitle = profile.Role
		}
	}
	if s.resultsURL != "" {
		in.ResultsURL = fmt.Sprintf("%s/results/%s", s.resultsURL, sub.ID)
	}

	created, err := s.client.CreatePerson(ctx, in)
	if err != nil {
		return "", err
	}

	s.persistRefs(ctx, sub.ID, store.CRMRefs{ContactID: created.ID})
	return created.ID, nil
}

// createOpportunity validates the CRM ids, creates the opportunity, and
// persists its id onto the submission.
func (s *Syncer) createOpportunity(ctx context.Context, sub *model.Submission, companyID, contactID string) (string, error) {
	// The CRM rejects malformed relation ids with an opaque error, so check
	// them up front.
	if _, err := uuid.Parse(companyID); err != nil {
		return "", eris.Errorf("invalid company id: %s", companyID)
	}
	if _, err := uuid.Parse(contactID); err != nil {
		return "", eris.Errorf("invalid contact id: %s", contactID)
	}

	oppID, err := s.client.CreateOpportunity(ctx, twenty.OpportunityInput{
		Name:             sub.CompanyName + " - Revenue Recovery Opportunity",
		Amount:           twenty.Micros(sub.RecoveryPotential70),
		Stage:            stageNewLead,
		CompanyID:        companyID,
		PointOfContactID: contactID,
	})
	if err != nil {
		return "", err
	}

	s.persistRefs(ctx, sub.ID, store.CRMRefs{OpportunityID: oppID})
	return oppID, nil
}

// contactName derives a person name when the profile has none: the first
// word of the company name, title-cased, with a generic surname.
func (s *Syncer) contactName(sub *model.Submission) (string, string) {
	first := "Unknown"
	if fields := strings.Fields(sub.CompanyName); len(fields) > 0 {
		first = s.titler.String(strings.ToLower(fields[0]))
	}
	return first, "Contact"
}

// persistRefs writes CRM ids back onto the submission. Persistence failures
// are logged and swallowed: the ids still ride along in the sync result.
func (s *Syncer) persistRefs(ctx context.Context, submissionID string, refs store.CRMRefs) {
	if err := s.store.UpdateCRMRefs(ctx, submissionID, refs); err != nil {
		zap.L().Warn("crm: failed to persist crm refs",
			zap.String("submission_id", submissionID), zap.Error(err))
	}
}

// logOutcome appends an audit row for the attempt. Log failures never affect
// the sync result.
func (s *Syncer) logOutcome(ctx context.Context, submissionID string, result *model.SyncResult) {
	entry := &model.IntegrationLog{
		IntegrationType: integrationType,
		SubmissionID:    submissionID,
		Status:          model.LogStatusSuccess,
		ResponseData: map[string]any{
			"companyId":     result.CompanyID,
			"contactId":     result.ContactID,
			"opportunityId": result.OpportunityID,
			"message":       result.Message,
		},
	}
	if !result.Success {
		entry.Status = model.LogStatusError
		entry.ErrorMessage = result.Error
	}
	if err := s.store.AppendIntegrationLog(ctx, entry); err != nil {
		zap.L().Warn("crm: failed to append integration log",
			zap.String("submission_id", submissionID), zap.Error(err))
	}
}

func failure(step string, err error) *model.SyncResult {
	return &model.SyncResult{
		Success: false,
		Error:   eris.Wrap(err, step).Error(),
	}
}

// guessDomain builds a placeholder domain URL from the company name.
func guessDomain(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		return ""
	}
	return "https://" + slug + ".com"
}
