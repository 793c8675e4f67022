package profile

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
)

// Classification thresholds.
const (
	consultantMinCompanies = 3
	enterpriseSingleARR    = 5_000_000
	enterpriseTotalARR     = 10_000_000
	highValueTotalARR      = 5_000_000
)

// Pattern is the aggregate picture of one user's submission history.
type Pattern struct {
	Classification    model.UserClassification
	CompaniesAnalyzed int
	UniqueIndustries  int
	TotalPortfolioARR float64
	TotalOpportunity  float64
	PartnershipQual   bool
	EnterpriseQual    bool
	HighValue         bool
	FirstSubmissionAt time.Time
	LastAnalysisAt    time.Time
}

// Analyze derives a usage pattern from a user's submissions. A user analyzing
// several distinct companies is treated as a consultant; a user whose
// companies carry enterprise-scale ARR is treated as enterprise.
func Analyze(submissions []model.Submission) Pattern {
	var p Pattern
	if len(submissions) == 0 {
		p.Classification = model.ClassificationStandard
		return p
	}

	companies := map[string]float64{}
	industries := map[string]struct{}{}
	anyEnterpriseARR := false

	for _, sub := range submissions {
		key := strings.ToLower(strings.TrimSpace(sub.CompanyName))
		if key == "" {
			continue
		}
		// Each company counts once, at its highest reported ARR.
		if sub.CurrentARR > companies[key] {
			companies[key] = sub.CurrentARR
		}
		if sub.CurrentARR >= enterpriseSingleARR {
			anyEnterpriseARR = true
		}
		if ind := strings.ToLower(strings.TrimSpace(sub.Industry)); ind != "" {
			industries[ind] = struct{}{}
		}
		p.TotalOpportunity += sub.RecoveryPotential70

		if p.FirstSubmissionAt.IsZero() || sub.CreatedAt.Before(p.FirstSubmissionAt) {
			p.FirstSubmissionAt = sub.CreatedAt
		}
		if sub.CreatedAt.After(p.LastAnalysisAt) {
			p.LastAnalysisAt = sub.CreatedAt
		}
	}

	p.CompaniesAnalyzed = len(companies)
	p.UniqueIndustries = len(industries)
	for _, arr := range companies {
		p.TotalPortfolioARR += arr
	}

	switch {
	case p.CompaniesAnalyzed >= consultantMinCompanies:
		p.Classification = model.ClassificationConsultant
	case anyEnterpriseARR || p.TotalPortfolioARR > enterpriseTotalARR:
		p.Classification = model.ClassificationEnterprise
	default:
		p.Classification = model.ClassificationStandard
	}

	p.PartnershipQual = p.Classification == model.ClassificationConsultant
	p.EnterpriseQual = p.Classification == model.ClassificationEnterprise ||
		p.TotalPortfolioARR > enterpriseTotalARR
	p.HighValue = p.TotalPortfolioARR > highValueTotalARR
	return p
}

// Profiler maintains user_profiles rows from submission activity.
type Profiler struct {
	store store.Store
}

func NewProfiler(st store.Store) *Profiler {
	return &Profiler{store: st}
}

// Refresh recomputes the user's pattern from all their submissions and
// upserts the profile row. It returns the refreshed profile.
func (p *Profiler) Refresh(ctx context.Context, userID, email string) (*model.UserProfile, error) {
	subs, err := p.store.ListSubmissions(ctx, store.SubmissionFilter{UserID: userID, Limit: 1000})
	if err != nil {
		return nil, eris.Wrap(err, "profile: list submissions")
	}

	pattern := Analyze(subs)

	prof, err := p.store.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "profile: get profile")
	}
	if prof == nil {
		prof = &model.UserProfile{ID: userID, Email: email}
	}

	prof.Classification = pattern.Classification
	prof.CompaniesAnalyzed = pattern.CompaniesAnalyzed
	prof.UniqueIndustries = pattern.UniqueIndustries
	prof.TotalPortfolioARR = pattern.TotalPortfolioARR
	prof.TotalOpportunity = pattern.TotalOpportunity
	prof.PartnershipQual = pattern.PartnershipQual
	prof.EnterpriseQual = pattern.EnterpriseQual
	prof.HighValue = pattern.HighValue
	if !pattern.FirstSubmissionAt.IsZero() {
		prof.FirstSubmissionAt = pattern.FirstSubmissionAt
	}
	if !pattern.LastAnalysisAt.IsZero() {
		prof.LastAnalysisAt = pattern.LastAnalysisAt
	}

	if err := p.store.UpsertUserProfile(ctx, prof); err != nil {
		return nil, eris.Wrap(err, "profile: upsert profile")
	}
	return prof, nil
}

// OnRegistration links prior anonymous submissions matching the email to the
// new user, then builds their profile from the full history.
func (p *Profiler) OnRegistration(ctx context.Context, userID, email string) (*model.UserProfile, error) {
	linked, err := p.store.LinkSubmissionsToUser(ctx, userID, email)
	if err != nil {
		return nil, eris.Wrap(err, "profile: link submissions")
	}
	if linked > 0 {
		zap.L().Info("profile: linked anonymous submissions to user",
			zap.String("user_id", userID), zap.Int("linked", linked))
	}
	return p.Refresh(ctx, userID, email)
}

// OnSubmission records the company relationship for a new submission and
// refreshes the owning user's profile. Anonymous submissions are a no-op.
func (p *Profiler) OnSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.UserID == "" {
		return nil
	}

	rel := &model.UserCompanyRelationship{
		UserID:         sub.UserID,
		SubmissionID:   sub.ID,
		CompanyName:    sub.CompanyName,
		CompanyARR:     sub.CurrentARR,
		SubmissionDate: sub.CreatedAt,
	}
	if err := p.store.CreateUserCompanyRelationship(ctx, rel); err != nil {
		// Relationship rows are advisory; keep the profile fresh regardless.
		zap.L().Warn("profile: failed to record company relationship",
			zap.String("submission_id", sub.ID), zap.Error(err))
	}

	_, err := p.Refresh(ctx, sub.UserID, sub.ContactEmail)
	return err
}
