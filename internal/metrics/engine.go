// Package metrics computes revenue-leak figures and the lead score from raw
// calculator inputs. Every function here is pure: no clock, no store, no
// network. Inputs are assumed pre-sanitized (see internal/sanitize); the
// formulas additionally guard division so a zero ARR can never produce NaN.
package metrics

import (
	"math"
	"strings"
)

// Inputs are the sanitized financials collected by the calculator.
type Inputs struct {
	CurrentARR           float64 `json:"current_arr"`
	MonthlyMRR           float64 `json:"monthly_mrr"`
	MonthlyLeads         float64 `json:"monthly_leads"`
	AverageDealValue     float64 `json:"average_deal_value"`
	LeadResponseHours    float64 `json:"lead_response_hours"`
	MonthlyFreeSignups   float64 `json:"monthly_free_signups"`
	FreeToPaidConversion float64 `json:"free_to_paid_conversion"` // percent
	FailedPaymentRate    float64 `json:"failed_payment_rate"`     // percent
	ManualHoursPerWeek   float64 `json:"manual_hours_per_week"`
	HourlyRate           float64 `json:"hourly_rate"`
	Industry             string  `json:"industry"`
}

// Result holds the derived leak model. TotalLeak is the exact sum of the four
// loss components; the recovery figures are exact fixed fractions of it.
type Result struct {
	LeadResponseLoss        float64 `json:"lead_response_loss"`
	FailedPaymentLoss       float64 `json:"failed_payment_loss"`
	SelfServeGapLoss        float64 `json:"selfserve_gap_loss"`
	ProcessInefficiencyLoss float64 `json:"process_inefficiency_loss"`
	TotalLeak               float64 `json:"total_leak"`
	LeakPercentage          float64 `json:"leak_percentage"`
	RecoveryPotential70     float64 `json:"recovery_potential_70"`
	RecoveryPotential85     float64 `json:"recovery_potential_85"`
	LeadScore               int     `json:"lead_score"`
}

// Compute derives the full leak model from inputs against a benchmark table.
func Compute(in Inputs, b Benchmarks) Result {
	r := Result{
		LeadResponseLoss:        leadResponseLoss(in, b),
		FailedPaymentLoss:       failedPaymentLoss(in),
		SelfServeGapLoss:        selfServeGapLoss(in, b),
		ProcessInefficiencyLoss: processInefficiencyLoss(in, b),
	}
	r.TotalLeak = r.LeadResponseLoss + r.FailedPaymentLoss + r.SelfServeGapLoss + r.ProcessInefficiencyLoss
	r.RecoveryPotential70 = r.TotalLeak * 0.70
	r.RecoveryPotential85 = r.TotalLeak * 0.85
	if in.CurrentARR > 0 {
		r.LeakPercentage = r.TotalLeak / in.CurrentARR
	}
	r.LeadScore = LeadScore(in.CurrentARR, r.TotalLeak, in.Industry)
	return r
}

// leadResponseLoss models deals forfeited to slow first response: each hour
// of delay loses a fixed fraction of the annual pipeline, capped.
func leadResponseLoss(in Inputs, b Benchmarks) float64 {
	lossRate := math.Min(in.LeadResponseHours*b.ResponseLossPerHour, b.ResponseLossCap)
	return in.MonthlyLeads * in.AverageDealValue * 12 * lossRate
}

// failedPaymentLoss is the annualized revenue lost to involuntary churn.
func failedPaymentLoss(in Inputs) float64 {
	return in.MonthlyMRR * 12 * in.FailedPaymentRate / 100
}

// selfServeGapLoss values the shortfall between the company's free-to-paid
// conversion and the industry benchmark. A conversion at or above the
// benchmark contributes nothing.
func selfServeGapLoss(in Inputs, b Benchmarks) float64 {
	gap := b.FreeToPaidConversion - in.FreeToPaidConversion
	if gap <= 0 {
		return 0
	}
	return gap / 100 * in.MonthlyFreeSignups * 12 * in.AverageDealValue
}

// processInefficiencyLoss annualizes the cost of manual operational work.
func processInefficiencyLoss(in Inputs, b Benchmarks) float64 {
	return in.ManualHoursPerWeek * in.HourlyRate * b.WorkWeeksPerYear
}

// LeadScore computes the 0-100 sales-priority score. Additive point model:
// an ARR tier, a leak-impact tier, and a flat industry bonus, capped at 100.
func LeadScore(arr, totalLeak float64, industry string) int {
	score := 0

	switch {
	case arr >= 5_000_000:
		score += 50
	case arr >= 1_000_000:
		score += 40
	case arr >= 500_000:
		score += 30
	default:
		score += 20
	}

	switch {
	case totalLeak >= 1_000_000:
		score += 40
	case totalLeak >= 500_000:
		score += 30
	case totalLeak >= 250_000:
		score += 20
	default:
		score += 10
	}

	score += industryBonus(industry)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// industryBonus gives technology and finance verticals a flat uplift.
func industryBonus(industry string) int {
	lower := strings.ToLower(industry)
	switch {
	case containsAny(lower, "technology", "saas", "software"):
		return 10
	case containsAny(lower, "finance", "financial", "fintech"):
		return 8
	default:
		return 5
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
