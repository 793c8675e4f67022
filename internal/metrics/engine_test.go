package metrics

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_TotalIsExactSum(t *testing.T) {
	in := Inputs{
		CurrentARR:           2_000_000,
		MonthlyMRR:           166_000,
		MonthlyLeads:         300,
		AverageDealValue:     4_500,
		LeadResponseHours:    6,
		MonthlyFreeSignups:   900,
		FreeToPaidConversion: 9,
		FailedPaymentRate:    4,
		ManualHoursPerWeek:   25,
		HourlyRate:           85,
		Industry:             "saas",
	}
	r := Compute(in, DefaultBenchmarks())

	sum := r.LeadResponseLoss + r.FailedPaymentLoss + r.SelfServeGapLoss + r.ProcessInefficiencyLoss
	assert.Equal(t, sum, r.TotalLeak)
	assert.Equal(t, r.TotalLeak*0.70, r.RecoveryPotential70)
	assert.Equal(t, r.TotalLeak*0.85, r.RecoveryPotential85)
	assert.Greater(t, r.TotalLeak, 0.0)
}

func TestCompute_ZeroARRNoLeakPercentage(t *testing.T) {
	in := Inputs{
		MonthlyMRR:        50_000,
		FailedPaymentRate: 5,
	}
	r := Compute(in, DefaultBenchmarks())
	assert.Equal(t, 0.0, r.LeakPercentage)
	assert.Greater(t, r.TotalLeak, 0.0)
}

func TestCompute_LeakPercentage(t *testing.T) {
	in := Inputs{
		CurrentARR:         1_000_000,
		ManualHoursPerWeek: 10,
		HourlyRate:         100,
	}
	r := Compute(in, DefaultBenchmarks())
	// 10h * $100 * 52 weeks = 52_000 -> 5.2% of ARR
	assert.InDelta(t, 0.052, r.LeakPercentage, 1e-9)
}

func TestCompute_ZeroInputsAllZero(t *testing.T) {
	r := Compute(Inputs{}, DefaultBenchmarks())
	assert.Equal(t, 0.0, r.TotalLeak)
	assert.Equal(t, 0.0, r.LeakPercentage)
	assert.Equal(t, 0.0, r.RecoveryPotential70)
	// Lowest tiers plus the default industry bonus.
	assert.Equal(t, 35, r.LeadScore)
}

func TestLeadResponseLoss_CappedAtFortyPercent(t *testing.T) {
	b := DefaultBenchmarks()
	in := Inputs{MonthlyLeads: 100, AverageDealValue: 1_000, LeadResponseHours: 72}
	r := Compute(in, b)
	// 100 leads * $1000 * 12 months * 0.40 cap
	assert.Equal(t, 480_000.0, r.LeadResponseLoss)
}

func TestSelfServeGapLoss_AboveBenchmarkIsZero(t *testing.T) {
	in := Inputs{MonthlyFreeSignups: 1_000, AverageDealValue: 500, FreeToPaidConversion: 20}
	r := Compute(in, DefaultBenchmarks())
	assert.Equal(t, 0.0, r.SelfServeGapLoss)
}

func TestLeadScore(t *testing.T) {
	tests := []struct {
		name     string
		arr      float64
		leak     float64
		industry string
		want     int
	}{
		{"enterprise_tech_capped", 6_000_000, 1_200_000, "technology", 100},
		{"small_retail", 100_000, 50_000, "retail", 35},
		{"mid_fintech", 750_000, 300_000, "fintech", 58},
		{"saas_label", 1_500_000, 600_000, "B2B SaaS", 80},
		{"software_label", 5_000_000, 1_000_000, "Software", 100},
		{"finance_label", 2_000_000, 100_000, "Financial Services", 58},
		{"empty_industry", 0, 0, "", 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LeadScore(tt.arr, tt.leak, tt.industry))
		})
	}
}

func TestLeadScore_BoundedForExtremeInputs(t *testing.T) {
	for _, arr := range []float64{0, 1, 1e9, 1e15} {
		for _, leak := range []float64{0, 1e9, 1e18} {
			for _, ind := range []string{"technology", "finance", "other", ""} {
				got := LeadScore(arr, leak, ind)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
			}
		}
	}
}

func TestLoadBenchmarks_PartialOverride(t *testing.T) {
	path := t.TempDir() + "/benchmarks.yaml"
	require.NoError(t, writeFile(path, "free_to_paid_conversion: 12\nresponse_loss_cap: 0.5\n"))

	b, err := LoadBenchmarks(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, b.FreeToPaidConversion)
	assert.Equal(t, 0.5, b.ResponseLossCap)
	// Untouched fields keep their defaults.
	assert.Equal(t, 1.10, b.NetRevenueRetention)
	assert.Equal(t, 52.0, b.WorkWeeksPerYear)
}

func TestLoadBenchmarks_MissingFileReturnsDefaults(t *testing.T) {
	b, err := LoadBenchmarks("/nonexistent/benchmarks.yaml")
	require.Error(t, err)
	assert.Equal(t, DefaultBenchmarks(), b)
}

func TestLoadBenchmarks_MalformedYAML(t *testing.T) {
	path := t.TempDir() + "/bad.yaml"
	require.NoError(t, writeFile(path, "{not yaml"))

	_, err := LoadBenchmarks(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse benchmarks")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
