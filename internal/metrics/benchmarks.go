package metrics

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Benchmarks holds the industry reference constants the leak formulas are
// anchored to. Values ship with SaaS-industry defaults and can be overridden
// from a YAML file for vertical-specific deployments.
type Benchmarks struct {
	// Headline benchmarks shown alongside results.
	NetRevenueRetention  float64 `yaml:"net_revenue_retention"`
	GrossMargin          float64 `yaml:"gross_margin"`
	AnnualGrowthRate     float64 `yaml:"annual_growth_rate"`
	FreeToPaidConversion float64 `yaml:"free_to_paid_conversion"` // percent

	// Lead-response loss: each hour of response delay forfeits
	// ResponseLossPerHour of potential closes, capped at ResponseLossCap.
	ResponseLossPerHour float64 `yaml:"response_loss_per_hour"`
	ResponseLossCap     float64 `yaml:"response_loss_cap"`

	// Process inefficiency annualizes weekly manual hours.
	WorkWeeksPerYear float64 `yaml:"work_weeks_per_year"`
}

// DefaultBenchmarks returns the stock SaaS benchmark table.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		NetRevenueRetention:  1.10,
		GrossMargin:          0.78,
		AnnualGrowthRate:     0.32,
		FreeToPaidConversion: 15,
		ResponseLossPerHour:  0.05,
		ResponseLossCap:      0.40,
		WorkWeeksPerYear:     52,
	}
}

// LoadBenchmarks reads a benchmark override file. Fields left at zero in the
// file fall back to the defaults, so a partial override is fine.
func LoadBenchmarks(path string) (Benchmarks, error) {
	b := DefaultBenchmarks()

	data, err := os.ReadFile(path)
	if err != nil {
		return b, eris.Wrapf(err, "metrics: read benchmarks %s", path)
	}

	var override Benchmarks
	if err := yaml.Unmarshal(data, &override); err != nil {
		return b, eris.Wrapf(err, "metrics: parse benchmarks %s", path)
	}

	if override.NetRevenueRetention > 0 {
		b.NetRevenueRetention = override.NetRevenueRetention
	}
	if override.GrossMargin > 0 {
		b.GrossMargin = override.GrossMargin
	}
	if override.AnnualGrowthRate > 0 {
		b.AnnualGrowthRate = override.AnnualGrowthRate
	}
	if override.FreeToPaidConversion > 0 {
		b.FreeToPaidConversion = override.FreeToPaidConversion
	}
	if override.ResponseLossPerHour > 0 {
		b.ResponseLossPerHour = override.ResponseLossPerHour
	}
	if override.ResponseLossCap > 0 {
		b.ResponseLossCap = override.ResponseLossCap
	}
	if override.WorkWeeksPerYear > 0 {
		b.WorkWeeksPerYear = override.WorkWeeksPerYear
	}
	return b, nil
}
