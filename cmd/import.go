package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/db"
	"github.com/revenuepulse/leakcalc/internal/metrics"
	"github.com/revenuepulse/leakcalc/internal/sanitize"
	"github.com/revenuepulse/leakcalc/internal/store"
)

var importCSVPath string

// importColumns is the COPY target column list. Derived metrics are computed
// at import time so bulk-loaded rows behave exactly like API submissions.
var importColumns = []string{
	"id", "company_name", "contact_email", "phone", "industry",
	"current_arr", "monthly_mrr", "monthly_leads", "average_deal_value",
	"lead_response_hours", "monthly_free_signups", "free_to_paid_conversion",
	"failed_payment_rate", "manual_hours_per_week", "hourly_rate",
	"lead_response_loss", "failed_payment_loss", "selfserve_gap_loss",
	"process_inefficiency_loss", "total_leak", "leak_percentage",
	"recovery_potential_70", "recovery_potential_85", "lead_score",
	"created_at", "updated_at",
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import submissions from CSV (Postgres only)",
	Long: `Loads calculator submissions from a CSV file using the PostgreSQL COPY
protocol. The header row names the fields; company_name and contact_email
are required, numeric columns are sanitized, and the leak metrics are
computed per row before loading.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		if cfg.Store.Driver != "postgres" {
			return eris.New("import requires the postgres store driver")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("import requires the postgres store driver")
		}

		benchmarks, err := loadBenchmarks()
		if err != nil {
			return err
		}

		rows, skipped, err := readSubmissionCSV(importCSVPath, benchmarks)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No importable rows found.")
			return nil
		}

		n, err := db.CopyFrom(ctx, pg.Pool(), "submissions", importColumns, rows)
		if err != nil {
			return eris.Wrap(err, "import: copy")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.Int("skipped", skipped),
			zap.String("csv", importCSVPath),
		)
		fmt.Printf("Imported %d submission(s), skipped %d row(s)\n", n, skipped)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}

// readSubmissionCSV parses the CSV into COPY rows, skipping rows without a
// company name or email. Returns the rows and the skip count.
func readSubmissionCSV(path string, benchmarks metrics.Benchmarks) ([][]any, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, eris.Wrap(err, "import: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, 0, eris.Wrap(err, "import: read header")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows [][]any
	skipped := 0
	now := time.Now().UTC()

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, eris.Wrap(err, "import: read row")
		}

		company := field(rec, "company_name")
		email := field(rec, "contact_email")
		if company == "" || email == "" {
			skipped++
			continue
		}

		in := metrics.Inputs{
			CurrentARR:           sanitize.NonNegative(field(rec, "current_arr")),
			MonthlyMRR:           sanitize.NonNegative(field(rec, "monthly_mrr")),
			MonthlyLeads:         sanitize.NonNegative(field(rec, "monthly_leads")),
			AverageDealValue:     sanitize.NonNegative(field(rec, "average_deal_value")),
			LeadResponseHours:    sanitize.NonNegative(field(rec, "lead_response_hours")),
			MonthlyFreeSignups:   sanitize.NonNegative(field(rec, "monthly_free_signups")),
			FreeToPaidConversion: sanitize.NonNegative(field(rec, "free_to_paid_conversion")),
			FailedPaymentRate:    sanitize.NonNegative(field(rec, "failed_payment_rate")),
			ManualHoursPerWeek:   sanitize.NonNegative(field(rec, "manual_hours_per_week")),
			HourlyRate:           sanitize.NonNegative(field(rec, "hourly_rate")),
			Industry:             field(rec, "industry"),
		}
		res := metrics.Compute(in, benchmarks)

		rows = append(rows, []any{
			uuid.NewString(), company, email, field(rec, "phone"), in.Industry,
			in.CurrentARR, in.MonthlyMRR, in.MonthlyLeads, in.AverageDealValue,
			in.LeadResponseHours, in.MonthlyFreeSignups, in.FreeToPaidConversion,
			in.FailedPaymentRate, in.ManualHoursPerWeek, in.HourlyRate,
			res.LeadResponseLoss, res.FailedPaymentLoss, res.SelfServeGapLoss,
			res.ProcessInefficiencyLoss, res.TotalLeak, res.LeakPercentage,
			res.RecoveryPotential70, res.RecoveryPotential85, res.LeadScore,
			now, now,
		})
	}

	return rows, skipped, nil
}
