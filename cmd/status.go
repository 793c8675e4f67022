package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/revenuepulse/leakcalc/internal/monitoring"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a system health snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		hours, _ := cmd.Flags().GetInt("hours")

		snap, err := monitoring.NewCollector(st).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		formatSnapshot(os.Stdout, snap)
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("hours", 24, "lookback window for sync outcomes")
	rootCmd.AddCommand(statusCmd)
}

func formatSnapshot(out io.Writer, snap *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Submissions:\t%d\n", snap.SubmissionsTotal)
	_, _ = fmt.Fprintf(w, "  Scored:\t%d\n", snap.SubmissionsScored)
	_, _ = fmt.Fprintf(w, "  Unscored:\t%d\n", snap.SubmissionsUnscored)
	_, _ = fmt.Fprintf(w, "CRM syncs (last %dh):\t%d\n", snap.LookbackHours, snap.SyncSuccess+snap.SyncFailure)
	_, _ = fmt.Fprintf(w, "  Success:\t%d\n", snap.SyncSuccess)
	_, _ = fmt.Fprintf(w, "  Failure:\t%d\n", snap.SyncFailure)
	if snap.SyncSuccess+snap.SyncFailure > 0 {
		_, _ = fmt.Fprintf(w, "  Failure rate:\t%.1f%%\n", snap.SyncFailRate*100)
	}
	_, _ = fmt.Fprintf(w, "Sessions pending:\t%d\n", snap.SessionsPending)
	_, _ = fmt.Fprintf(w, "Sessions expired:\t%d\n", snap.SessionsExpired)
	_ = w.Flush()
}
