package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired calculator sessions",
	Long:  "Removes temporary submissions past their expiry. Sessions that converted to a full submission are kept for attribution.",
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

		n, err := st.DeleteExpiredTempSubmissions(ctx)
		if err != nil {
			return eris.Wrap(err, "cleanup")
		}

		zap.L().Info("cleanup complete", zap.Int("deleted", n))
		fmt.Printf("Deleted %d expired session(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
