package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/revenuepulse/leakcalc/internal/model"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a CRM sync scenario for a submission",
	Long: `Pushes a submission into Twenty CRM using the same workflow as the
POST /api/v1/crm-sync endpoint: resolve-or-create the company and contact,
then attach a revenue-recovery opportunity. The result JSON is printed and
the attempt is recorded in integration_logs either way.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sync"); err != nil {
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

		syncer, err := initSyncer(st)
		if err != nil {
			return err
		}

		scenario, _ := cmd.Flags().GetString("scenario")
		userID, _ := cmd.Flags().GetString("user")
		submissionID, _ := cmd.Flags().GetString("submission")

		result, err := syncer.Sync(ctx, model.SyncRequest{
			Scenario:     model.SyncScenario(scenario),
			UserID:       userID,
			SubmissionID: submissionID,
		})
		if err != nil {
			return eris.Wrap(err, "sync")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	syncCmd.Flags().String("scenario", string(model.ScenarioNewUser), "sync scenario (new_user, existing_user, anonymous)")
	syncCmd.Flags().String("user", "", "user id")
	syncCmd.Flags().String("submission", "", "submission id")
	_ = syncCmd.MarkFlagRequired("submission")

	rootCmd.AddCommand(syncCmd)
}
