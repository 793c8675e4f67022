package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Inspect calculator submissions",
	Long:  "Commands for listing, viewing, and deleting calculator submissions.",
}

// -- submissions list --

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		subs, err := st.ListSubmissions(ctx, store.SubmissionFilter{
			Email:  email,
			UserID: userID,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "submissions list")
		}

		if len(subs) == 0 {
			fmt.Fprintln(os.Stderr, "No submissions found.")
			return nil
		}

		formatSubmissionsList(os.Stdout, subs)
		return nil
	},
}

// -- submissions show --

var submissionsShowCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Show full details of a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		sub, err := st.GetSubmission(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "submissions show")
		}
		if sub == nil {
			return eris.Errorf("submission not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sub)
	},
}

// -- submissions delete --

var submissionsDeleteCmd = &cobra.Command{
	Use:   "delete <submission-id>",
	Short: "Delete a submission and its integration logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteSubmission(ctx, args[0]); err != nil {
			return eris.Wrap(err, "submissions delete")
		}

		fmt.Printf("Deleted submission %s\n", args[0])
		return nil
	},
}

func init() {
	submissionsListCmd.Flags().String("email", "", "filter by contact email")
	submissionsListCmd.Flags().String("user", "", "filter by user id")
	submissionsListCmd.Flags().Int("limit", 50, "max number of submissions to display")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsShowCmd)
	submissionsCmd.AddCommand(submissionsDeleteCmd)
	rootCmd.AddCommand(submissionsCmd)
}

// formatSubmissionsList writes a tabular list of submissions to w.
func formatSubmissionsList(out io.Writer, subs []model.Submission) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tEMAIL\tSCORE\tTOTAL_LEAK\tCRM\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t-----\t----------\t---\t-------")

	for _, s := range subs {
		company := s.CompanyName
		if len(company) > 30 {
			company = company[:27] + "..."
		}

		crmState := "-"
		if s.HasCRMLink() {
			crmState = "linked"
		} else if s.CRMCompanyID != "" {
			crmState = "partial"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.0f\t%s\t%s\n",
			truncateID(s.ID),
			company,
			s.ContactEmail,
			s.LeadScore,
			s.TotalLeak,
			crmState,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
