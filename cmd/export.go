package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export submissions to an XLSX workbook",
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

		limit, _ := cmd.Flags().GetInt("limit")
		subs, err := st.ListSubmissions(ctx, store.SubmissionFilter{Limit: limit})
		if err != nil {
			return eris.Wrap(err, "export: list submissions")
		}

		if err := writeSubmissionsXLSX(exportOutPath, subs); err != nil {
			return err
		}

		fmt.Printf("Exported %d submission(s) to %s\n", len(subs), exportOutPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "output", "submissions.xlsx", "output file path")
	exportCmd.Flags().Int("limit", 100000, "max number of submissions to export")
	rootCmd.AddCommand(exportCmd)
}

func writeSubmissionsXLSX(path string, subs []model.Submission) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Submissions")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"ID", "Company", "Email", "Industry", "Current ARR", "Monthly MRR",
		"Total Leak", "Leak %", "Recovery (70%)", "Lead Score",
		"CRM Company", "CRM Contact", "CRM Opportunity", "Created",
	} {
		header.AddCell().Value = h
	}

	for _, s := range subs {
		row := sheet.AddRow()
		row.AddCell().Value = s.ID
		row.AddCell().Value = s.CompanyName
		row.AddCell().Value = s.ContactEmail
		row.AddCell().Value = s.Industry
		row.AddCell().SetFloat(s.CurrentARR)
		row.AddCell().SetFloat(s.MonthlyMRR)
		row.AddCell().SetFloat(s.TotalLeak)
		row.AddCell().SetFloat(s.LeakPercentage)
		row.AddCell().SetFloat(s.RecoveryPotential70)
		row.AddCell().SetInt(s.LeadScore)
		row.AddCell().Value = s.CRMCompanyID
		row.AddCell().Value = s.CRMContactID
		row.AddCell().Value = s.CRMOpportunityID
		row.AddCell().Value = s.CreatedAt.Format("2006-01-02 15:04:05")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}
