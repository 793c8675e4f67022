package main

import (
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/revenuepulse/leakcalc/internal/metrics"
	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recalculate lead scores",
	Long: `Recomputes the lead score for stored submissions from their financials.

By default only submissions without a score are processed. Use --all to
rescore everything (e.g. after changing scoring thresholds), or --id for a
single submission. Rows are updated independently; a failure on one row
never rolls back the others. The command reports aggregate counts.`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Bool("all", false, "rescore every submission, not just unscored ones")
	f.String("id", "", "rescore a single submission by id")
	f.Int("concurrency", 0, "concurrent updates (default from config)")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	all, _ := cmd.Flags().GetBool("all")
	id, _ := cmd.Flags().GetString("id")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Score.Concurrency
	}

	if id != "" {
		sub, err := st.GetSubmission(ctx, id)
		if err != nil {
			return eris.Wrap(err, "score")
		}
		if sub == nil {
			return eris.Errorf("submission not found: %s", id)
		}
		score := metrics.LeadScore(sub.CurrentARR, sub.TotalLeak, sub.Industry)
		if err := st.UpdateLeadScore(ctx, sub.ID, score); err != nil {
			return eris.Wrap(err, "score")
		}
		fmt.Printf("Submission %s rescored: %d\n", truncateID(id), score)
		return nil
	}

	var subs []model.Submission
	if all {
		subs, err = st.ListSubmissions(ctx, store.SubmissionFilter{Limit: 100000})
	} else {
		subs, err = st.ListUnscoredSubmissions(ctx)
	}
	if err != nil {
		return eris.Wrap(err, "score: list submissions")
	}
	if len(subs) == 0 {
		fmt.Println("Nothing to rescore.")
		return nil
	}

	zap.L().Info("rescoring submissions",
		zap.Int("count", len(subs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var updated, unchanged, failed atomic.Int64

	for _, sub := range subs {
		g.Go(func() error {
			score := metrics.LeadScore(sub.CurrentARR, sub.TotalLeak, sub.Industry)
			if score == sub.LeadScore {
				unchanged.Add(1)
				return nil
			}
			if err := st.UpdateLeadScore(gctx, sub.ID, score); err != nil {
				failed.Add(1)
				zap.L().Error("rescore failed",
					zap.String("submission_id", sub.ID), zap.Error(err))
				return nil // don't abort the batch on individual failure
			}
			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("Rescore complete: %d updated, %d unchanged, %d failed\n",
		updated.Load(), unchanged.Load(), failed.Load())
	return nil
}
