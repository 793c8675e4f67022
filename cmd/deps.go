package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/revenuepulse/leakcalc/internal/crm"
	"github.com/revenuepulse/leakcalc/internal/metrics"
	"github.com/revenuepulse/leakcalc/internal/store"
	"github.com/revenuepulse/leakcalc/pkg/twenty"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leakcalc.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSyncer(st store.Store) (*crm.Syncer, error) {
	if cfg.CRM.APIKey == "" {
		return nil, eris.New("twenty CRM API key is required (LEAKCALC_CRM_API_KEY)")
	}

	client := twenty.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIKey,
		twenty.WithRateLimit(cfg.CRM.RateLimitRPS, cfg.CRM.RateLimitBurst))

	return crm.NewSyncer(st, client, cfg.CRM.ResultsBaseURL), nil
}

func loadBenchmarks() (metrics.Benchmarks, error) {
	if cfg.Benchmarks.Path == "" {
		return metrics.DefaultBenchmarks(), nil
	}
	return metrics.LoadBenchmarks(cfg.Benchmarks.Path)
}
