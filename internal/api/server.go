// Package api exposes the calculator backend over HTTP: submission intake,
// the CRM sync trigger, in-progress session upserts, and operational stats.
// All responses are JSON; handlers never panic.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/revenuepulse/leakcalc/internal/metrics"
	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/monitoring"
	"github.com/revenuepulse/leakcalc/internal/store"
)

// SyncRunner runs one CRM sync scenario. Satisfied by *crm.Syncer.
type SyncRunner interface {
	Sync(ctx context.Context, req model.SyncRequest) (*model.SyncResult, error)
}

// SubmissionObserver reacts to a newly persisted submission. Satisfied by
// *profile.Profiler.
type SubmissionObserver interface {
	OnSubmission(ctx context.Context, sub *model.Submission) error
}

// Server holds the dependencies behind the HTTP surface.
type Server struct {
	store      store.Store
	syncer     SyncRunner
	profiler   SubmissionObserver
	collector  *monitoring.Collector
	benchmarks metrics.Benchmarks
	sessionTTL time.Duration
}

// NewServer wires the HTTP surface. profiler may be nil when profile
// maintenance is not wanted (e.g. in the sync-only CLI path).
func NewServer(st store.Store, syncer SyncRunner, profiler SubmissionObserver, collector *monitoring.Collector, benchmarks metrics.Benchmarks, sessionTTL time.Duration) *Server {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Server{
		store:      st,
		syncer:     syncer,
		profiler:   profiler,
		collector:  collector,
		benchmarks: benchmarks,
		sessionTTL: sessionTTL,
	}
}

// Router builds the chi router. The calculator frontend is served from a
// different origin, so CORS is wide open including preflight.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/crm-sync", s.handleCRMSync)
		r.Post("/submissions", s.handleCreateSubmission)
		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/submissions/{id}", s.handleGetSubmission)
		r.Delete("/submissions/{id}", s.handleDeleteSubmission)
		r.Post("/temp-submissions", s.handleUpsertTempSubmission)
		r.Get("/stats", s.handleStats)
	})

	return r
}
