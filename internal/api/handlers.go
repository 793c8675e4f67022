package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/metrics"
	"github.com/revenuepulse/leakcalc/internal/model"
	"github.com/revenuepulse/leakcalc/internal/sanitize"
	"github.com/revenuepulse/leakcalc/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCRMSync(w http.ResponseWriter, r *http.Request) {
	var req model.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.SyncResult{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	result, err := s.syncer.Sync(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.SyncResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// submissionRequest carries raw calculator inputs. Numeric fields arrive as
// JSON numbers or strings depending on the form state, so they are typed any
// and run through sanitize.
type submissionRequest struct {
	UserID       string `json:"userId,omitempty"`
	CompanyName  string `json:"companyName"`
	ContactEmail string `json:"contactEmail"`
	Phone        string `json:"phone,omitempty"`
	Industry     string `json:"industry,omitempty"`

	CurrentARR           any `json:"currentARR"`
	MonthlyMRR           any `json:"monthlyMRR"`
	MonthlyLeads         any `json:"monthlyLeads"`
	AverageDealValue     any `json:"averageDealValue"`
	LeadResponseHours    any `json:"leadResponseHours"`
	MonthlyFreeSignups   any `json:"monthlyFreeSignups"`
	FreeToPaidConversion any `json:"freeToPaidConversion"`
	FailedPaymentRate    any `json:"failedPaymentRate"`
	ManualHoursPerWeek   any `json:"manualHoursPerWeek"`
	HourlyRate           any `json:"hourlyRate"`

	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`

	// Set when the submission completes an in-progress session.
	TempID string `json:"tempId,omitempty"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "companyName is required")
		return
	}
	if req.ContactEmail == "" {
		writeError(w, http.StatusBadRequest, "contactEmail is required")
		return
	}

	in := metrics.Inputs{
		CurrentARR:           sanitize.NonNegative(req.CurrentARR),
		MonthlyMRR:           sanitize.NonNegative(req.MonthlyMRR),
		MonthlyLeads:         sanitize.NonNegative(req.MonthlyLeads),
		AverageDealValue:     sanitize.NonNegative(req.AverageDealValue),
		LeadResponseHours:    sanitize.NonNegative(req.LeadResponseHours),
		MonthlyFreeSignups:   sanitize.NonNegative(req.MonthlyFreeSignups),
		FreeToPaidConversion: sanitize.NonNegative(req.FreeToPaidConversion),
		FailedPaymentRate:    sanitize.NonNegative(req.FailedPaymentRate),
		ManualHoursPerWeek:   sanitize.NonNegative(req.ManualHoursPerWeek),
		HourlyRate:           sanitize.NonNegative(req.HourlyRate),
		Industry:             req.Industry,
	}
	res := metrics.Compute(in, s.benchmarks)

	sub := &model.Submission{
		UserID:       req.UserID,
		CompanyName:  req.CompanyName,
		ContactEmail: req.ContactEmail,
		Phone:        strings.TrimSpace(req.Phone),
		Industry:     req.Industry,

		CurrentARR:           in.CurrentARR,
		MonthlyMRR:           in.MonthlyMRR,
		MonthlyLeads:         in.MonthlyLeads,
		AverageDealValue:     in.AverageDealValue,
		LeadResponseHours:    in.LeadResponseHours,
		MonthlyFreeSignups:   in.MonthlyFreeSignups,
		FreeToPaidConversion: in.FreeToPaidConversion,
		FailedPaymentRate:    in.FailedPaymentRate,
		ManualHoursPerWeek:   in.ManualHoursPerWeek,
		HourlyRate:           in.HourlyRate,

		LeadResponseLoss:        res.LeadResponseLoss,
		FailedPaymentLoss:       res.FailedPaymentLoss,
		SelfServeGapLoss:        res.SelfServeGapLoss,
		ProcessInefficiencyLoss: res.ProcessInefficiencyLoss,
		TotalLeak:               res.TotalLeak,
		LeakPercentage:          res.LeakPercentage,
		RecoveryPotential70:     res.RecoveryPotential70,
		RecoveryPotential85:     res.RecoveryPotential85,
		LeadScore:               res.LeadScore,

		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
	}

	created, err := s.store.CreateSubmission(r.Context(), sub)
	if err != nil {
		zap.L().Error("api: create submission", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist submission")
		return
	}

	// Session conversion and profile refresh are best-effort; the submission
	// is already durable.
	if req.TempID != "" {
		if err := s.store.MarkTempConverted(r.Context(), req.TempID, created.UserID); err != nil {
			zap.L().Warn("api: mark session converted",
				zap.String("temp_id", req.TempID), zap.Error(err))
		}
	}
	if s.profiler != nil {
		if err := s.profiler.OnSubmission(r.Context(), created); err != nil {
			zap.L().Warn("api: profile refresh",
				zap.String("submission_id", created.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get submission", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load submission")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	if email := r.URL.Query().Get("email"); email != "" {
		subs, err := s.store.ListSubmissions(r.Context(), store.SubmissionFilter{Email: email, Limit: limit})
		if err != nil {
			zap.L().Error("api: list submissions", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list submissions")
			return
		}
		writeJSON(w, http.StatusOK, subs)
		return
	}

	subs, err := s.store.ListSubmissionsWithUserData(r.Context(), limit)
	if err != nil {
		zap.L().Error("api: list submissions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteSubmission(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		zap.L().Error("api: delete submission", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete submission")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleUpsertTempSubmission(w http.ResponseWriter, r *http.Request) {
	var sess model.TemporarySubmission
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(sess.TempID) == "" {
		writeError(w, http.StatusBadRequest, "temp_id is required")
		return
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = time.Now().UTC().Add(s.sessionTTL)
	}

	saved, err := s.store.UpsertTempSubmission(r.Context(), &sess)
	if err != nil {
		zap.L().Error("api: upsert session", zap.String("temp_id", sess.TempID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if q := r.URL.Query().Get("hours"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
		hours = n
	}

	snap, err := s.collector.Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("api: collect stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
