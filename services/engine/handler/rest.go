package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine/middleware"
)

// JobRunner is the scheduler surface the REST layer needs: manual trigger,
// status query and runtime reschedule.
type JobRunner interface {
	Trigger(ctx context.Context, name string) (domain.RunSummary, error)
	Status(name string) (engine.JobStatus, error)
	Reschedule(name, expr string) error
}

// Pinger backs the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// REST handles HTTP requests for the engine's external surface.
type REST struct {
	jobs   JobRunner
	store  Pinger
	logger *slog.Logger
}

// NewREST creates a new REST handler.
func NewREST(jobs JobRunner, store Pinger, logger *slog.Logger) *REST {
	return &REST{jobs: jobs, store: store, logger: logger}
}

// Router builds the chi router with all routes mounted.
func (h *REST) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(h.logger))

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Post("/{name}/run", h.TriggerJob)
		r.Get("/{name}", h.GetJob)
		r.Put("/{name}/schedule", h.RescheduleJob)
	})
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	return r
}

// RescheduleRequest is the JSON body for PUT /api/v1/jobs/{name}/schedule.
type RescheduleRequest struct {
	Cron string `json:"cron"`
}

// TriggerJob handles POST /api/v1/jobs/{name}/run. The run is synchronous:
// the response body is the run summary, including Success=false with a
// message when discovery aborted the run.
func (h *REST) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	summary, err := h.jobs.Trigger(r.Context(), name)
	if err != nil {
		var notFound *domain.JobNotFoundError
		var running *domain.JobAlreadyRunningError
		switch {
		case errors.As(err, &notFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &running):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("trigger failed", slog.String("job", name), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to trigger job")
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetJob handles GET /api/v1/jobs/{name}.
func (h *REST) GetJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	status, err := h.jobs.Status(name)
	if err != nil {
		var notFound *domain.JobNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read job status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// RescheduleJob handles PUT /api/v1/jobs/{name}/schedule. The new cadence
// applies to subsequent runs; no restart is required.
func (h *REST) RescheduleJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Cron) == "" {
		writeError(w, http.StatusBadRequest, "field 'cron' is required")
		return
	}

	if err := h.jobs.Reschedule(name, req.Cron); err != nil {
		var notFound *domain.JobNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("job rescheduled via api", slog.String("job", name), slog.String("cron", req.Cron))
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "cron": req.Cron})
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz — checks store connectivity.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
