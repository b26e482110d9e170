// Package api exposes the governance engine over HTTP: manual run triggers,
// collector triggers, and run-report history.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"qs-governance/internal/domain"
)

// Governor triggers governance runs. Implemented by governance.Runner.
type Governor interface {
	RunUsers(ctx context.Context) (*domain.RunReport, error)
	RunAssets(ctx context.Context) (*domain.RunReport, error)
}

// ManifestCollector rebuilds the user manifest from the identity provider.
// Implemented by collector.Collector.
type ManifestCollector interface {
	Collect(ctx context.Context) (int, error)
}

// Handler serves the admin API.
type Handler struct {
	governor  Governor
	collector ManifestCollector // nil when the collector is not configured
	history   *RunHistory
	logger    *slog.Logger
}

// NewHandler creates a Handler. collector may be nil.
func NewHandler(governor Governor, collector ManifestCollector, history *RunHistory, logger *slog.Logger) *Handler {
	return &Handler{governor: governor, collector: collector, history: history, logger: logger}
}

// Routes mounts the admin API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/runs/users", h.runUsers)
	r.Post("/runs/assets", h.runAssets)
	r.Post("/collect", h.collect)
	r.Get("/runs", h.listRuns)
	r.Get("/runs/{id}", h.getRun)
}

func (h *Handler) runUsers(w http.ResponseWriter, r *http.Request) {
	report, err := h.governor.RunUsers(r.Context())
	h.finishRun(w, report, err)
}

func (h *Handler) runAssets(w http.ResponseWriter, r *http.Request) {
	report, err := h.governor.RunAssets(r.Context())
	h.finishRun(w, report, err)
}

// finishRun records and returns the report. A failed run still produced a
// report worth keeping, so it is archived before the error is returned.
func (h *Handler) finishRun(w http.ResponseWriter, report *domain.RunReport, err error) {
	h.history.Append(report)
	if err != nil {
		h.logger.Error("governance run failed", "run", report.ID, "kind", report.Kind, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) collect(w http.ResponseWriter, r *http.Request) {
	if h.collector == nil {
		writeError(w, http.StatusNotImplemented, "manifest collector is not configured")
		return
	}
	n, err := h.collector.Collect(r.Context())
	if err != nil {
		h.logger.Error("manifest collection failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": n})
}

func (h *Handler) listRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": h.history.List()})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, ok := h.history.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"code": status, "message": msg})
}
