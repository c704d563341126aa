package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/repository"
	"github.com/mliber13/hsh-gc-platform-sub004/internal/service"
)

// ActualsHandler はプロジェクト実績の HTTP ハンドラ
type ActualsHandler struct {
	svc service.ActualsService
}

// NewActualsHandler は ActualsHandler を生成する
func NewActualsHandler(svc service.ActualsService) *ActualsHandler {
	return &ActualsHandler{svc: svc}
}

// Register はルートを mux に登録する
func (h *ActualsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{id}/actuals/initialize", h.Initialize)
	mux.HandleFunc("GET /api/projects/{id}/actuals", h.Get)
	mux.HandleFunc("POST /api/projects/{id}/actuals/recompute", h.Recompute)
	mux.HandleFunc("GET /api/projects/{id}/labor-entries", h.ListLabor)
	mux.HandleFunc("POST /api/projects/{id}/labor-entries", h.AddLabor)
	mux.HandleFunc("GET /api/projects/{id}/material-entries", h.ListMaterial)
	mux.HandleFunc("POST /api/projects/{id}/material-entries", h.AddMaterial)
	mux.HandleFunc("GET /api/projects/{id}/subcontractor-entries", h.ListSubcontractor)
	mux.HandleFunc("POST /api/projects/{id}/subcontractor-entries", h.AddSubcontractor)
}

// Initialize handles POST /api/projects/{id}/actuals/initialize.
func (h *ActualsHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	actuals, err := h.svc.Initialize(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "initialize", id, err)
		return
	}
	writeJSON(w, http.StatusOK, actuals)
}

// Get handles GET /api/projects/{id}/actuals.
func (h *ActualsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	actuals, err := h.svc.GetProjectActuals(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get actuals", id, err)
		return
	}
	writeJSON(w, http.StatusOK, actuals)
}

// Recompute handles POST /api/projects/{id}/actuals/recompute.
func (h *ActualsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	actuals, err := h.svc.Recompute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "recompute", id, err)
		return
	}
	writeJSON(w, http.StatusOK, actuals)
}

// ListLabor handles GET /api/projects/{id}/labor-entries.
func (h *ActualsHandler) ListLabor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.svc.GetProjectLaborEntries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "list labor entries", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AddLabor handles POST /api/projects/{id}/labor-entries.
func (h *ActualsHandler) AddLabor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in model.LaborEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.svc.AddLaborEntry(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, "add labor entry", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListMaterial handles GET /api/projects/{id}/material-entries.
func (h *ActualsHandler) ListMaterial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.svc.GetProjectMaterialEntries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "list material entries", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AddMaterial handles POST /api/projects/{id}/material-entries.
func (h *ActualsHandler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in model.MaterialEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.svc.AddMaterialEntry(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, "add material entry", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListSubcontractor handles GET /api/projects/{id}/subcontractor-entries.
func (h *ActualsHandler) ListSubcontractor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.svc.GetProjectSubcontractorEntries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "list subcontractor entries", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AddSubcontractor handles POST /api/projects/{id}/subcontractor-entries.
func (h *ActualsHandler) AddSubcontractor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in model.SubcontractorEntryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.svc.AddSubcontractorEntry(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, "add subcontractor entry", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError はサービスのエラー種別を HTTP ステータスに対応付ける
func writeServiceError(w http.ResponseWriter, r *http.Request, op, projectID string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, service.ErrConcurrentUpdate):
		slog.Warn(op+" conflict", "error", err, "project_id", projectID, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict"})
	case errors.Is(err, service.ErrStoreUnavailable):
		slog.Error(op+" failed", "error", err, "project_id", projectID, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store_unavailable"})
	default:
		slog.Error(op+" failed", "error", err, "project_id", projectID, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}
