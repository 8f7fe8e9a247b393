package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/medagent/internal/audit"
	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/pipeline"
	"github.com/clinicops/medagent/internal/schema"
	"github.com/clinicops/medagent/internal/session"
)

// Handler serves the HTTP API on top of the pipeline.
type Handler struct {
	pipeline *pipeline.Pipeline
	executor domain.Executor
	recorder *audit.Recorder
	sessions *session.Store
	registry *schema.Registry
	logger   *slog.Logger
}

func NewHandler(p *pipeline.Pipeline, executor domain.Executor, recorder *audit.Recorder, sessions *session.Store, registry *schema.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: p,
		executor: executor,
		recorder: recorder,
		sessions: sessions,
		registry: registry,
		logger:   logger,
	}
}

// Mount registers the API routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Get("/api/audit", h.handleAudit)
	r.Get("/api/tables/{table}", h.handleTable)
	r.Delete("/api/sessions/{id}", h.handleClearSession)
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Response  *domain.Response `json:"response"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	// A missing session id starts a new session; the caller keeps the
	// returned id to continue the conversation.
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	resp := h.pipeline.Handle(r.Context(), req.SessionID, req.Message)
	AddLogField(r.Context(), "response_type", string(resp.Type))

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Response:  resp,
	})
}

// handleTable serves a full read of one known table. The table name is
// checked against the schema registry before touching the database.
func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if !h.registry.Has(table) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown table %q", table))
		return
	}

	stmt := &domain.CandidateStatement{
		SQL:    fmt.Sprintf("SELECT * FROM %s", table),
		Op:     domain.OpSelect,
		Tables: []string{table},
	}
	outcome, err := h.executor.Execute(r.Context(), stmt)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "failed to read table")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"table":     table,
		"rows":      outcome.Rows,
		"row_count": len(outcome.Rows),
	})
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.recorder.List(r.Context(), limit)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "failed to read audit log")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.sessions.Clear(id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
