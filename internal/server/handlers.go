package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/engine"
	"github.com/shopgrove/concierge/internal/session"
)

// Handler serves the session and turn endpoints.
type Handler struct {
	engine   *engine.Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(eng *engine.Engine, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{engine: eng, sessions: sessions, logger: logger}
}

// Mount registers the routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/v1/sessions/{sessionID}/turns", h.handleTurn)
	r.Post("/v1/sessions/{sessionID}/questions", h.handleRecordQuestion)
	r.Get("/v1/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/v1/sessions/{sessionID}", h.handleReset)
	r.Get("/healthz", h.handleHealth)
}

type turnRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validation rejections come back as reply hints inside a 200, not as
	// HTTP errors; the conversation always gets its next turn.
	result := h.engine.Turn(r.Context(), sessionID, req.Message)
	writeJSON(w, http.StatusOK, result)
}

type recordQuestionRequest struct {
	Topic    string `json:"topic"`
	Question string `json:"question,omitempty"`
}

// handleRecordQuestion is called by the reply owner after it sends an
// interview question, advancing the session's question counters.
func (h *Handler) handleRecordQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req recordQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	h.engine.RecordQuestion(r.Context(), sessionID, req.Topic, req.Question)
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	ID             string           `json:"id"`
	Domain         domain.Domain    `json:"domain"`
	Stage          domain.Stage     `json:"stage"`
	ProductType    string           `json:"product_type,omitempty"`
	Filters        map[string]any   `json:"filters"`
	QuestionsAsked []string         `json:"questions_asked"`
	QuestionCount  int              `json:"question_count"`
	QuestionIndex  int              `json:"question_index"`
	History        []domain.Message `json:"history"`
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s := h.sessions.Snapshot(r.Context(), sessionID)

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:             s.ID,
		Domain:         s.ActiveDomain,
		Stage:          s.Stage,
		ProductType:    s.ProductType,
		Filters:        s.KnownFilters(),
		QuestionsAsked: s.QuestionsAsked,
		QuestionCount:  s.QuestionCount,
		QuestionIndex:  s.QuestionIndex,
		History:        s.RecentHistory(4),
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.sessions.Reset(r.Context(), sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
