package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// TurnProcessor is what the handler needs from the dispatch layer.
type TurnProcessor interface {
	ProcessMessage(ctx context.Context, req MessageRequest) (*TurnResult, error)
}

// HealthChecker reports provider reachability.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Handler wires HTTP requests to the assistant pipeline.
type Handler struct {
	processor TurnProcessor
	health    HealthChecker
	sessions  SessionStore
	logger    *logging.Logger
}

// NewHandler creates an assistant handler.
func NewHandler(processor TurnProcessor, health HealthChecker, sessions SessionStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		processor: processor,
		health:    health,
		sessions:  sessions,
		logger:    logger,
	}
}

// Message handles POST /assistant/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.TenantID = strings.TrimSpace(req.TenantID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.TenantID == "" || req.UserID == "" {
		http.Error(w, "tenant_id and user_id are required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Media) == 0 {
		http.Error(w, "message or media is required", http.StatusBadRequest)
		return
	}

	result, err := h.processor.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process message", "error", err, "tenant_id", req.TenantID)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Health handles GET /assistant/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.health.Health(r.Context())
	code := http.StatusOK
	if status.Status != HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, status)
}

// Session handles GET /admin/sessions/{sessionID}. It exposes stored
// session state for support tooling.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		http.Error(w, "session ID is required", http.StatusBadRequest)
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load session", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, session)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
