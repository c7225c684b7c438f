package assistant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// TurnEvent is a structured event emitted at pipeline decision points.
// All events share the same base fields for easy filtering/grep.
type TurnEvent struct {
	Time      string         `json:"time"`
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	TenantID  string         `json:"tenant_id"`
	UserID    string         `json:"user_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventLogger emits structured JSON events across the turn lifecycle.
// Designed for fast grep/filter debugging:
//
//	grep '"event":"intent_recognized"' /var/log/app.log
//	grep '"session_id":"sess_abc"' /var/log/app.log
type EventLogger struct {
	logger *logging.Logger
}

// NewEventLogger creates a turn event logger.
func NewEventLogger(logger *logging.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Log emits a structured turn event.
func (e *EventLogger) Log(_ context.Context, event string, session *SessionContext, data map[string]any) {
	if e == nil || e.logger == nil || session == nil {
		return
	}
	evt := TurnEvent{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		Event:     event,
		SessionID: session.SessionID,
		TenantID:  session.TenantID,
		UserID:    session.UserID,
		Data:      data,
	}
	b, _ := json.Marshal(evt)
	e.logger.Info(string(b))
}

// Convenience methods for common events:

func (e *EventLogger) IntentRecognized(ctx context.Context, session *SessionContext, intent IntentResult) {
	e.Log(ctx, "intent_recognized", session, map[string]any{
		"intent":     intent.Type,
		"confidence": intent.Confidence,
	})
}

func (e *EventLogger) FunctionExecuted(ctx context.Context, session *SessionContext, name string, success bool) {
	e.Log(ctx, "function_executed", session, map[string]any{
		"function": name,
		"success":  success,
	})
}

func (e *EventLogger) Escalated(ctx context.Context, session *SessionContext, reason string) {
	e.Log(ctx, "escalated", session, map[string]any{
		"reason": reason,
	})
}

func (e *EventLogger) TurnFailed(ctx context.Context, session *SessionContext, err error) {
	data := map[string]any{}
	if err != nil {
		data["error"] = err.Error()
	}
	e.Log(ctx, "turn_failed", session, data)
}
