package assistant

import "context"

// HealthStatus summarizes whether the assistant can serve turns.
// Configuration problems surface here as a degraded status, never as a
// per-message error.
type HealthStatus struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
}

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// Health pings the completion provider with a minimal deterministic call
// and reports healthy or degraded.
func (s *AIService) Health(ctx context.Context) HealthStatus {
	details := map[string]any{
		"model":              s.cfg.Model,
		"intent_model":       s.cfg.IntentModel,
		"functions_enabled":  s.cfg.EnableFunctions,
		"multimodal_enabled": s.cfg.EnableMedia,
	}

	_, err := s.client.Complete(ctx, CompletionRequest{
		Model:       s.cfg.IntentModel,
		Messages:    []ChatMessage{{Role: RoleUser, Content: "ping"}},
		Temperature: 0,
		MaxTokens:   5,
	})
	if err != nil {
		details["provider_status"] = "error"
		details["provider_error"] = err.Error()
		return HealthStatus{Status: HealthDegraded, Details: details}
	}

	details["provider_status"] = "connected"
	return HealthStatus{Status: HealthHealthy, Details: details}
}
