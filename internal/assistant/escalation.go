package assistant

import (
	"math"
	"strings"
)

const (
	escalationHistoryWindow   = 6
	escalationAssistantFloor  = 3
	escalationConfidenceFloor = 0.6
)

// EscalationDecider decides whether a turn should hand off to a human.
// Rules are evaluated in precedence order; the first match wins.
type EscalationDecider struct{}

// NewEscalationDecider builds the rule evaluator.
func NewEscalationDecider() *EscalationDecider {
	return &EscalationDecider{}
}

// ShouldEscalate applies, in order: unconditional intents, a sustained
// low-confidence exchange check over the recent history, and tenant
// trigger phrases. No single noisy classification forces a handoff, but
// sustained uncertainty or explicit triggers reliably do.
func (d *EscalationDecider) ShouldEscalate(message string, intent IntentResult, session *SessionContext) bool {
	if intent.Type == IntentEmergency || intent.Type == IntentEscalationRequest {
		return true
	}

	history := session.ConversationHistory
	if len(history) > escalationHistoryWindow {
		history = history[len(history)-escalationHistoryWindow:]
	}
	assistantReplies := 0
	for _, msg := range history {
		if msg.Role == RoleAssistant {
			assistantReplies++
		}
	}
	if assistantReplies >= escalationAssistantFloor && intent.Confidence < escalationConfidenceFloor {
		return true
	}

	if session.TenantConfig != nil {
		lower := strings.ToLower(message)
		for _, trigger := range session.TenantConfig.AISettings.EscalationTriggers {
			if trigger == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(trigger)) {
				return true
			}
		}
	}
	return false
}

// ConfidenceScorer computes the response-level confidence: the intent
// confidence adjusted for a produced function call and for degenerate
// short replies. The constants are tunable; they are heuristics, not a
// probabilistic model.
type ConfidenceScorer struct {
	FunctionCallBonus   float64
	ShortReplyPenalty   float64
	ShortReplyThreshold int
}

// NewConfidenceScorer returns the scorer with default adjustments.
func NewConfidenceScorer() ConfidenceScorer {
	return ConfidenceScorer{
		FunctionCallBonus:   0.2,
		ShortReplyPenalty:   0.1,
		ShortReplyThreshold: 20,
	}
}

// Score returns the adjusted confidence, capped at 1.0, floored at 0.1
// and rounded to two decimals.
func (s ConfidenceScorer) Score(resp AIResponse, intent IntentResult) float64 {
	confidence := intent.Confidence
	if resp.FunctionCall != nil {
		confidence = math.Min(confidence+s.FunctionCallBonus, 1.0)
	}
	if resp.Message != "" && len(resp.Message) < s.ShortReplyThreshold {
		confidence = math.Max(confidence-s.ShortReplyPenalty, 0.1)
	}
	return math.Round(confidence*100) / 100
}
