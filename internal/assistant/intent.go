package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// IntentOther is the fallback intent for anything outside the allowlist.
const IntentOther = "other"

// Intent types that bypass the allowlist for escalation purposes only.
// They are never produced by the recognizer; callers such as supervisor
// tooling may inject them, and the escalation decider honors them.
const (
	IntentEmergency         = "emergency"
	IntentEscalationRequest = "escalation_request"
)

// intentKeys is the closed set of intent keys the pipeline supports, in
// the order they are listed in classifier prompts. No code path may
// produce an intent type outside this set other than IntentOther.
var intentKeys = []string{
	"greeting", "services", "pricing", "availability", "my_appointments",
	"address", "payments", "business_hours", "cancel", "reschedule",
	"confirm", "modify_appointment", "policies", "wrong_number",
	"test_message", "booking_abandoned", "noshow_followup",
}

var allowedIntents = func() map[string]struct{} {
	set := make(map[string]struct{}, len(intentKeys))
	for _, key := range intentKeys {
		set[key] = struct{}{}
	}
	return set
}()

// AllowedIntents returns a copy of the allowlist keys in prompt order.
func AllowedIntents() []string {
	keys := make([]string, len(intentKeys))
	copy(keys, intentKeys)
	return keys
}

// NormalizeIntentKey lowercases a raw label and strips every character
// outside [a-z_].
func NormalizeIntentKey(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GuardIntent validates a raw classifier label against the allowlist. It
// returns the normalized key and true only on an exact allowlist match;
// any other input is not recognized. Model text is never trusted.
func GuardIntent(raw string) (string, bool) {
	key := NormalizeIntentKey(raw)
	if _, ok := allowedIntents[key]; ok {
		return key, true
	}
	return "", false
}

const defaultCalibratedConfidence = 0.6

// CalibrateConfidence compresses a raw LLM confidence self-report into a
// conservative range. Single-shot self-reports are unreliable, so the
// calibrated value never reaches full certainty or near-zero.
func CalibrateConfidence(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return defaultCalibratedConfidence
	}
	return math.Max(0.3, math.Min(0.85, raw))
}

// IntentRecognizer classifies one user message into an allowlisted intent
// using a strict JSON prompt at temperature 0.
type IntentRecognizer struct {
	client CompletionClient
	model  string
	logger *logging.Logger
}

// NewIntentRecognizer builds a recognizer around the completion client.
func NewIntentRecognizer(client CompletionClient, model string, logger *logging.Logger) *IntentRecognizer {
	if client == nil {
		panic("assistant: completion client cannot be nil")
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentRecognizer{client: client, model: model, logger: logger}
}

const intentSystemPrompt = "You are a strict intent classifier. Respond only with valid JSON and only with allowed intents."

// Recognize returns the intent for a (possibly media-enriched) message.
// It never returns an error: provider failures resolve to a fixed
// degraded result, and unparseable or out-of-allowlist output resolves to
// a low-trust "other".
func (r *IntentRecognizer) Recognize(ctx context.Context, message string, session *SessionContext) IntentResult {
	prompt := buildIntentPrompt(message, session)

	resp, err := r.client.Complete(ctx, CompletionRequest{
		Model: r.model,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: intentSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		r.logger.Error("intent recognition failed", "error", err)
		return IntentResult{Type: IntentOther, Confidence: 0.5, Entities: []Entity{}, Context: map[string]any{}}
	}

	return parseIntentResult(resp.Text)
}

func buildIntentPrompt(message string, session *SessionContext) string {
	domain := "general"
	if session != nil && session.TenantConfig != nil && session.TenantConfig.Domain != "" {
		domain = session.TenantConfig.Domain
	}

	var b strings.Builder
	b.WriteString("You are an INTENT CLASSIFIER for a service-booking SaaS.\n")
	b.WriteString("Analyze the user's message in the conversation context and pick EXACTLY ONE of the intents below.\n\n")
	b.WriteString("ALLOWED INTENTS:\n")
	for _, key := range intentKeys {
		b.WriteString("- ")
		b.WriteString(key)
		b.WriteString("\n")
	}
	b.WriteString("\nSPECIAL PATTERNS:\n")
	b.WriteString("- Postponement language (\"vou verificar e retorno\") -> booking_abandoned\n")
	b.WriteString("- Gratitude or compliments (\"obrigada pela flexibilidade\") -> greeting\n")
	b.WriteString("- Requirements or procedural questions (documents, prerequisites) -> services\n\n")
	b.WriteString("Mandatory rules:\n")
	b.WriteString("1) Respond ONLY with valid JSON, no extra text.\n")
	b.WriteString("2) Exact format: {\"intent\": \"<one-of-the-keys-or-null>\", \"confidence\": 0.0}\n")
	b.WriteString("3) If unsure, use {\"intent\": null, \"confidence\": 0.0}.\n")
	b.WriteString("4) Never invent intents outside the list.\n")
	b.WriteString("5) Never return multiple intents.\n\n")
	fmt.Fprintf(&b, "User message:\n%q\n\n", message)
	fmt.Fprintf(&b, "Business domain: %s\n\n", domain)
	b.WriteString("Examples:\n")
	b.WriteString("User: \"Tenho disponibilidade na próxima semana\"\n")
	b.WriteString("-> {\"intent\":\"availability\",\"confidence\":0.9}\n\n")
	b.WriteString("User: \"Não compareci ontem, quero remarcar\"\n")
	b.WriteString("-> {\"intent\":\"noshow_followup\",\"confidence\":0.95}\n\n")
	b.WriteString("User: \"Obrigada pela flexibilidade!\"\n")
	b.WriteString("-> {\"intent\":\"greeting\",\"confidence\":0.9}\n\n")
	b.WriteString("User: \"Quais serviços vocês oferecem?\"\n")
	b.WriteString("-> {\"intent\":\"services\",\"confidence\":0.95}")
	return b.String()
}

type intentPayload struct {
	Intent     *string  `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Entities   []Entity `json:"entities"`
}

// parseIntentResult validates raw model output. Unparseable JSON or an
// intent outside the allowlist yields a low-trust "other"; an allowlisted
// intent keeps the model confidence, defaulting to 0.7 when absent.
func parseIntentResult(raw string) IntentResult {
	text := extractJSONObject(stripCodeFence(raw))

	var payload intentPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return IntentResult{Type: IntentOther, Confidence: 0.3, Entities: []Entity{}, Context: map[string]any{}}
	}

	if payload.Intent == nil {
		return IntentResult{Type: IntentOther, Confidence: 0.3, Entities: []Entity{}, Context: map[string]any{}}
	}
	key, ok := GuardIntent(*payload.Intent)
	if !ok {
		return IntentResult{Type: IntentOther, Confidence: 0.3, Entities: []Entity{}, Context: map[string]any{}}
	}

	confidence := 0.7
	if payload.Confidence != nil && !math.IsNaN(*payload.Confidence) {
		confidence = math.Max(0, math.Min(1, *payload.Confidence))
	}

	entities := payload.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return IntentResult{Type: key, Confidence: confidence, Entities: entities, Context: map[string]any{}}
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func extractJSONObject(text string) string {
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
