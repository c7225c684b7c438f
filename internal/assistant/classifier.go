package assistant

import (
	"context"
	"fmt"
	"strings"
)

// LabelResult is the output of the standalone label classifier.
type LabelResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"decision_method"`
}

// LabelClassifier is an auxiliary classification path used for labeling
// outside the main pipeline. It follows the same allowlist-or-null
// discipline as the recognizer, but derives its confidence from whether
// the provider reported usage, then calibrates it: a confidence that did
// not come from rule-based logic is never trusted raw.
type LabelClassifier struct {
	client CompletionClient
	model  string
}

// NewLabelClassifier builds the classifier around a completion client.
func NewLabelClassifier(client CompletionClient, model string) *LabelClassifier {
	if client == nil {
		panic("assistant: completion client cannot be nil")
	}
	return &LabelClassifier{client: client, model: model}
}

func labelClassifierSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an INTENT CLASSIFIER in a booking SaaS.\n")
	b.WriteString("Respond with EXACTLY ONE key from the valid options.\n")
	b.WriteString("If unsure, return exactly: \"unknown\".\n\n")
	b.WriteString("SPECIAL PATTERNS:\n")
	b.WriteString("- Postponement -> \"booking_abandoned\"\n")
	b.WriteString("- Gratitude or compliments -> \"greeting\"\n")
	b.WriteString("- Requirements or procedures (documents, timing) -> \"services\"\n")
	b.WriteString("- Generic business context -> \"services\"\n\n")
	b.WriteString("EXAMPLES:\n")
	b.WriteString("- \"Entendi, vou verificar e retorno\" -> booking_abandoned\n")
	b.WriteString("- \"Obrigada pela flexibilidade!\" -> greeting\n")
	b.WriteString("- \"É necessário experiência prévia?\" -> services\n")
	b.WriteString("- \"Que documentos preciso levar?\" -> services\n\n")
	b.WriteString("Valid options:\n")
	b.WriteString(strings.Join(AllowedIntents(), ", "))
	return b.String()
}

// Classify labels a single message. The returned Intent is empty when the
// model is unsure or produces anything outside the allowlist.
func (c *LabelClassifier) Classify(ctx context.Context, text string) (LabelResult, error) {
	resp, err := c.client.Complete(ctx, CompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: labelClassifierSystemPrompt()},
			{Role: RoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return LabelResult{}, fmt.Errorf("assistant: label classification failed: %w", err)
	}

	key, ok := GuardIntent(resp.Text)
	if !ok {
		return LabelResult{Intent: "", Confidence: 0, Method: "llm"}, nil
	}

	raw := 0.6
	if resp.Usage.PromptTokens > 0 {
		raw = 0.7
	}
	return LabelResult{
		Intent:     key,
		Confidence: CalibrateConfidence(raw),
		Method:     "llm",
	}, nil
}
