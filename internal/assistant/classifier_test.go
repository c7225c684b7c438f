package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestClassifyAllowlistedLabel(t *testing.T) {
	client := &fakeCompletionClient{resp: CompletionResponse{
		Text:  "greeting",
		Usage: TokenUsage{PromptTokens: 120, CompletionTokens: 2, TotalTokens: 122},
	}}
	classifier := NewLabelClassifier(client, "gpt-3.5-turbo")

	got, err := classifier.Classify(context.Background(), "Obrigada pela flexibilidade!")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if got.Intent != "greeting" {
		t.Errorf("Intent = %q, want greeting", got.Intent)
	}
	if got.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", got.Confidence)
	}
	if got.Method != "llm" {
		t.Errorf("Method = %q, want llm", got.Method)
	}
	if client.lastReq.MaxTokens != 8 {
		t.Errorf("MaxTokens = %d, want 8", client.lastReq.MaxTokens)
	}
}

func TestClassifyWithoutUsageLowersConfidence(t *testing.T) {
	client := &fakeCompletionClient{resp: CompletionResponse{Text: "pricing"}}
	classifier := NewLabelClassifier(client, "")

	got, err := classifier.Classify(context.Background(), "Quanto custa?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", got.Confidence)
	}
}

func TestClassifyUnknownLabel(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"explicit unknown", "unknown"},
		{"invented intent", "buy_groceries"},
		{"empty output", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCompletionClient{resp: CompletionResponse{Text: tt.text}}
			classifier := NewLabelClassifier(client, "")

			got, err := classifier.Classify(context.Background(), "???")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Intent != "" {
				t.Errorf("Intent = %q, want empty", got.Intent)
			}
			if got.Confidence != 0 {
				t.Errorf("Confidence = %v, want 0", got.Confidence)
			}
		})
	}
}

func TestClassifyProviderError(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("boom")}
	classifier := NewLabelClassifier(client, "")

	if _, err := classifier.Classify(context.Background(), "oi"); err == nil {
		t.Fatal("expected error from provider failure")
	}
}
