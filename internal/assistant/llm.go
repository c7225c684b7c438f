package assistant

import "context"

// ChatMessage is the provider-neutral message representation sent to a
// completion provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionSchema is the provider-neutral description of a callable
// function exposed to the model.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// TokenUsage reports provider token accounting for one completion.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest is one call to the completion provider. Temperature 0
// requests deterministic decoding for classification calls.
type CompletionRequest struct {
	Model        string
	Messages     []ChatMessage
	Temperature  float32
	TopP         float32
	MaxTokens    int
	Functions    []FunctionSchema
	FunctionMode string // "auto" enables function calling when Functions is non-empty
}

// CompletionResponse carries either text, a function call request, or both.
type CompletionResponse struct {
	Text         string
	FunctionCall *FunctionCall
	Usage        TokenUsage
}

// CompletionClient is the single capability the pipeline needs from an
// LLM provider.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// MediaAnalyzer converts raw attachment bytes into a text description.
// Implementations must fail per item, not globally.
type MediaAnalyzer interface {
	Analyze(ctx context.Context, content []byte, mimeType string, kind MediaKind) (string, error)
}
