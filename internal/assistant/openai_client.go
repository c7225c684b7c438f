package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements CompletionClient on the OpenAI chat API.
type OpenAIClient struct {
	client chatClient
}

// NewOpenAIClient builds a client with a per-request HTTP timeout.
func NewOpenAIClient(apiKey string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("assistant: openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}, nil
}

// NewOpenAIClientWith wraps an existing chat client (used by tests).
func NewOpenAIClientWith(client chatClient) *OpenAIClient {
	if client == nil {
		panic("assistant: chat client cannot be nil")
	}
	return &OpenAIClient{client: client}
}

// Complete sends a chat completion request and normalizes the response.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}

	request.Messages = make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	if len(req.Functions) > 0 {
		functions := make([]openai.FunctionDefinition, 0, len(req.Functions))
		for _, fn := range req.Functions {
			functions = append(functions, openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			})
		}
		request.Functions = functions
		mode := req.FunctionMode
		if mode == "" {
			mode = "auto"
		}
		request.FunctionCall = mode
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("assistant: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, errors.New("assistant: openai returned no choices")
	}

	choice := resp.Choices[0]
	out := CompletionResponse{
		Text: choice.Message.Content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if choice.Message.FunctionCall != nil {
		args := choice.Message.FunctionCall.Arguments
		if args == "" {
			args = "{}"
		}
		out.FunctionCall = &FunctionCall{
			Name:      choice.Message.FunctionCall.Name,
			Arguments: args,
		}
	}
	return out, nil
}
