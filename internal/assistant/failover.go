package assistant

import (
	"context"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// FailoverClient tries the primary completion provider and falls back to
// the secondary when the primary fails. Function-calling requests are
// never failed over because the secondary may not support them.
type FailoverClient struct {
	primary   CompletionClient
	secondary CompletionClient
	logger    *logging.Logger
}

// NewFailoverClient wraps two providers. Secondary may be nil, in which
// case this is a passthrough.
func NewFailoverClient(primary, secondary CompletionClient, logger *logging.Logger) *FailoverClient {
	if primary == nil {
		panic("assistant: primary completion client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FailoverClient{primary: primary, secondary: secondary, logger: logger}
}

var _ CompletionClient = (*FailoverClient)(nil)

// Complete runs the request against the primary, then the secondary.
func (c *FailoverClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if c.secondary == nil || len(req.Functions) > 0 {
		return CompletionResponse{}, err
	}

	c.logger.Warn("primary completion provider failed, using fallback", "error", err)
	return c.secondary.Complete(ctx, req)
}
