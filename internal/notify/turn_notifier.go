package notify

import (
	"context"
	"time"

	"github.com/agendia/booking-ai-platform/internal/assistant"
	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// TurnNotifier decorates a turn processor and emails staff whenever a
// turn produces an escalation action. Notification failures never fail
// the turn.
type TurnNotifier struct {
	next    assistant.TurnProcessor
	service *Service
	logger  *logging.Logger
}

// NewTurnNotifier wraps the processor. A nil service disables the hook.
func NewTurnNotifier(next assistant.TurnProcessor, service *Service, logger *logging.Logger) *TurnNotifier {
	if next == nil {
		panic("notify: turn processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TurnNotifier{next: next, service: service, logger: logger}
}

var _ assistant.TurnProcessor = (*TurnNotifier)(nil)

// ProcessMessage delegates to the wrapped processor and fires staff
// notifications for any escalation in the result.
func (n *TurnNotifier) ProcessMessage(ctx context.Context, req assistant.MessageRequest) (*assistant.TurnResult, error) {
	result, err := n.next.ProcessMessage(ctx, req)
	if err != nil || result == nil || n.service == nil {
		return result, err
	}

	for _, action := range result.Actions {
		if action.Type != assistant.ActionEscalateToHuman {
			continue
		}

		reason, _ := action.Payload["reason"].(string)
		evt := EscalationEvent{
			TenantID:    req.TenantID,
			UserID:      req.UserID,
			PhoneNumber: req.PhoneNumber,
			Reason:      reason,
			Message:     req.Message,
			Confidence:  result.Response.Confidence,
			OccurredAt:  time.Now(),
		}

		// Detached from the request context so a hung email API cannot
		// delay the reply to the user.
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := n.service.NotifyEscalation(notifyCtx, evt); err != nil {
				n.logger.Error("escalation notification failed", "error", err, "tenant_id", evt.TenantID)
			}
		}()
		break
	}

	return result, nil
}
