package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/agendia/booking-ai-platform/internal/assistant"
	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// EscalationEvent carries what staff need to pick up a conversation.
type EscalationEvent struct {
	TenantID    string
	UserID      string
	PhoneNumber string
	Reason      string
	Message     string
	Confidence  float64
	OccurredAt  time.Time
}

// Service handles sending escalation notifications to tenant staff.
type Service struct {
	email   EmailSender
	tenants assistant.TenantSource
	logger  *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, tenants assistant.TenantSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:   email,
		tenants: tenants,
		logger:  logger,
	}
}

// NotifyEscalation emails the tenant's staff inbox about a handoff.
func (s *Service) NotifyEscalation(ctx context.Context, evt EscalationEvent) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping escalation notification")
		return nil
	}
	if s.tenants == nil {
		s.logger.Debug("notify: tenant source not configured, skipping escalation notification")
		return nil
	}

	cfg, err := s.tenants.TenantConfig(ctx, evt.TenantID)
	if err != nil {
		s.logger.Error("notify: failed to get tenant config", "error", err, "tenant_id", evt.TenantID)
		return fmt.Errorf("notify: get tenant config: %w", err)
	}
	if cfg.AISettings.StaffEmail == "" {
		s.logger.Debug("notify: tenant has no staff email configured", "tenant_id", evt.TenantID)
		return nil
	}

	occurredAt := evt.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	contact := evt.PhoneNumber
	if contact == "" {
		contact = evt.UserID
	}

	body := fmt.Sprintf(
		"A WhatsApp conversation needs human attention.\n\n"+
			"Business: %s\n"+
			"Contact: %s\n"+
			"Reason: %s\n"+
			"Assistant confidence: %.2f\n"+
			"Last message: %s\n"+
			"When: %s\n",
		cfg.BusinessName,
		contact,
		evt.Reason,
		evt.Confidence,
		evt.Message,
		occurredAt.Format("January 2, 2006 at 3:04 PM"),
	)

	msg := EmailMessage{
		To:      cfg.AISettings.StaffEmail,
		ToName:  cfg.BusinessName,
		Subject: fmt.Sprintf("Conversation handoff needed: %s", evt.Reason),
		Body:    body,
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: escalation email: %w", err)
	}

	s.logger.Info("escalation notification sent",
		"tenant_id", evt.TenantID,
		"reason", evt.Reason,
		"to", cfg.AISettings.StaffEmail)
	return nil
}
