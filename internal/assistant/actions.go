package assistant

import "time"

// ActionGenerator turns a finished ProcessingResponse into the ordered
// side-effect list consumed by the external dispatcher.
type ActionGenerator struct {
	now func() time.Time
}

// NewActionGenerator builds the generator on the real clock.
func NewActionGenerator() *ActionGenerator {
	return &ActionGenerator{now: time.Now}
}

// Generate produces, in order: a send_message action when a reply exists,
// an escalate_to_human action when escalation was decided, and always a
// log_interaction action so even silent turns are observable.
func (g *ActionGenerator) Generate(resp ProcessingResponse, session *SessionContext) []Action {
	actions := make([]Action, 0, 3)

	if resp.Message != "" {
		actions = append(actions, Action{
			Type: ActionSendMessage,
			Payload: map[string]any{
				"message":      resp.Message,
				"phone_number": session.PhoneNumber,
			},
			Priority: PriorityHigh,
		})
	}

	if resp.ShouldEscalate {
		reason := "unknown"
		if resp.Intent != nil && resp.Intent.Type != "" {
			reason = resp.Intent.Type
		}
		actions = append(actions, Action{
			Type: ActionEscalateToHuman,
			Payload: map[string]any{
				"reason":  reason,
				"context": resp.Context,
			},
			Priority: PriorityHigh,
		})
	}

	logPayload := map[string]any{
		"user_id":    session.UserID,
		"tenant_id":  session.TenantID,
		"confidence": resp.Confidence,
		"message":    resp.Message,
		"timestamp":  g.now().UTC(),
	}
	if resp.Intent != nil {
		logPayload["intent"] = resp.Intent.Type
	}
	actions = append(actions, Action{
		Type:     ActionLogInteraction,
		Payload:  logPayload,
		Priority: PriorityLow,
	})

	return actions
}

// suggestedActions maps an intent to short operator hints attached to the
// response.
func suggestedActions(intent IntentResult) []string {
	switch intent.Type {
	case "availability":
		return []string{"Check the calendar", "Suggest open slots"}
	case "services", "pricing":
		return []string{"Show the service list", "Explain pricing"}
	case "cancel", "reschedule", "modify_appointment":
		return []string{"Look up the appointment", "Confirm the change"}
	case "noshow_followup", "booking_abandoned":
		return []string{"Offer to rebook", "Check rebooking policy"}
	default:
		return []string{"Continue the conversation"}
	}
}
