package assistant

import "testing"

func TestGenerateFullTurn(t *testing.T) {
	generator := NewActionGenerator()
	session := &SessionContext{TenantID: "tenant-1", UserID: "user-1", PhoneNumber: "+5511999990000"}
	resp := ProcessingResponse{
		Message:        "Temos horário às 9h e às 10h.",
		Intent:         &IntentResult{Type: "availability", Confidence: 0.8},
		Confidence:     0.8,
		ShouldEscalate: false,
	}

	actions := generator.Generate(resp, session)

	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}

	send := actions[0]
	if send.Type != ActionSendMessage || send.Priority != PriorityHigh {
		t.Errorf("first action = %+v, want high-priority send_message", send)
	}
	if send.Payload["message"] != resp.Message {
		t.Errorf("send payload message = %v", send.Payload["message"])
	}
	if send.Payload["phone_number"] != "+5511999990000" {
		t.Errorf("send payload phone = %v", send.Payload["phone_number"])
	}

	logAction := actions[1]
	if logAction.Type != ActionLogInteraction || logAction.Priority != PriorityLow {
		t.Errorf("last action = %+v, want low-priority log_interaction", logAction)
	}
	if logAction.Payload["tenant_id"] != "tenant-1" || logAction.Payload["user_id"] != "user-1" {
		t.Errorf("log payload identity = %v", logAction.Payload)
	}
	if logAction.Payload["intent"] != "availability" {
		t.Errorf("log payload intent = %v", logAction.Payload["intent"])
	}
}

func TestGenerateEscalationAction(t *testing.T) {
	generator := NewActionGenerator()
	session := &SessionContext{TenantID: "tenant-1"}
	resp := ProcessingResponse{
		Message:        "Vou transferir você para um atendente.",
		Intent:         &IntentResult{Type: IntentEscalationRequest, Confidence: 0.9},
		ShouldEscalate: true,
		Context:        map[string]any{"note": "user asked"},
	}

	actions := generator.Generate(resp, session)

	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	escalate := actions[1]
	if escalate.Type != ActionEscalateToHuman || escalate.Priority != PriorityHigh {
		t.Errorf("second action = %+v, want high-priority escalate_to_human", escalate)
	}
	if escalate.Payload["reason"] != IntentEscalationRequest {
		t.Errorf("reason = %v, want %q", escalate.Payload["reason"], IntentEscalationRequest)
	}
}

func TestGenerateEscalationReasonFallsBackToUnknown(t *testing.T) {
	generator := NewActionGenerator()
	resp := ProcessingResponse{Message: "msg", ShouldEscalate: true}

	actions := generator.Generate(resp, &SessionContext{})

	escalate := actions[1]
	if escalate.Payload["reason"] != "unknown" {
		t.Errorf("reason = %v, want unknown", escalate.Payload["reason"])
	}
}

func TestGenerateSilentTurnStillLogs(t *testing.T) {
	generator := NewActionGenerator()

	actions := generator.Generate(ProcessingResponse{}, &SessionContext{})

	if len(actions) != 1 {
		t.Fatalf("expected only the log action, got %d", len(actions))
	}
	if actions[0].Type != ActionLogInteraction {
		t.Errorf("action = %+v, want log_interaction", actions[0])
	}
}

func TestSuggestedActions(t *testing.T) {
	tests := []struct {
		intent string
		want   string
	}{
		{"availability", "Check the calendar"},
		{"pricing", "Show the service list"},
		{"reschedule", "Look up the appointment"},
		{"noshow_followup", "Offer to rebook"},
		{"greeting", "Continue the conversation"},
		{IntentOther, "Continue the conversation"},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			got := suggestedActions(IntentResult{Type: tt.intent})
			if len(got) == 0 || got[0] != tt.want {
				t.Errorf("suggestedActions(%q) = %v, want first hint %q", tt.intent, got, tt.want)
			}
		})
	}
}
