package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agendia/booking-ai-platform/internal/assistant"
)

type fakeProcessor struct {
	result *assistant.TurnResult
	err    error
}

func (f *fakeProcessor) ProcessMessage(ctx context.Context, req assistant.MessageRequest) (*assistant.TurnResult, error) {
	return f.result, f.err
}

type signalingEmailSender struct {
	sent chan EmailMessage
}

func (s *signalingEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.sent <- msg
	return nil
}

func TestTurnNotifierFiresOnEscalation(t *testing.T) {
	email := &signalingEmailSender{sent: make(chan EmailMessage, 1)}
	tenants := &mockTenantSource{configs: map[string]*assistant.TenantConfig{
		"tenant-1": salonTenant("staff@bellabeleza.com"),
	}}
	svc := NewService(email, tenants, nil)

	result := &assistant.TurnResult{
		Response: assistant.ProcessingResponse{Confidence: 0.35},
		Actions: []assistant.Action{
			{Type: assistant.ActionSendMessage},
			{Type: assistant.ActionEscalateToHuman, Payload: map[string]any{"reason": "emergency"}},
		},
	}
	notifier := NewTurnNotifier(&fakeProcessor{result: result}, svc, nil)

	got, err := notifier.ProcessMessage(context.Background(), assistant.MessageRequest{
		TenantID:    "tenant-1",
		UserID:      "user-1",
		PhoneNumber: "+5511999990000",
		Message:     "socorro",
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if got != result {
		t.Fatal("result must pass through unchanged")
	}

	select {
	case msg := <-email.sent:
		if msg.To != "staff@bellabeleza.com" {
			t.Errorf("To = %q", msg.To)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected escalation email to be sent")
	}
}

func TestTurnNotifierNoEscalation(t *testing.T) {
	email := &signalingEmailSender{sent: make(chan EmailMessage, 1)}
	svc := NewService(email, &mockTenantSource{}, nil)

	result := &assistant.TurnResult{
		Actions: []assistant.Action{{Type: assistant.ActionSendMessage}},
	}
	notifier := NewTurnNotifier(&fakeProcessor{result: result}, svc, nil)

	if _, err := notifier.ProcessMessage(context.Background(), assistant.MessageRequest{TenantID: "tenant-1"}); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	select {
	case <-email.sent:
		t.Fatal("no email expected without an escalation action")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTurnNotifierPassesThroughErrors(t *testing.T) {
	procErr := errors.New("pipeline down")
	notifier := NewTurnNotifier(&fakeProcessor{err: procErr}, nil, nil)

	if _, err := notifier.ProcessMessage(context.Background(), assistant.MessageRequest{}); !errors.Is(err, procErr) {
		t.Fatalf("err = %v, want processor error", err)
	}
}

func TestTurnNotifierNilService(t *testing.T) {
	result := &assistant.TurnResult{
		Actions: []assistant.Action{{Type: assistant.ActionEscalateToHuman}},
	}
	notifier := NewTurnNotifier(&fakeProcessor{result: result}, nil, nil)

	got, err := notifier.ProcessMessage(context.Background(), assistant.MessageRequest{})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if got != result {
		t.Fatal("result must pass through unchanged")
	}
}
