package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// scriptedClient returns canned responses in order: the first call is the
// intent classification, the second is the main completion.
type scriptedClient struct {
	responses []CompletionResponse
	errs      []error
	requests  []CompletionRequest
}

func (c *scriptedClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return CompletionResponse{}, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return CompletionResponse{Text: "ok"}, nil
}

type stubTenantSource struct {
	config     *TenantConfig
	profile    *UserProfile
	configErr  error
	profileErr error
}

func (s *stubTenantSource) TenantConfig(ctx context.Context, tenantID string) (*TenantConfig, error) {
	return s.config, s.configErr
}

func (s *stubTenantSource) UserProfile(ctx context.Context, tenantID, userID string) (*UserProfile, error) {
	return s.profile, s.profileErr
}

type stubOutcomeRecorder struct {
	records []OutcomeRecord
	err     error
}

func (s *stubOutcomeRecorder) RecordOutcome(ctx context.Context, rec OutcomeRecord) error {
	s.records = append(s.records, rec)
	return s.err
}

func newTestService(t *testing.T, client CompletionClient, deps Deps) *AIService {
	t.Helper()
	if deps.Sessions == nil {
		deps.Sessions = NewMemorySessionStore(time.Hour)
	}
	if deps.Agents == nil {
		deps.Agents = NewAgentRegistry(&fakeBackend{}, AgentParams{Model: "gpt-4"})
	}
	deps.Client = client
	return NewAIService(Config{EnableFunctions: true}, deps)
}

func baseRequest() MessageRequest {
	return MessageRequest{
		SessionID:      "sess-1",
		ConversationID: "conv-1",
		TenantID:       "tenant-1",
		UserID:         "user-1",
		PhoneNumber:    "+5511999990000",
		Message:        "Quais serviços vocês oferecem?",
	}
}

func TestProcessMessageHappyPath(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"services","confidence":0.9}`},
		{Text: "Oferecemos corte, coloração e escova. Quer agendar?"},
	}}
	tenants := &stubTenantSource{config: &TenantConfig{
		TenantID:     "tenant-1",
		BusinessName: "Studio Bela",
		Domain:       "beauty",
	}}
	service := newTestService(t, client, Deps{Tenants: tenants})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != "Oferecemos corte, coloração e escova. Quer agendar?" {
		t.Errorf("Message = %q", result.Response.Message)
	}
	if result.Response.Intent == nil || result.Response.Intent.Type != "services" {
		t.Errorf("Intent = %+v", result.Response.Intent)
	}
	if result.Response.ShouldEscalate {
		t.Error("happy path must not escalate")
	}
	if result.Response.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Response.Confidence)
	}

	// session persisted with both turn messages
	if result.Context == nil || len(result.Context.ConversationHistory) != 2 {
		t.Fatalf("history = %+v", result.Context)
	}
	if result.Context.ConversationHistory[0].Role != RoleUser {
		t.Error("first stored message must be the user message")
	}
	if result.Context.ConversationHistory[1].Content != result.Response.Message {
		t.Error("second stored message must be the assistant reply")
	}
	if result.Context.TenantID != "tenant-1" || result.Context.PhoneNumber != "+5511999990000" {
		t.Errorf("identity not bound: %+v", result.Context)
	}

	// actions: send_message then log_interaction
	if len(result.Actions) != 2 {
		t.Fatalf("actions = %+v", result.Actions)
	}
	if result.Actions[0].Type != ActionSendMessage || result.Actions[1].Type != ActionLogInteraction {
		t.Errorf("action order = %v, %v", result.Actions[0].Type, result.Actions[1].Type)
	}

	// the main completion must carry the beauty agent's grounding
	if len(client.requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(client.requests))
	}
	mainReq := client.requests[1]
	if !strings.Contains(mainReq.Messages[0].Content, "beauty salon") {
		t.Error("main completion should use the tenant's domain agent")
	}
	if len(mainReq.Functions) == 0 || mainReq.FunctionMode != "auto" {
		t.Error("function schemas should be attached when functions are enabled")
	}
}

func TestProcessMessageProviderFailureFallsBack(t *testing.T) {
	// Intent call degrades internally; the main completion error is what
	// trips the fallback.
	providerErr := errors.New("connection reset")
	client := &scriptedClient{
		responses: []CompletionResponse{{Text: `{"intent":"services","confidence":0.9}`}, {}},
		errs:      []error{nil, providerErr},
	}
	service := newTestService(t, client, Deps{})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != FallbackMessage {
		t.Errorf("Message = %q, want the fixed fallback", result.Response.Message)
	}
	if result.Response.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", result.Response.Confidence)
	}
	if !result.Response.ShouldEscalate {
		t.Error("fallback must escalate")
	}
	if len(result.Actions) != 1 {
		t.Fatalf("expected exactly one action, got %d", len(result.Actions))
	}
	action := result.Actions[0]
	if action.Type != ActionEscalateToHuman {
		t.Errorf("action type = %v", action.Type)
	}
	if action.Payload["reason"] != "ai_error" {
		t.Errorf("reason = %v, want ai_error", action.Payload["reason"])
	}
	detail, _ := action.Payload["error"].(string)
	if !strings.Contains(detail, "connection reset") {
		t.Errorf("error detail = %q", detail)
	}
}

func TestProcessMessageSessionStoreFailureFallsBack(t *testing.T) {
	client := &scriptedClient{}
	service := newTestService(t, client, Deps{Sessions: failingSessionStore{}})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != FallbackMessage {
		t.Errorf("Message = %q, want fallback", result.Response.Message)
	}
	if len(client.requests) != 0 {
		t.Error("no provider call should happen when the session load fails")
	}
}

type failingSessionStore struct{}

func (failingSessionStore) GetOrCreate(ctx context.Context, sessionID string) (*SessionContext, error) {
	return nil, errors.New("redis down")
}
func (failingSessionStore) Get(ctx context.Context, sessionID string) (*SessionContext, error) {
	return nil, errors.New("redis down")
}
func (failingSessionStore) Update(ctx context.Context, session *SessionContext) error {
	return errors.New("redis down")
}
func (failingSessionStore) Close() error { return nil }

func TestProcessMessageFunctionCallFlow(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"availability","confidence":0.7}`},
		{
			Text:         "Encontrei estes horários para você.",
			FunctionCall: &FunctionCall{Name: "check_availability", Arguments: `{"service_id":"svc-1","date":"2026-09-10"}`},
		},
	}}
	backend := &fakeBackend{slots: []string{"2026-09-10 09:00"}}
	agents := NewAgentRegistry(backend, AgentParams{Model: "gpt-4"})
	service := newTestService(t, client, Deps{Agents: agents})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if len(result.Response.FunctionCalls) != 1 || !result.Response.FunctionCalls[0].Success {
		t.Fatalf("FunctionCalls = %+v", result.Response.FunctionCalls)
	}
	if backend.lastTenantID != "tenant-1" {
		t.Errorf("backend saw tenant %q", backend.lastTenantID)
	}
	// function call bonus: 0.7 + 0.2
	if result.Response.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Response.Confidence)
	}
	if _, ok := result.Response.Context["slots"]; !ok {
		t.Errorf("function data not merged into context: %v", result.Response.Context)
	}
}

func TestProcessMessageUnknownFunctionStillReplies(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"availability","confidence":0.7}`},
		{
			Text:         "Um momento.",
			FunctionCall: &FunctionCall{Name: "launch_rocket", Arguments: `{}`},
		},
	}}
	service := newTestService(t, client, Deps{})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != "Um momento." {
		t.Errorf("Message = %q", result.Response.Message)
	}
	if len(result.Response.FunctionCalls) != 1 || result.Response.FunctionCalls[0].Success {
		t.Fatalf("expected one failed function result, got %+v", result.Response.FunctionCalls)
	}
	if !result.Response.FunctionCalls[0].ShouldContinue {
		t.Error("failed function must not abort the turn")
	}
}

func TestProcessMessageHistoryTrimmedTo50(t *testing.T) {
	sessions := NewMemorySessionStore(time.Hour)
	session := newSessionContext("sess-1")
	for i := 0; i < 60; i++ {
		session.ConversationHistory = append(session.ConversationHistory, Message{
			ID: fmt.Sprintf("old-%d", i), Role: RoleUser, Content: fmt.Sprintf("old-%d", i),
		})
	}
	if err := sessions.Update(context.Background(), session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"greeting","confidence":0.8}`},
		{Text: "Olá novamente!"},
	}}
	service := newTestService(t, client, Deps{Sessions: sessions})

	result := service.ProcessMessage(context.Background(), baseRequest())

	history := result.Context.ConversationHistory
	if len(history) != 50 {
		t.Fatalf("history length = %d, want 50", len(history))
	}
	if history[len(history)-1].Content != "Olá novamente!" {
		t.Error("newest messages must be kept")
	}
	if history[0].Content == "old-0" {
		t.Error("oldest messages must be dropped first")
	}

	stored, err := sessions.Get(context.Background(), "sess-1")
	if err != nil || stored == nil {
		t.Fatalf("stored session: %v, %v", stored, err)
	}
	if len(stored.ConversationHistory) != 50 {
		t.Errorf("persisted history length = %d, want 50", len(stored.ConversationHistory))
	}
}

func TestProcessMessageTenantLookupFailureIsNonFatal(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"greeting","confidence":0.8}`},
		{Text: "Olá!"},
	}}
	tenants := &stubTenantSource{configErr: errors.New("supabase timeout")}
	service := newTestService(t, client, Deps{Tenants: tenants})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != "Olá!" {
		t.Errorf("Message = %q; tenant lookup failures must not fail the turn", result.Response.Message)
	}
	// without tenant config the generic agent serves the turn
	if !strings.Contains(client.requests[1].Messages[0].Content, "service business") {
		t.Error("expected the fallback agent prompt")
	}
}

func TestProcessMessageRecordsOutcome(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"pricing","confidence":0.8}`},
		{Text: "O corte custa R$ 80."},
	}}
	recorder := &stubOutcomeRecorder{}
	service := newTestService(t, client, Deps{Outcomes: recorder})

	service.ProcessMessage(context.Background(), baseRequest())

	if len(recorder.records) != 1 {
		t.Fatalf("expected 1 outcome record, got %d", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.ConversationID != "conv-1" || rec.Intent != "pricing" || rec.TenantID != "tenant-1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestProcessMessageOutcomeFailureIsNonFatal(t *testing.T) {
	client := &scriptedClient{responses: []CompletionResponse{
		{Text: `{"intent":"pricing","confidence":0.8}`},
		{Text: "O corte custa R$ 80."},
	}}
	recorder := &stubOutcomeRecorder{err: errors.New("postgres down")}
	service := newTestService(t, client, Deps{Outcomes: recorder})

	result := service.ProcessMessage(context.Background(), baseRequest())

	if result.Response.Message != "O corte custa R$ 80." {
		t.Errorf("Message = %q; outcome failures must not fail the turn", result.Response.Message)
	}
}

func TestHealth(t *testing.T) {
	healthy := newTestService(t, &scriptedClient{}, Deps{})
	status := healthy.Health(context.Background())
	if status.Status != HealthHealthy {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if status.Details["provider_status"] != "connected" {
		t.Errorf("Details = %v", status.Details)
	}

	degraded := newTestService(t, &scriptedClient{errs: []error{errors.New("401 unauthorized")}}, Deps{})
	status = degraded.Health(context.Background())
	if status.Status != HealthDegraded {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
	if detail, _ := status.Details["provider_error"].(string); !strings.Contains(detail, "401") {
		t.Errorf("provider_error = %v", status.Details["provider_error"])
	}
}
