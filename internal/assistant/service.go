package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agendia/booking-ai-platform/internal/observability/metrics"
	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// FallbackMessage is sent verbatim whenever a turn fails internally.
const FallbackMessage = "Desculpe, estou com dificuldades técnicas no momento. Por favor, tente novamente em alguns instantes ou entre em contato diretamente conosco."

const maxHistoryLength = 50

var serviceTracer = otel.Tracer("agendia.internal.assistant")

// Config carries the model parameters for one AIService instance.
type Config struct {
	Model           string
	IntentModel     string
	Temperature     float32
	MaxTokens       int
	EnableFunctions bool
	EnableMedia     bool
}

// Deps bundles the collaborators of the AIService. Client, Sessions and
// Agents are required; the rest degrade gracefully when absent.
type Deps struct {
	Client   CompletionClient
	Sessions SessionStore
	Agents   *AgentRegistry
	Media    *MediaProcessor
	Tenants  TenantSource
	Outcomes OutcomeRecorder
	Metrics  *metrics.AssistantMetrics
	Logger   *logging.Logger
}

// AIService is the conversational orchestrator: it turns one inbound
// WhatsApp message into a reply, an optional function call, an escalation
// decision and an updated session. ProcessMessage never propagates an
// error; every internal failure resolves to a fixed fallback response
// plus an escalation action.
type AIService struct {
	cfg Config

	client     CompletionClient
	sessions   SessionStore
	agents     *AgentRegistry
	media      *MediaProcessor
	tenants    TenantSource
	outcomes   OutcomeRecorder
	recognizer *IntentRecognizer
	executor   *FunctionExecutor
	decider    *EscalationDecider
	scorer     ConfidenceScorer
	composer   *Composer
	generator  *ActionGenerator
	events     *EventLogger
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAIService wires the pipeline.
func NewAIService(cfg Config, deps Deps) *AIService {
	if deps.Client == nil {
		panic("assistant: completion client cannot be nil")
	}
	if deps.Sessions == nil {
		panic("assistant: session store cannot be nil")
	}
	if deps.Agents == nil {
		panic("assistant: agent registry cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	if cfg.IntentModel == "" {
		cfg.IntentModel = "gpt-3.5-turbo"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}

	return &AIService{
		cfg:        cfg,
		client:     deps.Client,
		sessions:   deps.Sessions,
		agents:     deps.Agents,
		media:      deps.Media,
		tenants:    deps.Tenants,
		outcomes:   deps.Outcomes,
		recognizer: NewIntentRecognizer(deps.Client, cfg.IntentModel, deps.Logger),
		executor:   NewFunctionExecutor(deps.Logger),
		decider:    NewEscalationDecider(),
		scorer:     NewConfidenceScorer(),
		composer:   NewComposer(),
		generator:  NewActionGenerator(),
		events:     NewEventLogger(deps.Logger),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		tracer:     serviceTracer,
		now:        time.Now,
	}
}

// ProcessMessage runs the full pipeline for one turn. It always returns a
// usable result: on any internal failure the response is the fixed
// fallback with a single escalate_to_human action.
func (s *AIService) ProcessMessage(ctx context.Context, req MessageRequest) *TurnResult {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "assistant.process_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("agendia.tenant_id", req.TenantID),
		attribute.String("agendia.session_id", req.SessionID),
	)

	result, err := s.processTurn(ctx, req)
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		s.logger.Error("turn failed", "session_id", req.SessionID, "error", err)
		s.metrics.ObserveTurn("failed", elapsed)
		s.metrics.ObserveEscalation("ai_error")
		return s.fallbackResult(ctx, req, err)
	}

	s.metrics.ObserveTurn("ok", elapsed)
	return result
}

func (s *AIService) processTurn(ctx context.Context, req MessageRequest) (*TurnResult, error) {
	session, err := s.sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	s.bindIdentity(session, req)
	s.hydrateProfiles(ctx, session)

	enriched := req.Message
	if s.cfg.EnableMedia && s.media != nil && len(req.Media) > 0 {
		enriched = s.media.Enrich(ctx, req.Message, req.Media)
	}

	intent := s.recognizer.Recognize(ctx, enriched, session)
	s.metrics.ObserveIntent(intent.Type)
	s.events.IntentRecognized(ctx, session, intent)

	domain := ""
	if session.TenantConfig != nil {
		domain = session.TenantConfig.Domain
	}
	agent := s.agents.Get(domain)

	messages := s.composer.Build(agent, session, enriched)
	aiResp, err := s.complete(ctx, messages, agent)
	if err != nil {
		return nil, err
	}

	var functionResults []FunctionResult
	if s.cfg.EnableFunctions && aiResp.FunctionCall != nil {
		functionResults = s.executor.Execute(ctx, aiResp.FunctionCall, agent, session)
		for _, res := range functionResults {
			s.metrics.ObserveFunctionCall(aiResp.FunctionCall.Name, res.Success)
			s.events.FunctionExecuted(ctx, session, aiResp.FunctionCall.Name, res.Success)
		}
	}

	response := ProcessingResponse{
		Message:          aiResp.Message,
		Intent:           &intent,
		FunctionCalls:    functionResults,
		Confidence:       s.scorer.Score(aiResp, intent),
		ShouldEscalate:   s.decider.ShouldEscalate(enriched, intent, session),
		SuggestedActions: suggestedActions(intent),
		Context:          mergeFunctionContext(functionResults),
	}
	if response.ShouldEscalate {
		s.metrics.ObserveEscalation(intent.Type)
		s.events.Escalated(ctx, session, intent.Type)
	}

	updated, err := s.updateHistory(ctx, session, enriched, response)
	if err != nil {
		return nil, err
	}

	s.recordOutcome(ctx, updated, enriched, response)

	return &TurnResult{
		Response: response,
		Context:  updated,
		Actions:  s.generator.Generate(response, updated),
	}, nil
}

// bindIdentity copies request identifiers onto the session; a fresh
// session has none, an existing one keeps its stored values when the
// request omits them.
func (s *AIService) bindIdentity(session *SessionContext, req MessageRequest) {
	if req.TenantID != "" {
		session.TenantID = req.TenantID
	}
	if req.UserID != "" {
		session.UserID = req.UserID
	}
	if req.PhoneNumber != "" {
		session.PhoneNumber = req.PhoneNumber
	}
	if req.ConversationID != "" {
		session.ConversationID = req.ConversationID
	}
}

// hydrateProfiles fills missing tenant/user profiles from the config
// source. Lookup failures are logged and the turn continues with the
// generic agent rather than failing.
func (s *AIService) hydrateProfiles(ctx context.Context, session *SessionContext) {
	if s.tenants == nil || session.TenantID == "" {
		return
	}
	if session.TenantConfig == nil {
		tenant, err := s.tenants.TenantConfig(ctx, session.TenantID)
		if err != nil {
			s.logger.Warn("tenant config lookup failed", "tenant_id", session.TenantID, "error", err)
		} else {
			session.TenantConfig = tenant
		}
	}
	if session.UserProfile == nil && session.UserID != "" {
		user, err := s.tenants.UserProfile(ctx, session.TenantID, session.UserID)
		if err != nil {
			s.logger.Warn("user profile lookup failed", "user_id", session.UserID, "error", err)
		} else {
			session.UserProfile = user
		}
	}
}

func (s *AIService) complete(ctx context.Context, messages []ChatMessage, agent AgentDefinition) (AIResponse, error) {
	creq := CompletionRequest{
		Model:       agent.Model,
		Messages:    messages,
		Temperature: agent.Temperature,
		MaxTokens:   agent.MaxTokens,
	}
	if creq.Model == "" {
		creq.Model = s.cfg.Model
	}
	if s.cfg.EnableFunctions && len(agent.Functions) > 0 {
		creq.Functions = functionSchemas(agent.Functions)
		creq.FunctionMode = "auto"
	}

	resp, err := s.client.Complete(ctx, creq)
	if err != nil {
		return AIResponse{}, fmt.Errorf("assistant: completion failed: %w", err)
	}
	return AIResponse{Message: resp.Text, FunctionCall: resp.FunctionCall}, nil
}

// updateHistory appends the user and assistant messages, trims to the 50
// most recent entries (oldest dropped first) and persists the whole
// context in a single replace.
func (s *AIService) updateHistory(ctx context.Context, session *SessionContext, userMessage string, response ProcessingResponse) (*SessionContext, error) {
	now := s.now().UTC()
	history := append(session.ConversationHistory,
		Message{ID: uuid.NewString(), Role: RoleUser, Content: userMessage, Timestamp: now},
		Message{ID: uuid.NewString(), Role: RoleAssistant, Content: response.Message, Timestamp: now},
	)
	if len(history) > maxHistoryLength {
		history = history[len(history)-maxHistoryLength:]
	}

	updated := *session
	updated.ConversationHistory = history
	updated.CurrentIntent = response.Intent
	updated.LastInteraction = now

	if err := s.sessions.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// recordOutcome is fire-and-forget: a failing recorder never affects the
// turn result.
func (s *AIService) recordOutcome(ctx context.Context, session *SessionContext, message string, response ProcessingResponse) {
	if s.outcomes == nil || session.ConversationID == "" {
		return
	}
	intentName := "unknown"
	if response.Intent != nil && response.Intent.Type != "" {
		intentName = response.Intent.Type
	}
	rec := OutcomeRecord{
		ConversationID: session.ConversationID,
		Message:        message,
		Intent:         intentName,
		Confidence:     response.Confidence,
		TenantID:       session.TenantID,
		UserID:         session.UserID,
		PhoneNumber:    session.PhoneNumber,
	}
	if err := s.outcomes.RecordOutcome(ctx, rec); err != nil {
		s.logger.Warn("outcome recording failed", "conversation_id", session.ConversationID, "error", err)
	}
}

// fallbackResult is the single Failed absorbing state: a fixed apology,
// zero confidence, forced escalation and exactly one escalate action
// carrying the error detail.
func (s *AIService) fallbackResult(ctx context.Context, req MessageRequest, cause error) *TurnResult {
	session := newSessionContext(req.SessionID)
	s.bindIdentity(session, req)
	s.events.TurnFailed(ctx, session, cause)

	detail := "unknown error"
	if cause != nil {
		detail = cause.Error()
	}

	response := ProcessingResponse{
		Message:        FallbackMessage,
		Confidence:     0,
		ShouldEscalate: true,
		Context:        map[string]any{"error": detail},
	}
	return &TurnResult{
		Response: response,
		Context:  session,
		Actions: []Action{{
			Type: ActionEscalateToHuman,
			Payload: map[string]any{
				"reason": "ai_error",
				"error":  detail,
			},
			Priority: PriorityHigh,
		}},
	}
}

func mergeFunctionContext(results []FunctionResult) map[string]any {
	merged := map[string]any{}
	for _, res := range results {
		if !res.Success || res.Data == nil {
			continue
		}
		for k, v := range res.Data {
			merged[k] = v
		}
	}
	return merged
}
