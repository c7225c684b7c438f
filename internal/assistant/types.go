package assistant

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a session's conversation history.
// Immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MediaKind identifies the type of an inbound WhatsApp attachment.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
)

// MediaItem is a raw attachment received alongside a user message.
type MediaItem struct {
	Kind     MediaKind `json:"kind"`
	MimeType string    `json:"mime_type"`
	Content  []byte    `json:"content"`
}

// Entity is a value extracted from the user message during classification.
type Entity struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IntentResult is the calibrated classification of one user message.
// Created fresh each turn and read-only afterwards.
type IntentResult struct {
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Entities   []Entity       `json:"entities"`
	Context    map[string]any `json:"context"`
}

// ServiceInfo is a bookable service offered by a tenant.
type ServiceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BusinessHours carries the tenant's operating timezone.
type BusinessHours struct {
	Timezone string `json:"timezone"`
}

// AISettings are tenant-level knobs for the assistant.
type AISettings struct {
	GreetingMessage    string   `json:"greeting_message"`
	EscalationTriggers []string `json:"escalation_triggers"`
	DomainKeywords     []string `json:"domain_keywords"`
	StaffEmail         string   `json:"staff_email"`
}

// TenantConfig is the read-only business profile for one tenant.
type TenantConfig struct {
	TenantID      string        `json:"tenant_id"`
	BusinessName  string        `json:"business_name"`
	Domain        string        `json:"domain"`
	Services      []ServiceInfo `json:"services"`
	BusinessHours BusinessHours `json:"business_hours"`
	AISettings    AISettings    `json:"ai_settings"`
}

// UserProfile is the read-only profile of the end user on WhatsApp.
type UserProfile struct {
	Name                 string `json:"name"`
	PreferredName        string `json:"preferred_name"`
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
	PreviousAppointments int    `json:"previous_appointments"`
}

// SessionContext is the full per-conversation state. It is owned by the
// orchestrator for the duration of one turn and persisted whole by the
// session store between turns; it is never mutated field-by-field in
// storage.
type SessionContext struct {
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
	TenantID       string `json:"tenant_id"`
	UserID         string `json:"user_id"`
	PhoneNumber    string `json:"phone_number"`

	ConversationHistory []Message     `json:"conversation_history"`
	CurrentIntent       *IntentResult `json:"current_intent,omitempty"`
	LastInteraction     time.Time     `json:"last_interaction"`

	TenantConfig *TenantConfig `json:"tenant_config,omitempty"`
	UserProfile  *UserProfile  `json:"user_profile,omitempty"`
}

// FunctionParameter describes one argument of a callable function.
type FunctionParameter struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Required    bool
}

// FunctionResult is the normalized outcome of a function call. Both
// success and failure flow through this shape so downstream logic never
// branches on error types.
type FunctionResult struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	ShouldContinue bool           `json:"should_continue"`
}

// FunctionHandler executes a callable function with parsed arguments and
// the full session context.
type FunctionHandler interface {
	Execute(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error)
}

// FunctionHandlerFunc adapts a plain function to FunctionHandler.
type FunctionHandlerFunc func(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error)

func (f FunctionHandlerFunc) Execute(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error) {
	return f(ctx, args, session)
}

// FunctionDefinition is one entry of an agent's callable registry.
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  []FunctionParameter
	Handler     FunctionHandler
}

// AgentDefinition bundles the prompt, model parameters and callable
// functions for one business domain. Static and read-only during turns.
type AgentDefinition struct {
	Domain       string
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
	Functions    []FunctionDefinition
}

// FunctionCall is a callable request emitted by the completion provider.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// AIResponse is the transient output of one main completion call.
type AIResponse struct {
	Message      string
	FunctionCall *FunctionCall
}

// ProcessingResponse is the transient output of one turn.
type ProcessingResponse struct {
	Message          string           `json:"message"`
	Intent           *IntentResult    `json:"intent,omitempty"`
	FunctionCalls    []FunctionResult `json:"function_calls,omitempty"`
	Confidence       float64          `json:"confidence"`
	ShouldEscalate   bool             `json:"should_escalate"`
	SuggestedActions []string         `json:"suggested_actions,omitempty"`
	Context          map[string]any   `json:"context,omitempty"`
}

// ActionType labels a side-effecting action produced by a turn.
type ActionType string

const (
	ActionSendMessage     ActionType = "send_message"
	ActionEscalateToHuman ActionType = "escalate_to_human"
	ActionLogInteraction  ActionType = "log_interaction"
)

// ActionPriority orders actions for the dispatcher.
type ActionPriority string

const (
	PriorityLow  ActionPriority = "low"
	PriorityHigh ActionPriority = "high"
)

// Action is one unit of work for the external action dispatcher.
type Action struct {
	Type     ActionType     `json:"type"`
	Payload  map[string]any `json:"payload"`
	Priority ActionPriority `json:"priority"`
}

// TurnResult is everything one ProcessMessage call produces.
type TurnResult struct {
	Response ProcessingResponse `json:"response"`
	Context  *SessionContext    `json:"context"`
	Actions  []Action           `json:"actions"`
}

// MessageRequest is a single inbound WhatsApp turn.
type MessageRequest struct {
	SessionID      string      `json:"session_id"`
	ConversationID string      `json:"conversation_id"`
	TenantID       string      `json:"tenant_id"`
	UserID         string      `json:"user_id"`
	PhoneNumber    string      `json:"phone_number"`
	Message        string      `json:"message"`
	Media          []MediaItem `json:"media,omitempty"`
}

// TenantSource is the read-only lookup for tenant and user profiles.
type TenantSource interface {
	TenantConfig(ctx context.Context, tenantID string) (*TenantConfig, error)
	UserProfile(ctx context.Context, tenantID, userID string) (*UserProfile, error)
}

// OutcomeRecord captures the result of a turn for analytics.
type OutcomeRecord struct {
	ConversationID string
	Message        string
	Intent         string
	Confidence     float64
	TenantID       string
	UserID         string
	PhoneNumber    string
}

// OutcomeRecorder persists turn outcomes. Best-effort: callers must not
// fail a turn when recording fails.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, rec OutcomeRecord) error
}
