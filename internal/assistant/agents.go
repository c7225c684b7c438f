package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BookingBackend is the side-effecting capability behind the agents'
// callable functions. Implementations live outside this package.
type BookingBackend interface {
	CheckAvailability(ctx context.Context, tenantID, serviceID, date string) ([]string, error)
	CreateBooking(ctx context.Context, tenantID, userID, serviceID, slot string) (string, error)
	CancelBooking(ctx context.Context, tenantID, bookingID string) error
}

// AgentRegistry holds one AgentDefinition per business domain. The
// registry is built once at startup and read-only afterwards, so it is
// safe to share across concurrent turns.
type AgentRegistry struct {
	agents   map[string]AgentDefinition
	fallback AgentDefinition
}

// AgentParams are the model parameters shared by the registry's agents.
type AgentParams struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

const agentDomainOther = "other"

// NewAgentRegistry builds the static per-domain registry. Booking
// functions dispatch into the supplied backend.
func NewAgentRegistry(backend BookingBackend, params AgentParams) *AgentRegistry {
	if backend == nil {
		panic("assistant: booking backend cannot be nil")
	}
	if params.Model == "" {
		params.Model = "gpt-4"
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 2048
	}

	functions := bookingFunctions(backend)

	build := func(domain, prompt string) AgentDefinition {
		return AgentDefinition{
			Domain:       domain,
			SystemPrompt: prompt,
			Model:        params.Model,
			Temperature:  params.Temperature,
			MaxTokens:    params.MaxTokens,
			Functions:    functions,
		}
	}

	r := &AgentRegistry{agents: make(map[string]AgentDefinition)}
	r.agents["healthcare"] = build("healthcare", "You are a WhatsApp booking assistant for a healthcare practice. Be warm and precise. Never give medical advice or diagnosis; guide patients toward booking an appointment with a professional. Respect patient privacy at all times.")
	r.agents["beauty"] = build("beauty", "You are a WhatsApp booking assistant for a beauty salon. Be friendly and upbeat. Help clients pick services, check openings and book, and answer questions about pricing and policies.")
	r.agents["legal"] = build("legal", "You are a WhatsApp booking assistant for a law office. Be formal and discreet. Never give legal advice; your role is scheduling consultations and answering practical questions about the office.")
	r.agents["sports"] = build("sports", "You are a WhatsApp booking assistant for a sports and fitness studio. Be energetic and direct. Help members book classes and personal training sessions.")
	r.agents["education"] = build("education", "You are a WhatsApp booking assistant for a tutoring and courses business. Be encouraging and clear. Help students schedule lessons and answer questions about programs.")
	r.agents["consulting"] = build("consulting", "You are a WhatsApp booking assistant for a consulting firm. Be professional and efficient. Help clients schedule meetings and understand available engagements.")
	r.fallback = build(agentDomainOther, "You are a WhatsApp booking assistant for a service business. Be helpful and concise. Help customers learn about services, check availability and book appointments.")
	return r
}

// Get returns the agent for a tenant domain, falling back to the generic
// agent when the domain is unrecognized.
func (r *AgentRegistry) Get(domain string) AgentDefinition {
	if agent, ok := r.agents[strings.ToLower(strings.TrimSpace(domain))]; ok {
		return agent
	}
	return r.fallback
}

// Domains lists registered domains, excluding the fallback.
func (r *AgentRegistry) Domains() []string {
	domains := make([]string, 0, len(r.agents))
	for domain := range r.agents {
		domains = append(domains, domain)
	}
	return domains
}

func bookingFunctions(backend BookingBackend) []FunctionDefinition {
	return []FunctionDefinition{
		{
			Name:        "check_availability",
			Description: "List open time slots for a service on a given date.",
			Parameters: []FunctionParameter{
				{Name: "service_id", Type: "string", Description: "Identifier of the service", Required: true},
				{Name: "date", Type: "string", Description: "Date in YYYY-MM-DD format", Required: true},
			},
			Handler: FunctionHandlerFunc(func(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error) {
				serviceID, err := stringArg(args, "service_id")
				if err != nil {
					return FunctionResult{}, err
				}
				date, err := stringArg(args, "date")
				if err != nil {
					return FunctionResult{}, err
				}
				if _, err := time.Parse("2006-01-02", date); err != nil {
					return FunctionResult{}, fmt.Errorf("assistant: invalid date %q", date)
				}
				slots, err := backend.CheckAvailability(ctx, session.TenantID, serviceID, date)
				if err != nil {
					return FunctionResult{}, err
				}
				return FunctionResult{
					Success:        true,
					Message:        fmt.Sprintf("%d slots available on %s", len(slots), date),
					Data:           map[string]any{"slots": slots, "date": date},
					ShouldContinue: true,
				}, nil
			}),
		},
		{
			Name:        "create_booking",
			Description: "Book a service for the current user at a chosen slot.",
			Parameters: []FunctionParameter{
				{Name: "service_id", Type: "string", Description: "Identifier of the service", Required: true},
				{Name: "slot", Type: "string", Description: "Chosen slot in RFC 3339 format", Required: true},
			},
			Handler: FunctionHandlerFunc(func(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error) {
				serviceID, err := stringArg(args, "service_id")
				if err != nil {
					return FunctionResult{}, err
				}
				slot, err := stringArg(args, "slot")
				if err != nil {
					return FunctionResult{}, err
				}
				bookingID, err := backend.CreateBooking(ctx, session.TenantID, session.UserID, serviceID, slot)
				if err != nil {
					return FunctionResult{}, err
				}
				return FunctionResult{
					Success:        true,
					Message:        "Booking confirmed",
					Data:           map[string]any{"booking_id": bookingID, "slot": slot},
					ShouldContinue: true,
				}, nil
			}),
		},
		{
			Name:        "cancel_booking",
			Description: "Cancel one of the user's existing bookings.",
			Parameters: []FunctionParameter{
				{Name: "booking_id", Type: "string", Description: "Identifier of the booking to cancel", Required: true},
			},
			Handler: FunctionHandlerFunc(func(ctx context.Context, args map[string]any, session *SessionContext) (FunctionResult, error) {
				bookingID, err := stringArg(args, "booking_id")
				if err != nil {
					return FunctionResult{}, err
				}
				if err := backend.CancelBooking(ctx, session.TenantID, bookingID); err != nil {
					return FunctionResult{}, err
				}
				return FunctionResult{
					Success:        true,
					Message:        "Booking cancelled",
					Data:           map[string]any{"booking_id": bookingID},
					ShouldContinue: true,
				}, nil
			}),
		},
	}
}

func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok {
		return "", fmt.Errorf("assistant: missing argument %q", name)
	}
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("assistant: argument %q must be a non-empty string", name)
	}
	return value, nil
}
