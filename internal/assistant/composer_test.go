package assistant

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildOrdersMessages(t *testing.T) {
	composer := NewComposer()
	agent := AgentDefinition{Domain: "beauty", SystemPrompt: "You are a booking assistant."}
	session := &SessionContext{
		ConversationHistory: []Message{
			{Role: RoleUser, Content: "Oi"},
			{Role: RoleAssistant, Content: "Olá! Como posso ajudar?"},
		},
	}

	messages := composer.Build(agent, session, "Quero marcar um horário")

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != RoleSystem {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[1].Content != "Oi" || messages[2].Content != "Olá! Como posso ajudar?" {
		t.Error("history must preserve order")
	}
	last := messages[len(messages)-1]
	if last.Role != RoleUser || last.Content != "Quero marcar um horário" {
		t.Errorf("last message = %+v, want the current user message", last)
	}
}

func TestBuildTrimsHistoryWindow(t *testing.T) {
	composer := NewComposer()
	agent := AgentDefinition{SystemPrompt: "prompt"}

	session := &SessionContext{}
	for i := 0; i < 30; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		session.ConversationHistory = append(session.ConversationHistory, Message{
			Role: role, Content: fmt.Sprintf("msg-%d", i),
		})
	}

	messages := composer.Build(agent, session, "current")

	// system + 10 history + current user message
	if len(messages) != 12 {
		t.Fatalf("expected 12 messages, got %d", len(messages))
	}
	if messages[1].Content != "msg-20" {
		t.Errorf("window should start at msg-20, got %q", messages[1].Content)
	}
	if messages[10].Content != "msg-29" {
		t.Errorf("window should end at msg-29, got %q", messages[10].Content)
	}
}

func TestBuildDropsStoredSystemMessages(t *testing.T) {
	composer := NewComposer()
	agent := AgentDefinition{SystemPrompt: "fresh grounding"}
	session := &SessionContext{
		ConversationHistory: []Message{
			{Role: RoleSystem, Content: "stale grounding"},
			{Role: RoleUser, Content: "Oi"},
		},
	}

	messages := composer.Build(agent, session, "current")

	for _, msg := range messages[1:] {
		if msg.Role == RoleSystem {
			t.Fatalf("stored system message leaked into the window: %q", msg.Content)
		}
	}
	if strings.Contains(messages[0].Content, "stale grounding") {
		t.Error("system prompt must be rebuilt, not replayed from history")
	}
}

func TestSystemPromptContexts(t *testing.T) {
	fixed := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	composer := NewComposerWithClock(func() time.Time { return fixed })

	agent := AgentDefinition{SystemPrompt: "You are a booking assistant."}
	session := &SessionContext{
		TenantConfig: &TenantConfig{
			BusinessName: "Studio Bela",
			Domain:       "beauty",
			Services: []ServiceInfo{
				{ID: "svc-1", Name: "Corte"},
				{ID: "svc-2", Name: "Coloração"},
			},
			BusinessHours: BusinessHours{Timezone: "America/Sao_Paulo"},
			AISettings:    AISettings{GreetingMessage: "Bem-vinda ao Studio Bela!"},
		},
		UserProfile: &UserProfile{
			Name:                 "Maria Silva",
			PreferredName:        "Maria",
			Language:             "pt-BR",
			Timezone:             "America/Sao_Paulo",
			PreviousAppointments: 4,
		},
	}

	prompt := composer.Build(agent, session, "Oi")[0].Content

	for _, want := range []string{
		"BUSINESS CONTEXT:",
		"Studio Bela",
		"Corte, Coloração",
		"Bem-vinda ao Studio Bela!",
		"USER CONTEXT:",
		"- Name: Maria",
		"- Previous appointments: 4",
		"TEMPORAL CONTEXT:",
		"America/Sao_Paulo",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}

	// São Paulo is UTC-3, so noon UTC renders as 09:00 local.
	if !strings.Contains(prompt, "09:00") {
		t.Errorf("temporal context not rendered in tenant timezone:\n%s", prompt)
	}
}

func TestSystemPromptWithoutProfiles(t *testing.T) {
	fixed := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	composer := NewComposerWithClock(func() time.Time { return fixed })

	prompt := composer.Build(AgentDefinition{SystemPrompt: "base"}, &SessionContext{}, "Oi")[0].Content

	if strings.Contains(prompt, "BUSINESS CONTEXT") {
		t.Error("business context must be omitted without tenant config")
	}
	if strings.Contains(prompt, "USER CONTEXT") {
		t.Error("user context must be omitted without a profile")
	}
	if !strings.Contains(prompt, fallbackTimezone) {
		t.Errorf("temporal context must fall back to %s", fallbackTimezone)
	}
}
