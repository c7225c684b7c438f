package assistant

import (
	"fmt"
	"strings"
	"time"
)

// fallbackTimezone anchors temporal context when the tenant has none.
const fallbackTimezone = "America/Sao_Paulo"

const historyWindow = 10

// Composer assembles the ordered message list for the main completion
// call: fresh system grounding first, then a trimmed history window, then
// the current user message. The clock is injectable for deterministic
// tests.
type Composer struct {
	now func() time.Time
}

// NewComposer builds a composer on the real clock.
func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// NewComposerWithClock builds a composer with an injected clock.
func NewComposerWithClock(now func() time.Time) *Composer {
	if now == nil {
		now = time.Now
	}
	return &Composer{now: now}
}

// Build returns the message list for one completion call. History is
// capped at the last 10 non-system entries so a long-running session
// cannot crowd out the system grounding.
func (c *Composer) Build(agent AgentDefinition, session *SessionContext, userMessage string) []ChatMessage {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: c.systemPrompt(agent, session)},
	}

	history := session.ConversationHistory
	nonSystem := make([]Message, 0, len(history))
	for _, msg := range history {
		if msg.Role != RoleSystem {
			nonSystem = append(nonSystem, msg)
		}
	}
	if len(nonSystem) > historyWindow {
		nonSystem = nonSystem[len(nonSystem)-historyWindow:]
	}
	for _, msg := range nonSystem {
		messages = append(messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	messages = append(messages, ChatMessage{Role: RoleUser, Content: userMessage})
	return messages
}

func (c *Composer) systemPrompt(agent AgentDefinition, session *SessionContext) string {
	var b strings.Builder
	b.WriteString(agent.SystemPrompt)

	tenant := session.TenantConfig
	if tenant != nil {
		names := make([]string, 0, len(tenant.Services))
		for _, svc := range tenant.Services {
			names = append(names, svc.Name)
		}
		fmt.Fprintf(&b, "\n\nBUSINESS CONTEXT:\n- Name: %s\n- Domain: %s\n- Available services: %s",
			tenant.BusinessName, tenant.Domain, strings.Join(names, ", "))
		if tenant.AISettings.GreetingMessage != "" {
			fmt.Fprintf(&b, "\n- Standard greeting: %s", tenant.AISettings.GreetingMessage)
		}
	}

	if user := session.UserProfile; user != nil {
		name := user.PreferredName
		if name == "" {
			name = user.Name
		}
		if name == "" {
			name = "not provided"
		}
		fmt.Fprintf(&b, "\n\nUSER CONTEXT:\n- Name: %s\n- Previous appointments: %d\n- Language: %s\n- Timezone: %s",
			name, user.PreviousAppointments, user.Language, user.Timezone)
	}

	tz := fallbackTimezone
	if tenant != nil && tenant.BusinessHours.Timezone != "" {
		tz = tenant.BusinessHours.Timezone
	}
	now := c.now()
	if loc, err := time.LoadLocation(tz); err == nil {
		now = now.In(loc)
	}
	fmt.Fprintf(&b, "\n\nTEMPORAL CONTEXT:\n- Current date/time: %s\n- Business timezone: %s",
		now.Format("Monday, 02 Jan 2006 15:04"), tz)

	return b.String()
}
