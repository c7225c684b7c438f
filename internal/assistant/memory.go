package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSessionTTL governs how long idle sessions are retained.
const DefaultSessionTTL = time.Hour

// SessionStore maps sessionID to SessionContext with a TTL per entry.
// Updates are whole-context replacements (last-write-wins); the store
// never mutates stored state field-by-field, so a concurrent reader can
// never observe a torn context. Cross-call serialization for one session
// is the caller's responsibility.
type SessionStore interface {
	// GetOrCreate returns the stored context or a fresh empty one.
	GetOrCreate(ctx context.Context, sessionID string) (*SessionContext, error)
	// Get returns the stored context, or nil when absent or expired.
	Get(ctx context.Context, sessionID string) (*SessionContext, error)
	// Update atomically replaces the stored context and refreshes its TTL.
	Update(ctx context.Context, session *SessionContext) error
	Close() error
}

func newSessionContext(sessionID string) *SessionContext {
	return &SessionContext{
		SessionID:           sessionID,
		ConversationHistory: []Message{},
	}
}

// memorySessionStore keeps sessions in-process. Suitable for development
// and tests; production uses the Redis store.
type memorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-process session store.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &memorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *memorySessionStore) GetOrCreate(ctx context.Context, sessionID string) (*SessionContext, error) {
	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return newSessionContext(sessionID), nil
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (*SessionContext, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}

	var session SessionContext
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("assistant: failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *memorySessionStore) Update(_ context.Context, session *SessionContext) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("assistant: session id is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("assistant: failed to encode session: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.SessionID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memorySessionStore) Close() error { return nil }

// redisSessionStore persists sessions in Redis with a TTL refreshed on
// every update.
type redisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) SessionStore {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("agendia.internal.assistant.sessions")
	}
	return &redisSessionStore{redis: client, ttl: ttl, tracer: tracer}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *redisSessionStore) GetOrCreate(ctx context.Context, sessionID string) (*SessionContext, error) {
	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return newSessionContext(sessionID), nil
}

func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (*SessionContext, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: failed to load session: %w", err)
	}

	var session SessionContext
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) Update(ctx context.Context, session *SessionContext) error {
	ctx, span := s.tracer.Start(ctx, "assistant.save_session")
	defer span.End()

	if session == nil || session.SessionID == "" {
		return fmt.Errorf("assistant: session id is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to persist session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Close() error {
	return s.redis.Close()
}
