package tenancy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/agendia/booking-ai-platform/internal/assistant"
)

// DefaultCacheTTL bounds how long tenant rows are served from memory.
const DefaultCacheTTL = 5 * time.Minute

// SupabaseSource loads tenant configuration and user profiles from
// Supabase, with a small read-through cache in front of the tenants
// table. Tenant rows change rarely; profile rows are fetched fresh.
type SupabaseSource struct {
	client   *supabase.Client
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]tenantCacheEntry
}

type tenantCacheEntry struct {
	config    *assistant.TenantConfig
	expiresAt time.Time
}

// tenantRow mirrors the tenants table.
type tenantRow struct {
	ID            string                  `json:"id"`
	BusinessName  string                  `json:"business_name"`
	Domain        string                  `json:"domain"`
	Services      []assistant.ServiceInfo `json:"services"`
	BusinessHours assistant.BusinessHours `json:"business_hours"`
	AISettings    assistant.AISettings    `json:"ai_settings"`
}

// profileRow mirrors the user_profiles table.
type profileRow struct {
	TenantID             string `json:"tenant_id"`
	UserID               string `json:"user_id"`
	Name                 string `json:"name"`
	PreferredName        string `json:"preferred_name"`
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
	PreviousAppointments int    `json:"previous_appointments"`
}

// NewSupabaseSource creates a tenant source backed by Supabase.
func NewSupabaseSource(url, apiKey string, cacheTTL time.Duration) (*SupabaseSource, error) {
	if url == "" {
		return nil, fmt.Errorf("tenancy: supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("tenancy: supabase API key is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("tenancy: failed to create supabase client: %w", err)
	}

	return &SupabaseSource{
		client:   client,
		cacheTTL: cacheTTL,
		cache:    make(map[string]tenantCacheEntry),
	}, nil
}

// TenantConfig returns the tenant's assistant configuration.
func (s *SupabaseSource) TenantConfig(ctx context.Context, tenantID string) (*assistant.TenantConfig, error) {
	if cached := s.cached(tenantID); cached != nil {
		return cached, nil
	}

	var row tenantRow
	_, err := s.client.From("tenants").
		Select("*", "", false).
		Eq("id", tenantID).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, fmt.Errorf("tenancy: failed to load tenant %s: %w", tenantID, err)
	}

	cfg := &assistant.TenantConfig{
		TenantID:      row.ID,
		BusinessName:  row.BusinessName,
		Domain:        row.Domain,
		Services:      row.Services,
		BusinessHours: row.BusinessHours,
		AISettings:    row.AISettings,
	}

	s.store(tenantID, cfg)
	return cfg, nil
}

// UserProfile returns the user's profile for personalization, or nil
// when the user has no stored profile yet.
func (s *SupabaseSource) UserProfile(ctx context.Context, tenantID, userID string) (*assistant.UserProfile, error) {
	var rows []profileRow
	_, err := s.client.From("user_profiles").
		Select("*", "", false).
		Eq("tenant_id", tenantID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("tenancy: failed to load profile for %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &assistant.UserProfile{
		Name:                 row.Name,
		PreferredName:        row.PreferredName,
		Language:             row.Language,
		Timezone:             row.Timezone,
		PreviousAppointments: row.PreviousAppointments,
	}, nil
}

func (s *SupabaseSource) cached(tenantID string) *assistant.TenantConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[tenantID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.config
}

func (s *SupabaseSource) store(tenantID string, cfg *assistant.TenantConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[tenantID] = tenantCacheEntry{
		config:    cfg,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
}
