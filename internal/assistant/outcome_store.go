package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// OutcomeDB is the subset of pgxpool.Pool the store needs.
type OutcomeDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGOutcomeStore persists turn outcomes to PostgreSQL for analytics.
type PGOutcomeStore struct {
	db OutcomeDB
}

// NewPGOutcomeStore builds a Postgres-backed outcome recorder.
func NewPGOutcomeStore(db OutcomeDB) *PGOutcomeStore {
	if db == nil {
		panic("assistant: pgx pool cannot be nil")
	}
	return &PGOutcomeStore{db: db}
}

var _ OutcomeRecorder = (*PGOutcomeStore)(nil)

// RecordOutcome inserts one turn outcome row.
func (s *PGOutcomeStore) RecordOutcome(ctx context.Context, rec OutcomeRecord) error {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO turn_outcomes (
			conversation_id, tenant_id, user_id, phone_number,
			message, intent, confidence, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, rec.ConversationID, rec.TenantID, rec.UserID, rec.PhoneNumber,
		rec.Message, rec.Intent, rec.Confidence, time.Now().UTC()); err != nil {
		return fmt.Errorf("assistant: failed to record outcome: %w", err)
	}
	return nil
}
