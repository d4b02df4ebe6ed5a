package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/preference"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// EventRepo is the append-only interaction log.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Append(ctx context.Context, e *domain.InteractionEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO interaction_events
			(id, actor_key, profile_id, anon_id, action, product_id, session_id, impression_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.Actor.Key(), nullIfEmpty(e.Actor.ProfileID), nullIfEmpty(e.Actor.AnonID), string(e.Action),
		nullIfEmpty(e.ProductID), nullIfEmpty(e.SessionID), nullIfEmpty(e.ImpressionID), payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *EventRepo) ListScoringEvents(ctx context.Context, profileID string, actions []domain.Action, since time.Time, limit int) ([]preference.ScoringEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, action, created_at
		FROM interaction_events
		WHERE profile_id = $1
		  AND action = ANY($2)
		  AND created_at >= $3
		  AND product_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $4
	`, profileID, domain.ActionStrings(actions), since, limit)
	if err != nil {
		return nil, fmt.Errorf("list scoring events: %w", err)
	}
	defer rows.Close()

	var out []preference.ScoringEvent
	for rows.Next() {
		var e preference.ScoringEvent
		var action string
		if err := rows.Scan(&e.ProductID, &action, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = domain.Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) ListActiveProfiles(ctx context.Context, actions []domain.Action, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT profile_id
		FROM interaction_events
		WHERE profile_id IS NOT NULL
		  AND action = ANY($1)
		  AND created_at >= $2
		ORDER BY profile_id
	`, domain.ActionStrings(actions), since)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
