package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type SavedItemRepo struct {
	pool *pgxpool.Pool
}

func NewSavedItemRepo(pool *pgxpool.Pool) *SavedItemRepo {
	return &SavedItemRepo{pool: pool}
}

func (r *SavedItemRepo) Save(ctx context.Context, item domain.SavedItem) error {
	var product []byte
	if item.Product != nil {
		b, err := json.Marshal(item.Product)
		if err != nil {
			return fmt.Errorf("marshal product snapshot: %w", err)
		}
		product = b
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_items (actor_key, product_id, product, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (actor_key, product_id) DO NOTHING
	`, item.ActorKey, item.ProductID, product, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

func (r *SavedItemRepo) Remove(ctx context.Context, actorKey, productID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_items WHERE actor_key = $1 AND product_id = $2`, actorKey, productID)
	if err != nil {
		return fmt.Errorf("remove saved item: %w", err)
	}
	return nil
}

func (r *SavedItemRepo) ListByActor(ctx context.Context, actorKey string, limit int) ([]domain.SavedItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT actor_key, product_id, product, created_at
		FROM saved_items
		WHERE actor_key = $1
		ORDER BY created_at DESC, product_id
		LIMIT $2
	`, actorKey, limit)
	if err != nil {
		return nil, fmt.Errorf("list saved items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SavedItem, 0)
	for rows.Next() {
		var it domain.SavedItem
		var product []byte
		if err := rows.Scan(&it.ActorKey, &it.ProductID, &product, &it.CreatedAt); err != nil {
			return nil, err
		}
		if len(product) > 0 {
			var snap domain.ProductSnapshot
			if err := json.Unmarshal(product, &snap); err != nil {
				return nil, fmt.Errorf("decode product snapshot: %w", err)
			}
			it.Product = &snap
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type OutcomeRepo struct {
	pool *pgxpool.Pool
}

func NewOutcomeRepo(pool *pgxpool.Pool) *OutcomeRepo {
	return &OutcomeRepo{pool: pool}
}

func (r *OutcomeRepo) Upsert(ctx context.Context, o domain.RecommendationOutcome) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO recommendation_outcomes (profile_id, product_id, impression_id, outcome, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, product_id) DO UPDATE
		SET impression_id = EXCLUDED.impression_id,
		    outcome       = EXCLUDED.outcome,
		    updated_at    = EXCLUDED.updated_at
	`, o.ProfileID, o.ProductID, o.ImpressionID, o.Outcome, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert outcome: %w", err)
	}
	return nil
}
