package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

const snapshotColumns = `profile_id, favorite_brands, favorite_categories, price_min, price_max, chat_keywords, updated_at`

// SnapshotRepo stores one preference row per profile. The aggregated
// columns and chat_keywords have separate writers.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

func (r *SnapshotRepo) Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM preference_snapshots WHERE profile_id = $1`, profileID)
	s, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("preferences not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

func (r *SnapshotRepo) UpsertAggregate(ctx context.Context, s *domain.PreferenceSnapshot) (*domain.PreferenceSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO preference_snapshots
			(profile_id, favorite_brands, favorite_categories, price_min, price_max, chat_keywords, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6)
		ON CONFLICT (profile_id) DO UPDATE
		SET favorite_brands     = EXCLUDED.favorite_brands,
		    favorite_categories = EXCLUDED.favorite_categories,
		    price_min           = EXCLUDED.price_min,
		    price_max           = EXCLUDED.price_max,
		    updated_at          = EXCLUDED.updated_at
		RETURNING `+snapshotColumns,
		s.ProfileID, nonNil(s.FavoriteBrands), nonNil(s.FavoriteCategories), s.PriceMin, s.PriceMax, s.UpdatedAt)
	out, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}
	return out, nil
}

func (r *SnapshotRepo) UpdateChatKeywords(ctx context.Context, profileID string, update func(existing []string) []string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO preference_snapshots (profile_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (profile_id) DO NOTHING
	`, profileID, at); err != nil {
		return fmt.Errorf("ensure snapshot row: %w", err)
	}

	var existing []string
	if err := tx.QueryRow(ctx,
		`SELECT chat_keywords FROM preference_snapshots WHERE profile_id = $1 FOR UPDATE`,
		profileID,
	).Scan(&existing); err != nil {
		return fmt.Errorf("lock snapshot row: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE preference_snapshots
		SET chat_keywords = $2,
		    updated_at    = GREATEST(updated_at, $3)
		WHERE profile_id = $1
	`, profileID, nonNil(update(existing)), at); err != nil {
		return fmt.Errorf("update chat keywords: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*domain.PreferenceSnapshot, error) {
	var s domain.PreferenceSnapshot
	if err := row.Scan(
		&s.ProfileID, &s.FavoriteBrands, &s.FavoriteCategories,
		&s.PriceMin, &s.PriceMax, &s.ChatKeywords, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// ProductRepo is the catalog the aggregator resolves product ids against.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, brand, category, price, image_url
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Brand, &p.Category, &p.Price, &p.ImageURL); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// UpsertProducts writes catalog rows in one batch.
func (r *ProductRepo) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (id, title, brand, category, price, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title,
			    brand = EXCLUDED.brand,
			    category = EXCLUDED.category,
			    price = EXCLUDED.price,
			    image_url = EXCLUDED.image_url
		`, p.ID, p.Title, p.Brand, p.Category, p.Price, p.ImageURL)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range products {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}
	}
	return nil
}
