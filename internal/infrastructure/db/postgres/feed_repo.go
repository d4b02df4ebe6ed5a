package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// ListPosts returns posts newest first with the author's id and username
// joined in. Authors without a profile row come back with Author nil.
func (r *PostRepo) ListPosts(ctx context.Context, q feed.Query, offset, limit int) ([]*domain.FeedPost, error) {
	var authorFilter *string
	if q.Scope == feed.ScopeAuthor {
		authorFilter = &q.AuthorID
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.author_id, p.title, p.description, p.image_url,
		       COALESCE(p.collection_id, ''), p.like_count, p.comment_count, p.created_at,
		       pr.username
		FROM feed_posts p
		LEFT JOIN profiles pr ON pr.id = p.author_id
		WHERE ($1::text IS NULL OR p.author_id = $1)
		ORDER BY p.created_at DESC, p.id DESC
		OFFSET $2
		LIMIT $3
	`, authorFilter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeedPost
	for rows.Next() {
		var p domain.FeedPost
		var username *string
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.Title, &p.Description, &p.ImageURL,
			&p.CollectionID, &p.LikeCount, &p.CommentCount, &p.CreatedAt,
			&username,
		); err != nil {
			return nil, err
		}
		if username != nil {
			p.Author = &domain.AuthorProfile{ID: p.AuthorID, Username: *username}
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PostRepo) CreatePost(ctx context.Context, p *domain.FeedPost) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO feed_posts (id, author_id, title, description, image_url, collection_id, like_count, comment_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7)
	`, p.ID, p.AuthorID, p.Title, p.Description, p.ImageURL, nullIfEmpty(p.CollectionID), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// LikePost records one like per (post, profile) and keeps like_count in step.
func (r *PostRepo) LikePost(ctx context.Context, postID, profileID string) (int, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return 0, domain.ErrNotFound("post not found")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	err = tx.QueryRow(ctx, `SELECT like_count FROM feed_posts WHERE id = $1 FOR UPDATE`, postID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound("post not found")
	}
	if err != nil {
		return 0, fmt.Errorf("lock post: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO post_likes (post_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, profile_id) DO NOTHING
	`, postID, profileID)
	if err != nil {
		return 0, fmt.Errorf("insert like: %w", err)
	}
	if tag.RowsAffected() == 1 {
		if err := tx.QueryRow(ctx,
			`UPDATE feed_posts SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`,
			postID,
		).Scan(&count); err != nil {
			return 0, fmt.Errorf("bump like count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return count, nil
}

// ProfileRepo resolves author profiles in one query.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetProfiles(ctx context.Context, ids []string) (map[string]domain.AuthorProfile, error) {
	out := make(map[string]domain.AuthorProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, display_name, avatar_url, bio
		FROM profiles
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.AuthorProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

type CollectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *CollectionRepo {
	return &CollectionRepo{pool: pool}
}

func (r *CollectionRepo) GetCollections(ctx context.Context, ids []string) (map[string]domain.Collection, error) {
	out := make(map[string]domain.Collection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, item_count
		FROM collections
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get collections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.ItemCount); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}
