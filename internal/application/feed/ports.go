package feed

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type PostRepo interface {
	// ListPosts returns full posts for the query, newest first. Author may be
	// filled with at least id and username.
	ListPosts(ctx context.Context, q Query, offset, limit int) ([]*domain.FeedPost, error)
	CreatePost(ctx context.Context, p *domain.FeedPost) error
	// LikePost records the like once per profile and returns the new count.
	// Unknown posts yield not_found.
	LikePost(ctx context.Context, postID, profileID string) (int, error)
}

// ProfileLookup and CollectionLookup resolve many ids in one query.
type ProfileLookup interface {
	GetProfiles(ctx context.Context, ids []string) (map[string]domain.AuthorProfile, error)
}

type CollectionLookup interface {
	GetCollections(ctx context.Context, ids []string) (map[string]domain.Collection, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}
