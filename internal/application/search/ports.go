package search

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// Provider is one upstream product source.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]domain.CandidateProduct, error)
}

type SnapshotReader interface {
	Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}

// ImageStore keeps uploaded images and hands back a short-lived GET url.
type ImageStore interface {
	PutImage(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// VisionModel turns an image into a short product search phrase.
type VisionModel interface {
	SearchPhrase(ctx context.Context, imageURL string) (string, error)
}
