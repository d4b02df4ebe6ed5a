package preference

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// ScoringEvent is the slice of an interaction the aggregator needs.
type ScoringEvent struct {
	ProductID string
	Action    domain.Action
	CreatedAt time.Time
}

type EventReader interface {
	// ListScoringEvents returns the profile's events with one of actions and
	// created_at >= since, newest first, at most limit rows.
	ListScoringEvents(ctx context.Context, profileID string, actions []domain.Action, since time.Time, limit int) ([]ScoringEvent, error)
	// ListActiveProfiles returns profiles with at least one such event since.
	ListActiveProfiles(ctx context.Context, actions []domain.Action, since time.Time) ([]string, error)
}

type ProductCatalog interface {
	// GetByIDs resolves ids in one round trip. Unknown ids are absent from
	// the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type SnapshotRepo interface {
	Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error)
	// UpsertAggregate replaces the aggregated columns of the profile's row
	// and leaves chat_keywords untouched. It returns the stored row.
	UpsertAggregate(ctx context.Context, s *domain.PreferenceSnapshot) (*domain.PreferenceSnapshot, error)
	// UpdateChatKeywords applies update to the stored keywords atomically,
	// creating the row if needed.
	UpdateChatKeywords(ctx context.Context, profileID string, update func(existing []string) []string, at time.Time) error
}
