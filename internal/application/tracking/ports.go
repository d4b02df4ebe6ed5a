package tracking

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// EventRepo is the append-only interaction log.
type EventRepo interface {
	Append(ctx context.Context, e *domain.InteractionEvent) error
}

type SavedItemRepo interface {
	// Save is a no-op when (actor, product) is already saved.
	Save(ctx context.Context, item domain.SavedItem) error
	// Remove is a no-op when nothing is saved.
	Remove(ctx context.Context, actorKey, productID string) error
	ListByActor(ctx context.Context, actorKey string, limit int) ([]domain.SavedItem, error)
}

type OutcomeRepo interface {
	Upsert(ctx context.Context, o domain.RecommendationOutcome) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey string, payload any) error
}

// CatalogRepo receives product details clients attach to saves.
type CatalogRepo interface {
	UpsertProducts(ctx context.Context, products []domain.Product) error
}
