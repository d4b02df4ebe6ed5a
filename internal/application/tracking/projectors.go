package tracking

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// SavedItemsProjector mirrors save/unsave interactions into the saved-items
// collection. Anonymous actors keep their saves under the anon actor key.
type SavedItemsProjector struct {
	repo SavedItemRepo
}

func NewSavedItemsProjector(repo SavedItemRepo) *SavedItemsProjector {
	return &SavedItemsProjector{repo: repo}
}

func (p *SavedItemsProjector) Name() string { return "saved_items" }

func (p *SavedItemsProjector) Handle(ctx context.Context, e *domain.InteractionEvent) error {
	if e.ProductID == "" {
		return nil
	}
	switch e.Action {
	case domain.ActionSave:
		var snap *domain.ProductSnapshot
		if sp, ok := e.Payload.(domain.SavePayload); ok && sp.Product != nil {
			cp := *sp.Product
			if cp.ID == "" {
				cp.ID = e.ProductID
			}
			snap = &cp
		}
		return p.repo.Save(ctx, domain.SavedItem{
			ActorKey:  e.Actor.Key(),
			ProductID: e.ProductID,
			Product:   snap,
			CreatedAt: e.CreatedAt,
		})
	case domain.ActionUnsave:
		return p.repo.Remove(ctx, e.Actor.Key(), e.ProductID)
	default:
		return nil
	}
}

// OutcomeProjector keeps the latest outcome of a recommended product per
// profile so recommendation quality can be measured without replaying events.
type OutcomeProjector struct {
	repo OutcomeRepo
}

func NewOutcomeProjector(repo OutcomeRepo) *OutcomeProjector {
	return &OutcomeProjector{repo: repo}
}

func (p *OutcomeProjector) Name() string { return "recommendation_outcomes" }

func (p *OutcomeProjector) Handle(ctx context.Context, e *domain.InteractionEvent) error {
	if e.ImpressionID == "" || e.ProductID == "" || !e.Actor.IsProfile() {
		return nil
	}
	label, ok := e.Action.OutcomeLabel()
	if !ok {
		return nil
	}
	return p.repo.Upsert(ctx, domain.RecommendationOutcome{
		ProfileID:    e.Actor.ProfileID,
		ProductID:    e.ProductID,
		ImpressionID: e.ImpressionID,
		Outcome:      label,
		UpdatedAt:    e.CreatedAt,
	})
}

// CatalogProjector copies the product snapshot of a save into the catalog so
// the aggregator can resolve the product's brand, category and price.
type CatalogProjector struct {
	repo CatalogRepo
}

func NewCatalogProjector(repo CatalogRepo) *CatalogProjector {
	return &CatalogProjector{repo: repo}
}

func (p *CatalogProjector) Name() string { return "product_catalog" }

func (p *CatalogProjector) Handle(ctx context.Context, e *domain.InteractionEvent) error {
	if e.Action != domain.ActionSave || e.ProductID == "" {
		return nil
	}
	sp, ok := e.Payload.(domain.SavePayload)
	if !ok || sp.Product == nil || sp.Product.Title == "" {
		return nil
	}
	prod := domain.Product{
		ID:       e.ProductID,
		Title:    sp.Product.Title,
		Brand:    sp.Product.Brand,
		Category: sp.Product.Category,
		ImageURL: sp.Product.ImageURL,
	}
	// zero means the client did not know the price
	if sp.Product.Price > 0 {
		price := sp.Product.Price
		prod.Price = &price
	}
	return p.repo.UpsertProducts(ctx, []domain.Product{prod})
}
