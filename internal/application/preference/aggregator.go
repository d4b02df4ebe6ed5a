package preference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/tracing"
)

const (
	// Window bounds the scan; older events are excluded, not decayed.
	Window    = 30 * 24 * time.Hour
	MaxEvents = 500
)

type Aggregator struct {
	events    EventReader
	catalog   ProductCatalog
	snapshots SnapshotRepo
	clock     Clock
}

func NewAggregator(events EventReader, catalog ProductCatalog, snapshots SnapshotRepo, clock Clock) *Aggregator {
	return &Aggregator{
		events:    events,
		catalog:   catalog,
		snapshots: snapshots,
		clock:     clock,
	}
}

// Aggregate rebuilds the profile's snapshot from its recent click, save and
// like events. Any datastore failure aborts before the single upsert.
func (a *Aggregator) Aggregate(ctx context.Context, profileID string) (snap *domain.PreferenceSnapshot, err error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, domain.ErrValidation("profile_id is required")
	}

	ctx, span := tracing.StartSpan(ctx, "preference.aggregate", attribute.String("profile_id", profileID))
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.AggregationRun(err == nil, time.Since(start).Seconds())
	}()

	now := a.clock.Now().UTC()
	events, err := a.events.ListScoringEvents(ctx, profileID, domain.ScoringActions, now.Add(-Window), MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("load scoring events: %w", err)
	}

	products := map[string]domain.Product{}
	if ids := productIDs(events); len(ids) > 0 {
		products, err = a.catalog.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve products: %w", err)
		}
	}

	brands := newScoreBoard()
	categories := newScoreBoard()
	var prices []float64
	for _, e := range events {
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}
		w := recencyWeight(now, e.CreatedAt) * e.Action.ScoringWeight()
		brands.add(strings.TrimSpace(p.Brand), w)
		categories.add(strings.TrimSpace(p.Category), w)
		if p.Price != nil {
			prices = append(prices, *p.Price)
		}
	}

	lo, hi := priceBand(prices)
	stored, err := a.snapshots.UpsertAggregate(ctx, &domain.PreferenceSnapshot{
		ProfileID:          profileID,
		FavoriteBrands:     brands.top(domain.MaxFavoriteBrands),
		FavoriteCategories: categories.top(domain.MaxFavoriteCategories),
		PriceMin:           lo,
		PriceMax:           hi,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Str("profile_id", profileID).
		Int("events", len(events)).
		Int("resolved_products", len(products)).
		Int("prices", len(prices)).
		Msg("preference snapshot aggregated")
	return stored, nil
}

// Get returns the stored snapshot, or not_found.
func (a *Aggregator) Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, domain.ErrValidation("profile_id is required")
	}
	return a.snapshots.Get(ctx, profileID)
}

type RunSummary struct {
	Profiles  int
	Succeeded int
	Failed    int
}

// RunActive aggregates every profile with scoring activity since the given
// time. A failing profile is logged and the run moves on.
func (a *Aggregator) RunActive(ctx context.Context, since time.Time) (RunSummary, error) {
	var sum RunSummary
	profiles, err := a.events.ListActiveProfiles(ctx, domain.ScoringActions, since)
	if err != nil {
		return sum, fmt.Errorf("list active profiles: %w", err)
	}
	sum.Profiles = len(profiles)

	for _, id := range profiles {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if _, err := a.Aggregate(ctx, id); err != nil {
			sum.Failed++
			logger.Ctx(ctx).Error().Err(err).Str("profile_id", id).Msg("aggregate profile failed")
			continue
		}
		sum.Succeeded++
	}
	return sum, nil
}

func productIDs(events []ScoringEvent) []string {
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if e.ProductID == "" {
			continue
		}
		if _, ok := seen[e.ProductID]; ok {
			continue
		}
		seen[e.ProductID] = struct{}{}
		ids = append(ids, e.ProductID)
	}
	return ids
}
