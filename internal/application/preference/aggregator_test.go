package preference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// --- Mocks & Helpers ---

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return now.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

type memEvents struct {
	byProfile map[string][]ScoringEvent
	active    []string
	err       error

	gotSince   time.Time
	gotLimit   int
	gotActions []domain.Action
}

func (m *memEvents) ListScoringEvents(ctx context.Context, profileID string, actions []domain.Action, since time.Time, limit int) ([]ScoringEvent, error) {
	m.gotSince, m.gotLimit, m.gotActions = since, limit, actions
	if m.err != nil {
		return nil, m.err
	}
	return m.byProfile[profileID], nil
}

func (m *memEvents) ListActiveProfiles(ctx context.Context, actions []domain.Action, since time.Time) ([]string, error) {
	return m.active, m.err
}

type memCatalog struct {
	products map[string]domain.Product
	err      error
	calls    int
}

func (m *memCatalog) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memSnapshots struct {
	rows    map[string]*domain.PreferenceSnapshot
	upserts int
	err     error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{rows: map[string]*domain.PreferenceSnapshot{}}
}

func (m *memSnapshots) Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error) {
	s, ok := m.rows[profileID]
	if !ok {
		return nil, domain.ErrNotFound("preference snapshot not found")
	}
	cp := *s
	return &cp, nil
}

func (m *memSnapshots) UpsertAggregate(ctx context.Context, s *domain.PreferenceSnapshot) (*domain.PreferenceSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.upserts++
	cp := *s
	if prev, ok := m.rows[s.ProfileID]; ok {
		cp.ChatKeywords = prev.ChatKeywords
	}
	if cp.ChatKeywords == nil {
		cp.ChatKeywords = []string{}
	}
	m.rows[s.ProfileID] = &cp
	out := cp
	return &out, nil
}

func (m *memSnapshots) UpdateChatKeywords(ctx context.Context, profileID string, update func([]string) []string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	s, ok := m.rows[profileID]
	if !ok {
		s = &domain.PreferenceSnapshot{ProfileID: profileID}
		m.rows[profileID] = s
	}
	s.ChatKeywords = update(s.ChatKeywords)
	s.UpdatedAt = at
	return nil
}

func price(v float64) *float64 { return &v }

func product(id, brand, category string, p *float64) domain.Product {
	return domain.Product{ID: id, Title: id, Brand: brand, Category: category, Price: p}
}

func newAggregator(ev *memEvents, cat *memCatalog, snaps *memSnapshots) *Aggregator {
	return NewAggregator(ev, cat, snaps, fakeClock{t: now})
}

// --- Test Cases ---

func TestRecencyWeight(t *testing.T) {
	fresh := recencyWeight(now, now)
	old := recencyWeight(now, daysAgo(14))

	assert.Equal(t, 1.0, fresh)
	assert.InDelta(t, math.Exp(-2), old/fresh, 1e-9)
	assert.Less(t, old, fresh)
	assert.InDelta(t, math.Exp(-0.5), recencyWeight(now, daysAgo(3.5)), 1e-9)
	assert.Equal(t, 1.0, recencyWeight(now, now.Add(time.Hour)))
}

func TestPriceBand(t *testing.T) {
	t.Run("index_formula", func(t *testing.T) {
		lo, hi := priceBand([]float64{40, 10, 30, 20})
		require.NotNil(t, lo)
		require.NotNil(t, hi)
		assert.Equal(t, 20.0, *lo)
		assert.Equal(t, 40.0, *hi)
	})

	t.Run("single_price", func(t *testing.T) {
		lo, hi := priceBand([]float64{55})
		assert.Equal(t, 55.0, *lo)
		assert.Equal(t, 55.0, *hi)
	})

	t.Run("no_prices", func(t *testing.T) {
		lo, hi := priceBand(nil)
		assert.Nil(t, lo)
		assert.Nil(t, hi)
	})

	t.Run("does_not_reorder_input", func(t *testing.T) {
		in := []float64{3, 1, 2}
		priceBand(in)
		assert.Equal(t, []float64{3, 1, 2}, in)
	})
}

func TestScoreBoard_TiesKeepFirstSeen(t *testing.T) {
	b := newScoreBoard()
	b.add("Arket", 1)
	b.add("COS", 1)
	b.add("Acne", 2)
	b.add("", 5)
	assert.Equal(t, []string{"Acne", "Arket", "COS"}, b.top(5))
	assert.Equal(t, []string{"Acne"}, b.top(1))
}

func TestAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("queries_window_limit_and_scoring_actions", func(t *testing.T) {
		ev := &memEvents{}
		agg := newAggregator(ev, &memCatalog{}, newMemSnapshots())

		_, err := agg.Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, now.Add(-30*24*time.Hour), ev.gotSince)
		assert.Equal(t, 500, ev.gotLimit)
		assert.ElementsMatch(t, []domain.Action{domain.ActionClick, domain.ActionSave, domain.ActionLike}, ev.gotActions)
	})

	t.Run("save_outweighs_click_three_to_one", func(t *testing.T) {
		// two clicks on COS do not beat one save on Arket; three would tie and
		// first-seen order would decide.
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "cos-1", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "cos-2", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "arket-1", Action: domain.ActionSave, CreatedAt: now},
		}}}
		cat := &memCatalog{products: map[string]domain.Product{
			"cos-1":   product("cos-1", "COS", "shirts", nil),
			"cos-2":   product("cos-2", "COS", "shirts", nil),
			"arket-1": product("arket-1", "Arket", "coats", nil),
		}}
		snap, err := newAggregator(ev, cat, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Arket", "COS"}, snap.FavoriteBrands)
		assert.Equal(t, []string{"coats", "shirts"}, snap.FavoriteCategories)
	})

	t.Run("older_events_count_less", func(t *testing.T) {
		// a save 14 days ago weighs 3*e^-2 ~ 0.41, less than a click today
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "cos-1", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "arket-1", Action: domain.ActionSave, CreatedAt: daysAgo(14)},
		}}}
		cat := &memCatalog{products: map[string]domain.Product{
			"cos-1":   product("cos-1", "COS", "shirts", nil),
			"arket-1": product("arket-1", "Arket", "coats", nil),
		}}
		snap, err := newAggregator(ev, cat, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"COS", "Arket"}, snap.FavoriteBrands)
	})

	t.Run("skips_unresolved_products_and_batches_lookup", func(t *testing.T) {
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "gone", Action: domain.ActionSave, CreatedAt: now},
			{ProductID: "cos-1", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "cos-1", Action: domain.ActionLike, CreatedAt: now},
		}}}
		cat := &memCatalog{products: map[string]domain.Product{
			"cos-1": product("cos-1", "COS", "shirts", price(45)),
		}}
		snap, err := newAggregator(ev, cat, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, cat.calls)
		assert.Equal(t, []string{"COS"}, snap.FavoriteBrands)
		assert.Equal(t, 45.0, *snap.PriceMin)
		assert.Equal(t, 45.0, *snap.PriceMax)
	})

	t.Run("price_band_from_resolved_prices", func(t *testing.T) {
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "a", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "b", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "c", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "d", Action: domain.ActionClick, CreatedAt: now},
			{ProductID: "e", Action: domain.ActionClick, CreatedAt: now},
		}}}
		cat := &memCatalog{products: map[string]domain.Product{
			"a": product("a", "X", "y", price(30)),
			"b": product("b", "X", "y", price(10)),
			"c": product("c", "X", "y", price(40)),
			"d": product("d", "X", "y", price(20)),
			"e": product("e", "X", "y", nil),
		}}
		snap, err := newAggregator(ev, cat, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 20.0, *snap.PriceMin)
		assert.Equal(t, 40.0, *snap.PriceMax)
	})

	t.Run("no_prices_leaves_band_null", func(t *testing.T) {
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "a", Action: domain.ActionClick, CreatedAt: now},
		}}}
		cat := &memCatalog{products: map[string]domain.Product{"a": product("a", "X", "y", nil)}}
		snap, err := newAggregator(ev, cat, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, snap.PriceMin)
		assert.Nil(t, snap.PriceMax)
	})

	t.Run("caps_at_five", func(t *testing.T) {
		var events []ScoringEvent
		products := map[string]domain.Product{}
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("p%d", i)
			events = append(events, ScoringEvent{ProductID: id, Action: domain.ActionClick, CreatedAt: daysAgo(float64(i))})
			products[id] = product(id, fmt.Sprintf("brand-%d", i), fmt.Sprintf("cat-%d", i), nil)
		}
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": events}}
		snap, err := newAggregator(ev, &memCatalog{products: products}, newMemSnapshots()).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"brand-0", "brand-1", "brand-2", "brand-3", "brand-4"}, snap.FavoriteBrands)
		assert.Len(t, snap.FavoriteCategories, 5)
	})

	t.Run("preserves_chat_keywords", func(t *testing.T) {
		snaps := newMemSnapshots()
		snaps.rows["p1"] = &domain.PreferenceSnapshot{ProfileID: "p1", ChatKeywords: []string{"linen", "summer"}}

		snap, err := newAggregator(&memEvents{}, &memCatalog{}, snaps).Aggregate(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"linen", "summer"}, snap.ChatKeywords)
		assert.Empty(t, snap.FavoriteBrands)
	})

	t.Run("event_read_failure_aborts_without_write", func(t *testing.T) {
		snaps := newMemSnapshots()
		_, err := newAggregator(&memEvents{err: errors.New("db down")}, &memCatalog{}, snaps).Aggregate(ctx, "p1")
		assert.Error(t, err)
		assert.Zero(t, snaps.upserts)
	})

	t.Run("catalog_failure_aborts_without_write", func(t *testing.T) {
		ev := &memEvents{byProfile: map[string][]ScoringEvent{"p1": {
			{ProductID: "a", Action: domain.ActionClick, CreatedAt: now},
		}}}
		snaps := newMemSnapshots()
		_, err := newAggregator(ev, &memCatalog{err: errors.New("timeout")}, snaps).Aggregate(ctx, "p1")
		assert.Error(t, err)
		assert.Zero(t, snaps.upserts)
	})

	t.Run("requires_profile", func(t *testing.T) {
		_, err := newAggregator(&memEvents{}, &memCatalog{}, newMemSnapshots()).Aggregate(ctx, " ")
		assert.True(t, domain.Is(err, domain.CodeValidation))
	})
}

func TestAggregator_Get(t *testing.T) {
	snaps := newMemSnapshots()
	agg := newAggregator(&memEvents{}, &memCatalog{}, snaps)

	_, err := agg.Get(context.Background(), "p1")
	assert.True(t, domain.Is(err, domain.CodeNotFound))

	snaps.rows["p1"] = &domain.PreferenceSnapshot{ProfileID: "p1", FavoriteBrands: []string{"COS"}}
	got, err := agg.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"COS"}, got.FavoriteBrands)
}

type flakySnapshots struct {
	*memSnapshots
	failFor string
}

func (f *flakySnapshots) UpsertAggregate(ctx context.Context, s *domain.PreferenceSnapshot) (*domain.PreferenceSnapshot, error) {
	if s.ProfileID == f.failFor {
		return nil, errors.New("deadlock detected")
	}
	return f.memSnapshots.UpsertAggregate(ctx, s)
}

func TestAggregator_RunActive(t *testing.T) {
	ctx := context.Background()

	t.Run("continues_past_failing_profile", func(t *testing.T) {
		ev := &memEvents{active: []string{"p1", "p2", "p3"}}
		snaps := &flakySnapshots{memSnapshots: newMemSnapshots(), failFor: "p2"}
		agg := NewAggregator(ev, &memCatalog{}, snaps, fakeClock{t: now})

		sum, err := agg.RunActive(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, RunSummary{Profiles: 3, Succeeded: 2, Failed: 1}, sum)
		assert.Contains(t, snaps.rows, "p1")
		assert.Contains(t, snaps.rows, "p3")
	})

	t.Run("listing_failure_is_returned", func(t *testing.T) {
		agg := newAggregator(&memEvents{err: errors.New("db down")}, &memCatalog{}, newMemSnapshots())
		_, err := agg.RunActive(ctx, now.Add(-time.Hour))
		assert.Error(t, err)
	})

	t.Run("stops_on_cancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		agg := newAggregator(&memEvents{active: []string{"p1"}}, &memCatalog{}, newMemSnapshots())
		sum, err := agg.RunActive(cctx, now.Add(-time.Hour))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, sum.Succeeded)
	})
}
