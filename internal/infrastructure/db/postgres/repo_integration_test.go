//go:build integration
// +build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/migrations"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("discovery"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}
	testPool, err = NewPool(ctx, dsn, 5)
	if err != nil {
		panic(err)
	}
	if err := migrations.Run(SQLDB(testPool)); err != nil {
		panic(err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE interaction_events, saved_items, recommendation_outcomes, products,
		         preference_snapshots, profiles, collections, feed_posts, post_likes
	`)
	require.NoError(t, err)
}

func f64(v float64) *float64 { return &v }

func TestEventRepo_ScoringReads(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewEventRepo(testPool)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	add := func(profileID, action, productID string, at time.Time) {
		a, err := domain.ParseAction(action)
		require.NoError(t, err)
		ev, err := domain.NewInteractionEvent(domain.NewInteraction{
			Actor:     domain.Actor{ProfileID: profileID},
			Action:    a,
			ProductID: productID,
		}, at)
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, ev))
	}
	add("p1", "click", "a", now.Add(-time.Hour))
	add("p1", "save", "b", now.Add(-2*time.Hour))
	add("p1", "view", "c", now.Add(-time.Minute))
	add("p1", "like", "d", now.Add(-40*24*time.Hour))
	add("p2", "like", "a", now.Add(-3*time.Hour))

	anon, err := domain.NewInteractionEvent(domain.NewInteraction{
		Actor:   domain.Actor{AnonID: "anon-1"},
		Action:  domain.ActionChatMessage,
		Payload: domain.ChatMessagePayload{ChatText: "linen shirts"},
	}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, anon))

	since := now.Add(-30 * 24 * time.Hour)
	events, err := repo.ListScoringEvents(ctx, "p1", domain.ScoringActions, since, 500)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ProductID)
	assert.Equal(t, domain.ActionSave, events[1].Action)

	profiles, err := repo.ListActiveProfiles(ctx, domain.ScoringActions, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, profiles)
}

func TestSavedItemRepo_Idempotent(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewSavedItemRepo(testPool)
	now := time.Now().UTC().Truncate(time.Millisecond)

	item := domain.SavedItem{
		ActorKey:  "u:p1",
		ProductID: "prod-1",
		Product:   &domain.ProductSnapshot{ID: "prod-1", Title: "Wool Coat", Price: 250},
		CreatedAt: now,
	}
	require.NoError(t, repo.Save(ctx, item))
	require.NoError(t, repo.Save(ctx, item))

	items, err := repo.ListByActor(ctx, "u:p1", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wool Coat", items[0].Product.Title)

	require.NoError(t, repo.Remove(ctx, "u:p1", "prod-1"))
	require.NoError(t, repo.Remove(ctx, "u:p1", "prod-1"))
	items, err = repo.ListByActor(ctx, "u:p1", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSnapshotRepo_WritersDoNotClobber(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewSnapshotRepo(testPool)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Get(ctx, "p1")
	assert.True(t, domain.Is(err, domain.CodeNotFound))

	require.NoError(t, repo.UpdateChatKeywords(ctx, "p1", func(existing []string) []string {
		return domain.MergeChatKeywords(existing, []string{"linen", "summer"})
	}, now))

	stored, err := repo.UpsertAggregate(ctx, &domain.PreferenceSnapshot{
		ProfileID:      "p1",
		FavoriteBrands: []string{"Arket", "COS"},
		PriceMin:       f64(20),
		PriceMax:       f64(40),
		UpdatedAt:      now.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arket", "COS"}, stored.FavoriteBrands)
	assert.Equal(t, []string{}, stored.FavoriteCategories)
	assert.Equal(t, []string{"linen", "summer"}, stored.ChatKeywords)
	require.NotNil(t, stored.PriceMin)
	assert.Equal(t, 20.0, *stored.PriceMin)

	require.NoError(t, repo.UpdateChatKeywords(ctx, "p1", func(existing []string) []string {
		return domain.MergeChatKeywords(existing, []string{"shirt"})
	}, now.Add(2*time.Minute)))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Arket", "COS"}, got.FavoriteBrands)
	assert.Equal(t, []string{"linen", "summer", "shirt"}, got.ChatKeywords)
	assert.True(t, got.UpdatedAt.Equal(now.Add(2*time.Minute)))
}

func TestProductRepo_GetByIDs(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewProductRepo(testPool)

	require.NoError(t, repo.UpsertProducts(ctx, []domain.Product{
		{ID: "a", Title: "Coat", Brand: "Arket", Category: "coats", Price: f64(250)},
		{ID: "b", Title: "Tee", Brand: "COS", Category: "tops"},
	}))

	got, err := repo.GetByIDs(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 250.0, *got["a"].Price)
	assert.Nil(t, got["b"].Price)
}

func TestPostRepo_ListAndLike(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := NewPostRepo(testPool)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := testPool.Exec(ctx, `INSERT INTO profiles (id, username) VALUES ('u1', 'ana')`)
	require.NoError(t, err)

	older, err := domain.NewPost("u1", "Spring layers", "", "https://img/1.jpg", "", now.Add(-time.Hour))
	require.NoError(t, err)
	newer, err := domain.NewPost("u2", "Denim on denim", "", "https://img/2.jpg", "c1", now)
	require.NoError(t, err)
	require.NoError(t, posts.CreatePost(ctx, older))
	require.NoError(t, posts.CreatePost(ctx, newer))

	all, err := posts.ListPosts(ctx, feed.Query{Scope: feed.ScopeCommunity}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Nil(t, all[0].Author)
	assert.Equal(t, "c1", all[0].CollectionID)
	require.NotNil(t, all[1].Author)
	assert.Equal(t, "ana", all[1].Author.Username)

	mine, err := posts.ListPosts(ctx, feed.Query{Scope: feed.ScopeAuthor, AuthorID: "u1"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, older.ID, mine[0].ID)

	n, err := posts.LikePost(ctx, older.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = posts.LikePost(ctx, older.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = posts.LikePost(ctx, uuid.NewString(), "p1")
	assert.True(t, domain.Is(err, domain.CodeNotFound))
	_, err = posts.LikePost(ctx, "not-a-uuid", "p1")
	assert.True(t, domain.Is(err, domain.CodeNotFound))
}

func TestLookups_BatchResolve(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `
		INSERT INTO profiles (id, username, display_name) VALUES ('u1', 'ana', 'Ana'), ('u2', 'ben', '');
		INSERT INTO collections (id, owner_id, name, item_count) VALUES ('c1', 'u1', 'Capsule', 12);
	`)
	require.NoError(t, err)

	profiles, err := NewProfileRepo(testPool).GetProfiles(ctx, []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, "Ana", profiles["u1"].DisplayName)

	cols, err := NewCollectionRepo(testPool).GetCollections(ctx, []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, 12, cols["c1"].ItemCount)

	empty, err := NewProfileRepo(testPool).GetProfiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOutcomeRepo_Upsert(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewOutcomeRepo(testPool)
	imp := uuid.NewString()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, domain.RecommendationOutcome{ProfileID: "p1", ProductID: "a", ImpressionID: imp, Outcome: "clicked", UpdatedAt: now}))
	require.NoError(t, repo.Upsert(ctx, domain.RecommendationOutcome{ProfileID: "p1", ProductID: "a", ImpressionID: imp, Outcome: "saved", UpdatedAt: now}))

	var outcome string
	var n int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT outcome, (SELECT count(*) FROM recommendation_outcomes) FROM recommendation_outcomes`).Scan(&outcome, &n))
	assert.Equal(t, "saved", outcome)
	assert.Equal(t, 1, n)
}
