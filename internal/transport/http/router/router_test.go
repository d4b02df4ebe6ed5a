package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/assistant"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/search"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	appmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
)

// stubs satisfy every handler port with canned answers

type stubTracker struct{}

func (stubTracker) Record(ctx context.Context, cmd tracking.RecordCmd) (*domain.InteractionEvent, error) {
	return &domain.InteractionEvent{ID: "ev-1", Action: domain.Action(cmd.Action)}, nil
}
func (stubTracker) ListSaved(ctx context.Context, a domain.Actor, limit int) ([]domain.SavedItem, error) {
	return []domain.SavedItem{}, nil
}

type stubPrefs struct{}

func (stubPrefs) Get(ctx context.Context, id string) (*domain.PreferenceSnapshot, error) {
	return &domain.PreferenceSnapshot{ProfileID: id}, nil
}
func (stubPrefs) Aggregate(ctx context.Context, id string) (*domain.PreferenceSnapshot, error) {
	return &domain.PreferenceSnapshot{ProfileID: id}, nil
}

type stubFeed struct{}

func (stubFeed) List(ctx context.Context, q feed.Query) (*feed.Page, error) {
	return &feed.Page{Page: 1, PageSize: 20}, nil
}
func (stubFeed) CreatePost(ctx context.Context, cmd feed.CreatePostCmd) (*domain.FeedPost, error) {
	return &domain.FeedPost{ID: "post-1", AuthorID: cmd.AuthorID}, nil
}
func (stubFeed) LikePost(ctx context.Context, postID, profileID string) (int, error) { return 1, nil }

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	return &search.Result{Query: q.Query}, nil
}
func (stubSearch) VisualSearch(ctx context.Context, q search.VisualQuery) (*search.Result, error) {
	return &search.Result{}, nil
}

type stubAssistant struct{}

func (stubAssistant) Reply(ctx context.Context, cmd assistant.ChatCmd) (*assistant.Reply, error) {
	return &assistant.Reply{EventID: "ev-2", Text: "hi"}, nil
}

func newTestRouter(cfg *config.Config) http.Handler {
	h := Handlers{
		Tracking:    handlers.NewTrackingHandler(stubTracker{}),
		Preferences: handlers.NewPreferencesHandler(stubPrefs{}),
		Feed:        handlers.NewFeedHandler(stubFeed{}),
		Search:      handlers.NewSearchHandler(stubSearch{}, 1<<20),
		Chat:        handlers.NewChatHandler(stubAssistant{}),
		Health:      handlers.NewHealthHandler(nil),
	}
	return New(h, appmw.NewAuth("secret", "auth-service"), cfg)
}

func bearer(t *testing.T, uid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, appmw.Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestRouter_Routing(t *testing.T) {
	cfg := &config.Config{
		ServiceName:      "discovery-service",
		AppEnv:           "dev",
		AnonCookieSecret: "anon-secret",
		AnonCookieTTL:    24 * time.Hour,
		RLEnabled:        false,
	}
	r := newTestRouter(cfg)

	t.Run("healthz_returns_200", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	})

	t.Run("metrics_exposed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "discovery_service_http_requests_total")
	})

	t.Run("anonymous_track_gets_cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"action":"view"}`)))
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(appmw.HeaderAnonID))
	})

	t.Run("public_feed_returns_200", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("protected_routes_return_401_without_token", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/preferences"},
			{http.MethodPost, "/api/preferences/refresh"},
			{http.MethodPost, "/api/feed/posts"},
			{http.MethodPost, "/api/feed/posts/550e8400-e29b-41d4-a716-446655440000/like"},
		} {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
		}
	})

	t.Run("protected_route_with_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
		req.Header.Set("Authorization", bearer(t, "p1"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"profile_id":"p1"`)
	})

	t.Run("unknown_route_returns_404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRouter_RateLimitsWrites(t *testing.T) {
	cfg := &config.Config{
		ServiceName:      "discovery-service",
		AppEnv:           "dev",
		AnonCookieSecret: "anon-secret",
		AnonCookieTTL:    24 * time.Hour,
		RLEnabled:        true,
		RLLimit:          2,
		RLWindow:         time.Minute,
	}
	r := newTestRouter(cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"action":"view"}`)))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	// reads are not limited
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
