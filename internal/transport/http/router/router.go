package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	appmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
)

type Handlers struct {
	Tracking    *handlers.TrackingHandler
	Preferences *handlers.PreferencesHandler
	Feed        *handlers.FeedHandler
	Search      *handlers.SearchHandler
	Chat        *handlers.ChatHandler
	Health      *handlers.HealthHandler
}

func New(h Handlers, auth *appmw.AuthMiddleware, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(appmw.RequestID)
	r.Use(appmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.AccessLog)
	r.Use(appmw.Metrics())
	r.Use(appmw.Tracing(cfg.ServiceName))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	// writes are limited per client ip
	limitWrites := func(next http.Handler) http.Handler { return next }
	if cfg.RLEnabled {
		limitWrites = httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(appmw.AnonID(cfg.AnonCookieSecret, cfg.AnonCookieTTL, cfg.AppEnv != "dev"))
		r.Use(auth.Identify)

		r.Get("/saved", h.Tracking.Saved)
		r.Get("/feed", h.Feed.List)
		r.Get("/search", h.Search.Search)

		r.Group(func(r chi.Router) {
			r.Use(limitWrites)
			r.Post("/track", h.Tracking.Track)
			r.Post("/search/visual", h.Search.Visual)
			r.Post("/chat", h.Chat.Chat)
		})

		r.Group(func(r chi.Router) {
			r.Use(appmw.Require)
			r.Get("/preferences", h.Preferences.Get)

			r.Group(func(r chi.Router) {
				r.Use(limitWrites)
				r.Post("/preferences/refresh", h.Preferences.Refresh)
				r.Post("/feed/posts", h.Feed.CreatePost)
				r.Post("/feed/posts/{post_id}/like", h.Feed.LikePost)
			})
		})
	})

	return r
}
