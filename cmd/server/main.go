package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/assistant"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/preference"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/search"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	rediscache "github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/llm"
	rabbitpub "github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/storage"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/upstream"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/tracing"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/router"
)

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *pgxpool.Pool

	Cache     *rediscache.Client
	Publisher *rabbitpub.Publisher
	Tracer    *tracing.TracerProvider
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("app init failed")
	}
	defer app.Close()

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown error")
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// 1) Infrastructure
	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "1.0.0",
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, err
	}
	app.Tracer = tp

	{
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pool, err := postgres.NewPool(pingCtx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			return nil, err
		}
		app.DB = pool
	}

	var cache feed.Cache = rediscache.Noop{}
	if cfg.RedisURL != "" {
		c, err := rediscache.New(cfg.RedisURL, rediscache.Options{
			MaxBytes:     cfg.CacheMaxBytes,
			FeedMaxBytes: cfg.CacheFeedMaxBytes,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: caching disabled")
		} else {
			app.Cache = c
			cache = c
		}
	} else {
		zlog.Warn().Msg("REDIS_URL empty: caching disabled")
	}

	var pub tracking.EventPublisher = tracking.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, err
		}
		app.Publisher = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: interactions will not be published")
	}

	var images search.ImageStore
	if cfg.S3Bucket != "" {
		s3c, err := storage.NewS3Client(ctx, storage.Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			UsePathStyle:    cfg.S3UsePathStyle,
			Bucket:          cfg.S3Bucket,
			PresignTTL:      cfg.PresignTTL,
		})
		if err != nil {
			return nil, err
		}
		if err := s3c.EnsureBucket(ctx); err != nil {
			zlog.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("ensure bucket failed")
		}
		images = s3c
	}

	var vision search.VisionModel
	var chat assistant.ChatModel
	if cfg.LLMBaseURL != "" {
		c := llm.New(llm.Config{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			VisionModel: cfg.LLMVisionModel,
			Timeout:     cfg.LLMTimeout,
			MaxRetries:  2,
		})
		vision = c
		chat = c
	} else {
		zlog.Warn().Msg("LLM_BASE_URL empty: chat uses the fallback reply, visual search is off")
	}

	providers := make([]search.Provider, 0, len(cfg.SearchProviders))
	for _, p := range cfg.SearchProviders {
		providers = append(providers, upstream.NewBreakerProvider(
			upstream.NewHTTPProvider(p.Name, p.URL, cfg.UpstreamTimeout),
			upstream.BreakerSettings{
				MaxFailures: uint32(cfg.BreakerMaxFailures),
				OpenTimeout: cfg.BreakerOpenTimeout,
			},
		))
	}
	if len(providers) == 0 {
		zlog.Warn().Msg("SEARCH_PROVIDERS empty: search returns no results")
	}

	events := postgres.NewEventRepo(app.DB)
	saved := postgres.NewSavedItemRepo(app.DB)
	snapshots := postgres.NewSnapshotRepo(app.DB)
	catalog := postgres.NewProductRepo(app.DB)

	// 2) Application
	bus := tracking.NewBus(
		tracking.NewSavedItemsProjector(saved),
		tracking.NewOutcomeProjector(postgres.NewOutcomeRepo(app.DB)),
		tracking.NewCatalogProjector(catalog),
		preference.NewIncrementalUpdater(snapshots),
		tracking.NewPublishingSubscriber(pub),
	)
	trackSvc := tracking.New(events, saved, bus, tracking.SystemClock)
	aggregator := preference.NewAggregator(events, catalog, snapshots, tracking.SystemClock)
	feedSvc := feed.New(
		postgres.NewPostRepo(app.DB),
		postgres.NewProfileRepo(app.DB),
		postgres.NewCollectionRepo(app.DB),
		cache,
		tracking.SystemClock,
		cfg.CacheTTLFeed,
	)
	searchSvc := search.New(providers, snapshots, cache, images, vision, search.Options{
		DefaultLimit:   cfg.SearchDefaultLimit,
		MaxLimit:       cfg.SearchMaxLimit,
		TTL:            cfg.CacheTTLSearch,
		Timeout:        cfg.UpstreamTimeout,
		MaxUploadBytes: cfg.MaxUploadSize,
	})
	assistantSvc := assistant.New(trackSvc, snapshots, chat)

	// 3) Transport
	h := router.Handlers{
		Tracking:    handlers.NewTrackingHandler(trackSvc),
		Preferences: handlers.NewPreferencesHandler(aggregator),
		Feed:        handlers.NewFeedHandler(feedSvc),
		Search:      handlers.NewSearchHandler(searchSvc, cfg.MaxUploadSize),
		Chat:        handlers.NewChatHandler(assistantSvc),
		Health:      handlers.NewHealthHandler(app.DB),
	}
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)

	// 4) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.New(h, auth, cfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app, nil
}

func (a *App) Close() {
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Tracer.Shutdown(ctx); err != nil {
			zlog.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}
}
