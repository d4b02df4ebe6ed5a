// Command aggregate recomputes preference snapshots for every profile with
// recent scoring activity. It is meant to run from cron or a k8s CronJob.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/preference"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/tracing"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lookback := flag.Duration("since", cfg.AggregateLookback, "aggregate profiles active within this window")
	profileID := flag.String("profile", "", "aggregate a single profile and exit")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName + "-aggregate",
		ServiceVersion: "1.0.0",
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("tracing init failed")
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		zlog.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	agg := preference.NewAggregator(
		postgres.NewEventRepo(pool),
		postgres.NewProductRepo(pool),
		postgres.NewSnapshotRepo(pool),
		tracking.SystemClock,
	)

	if *profileID != "" {
		if _, err := agg.Aggregate(ctx, *profileID); err != nil {
			zlog.Fatal().Err(err).Str("profile_id", *profileID).Msg("aggregate failed")
		}
		return
	}

	since := time.Now().Add(-*lookback)
	sum, err := agg.RunActive(ctx, since)
	ev := zlog.Info()
	if err != nil || sum.Failed > 0 {
		ev = zlog.Error().Err(err)
	}
	ev.
		Time("since", since).
		Int("profiles", sum.Profiles).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("aggregation run finished")

	if err != nil || sum.Failed > 0 {
		os.Exit(1)
	}
}
