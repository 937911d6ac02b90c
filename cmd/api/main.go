// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Scholaris registry HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Load the token verification key.
//  7. Connect optional infrastructure (object storage, message broker).
//  8. Wire domain services and HTTP handlers.
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/scholaris/internal/api"
	"github.com/taibuivan/scholaris/internal/notify"
	"github.com/taibuivan/scholaris/internal/platform/blob"
	"github.com/taibuivan/scholaris/internal/platform/config"
	"github.com/taibuivan/scholaris/internal/platform/constants"
	"github.com/taibuivan/scholaris/internal/platform/metrics"
	"github.com/taibuivan/scholaris/internal/platform/migration"
	pgstore "github.com/taibuivan/scholaris/internal/platform/postgres"
	redisstore "github.com/taibuivan/scholaris/internal/platform/redis"
	"github.com/taibuivan/scholaris/internal/platform/sec"
	"github.com/taibuivan/scholaris/internal/reference"
	"github.com/taibuivan/scholaris/internal/review"
	"github.com/taibuivan/scholaris/internal/submission"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("reference_suffix", cfg.ReferenceSuffix),
		slog.String("reference_timezone", cfg.ReferenceTimezone),
	)

	// Root context for background workers (rate limiter janitor).
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than
	// hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Verification ─────────────────────────────────────────────
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "load token verification key")

	// ── 7. Optional Infrastructure ────────────────────────────────────────
	registry := metrics.New()

	checks := []api.Check{
		{Name: "postgres", Ping: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		{Name: "redis", Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	}

	var blobs submission.BlobStore = blob.Nop{}
	if cfg.MinIOEndpoint != "" {
		store, err := blob.NewMinIOStore(blob.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, log)
		must(log, err, "connect to object storage")
		blobs = store
		checks = append(checks, api.Check{Name: "minio", Ping: store.Ping})
	} else {
		log.Warn("object_storage_disabled")
	}

	inboxRepository := notify.NewPostgresInbox(pool)
	countCache := notify.NewRedisCountCache(rdb)
	sinks := []notify.Sink{notify.NewInboxSink(inboxRepository, countCache, log)}

	if cfg.AMQPURL != "" {
		broker, err := notify.DialBroker(cfg.AMQPURL, cfg.AMQPExchange)
		must(log, err, "connect to message broker")
		defer func() {
			log.Info("closing message broker")
			if cerr := broker.Close(); cerr != nil {
				log.Error("amqp close error", slog.Any("error", cerr))
			}
		}()
		sinks = append(sinks, notify.NewAMQPPublisher(broker.Channel(), cfg.AMQPExchange, log))
		checks = append(checks, api.Check{Name: "amqp", Ping: broker.Ping})
	} else {
		log.Warn("message_broker_disabled")
	}

	liveness, readiness := api.NewHealthHandlers(checks, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	dispatcher := notify.NewFanout(registry, log, sinks...)
	issuer := reference.NewIssuer(cfg.ReferenceSuffix, cfg.Location(), registry, log)

	submissionService := submission.NewService(submission.NewPostgresRepository(pool), blobs, log)
	referenceService := reference.NewService(reference.NewPostgresRepository(pool), registry, log)
	reviewService := review.NewService(
		review.NewPostgresUnitOfWork(pgstore.NewTransactor(pool)),
		issuer,
		dispatcher,
		registry,
		log,
		cfg.NotifyTimeout,
	)
	inboxService := notify.NewService(inboxRepository, countCache, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Submission:   submission.NewHandler(submissionService),
		Review:       review.NewHandler(reviewService),
		Reference:    reference.NewHandler(referenceService),
		Notification: notify.NewHandler(inboxService),
		Metrics:      registry,
	}

	server := api.NewServer(rootCtx, cfg, log, verifier, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
