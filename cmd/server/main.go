// Command server runs the register scrutiny service: the detection API plus
// the outbox worker that relays finished reports to the audit topic.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/detection"
	detectionhandler "scrutiny/internal/detection/handler"
	detectionmetrics "scrutiny/internal/detection/metrics"
	"scrutiny/internal/ledger"
	"scrutiny/internal/platform/config"
	"scrutiny/internal/platform/httpserver"
	"scrutiny/internal/platform/logger"
	platformredis "scrutiny/internal/platform/redis"
	"scrutiny/internal/register"
	"scrutiny/internal/reportsink"
	"scrutiny/internal/store"
	storepostgres "scrutiny/internal/store/postgres"
	httptransport "scrutiny/internal/transport/http"
	"scrutiny/pkg/platform/middleware/auth"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthChecker{}

	// Record source: postgres in production, in-memory when no DSN is set so
	// the service can run for local exploration.
	var source detection.Source = store.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres pool failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := storepostgres.New(pool)
		source = pg
		health["postgres"] = pg
	} else {
		log.Warn("no postgres dsn configured, using in-memory record source")
	}

	detector, err := anomaly.NewDetector(anomaly.Config{
		VelocityWindow:     cfg.Detection.VelocityWindow,
		HourBandStart:      cfg.Detection.HourBandStart,
		HourBandEnd:        cfg.Detection.HourBandEnd,
		VerifiedDeathsOnly: cfg.Detection.VerifiedDeathsOnly,
	})
	if err != nil {
		log.Error("invalid detection config", "error", err)
		os.Exit(1)
	}

	opts := []detection.Option{
		detection.WithLogger(log),
		detection.WithMetrics(detectionmetrics.New()),
	}

	// Report sink and outbox worker need both postgres and kafka.
	var worker *reportsink.Worker
	if cfg.PostgresDSN != "" && len(cfg.Kafka.Brokers) > 0 {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("outbox db open failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		publisher, err := reportsink.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka publisher failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			log.Error("kafka topic setup failed", "error", err)
			os.Exit(1)
		}
		health["kafka"] = publisher

		opts = append(opts, detection.WithSink(reportsink.NewOutbox(db)))
		worker = reportsink.NewWorker(db, publisher, log)
	} else {
		log.Warn("report outbox disabled, reports are returned but not persisted")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis client failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		health["redis"] = redisClient
		opts = append(opts, detection.WithStatsCache(reportsink.NewStatsCache(redisClient, cfg.Detection.StatsCacheTTL)))
	}

	service, err := detection.New(
		source,
		ledger.NewVerifier(ledger.WithDigestRecompute()),
		register.NewMatcher(),
		detector,
		detection.Config{MediumAt: cfg.Detection.MediumAt, HighAt: cfg.Detection.HighAt},
		opts...,
	)
	if err != nil {
		log.Error("detection service failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Detection: detectionhandler.New(service, log),
		Validator: auth.NewValidator(cfg.JWTSigningKey, cfg.JWTIssuer),
		Logger:    log,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		log.Info("scrutiny server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
