package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"mediaforge/internal/config"
	"mediaforge/internal/executors"
	server "mediaforge/internal/http"
	"mediaforge/internal/jobs"
	"mediaforge/internal/media"
	"mediaforge/internal/migrate"
	"mediaforge/internal/providers/google"
	"mediaforge/internal/providers/openai"
	"mediaforge/internal/store"
)

const fetchTimeout = 60 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	role := flag.String("role", "api", "process role: api|sweep")
	flag.Parse()

	cfg := config.Load(*configPath)

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	st := openStore(cfg, logger)

	switch *role {
	case "api":
		runAPI(cfg, st, logger)
	case "sweep":
		// One-shot janitor run for schedulers that prefer a process over
		// the HTTP trigger.
		if err := sweep(context.Background(), cfg, st, logger); err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
	default:
		log.Fatalf("invalid role: %s (expected api|sweep)", *role)
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) server.JobStore {
	if cfg.Database.DSN == "" {
		logger.Warn("database_dsn_empty", "store", "memory")
		return store.NewMemoryStore()
	}

	// Run migrations on a short-lived connection
	if err := migrate.Run(cfg.Database.DSN); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	// Create a shared *sql.DB with pooling for the Store
	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db failed: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	return store.New(db)
}

func runAPI(cfg *config.Config, st server.JobStore, logger *slog.Logger) {
	mediaStore, err := media.NewStore(cfg.Media.Dir, cfg.Media.PublicBaseURL)
	if err != nil {
		log.Fatalf("media store failed: %v", err)
	}
	oa := openai.New(cfg.Providers.OpenAI)

	reg := executors.NewRegistry(executors.Deps{
		Images:  oa,
		Videos:  oa,
		Gemini:  google.New(cfg.Providers.Google),
		Media:   mediaStore,
		Fetcher: media.NewFetcher(mediaStore, fetchTimeout),
	})
	if err := reg.Validate(); err != nil {
		log.Fatalf("executor registry invalid: %v", err)
	}

	runner := jobs.NewRunner(st, reg, logger, jobs.Options{
		PollInterval:    time.Duration(cfg.Runner.PollIntervalMs) * time.Millisecond,
		MaxPollAttempts: cfg.Runner.MaxPollAttempts,
	})

	// Redis client for rate limiting and health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("invalid redis url: %v", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	s := server.NewServer(cfg, server.Deps{
		Runner:  runner,
		Janitor: jobs.NewJanitor(st, logger, nil),
		Store:   st,
		Redis:   rdb,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	// In-flight jobs left non-terminal are failed later by the janitor.
	if err := runner.Shutdown(ctx); err != nil {
		logger.Warn("runner_shutdown_incomplete", "error", err)
	}
}

func sweep(ctx context.Context, cfg *config.Config, st server.JobStore, logger *slog.Logger) error {
	janitor := jobs.NewJanitor(st, logger, nil)
	report, err := janitor.SweepStale(ctx, time.Duration(cfg.Janitor.StaleMinutes)*time.Minute)
	if err != nil {
		return err
	}
	logger.Info("sweep_complete", "timed_out", report.Count)

	if cfg.Retention.Enabled {
		stats := jobs.CleanupExpiredData(ctx, cfg.Retention, st, time.Now().UTC())
		logger.Info("retention_complete", "deleted", stats.JobsDeleted)
	}
	return nil
}
