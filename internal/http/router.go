package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"mediaforge/internal/config"
	"mediaforge/internal/jobs"
	"mediaforge/internal/metrics"
)

// JobStore is the persistence the HTTP layer needs: the job store used
// by retention plus a connectivity probe for deep health checks.
type JobStore interface {
	jobs.Store
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server is built on.
type Deps struct {
	Runner  *jobs.Runner
	Janitor *jobs.Janitor
	Store   JobStore

	// Redis is optional. When nil rate limiting is disabled and deep
	// health reports redis as "disabled".
	Redis *redis.Client
}

type Server struct {
	app    *fiber.App
	config *config.Config
	deps   Deps
	logger *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Inject config and collaborators into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("runner", deps.Runner)
		c.Locals("janitor", deps.Janitor)
		c.Locals("store", deps.Store)
		c.Locals("logger", logger)
		return c.Next()
	})

	app.Use(requestLogger(logger))

	app.Get("/healthz", healthHandler(deps))

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	if cfg.Media.Dir != "" {
		app.Static(mediaMountPath(cfg.Media.PublicBaseURL), cfg.Media.Dir, fiber.Static{
			MaxAge: 86400,
		})
	}

	var rateMw fiber.Handler
	if deps.Redis != nil && cfg.RateLimit.SubmitPerMinute > 0 {
		rateMw = rateLimitMiddleware(cfg.RateLimit.SubmitPerMinute, deps.Redis, time.Now)
	} else {
		rateMw = func(c *fiber.Ctx) error { return c.Next() }
	}

	v1 := app.Group("/v1", userMiddleware)
	v1.Post("/jobs", rateMw, submitJobHandler)
	v1.Get("/jobs", listJobsHandler)
	v1.Get("/jobs/:id", jobStatusHandler)

	cron := app.Group("/internal/cron", janitorAuthMiddleware(cfg.Janitor.Secret))
	cron.Post("/janitor", janitorHandler)
	cron.Get("/janitor", janitorHandler)

	return &Server{
		app:    app,
		config: cfg,
		deps:   deps,
		logger: logger,
	}
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("http_listen", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func healthHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if deps.Store == nil || deps.Store.Ping(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		status := "ok"
		code := fiber.StatusOK
		if dbStatus != "ok" || redisStatus == "error" {
			status = "error"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}

// mediaMountPath derives the route prefix media files are served under
// from the public base URL, e.g. "https://cdn.example.com/media" -> "/media".
func mediaMountPath(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/media"
	}
	return u.Path
}
