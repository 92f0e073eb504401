package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"mediaforge/internal/config"
	"mediaforge/internal/jobs"
)

// janitorHandler fails jobs stuck in pending or loading and, when
// retention is enabled, deletes expired terminal jobs. It is meant to be
// called by an external scheduler.
func janitorHandler(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	janitor := c.Locals("janitor").(*jobs.Janitor)
	st := c.Locals("store").(JobStore)
	logger := c.Locals("logger").(*slog.Logger)

	threshold := time.Duration(cfg.Janitor.StaleMinutes) * time.Minute
	report, err := janitor.SweepStale(c.Context(), threshold)
	if err != nil {
		logger.Error("janitor_sweep_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    codeInternal,
			Error:   "janitor sweep failed",
		})
	}

	resp := JanitorResponse{Success: true, SweepReport: report}
	if cfg.Retention.Enabled {
		stats := jobs.CleanupExpiredData(c.Context(), cfg.Retention, st, time.Now().UTC())
		resp.Retention = &stats
	}

	return c.JSON(resp)
}
