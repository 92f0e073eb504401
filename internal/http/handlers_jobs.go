package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
)

// submitEnvelope is decoded first to pick the settings type.
type submitEnvelope struct {
	Type model.Kind `json:"type"`
}

// submitJobHandler validates a job request and hands it to the runner.
// It answers as soon as the job is persisted; execution continues in the
// background.
func submitJobHandler(c *fiber.Ctx) error {
	runner := c.Locals("runner").(*jobs.Runner)
	logger := c.Locals("logger").(*slog.Logger)

	p, ok := currentPrincipal(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false,
			Code:    codeUnauthenticated,
			Error:   "User context is not available for this request",
		})
	}

	// fiber reuses the request buffer once the handler returns
	body := bytes.Clone(c.Body())

	var env submitEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    codeBadRequest,
			Error:   "Invalid JSON body",
		})
	}
	if !env.Type.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    codeUnknownJobType,
			Error:   "Unknown job type: " + strconv.Quote(string(env.Type)),
		})
	}

	if err := model.ValidateSettings(env.Type, body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    codeInvalidInput,
			Error:   err.Error(),
		})
	}

	id, err := runner.Submit(c.Context(), env.Type, body, p.UserID)
	if errors.Is(err, jobs.ErrRunnerStopped) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Success: false,
			Code:    codeUnavailable,
			Error:   "service is shutting down, retry shortly",
		})
	}
	if err != nil {
		logger.Error("job_submit_failed", "kind", string(env.Type), "user_id", p.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    codeInternal,
			Error:   "failed to create job",
		})
	}

	c.Locals("job_id", id.String())
	return c.Status(fiber.StatusAccepted).JSON(SubmitJobResponse{
		Success: true,
		JobID:   id,
	})
}

// jobStatusHandler returns one job owned by the caller.
func jobStatusHandler(c *fiber.Ctx) error {
	runner := c.Locals("runner").(*jobs.Runner)
	logger := c.Locals("logger").(*slog.Logger)
	p, _ := currentPrincipal(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    codeBadRequest,
			Error:   "invalid job id",
		})
	}
	c.Locals("job_id", id.String())

	job, err := runner.GetStatus(c.Context(), id, p.UserID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    codeNotFound,
			Error:   "job not found",
		})
	case errors.Is(err, model.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Success: false,
			Code:    codeForbidden,
			Error:   "job belongs to another user",
		})
	default:
		logger.Error("job_status_failed", "job_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    codeInternal,
			Error:   "failed to load job",
		})
	}

	view := newJobView(job)
	return c.JSON(JobResponse{
		Success: true,
		Job:     &view,
	})
}

// listJobsHandler lists the caller's jobs newest first, optionally
// filtered by status and type.
func listJobsHandler(c *fiber.Ctx) error {
	runner := c.Locals("runner").(*jobs.Runner)
	logger := c.Locals("logger").(*slog.Logger)
	p, _ := currentPrincipal(c)

	var opts jobs.ListOptions

	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := model.Status(s)
		if !st.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    codeBadRequest,
				Error:   "invalid status filter",
			})
		}
		opts.Status = st
	}

	if k := strings.TrimSpace(c.Query("type")); k != "" {
		kind := model.Kind(k)
		if !kind.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    codeBadRequest,
				Error:   "invalid type filter",
			})
		}
		opts.Kind = kind
	}

	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    codeBadRequest,
				Error:   "limit must be a positive integer",
			})
		}
		opts.Limit = n
	}

	list, err := runner.List(c.Context(), p.UserID, opts)
	if err != nil {
		logger.Error("job_list_failed", "user_id", p.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    codeInternal,
			Error:   "failed to list jobs",
		})
	}
	views := make([]JobView, 0, len(list))
	for _, job := range list {
		views = append(views, newJobView(job))
	}

	return c.JSON(ListJobsResponse{
		Success: true,
		Jobs:    views,
	})
}
