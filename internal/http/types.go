package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
)

// Error codes used in ErrorResponse.Code.
const (
	codeBadRequest      = "BAD_REQUEST"
	codeInvalidInput    = "INVALID_INPUT"
	codeUnknownJobType  = "UNKNOWN_JOB_TYPE"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeRateLimited     = "RATE_LIMIT_EXCEEDED"
	codeUnavailable     = "SERVICE_UNAVAILABLE"
	codeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

// SubmitJobResponse is returned by POST /v1/jobs.
type SubmitJobResponse struct {
	Success bool      `json:"success"`
	JobID   uuid.UUID `json:"jobId"`
}

// JobView is the caller-facing shape of a job. The owner and the raw
// submitted input are not echoed back.
type JobView struct {
	ID        uuid.UUID       `json:"id"`
	Kind      model.Kind      `json:"kind"`
	Status    model.Status    `json:"status"`
	Progress  int             `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newJobView(job model.Job) JobView {
	return JobView{
		ID:        job.ID,
		Kind:      job.Kind,
		Status:    job.Status,
		Progress:  job.Progress,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// JobResponse is returned by GET /v1/jobs/:id.
type JobResponse struct {
	Success bool     `json:"success"`
	Job     *JobView `json:"job,omitempty"`
}

// ListJobsResponse is returned by GET /v1/jobs.
type ListJobsResponse struct {
	Success bool      `json:"success"`
	Jobs    []JobView `json:"jobs"`
}

// JanitorResponse reports one janitor trigger.
type JanitorResponse struct {
	Success bool `json:"success"`
	jobs.SweepReport
	Retention *jobs.RetentionStats `json:"retention,omitempty"`
}
