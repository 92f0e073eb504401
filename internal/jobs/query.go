package jobs

import (
	"context"

	"github.com/google/uuid"

	"mediaforge/internal/model"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListOptions narrows List. Zero values mean "any" and the default limit.
type ListOptions struct {
	Limit  int
	Status model.Status
	Kind   model.Kind
}

// GetStatus returns the persisted job verbatim. It fails with
// model.ErrNotFound when the job does not exist and model.ErrForbidden
// when it belongs to someone else.
func (r *Runner) GetStatus(ctx context.Context, jobID uuid.UUID, userID string) (model.Job, error) {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return model.Job{}, err
	}
	if job.UserID != userID {
		return model.Job{}, model.ErrForbidden
	}
	return job, nil
}

// List returns the user's jobs newest first.
func (r *Runner) List(ctx context.Context, userID string, opts ListOptions) ([]model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return r.store.ListJobs(ctx, userID, model.ListFilter{Status: opts.Status, Kind: opts.Kind}, limit)
}
