package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaforge/internal/model"
)

// MemoryStore keeps jobs in process memory. It is used when no database
// is configured and in tests; everything is lost on restart.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]model.Job

	// Now stamps created_at/updated_at. Tests replace it to age jobs.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]model.Job),
		Now:  func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) CreateJob(_ context.Context, userID string, kind model.Kind, input json.RawMessage) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	now := m.Now()
	job := model.Job{
		ID:        newJobID(),
		UserID:    strings.Clone(userID),
		Kind:      kind,
		Input:     bytes.Clone(input),
		Status:    model.StatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[job.ID] = job
	return cloneJob(job), nil
}

func (m *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	return cloneJob(job), nil
}

func (m *MemoryStore) UpdateJob(_ context.Context, id uuid.UUID, upd model.JobUpdate) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return model.Job{}, model.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return model.Job{}, model.ErrJobTerminal
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil && *upd.Progress > job.Progress {
		job.Progress = *upd.Progress
	}
	if upd.Result != nil {
		job.Result = bytes.Clone(upd.Result)
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	job.UpdatedAt = m.Now()

	m.jobs[id] = job
	return cloneJob(job), nil
}

func (m *MemoryStore) ListJobs(_ context.Context, userID string, filter model.ListFilter, limit int) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Job{}
	for _, job := range m.jobs {
		if job.UserID != userID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && job.Kind != filter.Kind {
			continue
		}
		out = append(out, cloneJob(job))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListStaleJobs(_ context.Context, statuses []model.Status, olderThan time.Time) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Job{}
	for _, job := range m.jobs {
		if !hasStatus(statuses, job.Status) || !job.UpdatedAt.Before(olderThan) {
			continue
		}
		out = append(out, cloneJob(job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) FailStaleJobs(_ context.Context, ids []uuid.UUID, olderThan time.Time, message string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	var out []uuid.UUID
	for _, id := range ids {
		job, ok := m.jobs[id]
		if !ok || job.Status.IsTerminal() || !job.UpdatedAt.Before(olderThan) {
			continue
		}
		job.Status = model.StatusFailed
		job.Error = message
		job.UpdatedAt = now
		m.jobs[id] = job
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryStore) DeleteExpiredJobs(_ context.Context, kinds []model.Kind, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, job := range m.jobs {
		if !job.Status.IsTerminal() || !job.UpdatedAt.Before(before) {
			continue
		}
		for _, k := range kinds {
			if job.Kind == k {
				delete(m.jobs, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func hasStatus(statuses []model.Status, s model.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func cloneJob(job model.Job) model.Job {
	job.Input = bytes.Clone(job.Input)
	job.Result = bytes.Clone(job.Result)
	return job
}
