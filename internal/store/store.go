package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"

	"mediaforge/internal/model"
)

// Store is the Postgres-backed job record store.
type Store struct {
	DB *sql.DB
}

// New creates a new Store that uses a shared *sql.DB with pooling.
func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

const jobColumns = `id, user_id, kind, input, status, progress, result, error, created_at, updated_at`

const insertJobSQL = `
INSERT INTO jobs (id, user_id, kind, input, status, progress)
VALUES ($1, $2, $3, $4, 'pending', 0)
RETURNING ` + jobColumns

const getJobSQL = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

// Progress never moves backwards and terminal rows are never touched.
const updateJobSQL = `
UPDATE jobs
SET status     = COALESCE($2::text, status),
    progress   = GREATEST(progress, COALESCE($3::int, progress)),
    result     = COALESCE($4::jsonb, result),
    error      = COALESCE($5::text, error),
    updated_at = now()
WHERE id = $1
  AND status IN ('pending', 'loading')
RETURNING ` + jobColumns

const listJobsSQL = `
SELECT ` + jobColumns + `
FROM jobs
WHERE user_id = $1
  AND ($2 = '' OR status = $2)
  AND ($3 = '' OR kind = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4`

const listStaleJobsSQL = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = ANY($1::text[])
  AND updated_at < $2
ORDER BY updated_at ASC`

const failStaleJobsSQL = `
UPDATE jobs
SET status = 'failed',
    error = $3,
    updated_at = now()
WHERE id = ANY($1::uuid[])
  AND status IN ('pending', 'loading')
  AND updated_at < $2
RETURNING id`

const deleteExpiredJobsSQL = `
DELETE FROM jobs
WHERE kind = ANY($1::text[])
  AND status IN ('complete', 'failed')
  AND updated_at < $2`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (model.Job, error) {
	var (
		job    model.Job
		kind   string
		status string
		input  pqtype.NullRawMessage
		result pqtype.NullRawMessage
		errMsg sql.NullString
	)
	if err := row.Scan(&job.ID, &job.UserID, &kind, &input, &status, &job.Progress, &result, &errMsg, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return model.Job{}, err
	}
	job.Kind = model.Kind(kind)
	job.Status = model.Status(status)
	if input.Valid {
		job.Input = input.RawMessage
	}
	if result.Valid {
		job.Result = result.RawMessage
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return job, nil
}

// CreateJob inserts a new pending job row.
func (s *Store) CreateJob(ctx context.Context, userID string, kind model.Kind, input json.RawMessage) (model.Job, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	row := s.DB.QueryRowContext(ctx, insertJobSQL, newJobID(), userID, string(kind), []byte(input))
	return scanJob(row)
}

// GetJob fetches a job by id, returning model.ErrNotFound when absent.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (model.Job, error) {
	job, err := scanJob(s.DB.QueryRowContext(ctx, getJobSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, model.ErrNotFound
	}
	return job, err
}

// UpdateJob applies upd in a single statement. It returns
// model.ErrJobTerminal when the job already completed or failed.
func (s *Store) UpdateJob(ctx context.Context, id uuid.UUID, upd model.JobUpdate) (model.Job, error) {
	var (
		status   sql.NullString
		progress sql.NullInt32
		result   pqtype.NullRawMessage
		errMsg   sql.NullString
	)
	if upd.Status != nil {
		status = sql.NullString{String: string(*upd.Status), Valid: true}
	}
	if upd.Progress != nil {
		progress = sql.NullInt32{Int32: int32(*upd.Progress), Valid: true}
	}
	if upd.Result != nil {
		result = pqtype.NullRawMessage{RawMessage: upd.Result, Valid: true}
	}
	if upd.Error != nil {
		errMsg = sql.NullString{String: *upd.Error, Valid: true}
	}

	job, err := scanJob(s.DB.QueryRowContext(ctx, updateJobSQL, id, status, progress, result, errMsg))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, err
	}

	// Either the job does not exist or it is already terminal.
	if _, getErr := s.GetJob(ctx, id); getErr != nil {
		return model.Job{}, getErr
	}
	return model.Job{}, model.ErrJobTerminal
}

// ListJobs returns up to limit jobs for userID, newest first.
func (s *Store) ListJobs(ctx context.Context, userID string, filter model.ListFilter, limit int) ([]model.Job, error) {
	rows, err := s.DB.QueryContext(ctx, listJobsSQL, userID, string(filter.Status), string(filter.Kind), limit)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

// ListStaleJobs returns jobs in one of statuses not updated since olderThan.
func (s *Store) ListStaleJobs(ctx context.Context, statuses []model.Status, olderThan time.Time) ([]model.Job, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	rows, err := s.DB.QueryContext(ctx, listStaleJobsSQL, names, olderThan)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

// FailStaleJobs marks the given jobs failed if they are still
// non-terminal and stale, returning the ids actually updated.
func (s *Store) FailStaleJobs(ctx context.Context, ids []uuid.UUID, olderThan time.Time, message string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := s.DB.QueryContext(ctx, failStaleJobsSQL, strIDs, olderThan, message)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteExpiredJobs removes terminal jobs of the given kinds last updated
// before the cutoff.
func (s *Store) DeleteExpiredJobs(ctx context.Context, kinds []model.Kind, before time.Time) (int64, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	res, err := s.DB.ExecContext(ctx, deleteExpiredJobsSQL, names, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectJobs(rows *sql.Rows) ([]model.Job, error) {
	defer rows.Close()

	out := []model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// newJobID prefers uuidv7 so ids sort by creation time.
func newJobID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}
