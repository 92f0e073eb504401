package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaforge/internal/metrics"
	"mediaforge/internal/model"
)

const (
	// placeholderProgress is written while a provider reports processing
	// without a percentage.
	placeholderProgress = 50

	defaultPollInterval    = 5 * time.Second
	defaultMaxPollAttempts = 240
)

//go:generate mockgen -destination=../mocks/jobs_mock/store_mock.go -package=jobs_mock mediaforge/internal/jobs Store
//go:generate mockgen -destination=../mocks/jobs_mock/executor_mock.go -package=jobs_mock mediaforge/internal/jobs Executor,PollingExecutor

// Store is the job record persistence the runner, the status queries and
// the janitor depend on. Implementations must apply each UpdateJob
// atomically and refuse it with model.ErrJobTerminal once the job is
// complete or failed.
type Store interface {
	CreateJob(ctx context.Context, userID string, kind model.Kind, input json.RawMessage) (model.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (model.Job, error)
	UpdateJob(ctx context.Context, id uuid.UUID, upd model.JobUpdate) (model.Job, error)
	ListJobs(ctx context.Context, userID string, filter model.ListFilter, limit int) ([]model.Job, error)
	ListStaleJobs(ctx context.Context, statuses []model.Status, olderThan time.Time) ([]model.Job, error)
	FailStaleJobs(ctx context.Context, ids []uuid.UUID, olderThan time.Time, message string) ([]uuid.UUID, error)
	DeleteExpiredJobs(ctx context.Context, kinds []model.Kind, before time.Time) (int64, error)
}

// Options tunes the poll loop. Zero values fall back to a 5s interval
// and 240 attempts, roughly a 20 minute ceiling.
type Options struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	Clock           Clock
}

// Runner creates job records and drives each one through
// pending -> loading -> complete|failed on its own goroutine.
type Runner struct {
	store    Store
	registry Registry
	logger   *slog.Logger
	opts     Options

	// mu orders wg.Add in Submit against cancel in Shutdown.
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ErrRunnerStopped is returned by Submit once Shutdown has begun.
var ErrRunnerStopped = errors.New("job runner is shutting down")

// NewRunner constructs a Runner. The registry must already be valid; see
// Registry.Validate.
func NewRunner(st Store, reg Registry, logger *slog.Logger, opts Options) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = defaultMaxPollAttempts
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    st,
		registry: reg,
		logger:   logger,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit persists a pending job and schedules its lifecycle without
// waiting for it. The input is assumed to be validated for kind already.
func (r *Runner) Submit(ctx context.Context, kind model.Kind, input json.RawMessage, userID string) (uuid.UUID, error) {
	if !kind.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}

	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return uuid.Nil, ErrRunnerStopped
	}
	r.wg.Add(1)
	r.mu.Unlock()

	job, err := r.store.CreateJob(ctx, userID, kind, input)
	if err != nil {
		r.wg.Done()
		return uuid.Nil, fmt.Errorf("create job: %w", err)
	}

	metrics.RecordJobSubmitted(string(kind))
	r.logger.Info("job_submitted", "job_id", job.ID.String(), "kind", string(kind), "user_id", userID)

	go func() {
		defer r.wg.Done()
		r.process(job.ID)
	}()

	return job.ID, nil
}

// Wait blocks until every scheduled lifecycle has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops poll loops and waits for in-flight lifecycles to return
// or for ctx to expire. Jobs interrupted this way stay non-terminal and
// are failed later by the janitor. Submit is refused from then on.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errStopped marks a lifecycle abandoned because the runner is shutting
// down or the job was finalized elsewhere.
var errStopped = errors.New("lifecycle stopped")

type outcome struct {
	output json.RawMessage
	err    string
}

func (r *Runner) process(jobID uuid.UUID) {
	ctx := r.ctx
	logger := r.logger.With("job_id", jobID.String())

	// The stored record is the source of truth, not the submitted input.
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		logger.Error("job_load_failed", "error", err)
		if !errors.Is(err, model.ErrNotFound) {
			r.finalizeFailure(logger, job.Kind, jobID, "failed to load job: "+err.Error())
		}
		return
	}
	logger = logger.With("kind", string(job.Kind))
	started := r.opts.Clock.Now()

	if _, err := r.store.UpdateJob(ctx, jobID, model.JobUpdate{
		Status:   model.StatusPtr(model.StatusLoading),
		Progress: model.IntPtr(0),
	}); err != nil {
		logger.Error("job_loading_transition_failed", "error", err)
		if !errors.Is(err, model.ErrJobTerminal) {
			r.finalizeFailure(logger, job.Kind, jobID, "failed to start job: "+err.Error())
		}
		return
	}

	exec := r.registry.mustGet(job.Kind)

	res, err := r.execute(ctx, logger, job, exec)
	if errors.Is(err, errStopped) {
		logger.Warn("job_abandoned", "reason", "runner stopped or job finalized elsewhere")
		return
	}

	if res.err != "" {
		if ctx.Err() != nil {
			logger.Warn("job_abandoned", "reason", "runner stopped", "error", res.err)
			return
		}
		r.finalizeFailure(logger, job.Kind, jobID, res.err)
		return
	}

	r.finalizeSuccess(logger, job.Kind, jobID, res.output, r.opts.Clock.Now().Sub(started))
}

// execute calls Start and, for remote handles, the poll loop. Executor
// errors and panics are folded into the returned outcome.
func (r *Runner) execute(ctx context.Context, logger *slog.Logger, job model.Job, exec Executor) (outcome, error) {
	start, err := safeStart(ctx, exec, job.Input)
	if err != nil {
		return outcome{err: err.Error()}, nil
	}

	if start.Handle == SyncHandle {
		if start.Result == nil {
			return outcome{err: "sync executor returned no result"}, nil
		}
		return fromResult(*start.Result), nil
	}

	poller, ok := exec.(Poller)
	if !ok {
		return outcome{err: "async executor does not implement Poll"}, nil
	}

	logger.Info("job_polling", "handle", start.Handle)
	return r.pollLoop(ctx, logger, job.ID, poller, start.Handle)
}

func (r *Runner) pollLoop(ctx context.Context, logger *slog.Logger, jobID uuid.UUID, poller Poller, handle string) (outcome, error) {
	progress := 0

	for attempt := 1; attempt <= r.opts.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return outcome{}, errStopped
		case <-r.opts.Clock.After(r.opts.PollInterval):
		}

		res, err := safePoll(ctx, poller, handle)
		if err != nil {
			return outcome{err: err.Error()}, nil
		}

		if !res.Processing {
			return fromResult(res.Result), nil
		}

		next := placeholderProgress
		if res.Progress != nil {
			next = clampProgress(*res.Progress)
		}
		if next < progress {
			next = progress
		}
		progress = next

		// Written on every attempt so updated_at keeps moving while the
		// provider is still working.
		if _, err := r.store.UpdateJob(ctx, jobID, model.JobUpdate{Progress: model.IntPtr(progress)}); err != nil {
			if errors.Is(err, model.ErrJobTerminal) {
				return outcome{}, errStopped
			}
			logger.Warn("job_progress_update_failed", "attempt", attempt, "error", err)
		}
	}

	return outcome{err: fmt.Sprintf("job polling timed out after %d attempts", r.opts.MaxPollAttempts)}, nil
}

func (r *Runner) finalizeSuccess(logger *slog.Logger, kind model.Kind, jobID uuid.UUID, output json.RawMessage, elapsed time.Duration) {
	if len(output) == 0 {
		output = json.RawMessage(`{}`)
	}
	_, err := r.store.UpdateJob(context.Background(), jobID, model.JobUpdate{
		Status:   model.StatusPtr(model.StatusComplete),
		Progress: model.IntPtr(100),
		Result:   output,
	})
	if err != nil {
		logTerminalWriteError(logger, err, "")
		return
	}
	metrics.RecordJobFinished(string(kind), string(model.StatusComplete))
	logger.Info("job_completed", "elapsed_ms", elapsed.Milliseconds())
}

// finalizeFailure leaves progress where it last was so partial progress
// stays visible.
func (r *Runner) finalizeFailure(logger *slog.Logger, kind model.Kind, jobID uuid.UUID, msg string) {
	_, err := r.store.UpdateJob(context.Background(), jobID, model.JobUpdate{
		Status: model.StatusPtr(model.StatusFailed),
		Error:  model.StringPtr(msg),
	})
	if err != nil {
		logTerminalWriteError(logger, err, msg)
		return
	}
	metrics.RecordJobFinished(string(kind), string(model.StatusFailed))
	logger.Warn("job_failed", "error", msg)
}

// logTerminalWriteError treats a job that is already terminal as a lost
// race with the janitor rather than a store failure.
func logTerminalWriteError(logger *slog.Logger, err error, jobErr string) {
	if errors.Is(err, model.ErrJobTerminal) {
		logger.Info("job_already_terminal", "job_error", jobErr)
		return
	}
	logger.Error("job_terminal_write_failed", "error", err, "job_error", jobErr)
}

func fromResult(res Result) outcome {
	if res.Success {
		return outcome{output: res.Output}
	}
	msg := res.Error
	if msg == "" {
		msg = "unknown error"
	}
	return outcome{err: msg}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func safeStart(ctx context.Context, exec Executor, input json.RawMessage) (res StartResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor panic: %v", p)
		}
	}()
	return exec.Start(ctx, input)
}

func safePoll(ctx context.Context, poller Poller, handle string) (res PollResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor panic: %v", p)
		}
	}()
	return poller.Poll(ctx, handle)
}
