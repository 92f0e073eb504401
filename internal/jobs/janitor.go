package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaforge/internal/metrics"
	"mediaforge/internal/model"
)

// SweptJob identifies one job failed by a sweep.
type SweptJob struct {
	ID         uuid.UUID  `json:"id"`
	Kind       model.Kind `json:"type"`
	LastUpdate time.Time  `json:"lastUpdate"`
}

// SweepReport summarizes one janitor run.
type SweepReport struct {
	Count int        `json:"timedOutCount"`
	Jobs  []SweptJob `json:"jobs"`
}

// Janitor fails jobs left pending or loading past a staleness threshold,
// typically because the process driving them died. It is invoked by an
// external trigger and never schedules itself.
type Janitor struct {
	store  Store
	logger *slog.Logger
	clock  Clock
}

func NewJanitor(st Store, logger *slog.Logger, clock Clock) *Janitor {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Janitor{store: st, logger: logger, clock: clock}
}

// SweepStale fails every non-terminal job whose updated_at is older than
// threshold. The update is guarded by the same condition, so jobs that
// finished in the meantime are left alone and a repeated sweep is a
// no-op. A store error aborts the run; the next run picks up the rest.
func (j *Janitor) SweepStale(ctx context.Context, threshold time.Duration) (SweepReport, error) {
	cutoff := j.clock.Now().Add(-threshold)
	report := SweepReport{Jobs: []SweptJob{}}

	stale, err := j.store.ListStaleJobs(ctx, model.NonTerminalStatuses, cutoff)
	if err != nil {
		return report, fmt.Errorf("list stale jobs: %w", err)
	}
	if len(stale) == 0 {
		return report, nil
	}

	ids := make([]uuid.UUID, len(stale))
	for i, job := range stale {
		ids[i] = job.ID
	}

	msg := fmt.Sprintf("timed out after %d minutes", int(math.Round(threshold.Minutes())))
	failed, err := j.store.FailStaleJobs(ctx, ids, cutoff, msg)
	if err != nil {
		return report, fmt.Errorf("fail stale jobs: %w", err)
	}

	updated := make(map[uuid.UUID]struct{}, len(failed))
	for _, id := range failed {
		updated[id] = struct{}{}
	}

	labels := make([]string, 0, len(failed))
	for _, job := range stale {
		if _, ok := updated[job.ID]; !ok {
			continue
		}
		report.Jobs = append(report.Jobs, SweptJob{ID: job.ID, Kind: job.Kind, LastUpdate: job.UpdatedAt})
		labels = append(labels, fmt.Sprintf("%s (%s)", job.ID, job.Kind))
	}
	report.Count = len(report.Jobs)

	metrics.RecordJanitorSwept(report.Count)
	if report.Count > 0 {
		j.logger.Info("janitor_timed_out_jobs", "count", report.Count, "jobs", strings.Join(labels, ", "))
	}
	return report, nil
}
