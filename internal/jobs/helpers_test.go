package jobs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
	"mediaforge/internal/store"
)

// fakeClock advances by the requested duration every time After is called
// and fires immediately, so poll loops run without real sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// frozenClock never fires After, leaving poll loops parked until the
// runner is shut down.
type frozenClock struct {
	*fakeClock
}

func (frozenClock) After(time.Duration) <-chan time.Time { return nil }

type harness struct {
	runner *jobs.Runner
	store  *store.MemoryStore
	clock  *fakeClock
}

func newHarness(t *testing.T, reg jobs.Registry, opts jobs.Options) *harness {
	t.Helper()
	clock := newFakeClock()
	st := store.NewMemoryStore()
	st.Now = clock.Now
	if opts.Clock == nil {
		opts.Clock = clock
	}
	r := jobs.NewRunner(st, reg, nil, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return &harness{runner: r, store: st, clock: clock}
}

// fullRegistry returns a registry with exec bound to every kind.
func fullRegistry(exec jobs.Executor) jobs.Registry {
	reg := jobs.Registry{}
	for _, k := range model.Kinds {
		reg[k] = exec
	}
	return reg
}

func (h *harness) job(t *testing.T, id uuid.UUID) model.Job {
	t.Helper()
	job, err := h.store.GetJob(context.Background(), id)
	require.NoError(t, err)
	return job
}
