package jobs

import (
	"context"
	"encoding/json"
	"fmt"
)

// SyncHandle is returned by Start when the work already finished and
// StartResult.Result carries the outcome.
const SyncHandle = "sync"

// Result is the terminal outcome reported by an executor.
type Result struct {
	Success bool
	Output  json.RawMessage
	Error   string
}

// StartResult is returned by Executor.Start. Handle is either SyncHandle,
// in which case Result must be set, or an opaque identifier of a remote
// operation that the runner polls.
type StartResult struct {
	Handle string
	Result *Result
}

// PollResult is returned by Poller.Poll. While Processing is true,
// Progress optionally carries a 0-100 estimate; otherwise Result holds
// the terminal outcome.
type PollResult struct {
	Processing bool
	Progress   *int
	Result     Result
}

// Executor runs one job kind against one external provider. It knows
// nothing about persistence or scheduling.
type Executor interface {
	Start(ctx context.Context, input json.RawMessage) (StartResult, error)
}

// Poller is implemented by executors whose Start can return a remote
// handle instead of SyncHandle.
type Poller interface {
	Poll(ctx context.Context, handle string) (PollResult, error)
}

// PollingExecutor is an Executor for remote, long-running work.
type PollingExecutor interface {
	Executor
	Poller
}

// Outcome is the typed form of Result.
type Outcome[O any] struct {
	Success bool
	Data    O
	Error   string
}

// Started is the typed form of StartResult.
type Started[O any] struct {
	Handle string
	Result *Outcome[O]
}

// Polled is the typed form of PollResult.
type Polled[O any] struct {
	Processing bool
	Progress   *int
	Outcome    Outcome[O]
}

// Done reports synchronous success.
func Done[O any](data O) Started[O] {
	return Started[O]{Handle: SyncHandle, Result: &Outcome[O]{Success: true, Data: data}}
}

// Rejected reports a synchronous failure, typically a provider refusing
// the request outright.
func Rejected[O any](err error) Started[O] {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Started[O]{Handle: SyncHandle, Result: &Outcome[O]{Error: msg}}
}

// Remote reports that a remote operation was created and must be polled.
func Remote[O any](handle string) Started[O] {
	return Started[O]{Handle: handle}
}

// StillProcessing reports a non-terminal poll. A nil progress lets the
// runner substitute its placeholder value.
func StillProcessing[O any](progress *int) Polled[O] {
	return Polled[O]{Processing: true, Progress: progress}
}

func Succeeded[O any](data O) Polled[O] {
	return Polled[O]{Outcome: Outcome[O]{Success: true, Data: data}}
}

func PollFailed[O any](msg string) Polled[O] {
	return Polled[O]{Outcome: Outcome[O]{Error: msg}}
}

// Processor is a typed executor for input I and output O.
type Processor[I, O any] interface {
	Start(ctx context.Context, input I) (Started[O], error)
}

// PollingProcessor is a Processor whose work completes remotely.
type PollingProcessor[I, O any] interface {
	Processor[I, O]
	Poll(ctx context.Context, handle string) (Polled[O], error)
}

// Adapt wraps a typed processor as an Executor, decoding the stored
// input and encoding the produced output as JSON. The returned value
// also implements Poller when p is a PollingProcessor.
func Adapt[I, O any](p Processor[I, O]) Executor {
	base := &typedExecutor[I, O]{p: p}
	if pp, ok := p.(PollingProcessor[I, O]); ok {
		return &typedPollingExecutor[I, O]{typedExecutor: base, pp: pp}
	}
	return base
}

type typedExecutor[I, O any] struct {
	p Processor[I, O]
}

func (e *typedExecutor[I, O]) Start(ctx context.Context, input json.RawMessage) (StartResult, error) {
	var in I
	if err := json.Unmarshal(input, &in); err != nil {
		return StartResult{}, fmt.Errorf("decode input: %w", err)
	}

	started, err := e.p.Start(ctx, in)
	if err != nil {
		return StartResult{}, err
	}

	out := StartResult{Handle: started.Handle}
	if started.Result != nil {
		res, err := encodeOutcome(*started.Result)
		if err != nil {
			return StartResult{}, err
		}
		out.Result = &res
	}
	return out, nil
}

type typedPollingExecutor[I, O any] struct {
	*typedExecutor[I, O]
	pp PollingProcessor[I, O]
}

func (e *typedPollingExecutor[I, O]) Poll(ctx context.Context, handle string) (PollResult, error) {
	polled, err := e.pp.Poll(ctx, handle)
	if err != nil {
		return PollResult{}, err
	}
	if polled.Processing {
		return PollResult{Processing: true, Progress: polled.Progress}, nil
	}

	res, err := encodeOutcome(polled.Outcome)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{Result: res}, nil
}

func encodeOutcome[O any](o Outcome[O]) (Result, error) {
	if !o.Success {
		return Result{Error: o.Error}, nil
	}
	payload, err := json.Marshal(o.Data)
	if err != nil {
		return Result{}, fmt.Errorf("encode output: %w", err)
	}
	return Result{Success: true, Output: payload}, nil
}
