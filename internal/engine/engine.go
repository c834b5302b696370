// Package engine runs at most one script body at a time.
//
// Cancellation is cooperative: Stop cancels the run's context and the body
// is expected to notice. Nothing forcibly terminates a running body.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of Start.
type Result int

const (
	// Started means the body is now running.
	Started Result = iota
	// Busy means a different script is running.
	Busy
	// AlreadyRunning means the same script is running.
	AlreadyRunning
)

func (r Result) String() string {
	switch r {
	case Started:
		return "started"
	case Busy:
		return "busy"
	case AlreadyRunning:
		return "already running"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// ErrStopped is the cancellation cause of a run ended by Stop.
var ErrStopped = errors.New("stopped by user")

// Func is a script body.
type Func func(ctx context.Context, params map[string]any) error

// Finished describes a completed run.
type Finished struct {
	ID    string
	RunID string
	// Err is the body's error, or a description of its panic.
	Err error
	// Cancelled reports whether Stop was called during the run.
	Cancelled bool
	Elapsed   time.Duration
}

// Listener receives Finished events on the worker goroutine.
type Listener func(Finished)

// Options configures an Engine.
type Options struct {
	Logger   *slog.Logger
	Listener Listener
}

type execution struct {
	id     string
	runID  string
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// Engine holds the single execution slot.
type Engine struct {
	logger   *slog.Logger
	listener Listener

	mu      sync.Mutex
	current *execution
	closed  bool
}

// New returns an idle engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: opts.Logger, listener: opts.Listener}
}

// Start runs fn with a copy of params unless something is already running.
// The id is marked active before Start returns.
func (e *Engine) Start(id string, fn Func, params map[string]any) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		if e.current.id == id {
			return AlreadyRunning
		}
		return Busy
	}
	if e.closed {
		return Busy
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	ex := &execution{
		id:     id,
		runID:  uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.current = ex
	go e.work(ctx, ex, fn, maps.Clone(params))
	return Started
}

func (e *Engine) work(ctx context.Context, ex *execution, fn Func, params map[string]any) {
	logger := e.logger.With("script", ex.id, "run", ex.runID)
	logger.Info("script started")
	start := time.Now()

	err := call(ctx, fn, params)

	f := Finished{
		ID:        ex.id,
		RunID:     ex.runID,
		Err:       err,
		Cancelled: ctx.Err() != nil,
		Elapsed:   time.Since(start),
	}
	ex.cancel(nil)

	e.mu.Lock()
	if e.current == ex {
		e.current = nil
	}
	e.mu.Unlock()
	close(ex.done)

	if err != nil {
		logger.Error("script failed", "error", err, "elapsed", f.Elapsed)
	} else {
		logger.Info("script finished", "cancelled", f.Cancelled, "elapsed", f.Elapsed)
	}
	if e.listener != nil {
		e.listener(f)
	}
}

func call(ctx context.Context, fn Func, params map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, params)
}

// Active returns the id of the running script.
func (e *Engine) Active() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return "", false
	}
	return e.current.id, true
}

// IsRunning reports whether id is the running script.
func (e *Engine) IsRunning(id string) bool {
	active, ok := e.Active()
	return ok && active == id
}

// Stop asks the run of id to stop. It returns false when id is not running.
func (e *Engine) Stop(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || e.current.id != id {
		return false
	}
	e.current.cancel(ErrStopped)
	return true
}

// StopAny asks whatever is running to stop.
func (e *Engine) StopAny() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return "", false
	}
	e.current.cancel(ErrStopped)
	return e.current.id, true
}

// Wait blocks until the current run, if any, has finished.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	ex := e.current
	e.mu.Unlock()
	if ex == nil {
		return nil
	}
	select {
	case <-ex.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the current run, refuses new ones and waits for the worker.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.StopAny()
	return e.Wait(ctx)
}
