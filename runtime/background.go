package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFailureBuffer is the capacity of the failure channel. Failures are
// dropped, not blocked on, once it is full.
const DefaultFailureBuffer = 64

// TaskFailure describes a background task that returned an error or panicked.
type TaskFailure struct {
	Task       string
	ExchangeID string
	Err        error
	At         time.Time
}

// Background runs fire-and-forget work off the request path. Tasks get a
// context detached from the request's cancellation but keep its values.
type Background struct {
	l        *slog.Logger
	wg       sync.WaitGroup
	failures chan TaskFailure
	dropped  atomic.Int64

	mu     sync.Mutex // guards closed together with wg.Add
	closed bool
}

func NewBackground(l *slog.Logger, buffer int) *Background {
	if l == nil {
		l = slog.Default()
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Background{
		l:        l,
		failures: make(chan TaskFailure, buffer),
	}
}

// Go starts fn in its own goroutine. It reports false when the runner is
// already shutting down and the task was not started.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.l.WarnContext(ctx, "Background runner stopped, task not started", "task", name)
		return false
	}
	b.wg.Add(1)
	b.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		if err := b.run(detached, fn); err != nil {
			b.fail(detached, name, err)
		}
	}()
	return true
}

func (b *Background) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (b *Background) fail(ctx context.Context, name string, err error) {
	failure := TaskFailure{Task: name, Err: err, At: time.Now()}
	if ex, ok := ExchangeFrom(ctx); ok {
		failure.ExchangeID = ex.ID
	}

	attrs := []any{"exchange_id", failure.ExchangeID, "error", err.Error()}
	if flowErr, ok := AsFlowError(err); ok {
		attrs = append(attrs, "code", string(flowErr.Code), "retryable", flowErr.IsRetryable())
	}
	b.l.ErrorContext(ctx, fmt.Sprintf("Background task %s failed", name), attrs...)

	select {
	case b.failures <- failure:
	default:
		b.dropped.Add(1)
	}
}

// Failures exposes failed tasks to whoever wants to observe them.
func (b *Background) Failures() <-chan TaskFailure {
	return b.failures
}

// Dropped returns how many failures did not fit in the channel.
func (b *Background) Dropped() int64 {
	return b.dropped.Load()
}

// Wait blocks until every started task has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}

// Shutdown stops accepting tasks and waits for running ones until ctx ends.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
