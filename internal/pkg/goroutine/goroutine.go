// Package goroutine runs background work (message handlers, the expiry sweeper)
// under a shared concurrency limit so shutdown can wait for all of it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultPerCPU is the per-CPU limit applied when NewManager receives a non-positive limit.
const DefaultPerCPU int = 100

// Manager schedules goroutines bounded by a semaphore and collects their errors.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	// gate serializes scheduling against Wait so no task is added after shutdown starts.
	gate   sync.RWMutex
	closed bool

	active  *atomic.Int64
	dropped *atomic.Int64

	mu   sync.Mutex
	errs []error
}

// NewManager creates a Manager that runs at most limit goroutines at a time.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultPerCPU
	}

	return &Manager{
		slots:   make(chan struct{}, limit),
		active:  atomic.NewInt64(0),
		dropped: atomic.NewInt64(0),
	}
}

// Go runs f in a new goroutine when a slot is free and reports whether it was scheduled.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if m == nil {
		return false
	}

	m.gate.RLock()
	defer m.gate.RUnlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, task skipped")
		return false
	}

	select {
	case m.slots <- struct{}{}:
	default:
		m.dropped.Inc()
		slog.WarnContext(ctx, "goroutine limit reached, task skipped", "dropped_total", m.dropped.Load())
		return false
	}

	m.active.Inc()
	m.wg.Go(func() {
		defer func() {
			m.active.Dec()
			<-m.slots
			if rvr := recover(); rvr != nil {
				logPanic(ctx, rvr)
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "error", err)
			return
		}

		if err := f(ctx); err != nil {
			m.mu.Lock()
			m.errs = append(m.errs, err)
			m.mu.Unlock()
		}
	})

	return true
}

// Every runs f on each tick of interval until ctx is done. Errors from f are
// logged and do not stop the loop.
func (m *Manager) Every(ctx context.Context, name string, interval time.Duration, f func(ctx context.Context) error) bool {
	if interval <= 0 {
		slog.WarnContext(ctx, "periodic task disabled", "task", name, "interval", interval)
		return false
	}

	return m.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := runGuarded(ctx, f); err != nil {
					slog.ErrorContext(ctx, "periodic task failed", "task", name, "error", err)
				}
			}
		}
	})
}

// Active returns the number of goroutines currently running.
func (m *Manager) Active() int64 {
	return m.active.Load()
}

// Wait stops accepting new work, blocks until running goroutines finish and
// returns their joined errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.gate.Lock()
	m.closed = true
	m.gate.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(m.errs...)
}

func runGuarded(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			logPanic(ctx, rvr)
			err = errors.New("goroutine: periodic task panicked")
		}
	}()

	return f(ctx)
}

func logPanic(ctx context.Context, rvr any) {
	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic recovered in goroutine", "panic", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic recovered in goroutine", "panic", rvr, "stack", string(stack))
}
