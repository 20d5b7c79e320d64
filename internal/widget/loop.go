package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned for tasks posted to, or waiting on, a stopped loop.
var ErrLoopStopped = errors.New("widget loop stopped")

// Loop runs tasks one at a time on a single goroutine. Everything that reads
// or writes a widget's DOM runs as a Loop task, so the tree needs no locks.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	log   *slog.Logger

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoop creates a loop with room for queue pending tasks. Call Start before
// posting.
func NewLoop(queue int, log *slog.Logger) *Loop {
	if queue <= 0 {
		queue = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		tasks: make(chan func(), queue),
		quit:  make(chan struct{}),
		log:   log,
	}
}

// Start launches the loop goroutine.
func (l *Loop) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.quit:
				return
			case fn := <-l.tasks:
				l.run(fn)
			}
		}
	}()
}

func (l *Loop) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("widget task panicked", "panic", rec)
		}
	}()
	fn()
}

// Stop ends the loop after the running task, if any, returns. Queued tasks
// are dropped. Stop is idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
	l.wg.Wait()
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do queues fn and waits for it to finish. ctx only bounds the wait for a
// queue slot: once fn is queued, Do waits for it so that callers always
// know whether it ran.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(ctx, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}
