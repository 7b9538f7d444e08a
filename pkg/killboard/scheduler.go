package killboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RequestFunc performs one attempt of an outbound call. The context carries
// the per-attempt timeout; implementations must respect it.
type RequestFunc func(ctx context.Context) (any, error)

// SchedulerConfig tunes the scheduler. Zero values fall back to the
// deployment defaults.
type SchedulerConfig struct {
	MinInterval    time.Duration // minimum gap between dispatches
	RequestTimeout time.Duration // per-attempt deadline
	MaxRetries     int
}

// Scheduler serialises outbound calls to the stats backend. Requests are
// served FIFO with a minimum gap between dispatches, at most one in flight,
// and bounded retry with exponential backoff.
type Scheduler struct {
	queue     chan *task
	cfg       SchedulerConfig
	stopCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

type taskResult struct {
	value any
	err   error
}

type task struct {
	ctx      context.Context
	fn       RequestFunc
	resultCh chan taskResult
}

// NewScheduler creates a scheduler. Call Start before scheduling.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	return &Scheduler{
		queue:  make(chan *task, 64),
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// Start launches the dispatch loop.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Stop halts the dispatch loop. Queued and waiting requests fail promptly
// with context.Canceled.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Schedule enqueues a request and blocks until its result is available or
// the caller's context is cancelled. Cancellation drops the in-flight
// result; the dispatch loop never blocks on an abandoned caller.
func (s *Scheduler) Schedule(ctx context.Context, fn RequestFunc) (any, error) {
	t := &task{
		ctx:      ctx,
		fn:       fn,
		resultCh: make(chan taskResult, 1),
	}

	select {
	case s.queue <- t:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, context.Canceled
	}

	select {
	case r := <-t.resultCh:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopCh:
		return nil, context.Canceled
	}
}

func (s *Scheduler) run() {
	var lastDispatch time.Time

	for {
		select {
		case <-s.stopCh:
			s.drain()
			return
		case t := <-s.queue:
			if wait := s.cfg.MinInterval - time.Since(lastDispatch); wait > 0 && !lastDispatch.IsZero() {
				select {
				case <-time.After(wait):
				case <-s.stopCh:
					t.resultCh <- taskResult{err: context.Canceled}
					s.drain()
					return
				}
			}

			// The caller may have given up while queued
			if err := t.ctx.Err(); err != nil {
				t.resultCh <- taskResult{err: err}
				continue
			}

			lastDispatch = time.Now()
			value, err := s.execute(t)
			t.resultCh <- taskResult{value: value, err: err}
		}
	}
}

// drain fails everything still queued so no caller waits on a stopped loop.
func (s *Scheduler) drain() {
	for {
		select {
		case t := <-s.queue:
			t.resultCh <- taskResult{err: context.Canceled}
		default:
			return
		}
	}
}

// execute runs one task with retry. Each attempt gets its own deadline; a
// stalled attempt counts as a retryable failure.
func (s *Scheduler) execute(t *task) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			slog.Warn("Retrying stats request",
				"attempt", attempt,
				"backoff", backoff.String(),
				"error", lastErr)
			select {
			case <-time.After(backoff):
			case <-t.ctx.Done():
				return nil, t.ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(t.ctx, s.cfg.RequestTimeout)
		value, err := t.fn(attemptCtx)
		cancel()

		if err == nil {
			return value, nil
		}
		if ctxErr := t.ctx.Err(); ctxErr != nil {
			// Caller cancellation, not a request failure
			return nil, ctxErr
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}
