package killboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	s := NewScheduler(cfg)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestSchedulerFIFOAndMinInterval(t *testing.T) {
	interval := 50 * time.Millisecond
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    interval,
		RequestTimeout: time.Second,
	})

	var mu sync.Mutex
	var dispatches []time.Time
	var order []int

	var wg sync.WaitGroup
	run := func(id int) {
		defer wg.Done()
		_, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
			mu.Lock()
			dispatches = append(dispatches, time.Now())
			order = append(order, id)
			mu.Unlock()
			return id, nil
		})
		require.NoError(t, err)
	}

	// Enqueue sequentially so FIFO order is observable
	wg.Add(3)
	go run(1)
	time.Sleep(5 * time.Millisecond)
	go run(2)
	time.Sleep(5 * time.Millisecond)
	go run(3)
	wg.Wait()

	require.Equal(t, []int{1, 2, 3}, order)
	for i := 1; i < len(dispatches); i++ {
		gap := dispatches[i].Sub(dispatches[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
			"dispatch gap %v below minimum interval", gap)
	}
}

func TestSchedulerRetriesServerErrors(t *testing.T) {
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
		MaxRetries:     2,
	})

	attempts := 0
	value, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, &StatusError{Code: http.StatusBadGateway}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 3, attempts)
}

func TestSchedulerNonRetryableFailsFast(t *testing.T) {
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
		MaxRetries:     3,
	})

	attempts := 0
	_, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
		attempts++
		return nil, &StatusError{Code: http.StatusNotFound}
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, 1, attempts)
}

func TestSchedulerPowRejectionFailsFast(t *testing.T) {
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
		MaxRetries:     3,
	})

	attempts := 0
	_, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
		attempts++
		return nil, ErrProofOfWorkRejected
	})

	require.ErrorIs(t, err, ErrProofOfWorkRejected)
	assert.Equal(t, 1, attempts)
}

func TestSchedulerCancellationDropsResult(t *testing.T) {
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	go func() {
		<-started
		cancel()
	}()

	_, err := s.Schedule(ctx, func(attemptCtx context.Context) (any, error) {
		close(started)
		<-attemptCtx.Done()
		return nil, attemptCtx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerStopReleasesQueuedCallers(t *testing.T) {
	// A long interval keeps later requests queued behind the first dispatch.
	s := NewScheduler(SchedulerConfig{
		MinInterval:    time.Hour,
		RequestTimeout: time.Second,
	})
	s.Start()

	_, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
		return "first", nil
	})
	require.NoError(t, err)

	// Callers use a non-cancellable context, so only Stop can release them.
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := s.Schedule(context.WithoutCancel(context.Background()),
				func(ctx context.Context) (any, error) { return nil, nil })
			results <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	for i := 0; i < 5; i++ {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Schedule never returned after Stop")
		}
	}
}

func TestSchedulerScheduleAfterStopFailsFast(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
	})
	s.Start()
	s.Stop()

	_, err := s.Schedule(context.WithoutCancel(context.Background()),
		func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerTimeoutIsRetryable(t *testing.T) {
	s := newTestScheduler(t, SchedulerConfig{
		MinInterval:    time.Millisecond,
		RequestTimeout: 20 * time.Millisecond,
		MaxRetries:     1,
	})

	attempts := 0
	value, err := s.Schedule(context.Background(), func(ctx context.Context) (any, error) {
		attempts++
		if attempts == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &StatusError{Code: 502}, true},
		{"request timeout", &StatusError{Code: 408}, true},
		{"rate limited", &StatusError{Code: 429}, true},
		{"bad request", &StatusError{Code: 400}, false},
		{"not found", &StatusError{Code: 404}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"pow rejected", ErrProofOfWorkRejected, false},
		{"pow exhausted", ErrProofOfWorkExhausted, false},
		{"network", errors.New("dial tcp: refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
