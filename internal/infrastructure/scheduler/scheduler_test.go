package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== Configuration ====================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
}

func TestNew_FillsZeroConfig(t *testing.T) {
	s := New(Config{}, nil)

	assert.Equal(t, time.UTC, s.config.Location)
	assert.Equal(t, DefaultConfig().JobTimeout, s.config.JobTimeout)
}

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "hourly", spec: "0 */1 * * *"},
		{name: "daily at 2am", spec: "0 2 * * *"},
		{name: "descriptor", spec: "@every 5m"},
		{name: "too few fields", spec: "0 2 *", wantErr: true},
		{name: "garbage", spec: "not a cron", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpec(tt.spec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// ==================== Registration ====================

func TestRegister(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("overdue_sweep", "0 * * * *", noop))

	state, ok := s.State("overdue_sweep")
	require.True(t, ok)
	assert.Equal(t, JobStatusPending, state.Status)
	assert.Equal(t, "0 * * * *", state.Spec)
	assert.Nil(t, state.LastStartedAt)

	err := s.Register("overdue_sweep", "0 * * * *", noop)
	assert.ErrorIs(t, err, ErrJobExists)

	err = s.Register("broken", "61 * * * *", noop)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestRegister_AfterStart(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	err := s.Register("late", "0 * * * *", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrSchedulerRunning)
}

func TestState_Unknown(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())

	_, ok := s.State("missing")
	assert.False(t, ok)
}

// ==================== Execution ====================

func TestRunNow_Success(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	var calls atomic.Int32
	require.NoError(t, s.Register("sweep", "0 * * * *", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		calls.Add(1)
		return nil
	}))

	require.NoError(t, s.RunNow(context.Background(), "sweep"))

	state, _ := s.State("sweep")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, JobStatusSuccess, state.Status)
	assert.Equal(t, 1, state.Runs)
	assert.Zero(t, state.Failures)
	require.NotNil(t, state.LastStartedAt)
	require.NotNil(t, state.LastFinishedAt)
	assert.False(t, state.LastFinishedAt.Before(*state.LastStartedAt))
}

func TestRunNow_Failure(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	boom := errors.New("database unavailable")
	require.NoError(t, s.Register("sweep", "0 * * * *", func(context.Context) error { return boom }))

	err := s.RunNow(context.Background(), "sweep")
	assert.ErrorIs(t, err, boom)

	state, _ := s.State("sweep")
	assert.Equal(t, JobStatusFailed, state.Status)
	assert.Equal(t, 1, state.Failures)
	assert.Equal(t, "database unavailable", state.LastError)
}

func TestRunNow_RecoversPanic(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, s.Register("sweep", "0 * * * *", func(context.Context) error { panic("nil map") }))

	err := s.RunNow(context.Background(), "sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())

	err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_AppliesTimeout(t *testing.T) {
	s := New(Config{JobTimeout: 20 * time.Millisecond}, zap.NewNop())
	require.NoError(t, s.Register("slow", "0 * * * *", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ==================== Lifecycle ====================

func TestStartStop_Idempotent(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduledTick(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Register("tick", "@every 1s", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	state, _ := s.State("tick")
	require.NotNil(t, state.NextRunAt)

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run on schedule")
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Register("long", "@every 1s", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-cancelled:
	default:
		t.Fatal("running job was not cancelled")
	}
}
