// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of a job's latest run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the unit of work a job performs on every tick
type JobFunc func(ctx context.Context) error

// JobState is a snapshot of a registered job
type JobState struct {
	Name           string
	Spec           string
	Status         JobStatus
	Runs           int
	Failures       int
	LastError      string
	LastStartedAt  *time.Time
	LastFinishedAt *time.Time
	NextRunAt      *time.Time
}

// Config holds scheduler configuration
type Config struct {
	Location   *time.Location
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Location:   time.UTC,
		JobTimeout: 10 * time.Minute,
	}
}

type job struct {
	state   JobState
	fn      JobFunc
	entryID cron.EntryID
	running sync.Mutex
}

// Scheduler wraps a cron runner with per-job timeouts, status tracking and
// zap logging. A job never overlaps with itself: a tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*job
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// New creates a scheduler. Nothing runs until Start.
func New(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithChain(cron.Recover(cl)),
			cron.WithLogger(cl),
		),
		logger:  logger,
		jobs:    make(map[string]*job),
		baseCtx: context.Background(),
	}
}

// ValidateSpec reports whether spec is a cron expression the scheduler accepts
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	return nil
}

// Register adds a named job. Jobs must be registered before Start.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	j := &job{
		state: JobState{Name: name, Spec: spec, Status: JobStatusPending},
		fn:    fn,
	}
	id, err := s.cron.AddFunc(spec, func() { s.tick(j) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	j.entryID = id
	s.jobs[name] = j

	s.logger.Info("Job registered",
		zap.String("job", name),
		zap.String("spec", spec),
		zap.String("location", s.config.Location.String()),
	)
	return nil
}

// Start starts the cron runner. Jobs receive a context derived from ctx
// that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.cron.Start()

	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops scheduling new runs, cancels in-flight jobs and waits for them
// to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	if cancel != nil {
		cancel()
	}

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow executes a registered job synchronously, outside its schedule.
// It waits for a concurrent scheduled run of the same job to finish first.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	j.running.Lock()
	defer j.running.Unlock()
	return s.execute(ctx, j)
}

// State returns a snapshot of the named job
func (s *Scheduler) State(name string) (JobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return JobState{}, false
	}
	state := j.state
	if entry := s.cron.Entry(j.entryID); !entry.Next.IsZero() {
		next := entry.Next
		state.NextRunAt = &next
	}
	return state, true
}

func (s *Scheduler) tick(j *job) {
	if !j.running.TryLock() {
		s.logger.Warn("Job still running, skipping tick", zap.String("job", j.state.Name))
		return
	}
	defer j.running.Unlock()

	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	_ = s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	started := time.Now()
	s.mu.Lock()
	j.state.Status = JobStatusRunning
	j.state.LastStartedAt = &started
	j.state.LastError = ""
	s.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.safeRun(jobCtx, j)

	finished := time.Now()
	s.mu.Lock()
	j.state.Runs++
	j.state.LastFinishedAt = &finished
	if err != nil {
		j.state.Status = JobStatusFailed
		j.state.Failures++
		j.state.LastError = err.Error()
	} else {
		j.state.Status = JobStatusSuccess
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", j.state.Name),
			zap.Duration("took", finished.Sub(started)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Job completed",
		zap.String("job", j.state.Name),
		zap.Duration("took", finished.Sub(started)),
	)
	return nil
}

func (s *Scheduler) safeRun(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.state.Name, r)
		}
	}()
	return j.fn(ctx)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
