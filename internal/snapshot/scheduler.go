package snapshot

import (
	"bytes"
	"context"
	"sync"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StateSource provides the state to snapshot.
type StateSource interface {
	State(ctx context.Context) (*domain.State, error)
}

// Job writes the current state to a file. It implements cron.Job.
// A write is skipped when the encoded state is unchanged since the last one.
type Job struct {
	source StateSource
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	last []byte
}

// NewJob creates a snapshot job writing to path.
func NewJob(source StateSource, path string, logger *zap.Logger) *Job {
	return &Job{source: source, path: path, logger: logger}
}

// Run takes one snapshot and logs the outcome.
func (j *Job) Run() {
	if _, err := j.Snapshot(context.Background()); err != nil {
		j.logger.Error("writing snapshot", zap.String("path", j.path), zap.Error(err))
	}
}

// Snapshot writes the state if it changed and reports whether it wrote.
func (j *Job) Snapshot(ctx context.Context) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.source.State(ctx)
	if err != nil {
		return false, err
	}
	data, err := Encode(state, FormatFor(j.path))
	if err != nil {
		return false, err
	}
	if j.last != nil && bytes.Equal(data, j.last) {
		return false, nil
	}
	if err := writeFile(j.path, data); err != nil {
		return false, err
	}
	j.last = data

	j.logger.Info("snapshot written",
		zap.String("path", j.path),
		zap.Int("members", len(state.Members)),
		zap.Int("events", len(state.Events)))
	return true, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	job  *Job
}

// NewScheduler schedules job with a standard cron expression or descriptor
// such as "@every 5m".
func NewScheduler(spec string, job *Job, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, job: job}, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule, waits for a running job, and takes a final snapshot.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := s.job.Snapshot(ctx)
	return err
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
