package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/domain"
	redisstore "github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/redis"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/telemetry"
)

// JobFunc is one runnable job. It receives a per-run context and returns the
// run's summary; it must not panic the host.
type JobFunc func(ctx context.Context) domain.RunSummary

// RunRegistry tracks which jobs are currently running. It is injectable so
// tests can run isolated scheduler instances concurrently.
type RunRegistry struct {
	mu      sync.Mutex
	running map[string]bool
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{running: make(map[string]bool)}
}

// TryAcquire marks job as running. Returns false if it already is.
func (r *RunRegistry) TryAcquire(job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[job] {
		return false
	}
	r.running[job] = true
	return true
}

// Release marks job as idle.
func (r *RunRegistry) Release(job string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, job)
}

// Running reports whether job is currently running.
func (r *RunRegistry) Running(job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[job]
}

// JobStatus is the externally visible state of one registered job.
type JobStatus struct {
	Name      string    `json:"name"`
	Cron      string    `json:"cron"`
	Scheduled bool      `json:"scheduled"`
	Running   bool      `json:"running"`
	NextRun   time.Time `json:"next_run,omitzero"`
}

type job struct {
	name  string
	expr  string
	entry cron.EntryID
	fn    JobFunc
}

// Scheduler fires registered jobs on independent cron cadences and exposes
// manual trigger, status and runtime reschedule. The registry guarantees at
// most one concurrent run per job name in this process; the optional Redis
// guard extends that across replicas.
type Scheduler struct {
	cron     *cron.Cron
	registry *RunRegistry
	guard    redisstore.RunGuard // nil = single instance
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// NewScheduler constructs a Scheduler. timeout bounds each scheduled run.
func NewScheduler(registry *RunRegistry, guard redisstore.RunGuard, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: registry,
		guard:    guard,
		timeout:  timeout,
		logger:   logger,
		jobs:     make(map[string]*job),
	}
}

// Register adds a job under the given cron expression. Must be called before
// Start for the first firing to be scheduled.
func (s *Scheduler) Register(name, expr string, fn JobFunc) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("parse cron %q for job %s: %w", expr, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{name: name, expr: expr, fn: fn}
	entry, err := s.cron.AddFunc(expr, func() { s.runScheduled(j) })
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	j.entry = entry
	s.jobs[name] = j
	return nil
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns a context that completes when in-flight
// cron-launched runs have finished.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Trigger runs a job out of band and returns its summary. It is idempotent
// with respect to the ledgers: triggering twice the same day sends no
// duplicates. Returns JobNotFoundError or JobAlreadyRunningError.
func (s *Scheduler) Trigger(ctx context.Context, name string) (domain.RunSummary, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return domain.RunSummary{}, &domain.JobNotFoundError{Job: name}
	}

	if !s.registry.TryAcquire(name) {
		return domain.RunSummary{}, &domain.JobAlreadyRunningError{Job: name}
	}
	defer s.registry.Release(name)

	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, name)
		if err != nil {
			return domain.RunSummary{}, fmt.Errorf("run guard for %s: %w", name, err)
		}
		if !acquired {
			return domain.RunSummary{}, &domain.JobAlreadyRunningError{Job: name}
		}
		defer func() {
			if err := s.guard.Release(ctx, name); err != nil {
				s.logger.Error("release run guard", slog.String("job", name), slog.String("error", err.Error()))
			}
		}()
	}

	return s.run(ctx, j), nil
}

// Reschedule swaps a job's cadence. Applies to subsequent runs; an in-flight
// run is unaffected. No restart required.
func (s *Scheduler) Reschedule(name, expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("parse cron %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return &domain.JobNotFoundError{Job: name}
	}

	s.cron.Remove(j.entry)
	entry, err := s.cron.AddFunc(expr, func() { s.runScheduled(j) })
	if err != nil {
		return fmt.Errorf("reschedule job %s: %w", name, err)
	}
	j.entry = entry
	j.expr = expr

	s.logger.Info("job rescheduled", slog.String("job", name), slog.String("cron", expr))
	return nil
}

// Status reports whether a job is scheduled/running and when it fires next.
func (s *Scheduler) Status(name string) (JobStatus, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobStatus{}, &domain.JobNotFoundError{Job: name}
	}

	entry := s.cron.Entry(j.entry)
	return JobStatus{
		Name:      name,
		Cron:      j.expr,
		Scheduled: entry.Valid(),
		Running:   s.registry.Running(name),
		NextRun:   entry.Next,
	}, nil
}

// runScheduled is the cron callback: it applies the overlap guards and runs
// the job with the configured timeout. A failed run is logged and the next
// scheduled run proceeds independently.
func (s *Scheduler) runScheduled(j *job) {
	if !s.registry.TryAcquire(j.name) {
		s.logger.Warn("previous run still active, skipping fire", slog.String("job", j.name))
		telemetry.JobOverlapSkipsTotal.WithLabelValues(j.name).Inc()
		return
	}
	defer s.registry.Release(j.name)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, j.name)
		if err != nil {
			s.logger.Error("run guard error", slog.String("job", j.name), slog.String("error", err.Error()))
			return
		}
		if !acquired {
			s.logger.Warn("another instance holds the run lock, skipping fire", slog.String("job", j.name))
			telemetry.JobOverlapSkipsTotal.WithLabelValues(j.name).Inc()
			return
		}
		defer func() {
			if err := s.guard.Release(ctx, j.name); err != nil {
				s.logger.Error("release run guard", slog.String("job", j.name), slog.String("error", err.Error()))
			}
		}()
	}

	s.run(ctx, j)
}

func (s *Scheduler) run(ctx context.Context, j *job) domain.RunSummary {
	summary := j.fn(ctx)

	result := "success"
	if !summary.Success {
		result = "failure"
	}
	telemetry.JobRunsTotal.WithLabelValues(j.name, result).Inc()
	telemetry.JobDurationSeconds.WithLabelValues(j.name).Observe(summary.Duration().Seconds())
	return summary
}
