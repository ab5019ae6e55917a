package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobFunc runs one iteration of a job. It reports whether it found work, in
// which case the scheduler runs it again right away instead of waiting.
type JobFunc func(ctx context.Context) (bool, error)

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	Fn       JobFunc
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new cron scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]Job, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop signals every job loop to exit and waits for them. A job iteration
// that is already running is allowed to finish.
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

// runJob runs a job immediately, then again right away while it keeps
// finding work, otherwise after its interval. Cancellation is checked before
// every iteration and interrupts the wait.
func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-timer.C:
		}

		// both cases may be ready at once
		if s.ctx.Err() != nil {
			slog.Info("Cron job stopping", "name", job.Name)
			return
		}

		if s.executeJob(job) {
			timer.Reset(0)
		} else {
			timer.Reset(job.Interval)
		}
	}
}

// executeJob executes a job and logs results. The job gets a context that
// does not inherit the scheduler's cancellation.
func (s *Scheduler) executeJob(job Job) bool {
	start := time.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	found, err := job.Fn(context.WithoutCancel(s.ctx))
	if err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return false
	}

	slog.Debug("Cron job completed", "name", job.Name, "found_work", found, "duration", time.Since(start))
	return found
}

// RunOnce runs all jobs once (useful for testing)
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if _, err := job.Fn(ctx); err != nil {
			slog.Error("Cron job failed", "name", job.Name, "error", err)
		}
	}
}
