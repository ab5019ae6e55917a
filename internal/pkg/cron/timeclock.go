package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
)

// TimeclockJobs drives the timeclock request lifecycle.
//
// Only one worker may run these jobs against a database. Pending requests
// are listed and then claimed in two statements, so two workers can both
// see the same request as pending.
type TimeclockJobs struct {
	timeclockService   timeclock.TimeclockService
	pollInterval       time.Duration
	staleAfter         time.Duration
	staleCheckInterval time.Duration
}

func NewTimeclockJobs(
	timeclockService timeclock.TimeclockService,
	pollInterval time.Duration,
	staleAfter time.Duration,
	staleCheckInterval time.Duration,
) *TimeclockJobs {
	return &TimeclockJobs{
		timeclockService:   timeclockService,
		pollInterval:       pollInterval,
		staleAfter:         staleAfter,
		staleCheckInterval: staleCheckInterval,
	}
}

func (j *TimeclockJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("process_pending_requests", j.pollInterval, j.ProcessPendingRequests)
	if j.staleAfter > 0 {
		scheduler.AddJob("requeue_stale_requests", j.staleCheckInterval, j.RequeueStaleRequests)
	}
}

// ProcessPendingRequests claims every pending request and processes them one
// at a time. It reports work found whenever something was processed so the
// scheduler checks again before sleeping.
func (j *TimeclockJobs) ProcessPendingRequests(ctx context.Context) (bool, error) {
	processed, err := j.timeclockService.ProcessPending(ctx)
	if processed > 0 {
		slog.Info("Cron: Processed timeclock requests", "count", processed)
	}
	if err != nil {
		return false, err
	}
	return processed > 0, nil
}

// RequeueStaleRequests puts requests left in processing by a crashed run back
// to pending.
func (j *TimeclockJobs) RequeueStaleRequests(ctx context.Context) (bool, error) {
	requeued, err := j.timeclockService.RequeueStale(ctx, j.staleAfter)
	if err != nil {
		return false, err
	}
	if len(requeued) > 0 {
		slog.Warn("Cron: Requeued stale timeclock requests", "count", len(requeued), "request_ids", requeued)
	}
	// the pending job picks them up, no need to rerun this one
	return false, nil
}
