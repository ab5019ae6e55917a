package timeclock

import (
	"context"
	"time"
)

// TimeclockService drives timeclock requests through their lifecycle.
type TimeclockService interface {
	// ProcessPending claims every pending request and processes them one at a
	// time. It returns the number of requests brought to a terminal state.
	ProcessPending(ctx context.Context) (int, error)

	GetRequest(ctx context.Context, id string) (RequestResponse, error)
	ListRequests(ctx context.Context, filter RequestFilter) (ListRequestResponse, error)
	ListShifts(ctx context.Context, filter ShiftFilter) ([]ShiftResponse, error)

	// RequeueRequest puts an orphaned processing request back to pending.
	RequeueRequest(ctx context.Context, id string) (RequestResponse, error)

	// RequeueStale requeues processing requests untouched for longer than olderThan.
	RequeueStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}
