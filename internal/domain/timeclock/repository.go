package timeclock

import (
	"context"
	"time"
)

// RequestRepository defines data access for timeclock requests and their records.
type RequestRepository interface {
	// ListPending returns pending requests in insertion order, without records.
	ListPending(ctx context.Context) ([]Request, error)

	// ClaimPending moves the given pending requests to processing in a single
	// statement and returns the IDs that were actually claimed.
	ClaimPending(ctx context.Context, ids []string) ([]string, error)

	GetByID(ctx context.Context, id string) (Request, error)

	// GetRecords returns the records of a request in stored order.
	GetRecords(ctx context.Context, requestID string) ([]Record, error)

	List(ctx context.Context, filter RequestFilter) ([]Request, int64, error)

	// MarkCompleted and MarkFailed only apply to processing requests and
	// return ErrRequestNotProcessing otherwise.
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, failMessage string) error

	// Requeue moves a processing request back to pending.
	Requeue(ctx context.Context, id string) error

	// ListStaleProcessing returns processing requests last updated before the given time.
	ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]Request, error)
}

// ShiftRepository defines data access for reconciled shifts.
type ShiftRepository interface {
	// GetByEmployeeAndDate returns the shift of an employee for a work date,
	// or nil when none exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Shift, error)

	Create(ctx context.Context, shift Shift) (Shift, error)

	// Update writes the timestamp and assignment fields of an existing shift.
	Update(ctx context.Context, shift Shift) error

	List(ctx context.Context, filter ShiftFilter) ([]Shift, error)
}
