package timeclock

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
)

// RequestStatus is the lifecycle state of a Request.
//
//	pending -> processing -> completed | failed
//
// Requests are created pending by the submission path; only the worker moves
// them forward. An operator may put an orphaned processing request back to
// pending.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ClockStatus is the kind of a punch. The stored value is a small integer;
// values outside the four kinds can be read back from the store and are
// reported by validation rather than rejected on scan.
type ClockStatus int16

const (
	ClockIn ClockStatus = iota
	ClockOut
	BreakStart
	BreakEnd
)

func (c ClockStatus) Valid() bool {
	return c >= ClockIn && c <= BreakEnd
}

func (c ClockStatus) String() string {
	switch c {
	case ClockIn:
		return "ClockIn"
	case ClockOut:
		return "ClockOut"
	case BreakStart:
		return "BreakStart"
	case BreakEnd:
		return "BreakEnd"
	}
	return fmt.Sprintf("ClockStatus(%d)", int16(c))
}

// Request is one batch of punches for a location and a calendar date.
type Request struct {
	ID           string
	LocationCode string
	Date         time.Time
	Status       RequestStatus
	FailMessage  *string
	Records      []Record
	Location     location.Location
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Record is a single punch. Sequence is the stored order inside its request.
type Record struct {
	ID           string
	RequestID    string
	Sequence     int
	EmployeeCode string
	ClockStatus  ClockStatus
	ClockValue   time.Time
}

// Shift is the reconciled attendance of one employee for one work date.
// Each timestamp is written once; later punches of the same kind are dropped.
type Shift struct {
	ID           string
	EmployeeID   string
	EmployeeCode string
	DepartmentID *string
	RoleID       *string
	WorkDate     time.Time
	Start        *time.Time
	End          *time.Time
	BreakStart   *time.Time
	BreakEnd     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Shift) field(status ClockStatus) **time.Time {
	switch status {
	case ClockIn:
		return &s.Start
	case ClockOut:
		return &s.End
	case BreakStart:
		return &s.BreakStart
	case BreakEnd:
		return &s.BreakEnd
	}
	return nil
}

// Fill sets the timestamp matching status if it is still unset and reports
// whether the shift changed.
func (s *Shift) Fill(status ClockStatus, value time.Time) bool {
	f := s.field(status)
	if f == nil || *f != nil {
		return false
	}
	v := value
	*f = &v
	return true
}

// FillBreak is Fill restricted to the break boundaries. Start and End of a
// shift persisted by an earlier run are already anchored.
func (s *Shift) FillBreak(status ClockStatus, value time.Time) bool {
	if status != BreakStart && status != BreakEnd {
		return false
	}
	return s.Fill(status, value)
}
