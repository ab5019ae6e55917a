package timeclock

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/utils"
	"github.com/google/uuid"
)

type shiftKey struct {
	employeeCode string
	date         time.Time
}

type cachedShift struct {
	shift *timeclock.Shift
	// persisted shifts come from an earlier run and only take break punches
	persisted bool
	dirty     bool
}

// Reconciler folds the records of one request into shifts. Shifts are looked
// up in the store at most once per employee; everything afterwards goes
// through the local cache until Flush writes it back.
type Reconciler struct {
	shifts    timeclock.ShiftRepository
	request   timeclock.Request
	employees map[string]employee.Employee

	cache map[shiftKey]*cachedShift
	order []*cachedShift
}

// ReconcileResult counts what Flush wrote.
type ReconcileResult struct {
	Created int
	Updated int
}

func NewReconciler(shifts timeclock.ShiftRepository, request timeclock.Request, employees map[string]employee.Employee) *Reconciler {
	return &Reconciler{
		shifts:    shifts,
		request:   request,
		employees: employees,
		cache:     make(map[shiftKey]*cachedShift),
	}
}

// Apply folds a single record. Records must be applied in stored order: the
// first punch of each kind wins.
func (r *Reconciler) Apply(ctx context.Context, rec timeclock.Record) error {
	key := shiftKey{employeeCode: rec.EmployeeCode, date: utils.DateOf(r.request.Date)}

	entry, ok := r.cache[key]
	if !ok {
		var err error
		entry, err = r.load(ctx, rec.EmployeeCode)
		if err != nil {
			return err
		}
		r.cache[key] = entry
		r.order = append(r.order, entry)
	}

	if entry.persisted {
		if entry.shift.FillBreak(rec.ClockStatus, rec.ClockValue) {
			entry.dirty = true
		}
		return nil
	}

	entry.shift.Fill(rec.ClockStatus, rec.ClockValue)
	return nil
}

// load returns the persisted shift of the employee for the request date, or
// a fresh one when there is none.
func (r *Reconciler) load(ctx context.Context, employeeCode string) (*cachedShift, error) {
	emp, ok := r.employees[employeeCode]
	if !ok {
		return nil, fmt.Errorf("%w: code %s", employee.ErrEmployeeNotFound, employeeCode)
	}

	existing, err := r.shifts.GetByEmployeeAndDate(ctx, emp.ID, r.request.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift for employee %s: %w", employeeCode, err)
	}
	if existing != nil {
		return &cachedShift{shift: existing, persisted: true}, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate shift id: %w", err)
	}

	shift := &timeclock.Shift{
		ID:           id.String(),
		EmployeeID:   emp.ID,
		EmployeeCode: emp.Code,
		WorkDate:     utils.DateOf(r.request.Date),
	}

	// Department and role stay unset when the employee has no employment at
	// the location or more than one.
	if employment, ok := emp.SoleEmploymentAt(r.request.LocationCode); ok {
		deptID := employment.Department.ID
		roleID := employment.Role.ID
		shift.DepartmentID = &deptID
		shift.RoleID = &roleID
	}

	return &cachedShift{shift: shift}, nil
}

// Flush inserts the new shifts and updates the persisted ones that received
// a break punch, in the order their employees first appeared.
func (r *Reconciler) Flush(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	for _, entry := range r.order {
		switch {
		case !entry.persisted:
			created, err := r.shifts.Create(ctx, *entry.shift)
			if err != nil {
				return result, fmt.Errorf("failed to create shift for employee %s: %w", entry.shift.EmployeeCode, err)
			}
			*entry.shift = created
			entry.persisted = true
			result.Created++
		case entry.dirty:
			if err := r.shifts.Update(ctx, *entry.shift); err != nil {
				return result, fmt.Errorf("failed to update shift %s: %w", entry.shift.ID, err)
			}
			entry.dirty = false
			result.Updated++
		}
	}

	return result, nil
}

// Shifts returns the shifts touched so far, in first-seen order.
func (r *Reconciler) Shifts() []timeclock.Shift {
	shifts := make([]timeclock.Shift, 0, len(r.order))
	for _, entry := range r.order {
		shifts = append(shifts, *entry.shift)
	}
	return shifts
}
