package timeclock

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/utils"
)

// Failure messages are appended to the request's fail message one after the
// other with no separator.
const (
	msgRequestDateInFuture = "Request date %s is later than today."
	msgNoActiveEmployment  = "Employee %s has no active employment at location %s."
	msgInvalidClockStatus  = "Employee %s has an invalid clock status %d."
	msgClockValueInFuture  = "Employee %s has a clock value later than today."
)

// ValidateRequest checks the request and every one of its records. All
// failures are collected; a failing record does not stop the others from
// being checked. req.Records and req.Location must be loaded, and employees
// must hold every employee referenced by the records that exists.
func ValidateRequest(req timeclock.Request, employees map[string]employee.Employee, now time.Time) (bool, string) {
	var msg strings.Builder

	if utils.DateAfter(req.Date, now) {
		fmt.Fprintf(&msg, msgRequestDateInFuture, req.Date.Format(utils.DateLayout))
	}

	for _, rec := range req.Records {
		validateRecord(&msg, req, rec, employees, now)
	}

	return msg.Len() > 0, msg.String()
}

func validateRecord(msg *strings.Builder, req timeclock.Request, rec timeclock.Record, employees map[string]employee.Employee, now time.Time) {
	emp, ok := employees[rec.EmployeeCode]
	if !ok || !emp.HasActiveEmploymentAt(req.Date, req.LocationCode) {
		fmt.Fprintf(msg, msgNoActiveEmployment, rec.EmployeeCode, req.Location.DisplayName())
	}

	if !rec.ClockStatus.Valid() {
		fmt.Fprintf(msg, msgInvalidClockStatus, rec.EmployeeCode, int16(rec.ClockStatus))
	}

	if utils.DateAfter(rec.ClockValue, now) {
		fmt.Fprintf(msg, msgClockValueInFuture, rec.EmployeeCode)
	}
}
