package employee

import (
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/utils"
)

type Employee struct {
	ID          string
	Code        string
	FullName    string
	Employments []Employment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Employment struct {
	ID         string
	EmployeeID string
	Department Department
	Role       Role
	StartDate  time.Time
	EndDate    *time.Time
	IsDeleted  bool
}

type Department struct {
	ID       string
	Name     string
	Location location.Location
}

type Role struct {
	ID   string
	Name string
}

// AtLocation reports whether the employment is live and belongs to a
// department of the given location, regardless of its dates.
func (e Employment) AtLocation(locationCode string) bool {
	return !e.IsDeleted && e.Department.Location.Code == locationCode
}

// IsActiveAt reports whether the employment covers date at the given location.
func (e Employment) IsActiveAt(date time.Time, locationCode string) bool {
	if !e.AtLocation(locationCode) {
		return false
	}
	if utils.DateAfter(e.StartDate, date) {
		return false
	}
	return e.EndDate == nil || !utils.DateAfter(date, *e.EndDate)
}

// HasActiveEmploymentAt reports whether at least one employment covers date
// at the given location.
func (e Employee) HasActiveEmploymentAt(date time.Time, locationCode string) bool {
	for _, emp := range e.Employments {
		if emp.IsActiveAt(date, locationCode) {
			return true
		}
	}
	return false
}

// SoleEmploymentAt returns the employment at locationCode when exactly one
// live employment exists there. Zero or several matches return false.
func (e Employee) SoleEmploymentAt(locationCode string) (Employment, bool) {
	var (
		found Employment
		count int
	)
	for _, emp := range e.Employments {
		if emp.AtLocation(locationCode) {
			found = emp
			count++
		}
	}
	if count != 1 {
		return Employment{}, false
	}
	return found, true
}
