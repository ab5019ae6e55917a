package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByCodes implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByCodes(ctx context.Context, codes []string) (map[string]employee.Employee, error) {
	result := make(map[string]employee.Employee, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, e.db)

	query := `
		SELECT
			e.id, e.code, e.full_name, e.created_at, e.updated_at,
			em.id, em.start_date, em.end_date, em.is_deleted,
			d.id, d.name,
			l.id, l.code, l.name,
			r.id, r.name
		FROM employees e
		LEFT JOIN employments em ON em.employee_id = e.id
		LEFT JOIN departments d ON em.department_id = d.id
		LEFT JOIN locations l ON d.location_id = l.id
		LEFT JOIN roles r ON em.role_id = r.id
		WHERE e.code = ANY($1)
		ORDER BY e.code ASC, em.start_date ASC
	`

	rows, err := q.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees by codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var emp employee.Employee
		var (
			employmentID *string
			startDate    *time.Time
			endDate      *time.Time
			isDeleted    *bool
			deptID       *string
			deptName     *string
			locID        *string
			locCode      *string
			locName      *string
			roleID       *string
			roleName     *string
		)

		err := rows.Scan(
			&emp.ID, &emp.Code, &emp.FullName, &emp.CreatedAt, &emp.UpdatedAt,
			&employmentID, &startDate, &endDate, &isDeleted,
			&deptID, &deptName,
			&locID, &locCode, &locName,
			&roleID, &roleName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}

		if existing, ok := result[emp.Code]; ok {
			emp = existing
		}

		// employees without any employment come back with a NULL row
		if employmentID != nil {
			emp.Employments = append(emp.Employments, employee.Employment{
				ID:         *employmentID,
				EmployeeID: emp.ID,
				Department: employee.Department{
					ID:   deref(deptID),
					Name: deref(deptName),
					Location: location.Location{
						ID:   deref(locID),
						Code: deref(locCode),
						Name: deref(locName),
					},
				},
				Role:      employee.Role{ID: deref(roleID), Name: deref(roleName)},
				StartDate: derefTime(startDate),
				EndDate:   endDate,
				IsDeleted: isDeleted != nil && *isDeleted,
			})
		}

		result[emp.Code] = emp
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
