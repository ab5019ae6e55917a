package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) timeclock.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `
	s.id, s.employee_id, e.code, s.department_id, s.role_id, s.work_date,
	s.start_time, s.end_time, s.break_start, s.break_end, s.created_at, s.updated_at
`

func scanShift(row pgx.Row) (timeclock.Shift, error) {
	var s timeclock.Shift
	err := row.Scan(
		&s.ID,
		&s.EmployeeID,
		&s.EmployeeCode,
		&s.DepartmentID,
		&s.RoleID,
		&s.WorkDate,
		&s.Start,
		&s.End,
		&s.BreakStart,
		&s.BreakEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// GetByEmployeeAndDate implements timeclock.ShiftRepository. A shift belongs
// to the work date it was created for, whatever zone its punches carry.
func (r *shiftRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*timeclock.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		INNER JOIN employees e ON s.employee_id = e.id
		WHERE s.employee_id = $1 AND s.work_date = $2::date
		ORDER BY s.created_at ASC
		LIMIT 1
	`

	shift, err := scanShift(q.QueryRow(ctx, query, employeeID, date.Format(utils.DateLayout)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}

	return &shift, nil
}

// Create implements timeclock.ShiftRepository. The ID is assigned by the caller.
func (r *shiftRepositoryImpl) Create(ctx context.Context, shift timeclock.Shift) (timeclock.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (
			id, employee_id, department_id, role_id, work_date,
			start_time, end_time, break_start, break_end, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		shift.ID,
		shift.EmployeeID,
		shift.DepartmentID,
		shift.RoleID,
		shift.WorkDate.Format(utils.DateLayout),
		shift.Start,
		shift.End,
		shift.BreakStart,
		shift.BreakEnd,
	).Scan(&shift.CreatedAt, &shift.UpdatedAt)

	if err != nil {
		return timeclock.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return shift, nil
}

// Update implements timeclock.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, shift timeclock.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET department_id = $1, role_id = $2,
		    start_time = $3, end_time = $4, break_start = $5, break_end = $6,
		    updated_at = NOW()
		WHERE id = $7
	`

	result, err := q.Exec(ctx, query,
		shift.DepartmentID,
		shift.RoleID,
		shift.Start,
		shift.End,
		shift.BreakStart,
		shift.BreakEnd,
		shift.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("shift %s not found", shift.ID)
	}

	return nil
}

// List implements timeclock.ShiftRepository. The location filter goes through
// the shift's department, so shifts without a department never match it.
func (r *shiftRepositoryImpl) List(ctx context.Context, filter timeclock.ShiftFilter) ([]timeclock.Shift, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{"s.work_date = $1::date"}
	args := []interface{}{filter.Date}
	paramCount := 1

	if filter.LocationCode != nil && *filter.LocationCode != "" {
		paramCount++
		whereClauses = append(whereClauses, fmt.Sprintf("l.code = $%d", paramCount))
		args = append(args, *filter.LocationCode)
	}

	if filter.EmployeeCode != nil && *filter.EmployeeCode != "" {
		paramCount++
		whereClauses = append(whereClauses, fmt.Sprintf("e.code = $%d", paramCount))
		args = append(args, *filter.EmployeeCode)
	}

	query := fmt.Sprintf(`
		SELECT `+shiftColumns+`
		FROM shifts s
		INNER JOIN employees e ON s.employee_id = e.id
		LEFT JOIN departments d ON s.department_id = d.id
		LEFT JOIN locations l ON d.location_id = l.id
		WHERE %s
		ORDER BY e.code ASC, s.created_at ASC
	`, strings.Join(whereClauses, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []timeclock.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return shifts, nil
}
