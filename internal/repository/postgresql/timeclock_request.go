package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type timeclockRequestRepositoryImpl struct {
	db *database.DB
}

func NewTimeclockRequestRepository(db *database.DB) timeclock.RequestRepository {
	return &timeclockRequestRepositoryImpl{db: db}
}

const requestColumns = `id, location_code, request_date, status, fail_message, created_at, updated_at`

func scanRequest(row pgx.Row) (timeclock.Request, error) {
	var req timeclock.Request
	var status string
	err := row.Scan(
		&req.ID,
		&req.LocationCode,
		&req.Date,
		&status,
		&req.FailMessage,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return req, err
	}

	req.Status = timeclock.RequestStatus(status)
	if !req.Status.Valid() {
		return req, fmt.Errorf("%w: %q on request %s", timeclock.ErrInvalidRequestStatus, status, req.ID)
	}
	return req, nil
}

func collectRequests(rows pgx.Rows) ([]timeclock.Request, error) {
	defer rows.Close()

	var requests []timeclock.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeclock request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return requests, nil
}

// ListPending implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) ListPending(ctx context.Context) ([]timeclock.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM timeclock_requests
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, timeclock.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending timeclock requests: %w", err)
	}

	return collectRequests(rows)
}

// ClaimPending implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) ClaimPending(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timeclock_requests
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2::uuid[]) AND status = $3
		RETURNING id
	`

	rows, err := q.Query(ctx, query, timeclock.StatusProcessing, ids, timeclock.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to claim timeclock requests: %w", err)
	}

	claimed, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read claimed timeclock requests: %w", err)
	}

	return claimed, nil
}

// GetByID implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) GetByID(ctx context.Context, id string) (timeclock.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM timeclock_requests
		WHERE id = $1
	`

	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeclock.Request{}, timeclock.ErrRequestNotFound
		}
		return timeclock.Request{}, fmt.Errorf("failed to get timeclock request: %w", err)
	}

	return req, nil
}

// GetRecords implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) GetRecords(ctx context.Context, requestID string) ([]timeclock.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, sequence, employee_code, clock_status, clock_value
		FROM timeclock_records
		WHERE request_id = $1
		ORDER BY sequence ASC
	`

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeclock records: %w", err)
	}
	defer rows.Close()

	var records []timeclock.Record
	for rows.Next() {
		var rec timeclock.Record
		var status int16
		err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.Sequence,
			&rec.EmployeeCode,
			&status,
			&rec.ClockValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeclock record: %w", err)
		}
		rec.ClockStatus = timeclock.ClockStatus(status)
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// List implements timeclock.RequestRepository. The filter must already be
// validated so Page and Limit are set.
func (r *timeclockRequestRepositoryImpl) List(ctx context.Context, filter timeclock.RequestFilter) ([]timeclock.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{"1 = 1"}
	args := []interface{}{}
	paramCount := 0

	if filter.Status != nil && *filter.Status != "" {
		paramCount++
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", paramCount))
		args = append(args, *filter.Status)
	}

	if filter.LocationCode != nil && *filter.LocationCode != "" {
		paramCount++
		whereClauses = append(whereClauses, fmt.Sprintf("location_code = $%d", paramCount))
		args = append(args, *filter.LocationCode)
	}

	if filter.Date != nil && *filter.Date != "" {
		paramCount++
		whereClauses = append(whereClauses, fmt.Sprintf("request_date = $%d::date", paramCount))
		args = append(args, *filter.Date)
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM timeclock_requests
		WHERE %s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count timeclock requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM timeclock_requests
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, paramCount+1, paramCount+2)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list timeclock requests: %w", err)
	}

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// transition moves a request between two statuses and reports
// ErrRequestNotProcessing when it was not in the expected one.
func (r *timeclockRequestRepositoryImpl) transition(ctx context.Context, id string, from, to timeclock.RequestStatus, failMessage *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timeclock_requests
		SET status = $1, fail_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := q.Exec(ctx, query, to, failMessage, id, from)
	if err != nil {
		return fmt.Errorf("failed to set timeclock request %s to %s: %w", id, to, err)
	}

	if result.RowsAffected() == 0 {
		return timeclock.ErrRequestNotProcessing
	}

	return nil
}

// MarkCompleted implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) MarkCompleted(ctx context.Context, id string) error {
	return r.transition(ctx, id, timeclock.StatusProcessing, timeclock.StatusCompleted, nil)
}

// MarkFailed implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) MarkFailed(ctx context.Context, id string, failMessage string) error {
	return r.transition(ctx, id, timeclock.StatusProcessing, timeclock.StatusFailed, &failMessage)
}

// Requeue implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) Requeue(ctx context.Context, id string) error {
	return r.transition(ctx, id, timeclock.StatusProcessing, timeclock.StatusPending, nil)
}

// ListStaleProcessing implements timeclock.RequestRepository.
func (r *timeclockRequestRepositoryImpl) ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]timeclock.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM timeclock_requests
		WHERE status = $1 AND updated_at < $2
		ORDER BY created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, timeclock.StatusProcessing, updatedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale timeclock requests: %w", err)
	}

	return collectRequests(rows)
}
