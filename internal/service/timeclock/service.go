package timeclock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cmlabs-hris/timeclock-reconciler/internal/service/timeclock"

// TimeclockServiceImpl owns the request state machine. It assumes it is the
// only worker running against the database: pending requests are discovered
// and then claimed in two steps, which is not safe against a second instance.
type TimeclockServiceImpl struct {
	db database.Transactor
	timeclock.RequestRepository
	employee.EmployeeRepository
	location.LocationRepository
	shiftRepo timeclock.ShiftRepository

	tracer trace.Tracer
	now    func() time.Time

	// claimed holds requests this worker moved to processing and has not
	// finished yet. Requeueing them is refused.
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewTimeclockService(
	db database.Transactor,
	requestRepo timeclock.RequestRepository,
	shiftRepo timeclock.ShiftRepository,
	employeeRepo employee.EmployeeRepository,
	locationRepo location.LocationRepository,
) timeclock.TimeclockService {
	return &TimeclockServiceImpl{
		db:                 db,
		RequestRepository:  requestRepo,
		EmployeeRepository: employeeRepo,
		LocationRepository: locationRepo,
		shiftRepo:          shiftRepo,
		tracer:             otel.Tracer(tracerName),
		now:                time.Now,
		claimed:            make(map[string]struct{}),
	}
}

// ProcessPending implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.RequestRepository.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending requests: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(pending))
	for _, req := range pending {
		ids = append(ids, req.ID)
	}

	claimedIDs, err := s.claim(ctx, ids)
	if err != nil {
		return 0, err
	}
	slog.Info("Timeclock: claimed pending requests", "found", len(pending), "claimed", len(claimedIDs))

	isClaimed := make(map[string]bool, len(claimedIDs))
	for _, id := range claimedIDs {
		isClaimed[id] = true
	}

	processed := 0
	for i, req := range pending {
		if !isClaimed[req.ID] {
			continue
		}

		if err := s.processRequest(ctx, req); err != nil {
			s.release(ctx, pending[i+1:], isClaimed)
			s.done(req.ID)
			return processed, fmt.Errorf("failed to process request %s: %w", req.ID, err)
		}
		s.done(req.ID)
		processed++
	}

	return processed, nil
}

func (s *TimeclockServiceImpl) claim(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimedIDs, err := s.RequestRepository.ClaimPending(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending requests: %w", err)
	}
	for _, id := range claimedIDs {
		s.claimed[id] = struct{}{}
	}
	return claimedIDs, nil
}

func (s *TimeclockServiceImpl) done(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, id)
}

func (s *TimeclockServiceImpl) isClaimed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claimed[id]
	return ok
}

// release puts claimed requests that were never started back to pending so
// the next poll picks them up. Failures leave them processing for an operator.
func (s *TimeclockServiceImpl) release(ctx context.Context, remaining []timeclock.Request, isClaimed map[string]bool) {
	for _, req := range remaining {
		if !isClaimed[req.ID] {
			continue
		}
		if err := s.RequestRepository.Requeue(ctx, req.ID); err != nil {
			slog.Error("Timeclock: failed to release unstarted request", "request_id", req.ID, "error", err)
		}
		s.done(req.ID)
	}
}

// processRequest validates and reconciles one claimed request. Every write,
// including the terminal status, happens in one transaction; on error the
// request stays processing.
func (s *TimeclockServiceImpl) processRequest(ctx context.Context, req timeclock.Request) (err error) {
	ctx, span := s.tracer.Start(ctx, "timeclock.process_request", trace.WithAttributes(
		attribute.String("timeclock.request_id", req.ID),
		attribute.String("timeclock.location_code", req.LocationCode),
		attribute.String("timeclock.date", req.Date.Format("2006-01-02")),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()

	return s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		records, err := s.RequestRepository.GetRecords(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("failed to get records: %w", err)
		}
		req.Records = records

		loc, err := s.LocationRepository.GetByCode(txCtx, req.LocationCode)
		if err != nil {
			if !errors.Is(err, location.ErrLocationNotFound) {
				return fmt.Errorf("failed to get location: %w", err)
			}
			loc = location.Location{Code: req.LocationCode}
		}
		req.Location = loc

		employees, err := s.EmployeeRepository.GetByCodes(txCtx, employeeCodes(records))
		if err != nil {
			return fmt.Errorf("failed to get employees: %w", err)
		}

		if failed, message := ValidateRequest(req, employees, s.now()); failed {
			if err := s.RequestRepository.MarkFailed(txCtx, req.ID, message); err != nil {
				return fmt.Errorf("failed to mark request failed: %w", err)
			}
			span.SetAttributes(attribute.String("timeclock.status", string(timeclock.StatusFailed)))
			slog.Info("Timeclock: request failed validation",
				"request_id", req.ID,
				"location_code", req.LocationCode,
				"fail_message", message,
			)
			return nil
		}

		reconciler := NewReconciler(s.shiftRepo, req, employees)
		for _, rec := range records {
			if err := reconciler.Apply(txCtx, rec); err != nil {
				return fmt.Errorf("failed to apply record %s: %w", rec.ID, err)
			}
		}

		result, err := reconciler.Flush(txCtx)
		if err != nil {
			return err
		}

		if err := s.RequestRepository.MarkCompleted(txCtx, req.ID); err != nil {
			return fmt.Errorf("failed to mark request completed: %w", err)
		}

		span.SetAttributes(
			attribute.String("timeclock.status", string(timeclock.StatusCompleted)),
			attribute.Int("timeclock.shifts_created", result.Created),
			attribute.Int("timeclock.shifts_updated", result.Updated),
		)
		slog.Info("Timeclock: request completed",
			"request_id", req.ID,
			"location_code", req.LocationCode,
			"records", len(records),
			"shifts_created", result.Created,
			"shifts_updated", result.Updated,
			"duration", time.Since(start),
		)
		return nil
	})
}

// employeeCodes returns the distinct employee codes in first-seen order.
func employeeCodes(records []timeclock.Record) []string {
	seen := make(map[string]bool, len(records))
	codes := make([]string, 0, len(records))
	for _, rec := range records {
		if seen[rec.EmployeeCode] {
			continue
		}
		seen[rec.EmployeeCode] = true
		codes = append(codes, rec.EmployeeCode)
	}
	return codes
}

// GetRequest implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) GetRequest(ctx context.Context, id string) (timeclock.RequestResponse, error) {
	req, err := s.RequestRepository.GetByID(ctx, id)
	if err != nil {
		return timeclock.RequestResponse{}, err
	}

	records, err := s.RequestRepository.GetRecords(ctx, id)
	if err != nil {
		return timeclock.RequestResponse{}, fmt.Errorf("failed to get records: %w", err)
	}
	req.Records = records

	return timeclock.NewRequestResponse(req), nil
}

// ListRequests implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ListRequests(ctx context.Context, filter timeclock.RequestFilter) (timeclock.ListRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return timeclock.ListRequestResponse{}, err
	}

	requests, total, err := s.RequestRepository.List(ctx, filter)
	if err != nil {
		return timeclock.ListRequestResponse{}, fmt.Errorf("failed to list requests: %w", err)
	}

	return timeclock.NewListRequestResponse(requests, total, filter.Page, filter.Limit), nil
}

// ListShifts implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) ListShifts(ctx context.Context, filter timeclock.ShiftFilter) ([]timeclock.ShiftResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	shifts, err := s.shiftRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	resp := make([]timeclock.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		resp = append(resp, timeclock.NewShiftResponse(sh))
	}
	return resp, nil
}

// RequeueRequest implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) RequeueRequest(ctx context.Context, id string) (timeclock.RequestResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, inFlight := s.claimed[id]; inFlight {
		return timeclock.RequestResponse{}, timeclock.ErrRequestInFlight
	}

	req, err := s.RequestRepository.GetByID(ctx, id)
	if err != nil {
		return timeclock.RequestResponse{}, err
	}
	if req.Status != timeclock.StatusProcessing {
		return timeclock.RequestResponse{}, timeclock.ErrRequestNotProcessing
	}

	if err := s.RequestRepository.Requeue(ctx, id); err != nil {
		return timeclock.RequestResponse{}, err
	}
	slog.Info("Timeclock: request requeued", "request_id", id)

	req.Status = timeclock.StatusPending
	return timeclock.NewRequestResponse(req), nil
}

// RequeueStale implements timeclock.TimeclockService.
func (s *TimeclockServiceImpl) RequeueStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	stale, err := s.RequestRepository.ListStaleProcessing(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale requests: %w", err)
	}

	requeued := make([]string, 0, len(stale))
	for _, req := range stale {
		if s.isClaimed(req.ID) {
			continue
		}
		if err := s.RequestRepository.Requeue(ctx, req.ID); err != nil {
			if errors.Is(err, timeclock.ErrRequestNotProcessing) {
				continue
			}
			return requeued, fmt.Errorf("failed to requeue request %s: %w", req.ID, err)
		}
		requeued = append(requeued, req.ID)
	}

	if len(requeued) > 0 {
		slog.Info("Timeclock: requeued stale requests", "count", len(requeued), "older_than", olderThan)
	}
	return requeued, nil
}
