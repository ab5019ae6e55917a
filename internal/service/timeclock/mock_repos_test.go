package timeclock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/utils"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory stand-in for the postgres tables used by the
// timeclock service. Transactions snapshot requests and shifts and restore
// them when fn fails.
type memStore struct {
	mu        sync.Mutex
	requests  map[string]timeclock.Request
	order     []string
	records   map[string][]timeclock.Record
	shifts    []timeclock.Shift
	employees map[string]employee.Employee
	locations map[string]location.Location

	// fail injects an error into the named repository method
	fail map[string]error
	// claimFilter limits which IDs ClaimPending reports as claimed
	claimFilter func(id string) bool

	claimCalls int
}

func newMemStore() *memStore {
	return &memStore{
		requests:  make(map[string]timeclock.Request),
		records:   make(map[string][]timeclock.Record),
		employees: make(map[string]employee.Employee),
		locations: make(map[string]location.Location),
		fail:      make(map[string]error),
	}
}

func (m *memStore) addRequest(req timeclock.Request, records ...timeclock.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Status == "" {
		req.Status = timeclock.StatusPending
	}
	for i := range records {
		records[i].RequestID = req.ID
		records[i].Sequence = i + 1
		if records[i].ID == "" {
			records[i].ID = fmt.Sprintf("%s-rec-%d", req.ID, i+1)
		}
	}
	m.requests[req.ID] = req
	m.order = append(m.order, req.ID)
	m.records[req.ID] = records
}

func (m *memStore) request(id string) timeclock.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *memStore) shiftsFor(code string) []timeclock.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []timeclock.Shift
	for _, s := range m.shifts {
		if s.EmployeeCode == code {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) failure(method string) error {
	return m.fail[method]
}

// ── Transactor ──

type mockTransactor struct {
	store *memStore
}

func (t *mockTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.store.mu.Lock()
	requests := make(map[string]timeclock.Request, len(t.store.requests))
	for k, v := range t.store.requests {
		requests[k] = v
	}
	shifts := append([]timeclock.Shift(nil), t.store.shifts...)
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.requests = requests
		t.store.shifts = shifts
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// ── Mock RequestRepository ──

type mockRequestRepo struct {
	store *memStore
}

func (r *mockRequestRepo) ListPending(_ context.Context) ([]timeclock.Request, error) {
	if err := r.store.failure("ListPending"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []timeclock.Request
	for _, id := range r.store.order {
		if req := r.store.requests[id]; req.Status == timeclock.StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *mockRequestRepo) ClaimPending(_ context.Context, ids []string) ([]string, error) {
	if err := r.store.failure("ClaimPending"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.claimCalls++
	var claimed []string
	for _, id := range ids {
		req, ok := r.store.requests[id]
		if !ok || req.Status != timeclock.StatusPending {
			continue
		}
		if r.store.claimFilter != nil && !r.store.claimFilter(id) {
			continue
		}
		req.Status = timeclock.StatusProcessing
		r.store.requests[id] = req
		claimed = append(claimed, id)
	}
	return claimed, nil
}

func (r *mockRequestRepo) GetByID(_ context.Context, id string) (timeclock.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if !ok {
		return timeclock.Request{}, timeclock.ErrRequestNotFound
	}
	return req, nil
}

func (r *mockRequestRepo) GetRecords(_ context.Context, requestID string) ([]timeclock.Record, error) {
	if err := r.store.failure("GetRecords"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]timeclock.Record(nil), r.store.records[requestID]...), nil
}

func (r *mockRequestRepo) List(_ context.Context, filter timeclock.RequestFilter) ([]timeclock.Request, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []timeclock.Request
	for _, id := range r.store.order {
		req := r.store.requests[id]
		if filter.Status != nil && string(req.Status) != *filter.Status {
			continue
		}
		if filter.LocationCode != nil && req.LocationCode != *filter.LocationCode {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

func (r *mockRequestRepo) setStatus(id string, from, to timeclock.RequestStatus, failMessage *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if !ok || req.Status != from {
		return timeclock.ErrRequestNotProcessing
	}
	req.Status = to
	req.FailMessage = failMessage
	r.store.requests[id] = req
	return nil
}

func (r *mockRequestRepo) MarkCompleted(_ context.Context, id string) error {
	if err := r.store.failure("MarkCompleted"); err != nil {
		return err
	}
	return r.setStatus(id, timeclock.StatusProcessing, timeclock.StatusCompleted, nil)
}

func (r *mockRequestRepo) MarkFailed(_ context.Context, id string, failMessage string) error {
	if err := r.store.failure("MarkFailed"); err != nil {
		return err
	}
	return r.setStatus(id, timeclock.StatusProcessing, timeclock.StatusFailed, &failMessage)
}

func (r *mockRequestRepo) Requeue(_ context.Context, id string) error {
	if err := r.store.failure("Requeue"); err != nil {
		return err
	}
	return r.setStatus(id, timeclock.StatusProcessing, timeclock.StatusPending, nil)
}

func (r *mockRequestRepo) ListStaleProcessing(_ context.Context, updatedBefore time.Time) ([]timeclock.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []timeclock.Request
	for _, id := range r.store.order {
		req := r.store.requests[id]
		if req.Status == timeclock.StatusProcessing && req.UpdatedAt.Before(updatedBefore) {
			out = append(out, req)
		}
	}
	return out, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	store *memStore
	gets  int
}

func (r *mockShiftRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*timeclock.Shift, error) {
	if err := r.store.failure("GetByEmployeeAndDate"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.gets++
	for _, s := range r.store.shifts {
		if s.EmployeeID != employeeID {
			continue
		}
		if utils.SameDate(s.WorkDate, date) {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (r *mockShiftRepo) Create(_ context.Context, shift timeclock.Shift) (timeclock.Shift, error) {
	if err := r.store.failure("CreateShift"); err != nil {
		return timeclock.Shift{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.shifts = append(r.store.shifts, shift)
	return shift, nil
}

func (r *mockShiftRepo) Update(_ context.Context, shift timeclock.Shift) error {
	if err := r.store.failure("UpdateShift"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, s := range r.store.shifts {
		if s.ID == shift.ID {
			r.store.shifts[i] = shift
			return nil
		}
	}
	return errors.New("shift not found")
}

func (r *mockShiftRepo) List(_ context.Context, filter timeclock.ShiftFilter) ([]timeclock.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	date, _ := time.Parse(utils.DateLayout, filter.Date)
	var out []timeclock.Shift
	for _, s := range r.store.shifts {
		if !utils.SameDate(s.WorkDate, date) {
			continue
		}
		if filter.EmployeeCode != nil && s.EmployeeCode != *filter.EmployeeCode {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	store *memStore
}

func (r *mockEmployeeRepo) GetByCodes(_ context.Context, codes []string) (map[string]employee.Employee, error) {
	if err := r.store.failure("GetByCodes"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make(map[string]employee.Employee, len(codes))
	for _, c := range codes {
		if e, ok := r.store.employees[c]; ok {
			out[c] = e
		}
	}
	return out, nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	store *memStore
}

func (r *mockLocationRepo) GetByCode(_ context.Context, code string) (location.Location, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	loc, ok := r.store.locations[code]
	if !ok {
		return location.Location{}, location.ErrLocationNotFound
	}
	return loc, nil
}
