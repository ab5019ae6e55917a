package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/repository/postgresql"
	svc "github.com/cmlabs-hris/timeclock-reconciler/internal/service/timeclock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	workDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wib     = time.FixedZone("WIB", 7*60*60)
)

func clock(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestTimeclockRequestRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewTimeclockRequestRepository(db)

	first := seedRequest(t, db, "L1", "2024-03-01", punchRow{"E1", 0, clock(9, 0)}, punchRow{"E1", 1, clock(17, 0)})
	second := seedRequest(t, db, "L1", "2024-03-01")

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, second, pending[1].ID)
	assert.Equal(t, timeclock.StatusPending, pending[0].Status)

	claimed, err := repo.ClaimPending(ctx, []string{first})
	require.NoError(t, err)
	assert.Equal(t, []string{first}, claimed)

	claimed, err = repo.ClaimPending(ctx, []string{first})
	require.NoError(t, err)
	assert.Empty(t, claimed, "a processing request cannot be claimed twice")

	records, err := repo.GetRecords(ctx, first)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, timeclock.ClockIn, records[0].ClockStatus)
	assert.Equal(t, timeclock.ClockOut, records[1].ClockStatus)
	assert.True(t, clock(9, 0).Equal(records[0].ClockValue))

	require.NoError(t, repo.MarkFailed(ctx, first, "Employee E1 has no active employment at location Head Office."))
	assert.ErrorIs(t, repo.MarkCompleted(ctx, first), timeclock.ErrRequestNotProcessing)

	got, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, timeclock.StatusFailed, got.Status)
	require.NotNil(t, got.FailMessage)
	assert.Contains(t, *got.FailMessage, "E1")
	assert.True(t, workDay.Equal(got.Date))
}

func TestTimeclockRequestRepository_RequeueAndStale(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewTimeclockRequestRepository(db)

	id := seedRequest(t, db, "L1", "2024-03-01")
	_, err := repo.ClaimPending(ctx, []string{id})
	require.NoError(t, err)

	stale, err := repo.ListStaleProcessing(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)

	stale, err = repo.ListStaleProcessing(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	require.NoError(t, repo.Requeue(ctx, id))
	assert.ErrorIs(t, repo.Requeue(ctx, id), timeclock.ErrRequestNotProcessing)
}

func TestTimeclockRequestRepository_GetByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewTimeclockRequestRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, timeclock.ErrRequestNotFound)
}

func TestTimeclockRequestRepository_List(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewTimeclockRequestRepository(db)

	seedRequest(t, db, "L1", "2024-03-01")
	seedRequest(t, db, "L1", "2024-03-02")
	seedRequest(t, db, "L2", "2024-03-01")

	loc := "L1"
	filter := timeclock.RequestFilter{LocationCode: &loc}
	require.NoError(t, filter.Validate())

	requests, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, requests, 2)

	date := "2024-03-01"
	filter = timeclock.RequestFilter{Date: &date, Limit: 1}
	require.NoError(t, filter.Validate())

	requests, total, err = repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, requests, 1)
}

func TestShiftRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(db)

	ho := seedLocation(t, db, "L1", "Head Office")
	employeeID := seedEmployee(t, db, "E1", ho)

	none, err := repo.GetByEmployeeAndDate(ctx, employeeID, workDay)
	require.NoError(t, err)
	assert.Nil(t, none)

	start := clock(9, 0)
	created, err := repo.Create(ctx, timeclock.Shift{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		DepartmentID: &ho.departmentID,
		RoleID:       &ho.roleID,
		WorkDate:     workDay,
		Start:        &start,
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.GetByEmployeeAndDate(ctx, employeeID, workDay)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "E1", found.EmployeeCode)

	breakStart := clock(12, 0)
	found.BreakStart = &breakStart
	require.NoError(t, repo.Update(ctx, *found))

	loc := "L1"
	shifts, err := repo.List(ctx, timeclock.ShiftFilter{Date: "2024-03-01", LocationCode: &loc})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NotNil(t, shifts[0].BreakStart)
	assert.True(t, breakStart.Equal(*shifts[0].BreakStart))

	other, err := repo.GetByEmployeeAndDate(ctx, employeeID, workDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestEmployeeRepository_GetByCodes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(db)

	ho := seedLocation(t, db, "L1", "Head Office")
	br := seedLocation(t, db, "L2", "Branch")
	seedEmployee(t, db, "E1", ho, br)
	seedEmployee(t, db, "E2")

	employees, err := repo.GetByCodes(ctx, []string{"E1", "E2", "E404"})
	require.NoError(t, err)
	require.Len(t, employees, 2)

	assert.Len(t, employees["E1"].Employments, 2)
	assert.True(t, employees["E1"].HasActiveEmploymentAt(workDay, "L1"))
	assert.True(t, employees["E1"].HasActiveEmploymentAt(workDay, "L2"))
	assert.Empty(t, employees["E2"].Employments)
}

func TestLocationRepository_GetByCode(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLocationRepository(db)
	seedLocation(t, db, "L1", "Head Office")

	loc, err := repo.GetByCode(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, "Head Office", loc.Name)

	_, err = repo.GetByCode(ctx, "L9")
	assert.Error(t, err)
}

func TestTimeclockService_EndToEnd(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ho := seedLocation(t, db, "L1", "Head Office")
	seedEmployee(t, db, "E1", ho)

	good := seedRequest(t, db, "L1", "2024-03-01",
		punchRow{"E1", 0, clock(9, 0)},
		punchRow{"E1", 2, clock(12, 0)},
		punchRow{"E1", 3, clock(12, 30)},
		punchRow{"E1", 1, clock(17, 0)},
	)
	bad := seedRequest(t, db, "L1", "2024-03-01", punchRow{"E2", 0, clock(9, 0)})

	requests := postgresql.NewTimeclockRequestRepository(db)
	service := svc.NewTimeclockService(
		postgresql.NewTransactor(db),
		requests,
		postgresql.NewShiftRepository(db),
		postgresql.NewEmployeeRepository(db),
		postgresql.NewLocationRepository(db),
	)

	processed, err := service.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	goodReq, err := requests.GetByID(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, timeclock.StatusCompleted, goodReq.Status)

	badReq, err := requests.GetByID(ctx, bad)
	require.NoError(t, err)
	assert.Equal(t, timeclock.StatusFailed, badReq.Status)
	require.NotNil(t, badReq.FailMessage)
	assert.Equal(t, "Employee E2 has no active employment at location Head Office.", *badReq.FailMessage)

	shifts, err := service.ListShifts(ctx, timeclock.ShiftFilter{Date: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "E1", shifts[0].EmployeeCode)
	assert.NotNil(t, shifts[0].BreakEnd)
}

func TestShiftRepository_MatchesWorkDateEastOfUTC(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(db)

	ho := seedLocation(t, db, "L1", "Head Office")
	employeeID := seedEmployee(t, db, "E1", ho)

	// 00:30 WIB on March 1st is stored as 17:30 UTC on February 29th.
	start := time.Date(2024, 3, 1, 0, 30, 0, 0, wib)
	created, err := repo.Create(ctx, timeclock.Shift{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		WorkDate:   workDay,
		Start:      &start,
	})
	require.NoError(t, err)

	found, err := repo.GetByEmployeeAndDate(ctx, employeeID, workDay)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, start.Equal(*found.Start))

	previous, err := repo.GetByEmployeeAndDate(ctx, employeeID, workDay.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Nil(t, previous)
}

func TestTimeclockService_SameDayRequestsEastOfUTC(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ho := seedLocation(t, db, "L1", "Head Office")
	seedEmployee(t, db, "E1", ho)

	requests := postgresql.NewTimeclockRequestRepository(db)
	service := svc.NewTimeclockService(
		postgresql.NewTransactor(db),
		requests,
		postgresql.NewShiftRepository(db),
		postgresql.NewEmployeeRepository(db),
		postgresql.NewLocationRepository(db),
	)

	seedRequest(t, db, "L1", "2024-03-01", punchRow{"E1", 0, time.Date(2024, 3, 1, 6, 30, 0, 0, wib)})
	processed, err := service.ProcessPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	breakStart := time.Date(2024, 3, 1, 12, 0, 0, 0, wib)
	second := seedRequest(t, db, "L1", "2024-03-01", punchRow{"E1", 2, breakStart})
	processed, err = service.ProcessPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	req, err := requests.GetByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, timeclock.StatusCompleted, req.Status)

	shifts, err := service.ListShifts(ctx, timeclock.ShiftFilter{Date: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NotNil(t, shifts[0].BreakStart)
	assert.NotNil(t, shifts[0].Start)
}
