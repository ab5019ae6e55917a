package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// schema mirrors the tables the worker reads and writes. It is only used to
// prepare a scratch database for these tests.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	code text NOT NULL UNIQUE,
	name text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT NOW(),
	updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS departments (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	location_id uuid NOT NULL REFERENCES locations(id),
	name text NOT NULL
);
CREATE TABLE IF NOT EXISTS roles (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	name text NOT NULL
);
CREATE TABLE IF NOT EXISTS employees (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	code text NOT NULL UNIQUE,
	full_name text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT NOW(),
	updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS employments (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_id uuid NOT NULL REFERENCES employees(id),
	department_id uuid NOT NULL REFERENCES departments(id),
	role_id uuid NOT NULL REFERENCES roles(id),
	start_date date NOT NULL,
	end_date date,
	is_deleted boolean NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS timeclock_requests (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	location_code text NOT NULL,
	request_date date NOT NULL,
	status text NOT NULL DEFAULT 'pending',
	fail_message text,
	created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
	updated_at timestamptz NOT NULL DEFAULT clock_timestamp()
);
CREATE TABLE IF NOT EXISTS timeclock_records (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	request_id uuid NOT NULL REFERENCES timeclock_requests(id),
	sequence integer NOT NULL,
	employee_code text NOT NULL,
	clock_status smallint NOT NULL,
	clock_value timestamptz NOT NULL
);
CREATE TABLE IF NOT EXISTS shifts (
	id uuid PRIMARY KEY,
	employee_id uuid NOT NULL REFERENCES employees(id),
	department_id uuid REFERENCES departments(id),
	role_id uuid REFERENCES roles(id),
	work_date date NOT NULL,
	start_time timestamptz,
	end_time timestamptz,
	break_start timestamptz,
	break_end timestamptz,
	created_at timestamptz NOT NULL DEFAULT NOW(),
	updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

var (
	testDB     *database.DB
	testDBErr  error
	testDBOnce sync.Once
)

// openTestDB connects to TEST_DATABASE_URL and resets the schema. Tests are
// skipped when the variable is not set.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		testDB, testDBErr = database.NewPostgreSQLDB(ctx, dsn, 4, 1)
		if testDBErr != nil {
			return
		}
		_, testDBErr = testDB.Exec(ctx, schema)
	})
	require.NoError(t, testDBErr)

	truncate(t, testDB)
	return testDB
}

func truncate(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		TRUNCATE TABLE shifts, timeclock_records, timeclock_requests,
			employments, employees, roles, departments, locations CASCADE
	`)
	require.NoError(t, err)
}

type seed struct {
	locationID   string
	departmentID string
	roleID       string
}

// seedLocation creates a location with one department and one role.
func seedLocation(t *testing.T, db *database.DB, code, name string) seed {
	t.Helper()
	ctx := context.Background()

	var s seed
	require.NoError(t, db.QueryRow(ctx,
		`INSERT INTO locations (code, name) VALUES ($1, $2) RETURNING id`, code, name,
	).Scan(&s.locationID))
	require.NoError(t, db.QueryRow(ctx,
		`INSERT INTO departments (location_id, name) VALUES ($1, $2) RETURNING id`, s.locationID, name+" Ops",
	).Scan(&s.departmentID))
	require.NoError(t, db.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ('Operator') RETURNING id`,
	).Scan(&s.roleID))
	return s
}

func seedEmployee(t *testing.T, db *database.DB, code string, employments ...seed) string {
	t.Helper()
	ctx := context.Background()

	var id string
	require.NoError(t, db.QueryRow(ctx,
		`INSERT INTO employees (code, full_name) VALUES ($1, $2) RETURNING id`, code, "Employee "+code,
	).Scan(&id))

	for _, s := range employments {
		_, err := db.Exec(ctx,
			`INSERT INTO employments (employee_id, department_id, role_id, start_date) VALUES ($1, $2, $3, '2023-01-01')`,
			id, s.departmentID, s.roleID,
		)
		require.NoError(t, err)
	}
	return id
}

type punchRow struct {
	code   string
	status int16
	value  time.Time
}

func seedRequest(t *testing.T, db *database.DB, locationCode string, date string, punches ...punchRow) string {
	t.Helper()
	ctx := context.Background()

	var id string
	require.NoError(t, db.QueryRow(ctx,
		`INSERT INTO timeclock_requests (location_code, request_date) VALUES ($1, $2::date) RETURNING id`,
		locationCode, date,
	).Scan(&id))

	for i, p := range punches {
		_, err := db.Exec(ctx,
			`INSERT INTO timeclock_records (request_id, sequence, employee_code, clock_status, clock_value) VALUES ($1, $2, $3, $4, $5)`,
			id, i+1, p.code, p.status, p.value,
		)
		require.NoError(t, err)
	}
	return id
}
