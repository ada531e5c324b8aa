/*
Package store persists payroll inputs in SQL.

PURPOSE:
  Holds everything the engine needs but never fetches itself: organization
  work rules, work types, employees, shifts, holidays, bonuses, bonus payouts
  and platform settings. Handlers load from here, run the engine, and write
  nothing back except one-time bonus payouts.

DRIVERS:
  Open picks the driver from the DSN:
    postgres://... or postgresql://...  -> pgx (database/sql adapter)
    anything else                       -> SQLite file path or ":memory:"
  Queries are written with ? placeholders and rebound to $n for PostgreSQL.

KEY TABLES:
  organizations:  name + work rule JSON
  work_types:     per-organization work types, optional rule JSON
  employees:      hourly rate in agorot, national ID
  shifts:         UTC start, nullable end, retro flag
  holidays:       per organization, or global when organization_id = ''
  bonuses:        per employee, HOURLY or ONE_TIME
  bonus_payouts:  one-time bonuses already paid for a period
  settings:       key/value, e.g. platform_timezone

CONCURRENCY:
  Writes take the sync.RWMutex write lock; SQLite allows one writer at a
  time. The lock is held on PostgreSQL too.

MIGRATION:
  Schema is created on Open(). The statements are plain enough to run on
  both SQLite and PostgreSQL.

SEE ALSO:
  - calendar/provider.go: Provider interface implemented by Store.Days
  - payroll/period.go: PeriodInput assembled from these records
*/
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("already exists")
)

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Store implements persistence on SQLite or PostgreSQL.
type Store struct {
	db       *sql.DB
	postgres bool
	mu       sync.RWMutex
}

// Open connects to dsn and migrates the schema.
// Use ":memory:" for a throwaway SQLite database.
func Open(dsn string) (*Store, error) {
	s := &Store{postgres: isPostgres(dsn)}

	var err error
	if s.postgres {
		s.db, err = sql.Open("pgx", dsn)
	} else {
		s.db, err = sql.Open("sqlite3", sqliteDSN(dsn))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if !s.postgres {
		// Every new connection to :memory: is a new empty database.
		s.db.SetMaxOpenConns(1)
	}

	if err := s.migrate(context.Background()); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver names the SQL driver in use.
func (s *Store) Driver() string {
	if s.postgres {
		return "pgx"
	}
	return "sqlite3"
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL"
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		work_rule_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS work_types (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		rule_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_work_types_org
		ON work_types(organization_id);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		hourly_rate BIGINT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_org
		ON employees(organization_id);

	-- start_time / end_time are RFC3339 UTC, so text order is time order
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		start_time TEXT NOT NULL,
		end_time TEXT,
		is_retro BOOLEAN NOT NULL DEFAULT FALSE,
		work_type_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_employee_start
		ON shifts(employee_id, start_time);

	-- organization_id = '' marks a global (national) calendar entry
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL DEFAULT '',
		holiday_date TEXT NOT NULL,
		name TEXT NOT NULL,
		is_holiday BOOLEAN NOT NULL DEFAULT FALSE,
		is_rest_day BOOLEAN NOT NULL DEFAULT FALSE,
		is_short_day BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_org_date
		ON holidays(organization_id, holiday_date);

	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		name TEXT NOT NULL DEFAULT '',
		bonus_type TEXT NOT NULL,
		amount_per_hour BIGINT NOT NULL DEFAULT 0,
		amount_fixed BIGINT NOT NULL DEFAULT 0,
		valid_from TEXT,
		valid_to TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonuses_employee
		ON bonuses(employee_id);

	CREATE TABLE IF NOT EXISTS bonus_payouts (
		bonus_id TEXT NOT NULL REFERENCES bonuses(id),
		employee_id TEXT NOT NULL,
		period_from TEXT NOT NULL,
		period_to TEXT NOT NULL,
		amount BIGINT NOT NULL,
		paid_at TEXT NOT NULL,
		PRIMARY KEY (bonus_id, period_from, period_to)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Reset clears all data except the platform time zone (for demos and tests).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Children before parents for the foreign keys.
	tables := []string{"bonus_payouts", "bonuses", "shifts", "employees", "work_types", "holidays", "organizations"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return s.exec(ctx, "DELETE FROM settings WHERE key <> ?", SettingPlatformTimezone)
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

// rebind turns ? placeholders into $1, $2, ... on PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// execAffected runs query and returns the number of rows it changed.
func (s *Store) execAffected(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if isUniqueConstraintError(err) {
		return 0, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return err
}
