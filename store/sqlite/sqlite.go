/*
Package sqlite provides a SQLite-backed implementation of the roster storage
interfaces.

PURPOSE:
  Implements the full roster.Store surface using SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  movements and conflict_resolutions carry no UPDATE or DELETE statements
  anywhere in this package. Reopening a finalized scope deletes only the
  finalizations row; audit history is permanent.

WRITE CONFIRMATION:
  Every write checks RowsAffected. A statement that "succeeds" without
  touching a row (the silent-denial case under row-level permission checks)
  returns roster.ErrSilentDenial instead of passing as success.

KEY TABLES:
  sectors, people:        reference data joined into views and audit rows
  shifts, assignments:    the roster itself
  sector_rates:           (month, year)-scoped day/night defaults + overrides
  finalizations:          lock rows; UNIQUE(tenant, month, year, sector)
  movements:              append-only audit of changes under a lock
  conflict_resolutions:   append-only audit of resolved double-bookings
  reopen_passwords:       tenant-scoped reopen password + must-change flag

WAL MODE:
  Opened with WAL for better concurrency; a sync.RWMutex serializes writers
  in-process. The store itself stays last-write-wins: no optimistic
  versioning exists at this layer.

USAGE:
  st, err := sqlite.New("./data/roster.db")
  ...
  defer st.Close()

SEE ALSO:
  - roster/store.go: interface definitions
  - roster/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/medroster/shift-engine/roster"
)

// Store implements roster.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sectors (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		sector_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		base_value TEXT,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_tenant_date
		ON shifts(tenant, date);
	CREATE INDEX IF NOT EXISTS idx_shifts_sector
		ON shifts(sector_id);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL,
		slot TEXT NOT NULL,
		value TEXT,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_shift
		ON assignments(shift_id);

	CREATE TABLE IF NOT EXISTS sector_rates (
		tenant TEXT NOT NULL,
		sector_id TEXT NOT NULL,
		person_id TEXT NOT NULL DEFAULT '',
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		day_value TEXT,
		night_value TEXT,
		PRIMARY KEY (tenant, sector_id, person_id, month, year)
	);

	-- Lock rows. Mutually exclusive per scope: the unique key IS the
	-- idempotent finalize guard.
	CREATE TABLE IF NOT EXISTS finalizations (
		tenant TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		sector_id TEXT NOT NULL DEFAULT '',
		finalized_at TEXT NOT NULL,
		finalized_by TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		UNIQUE (tenant, month, year, sector_id)
	);

	-- Append-only. No UPDATE/DELETE statements exist for this table.
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		scope_sector TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		person_id TEXT NOT NULL,
		person_name TEXT NOT NULL,
		source_json TEXT,
		destination_json TEXT,
		reason TEXT NOT NULL DEFAULT '',
		performed_by TEXT NOT NULL,
		performed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_scope
		ON movements(tenant, year, month);

	-- Append-only. No UPDATE/DELETE statements exist for this table.
	CREATE TABLE IF NOT EXISTS conflict_resolutions (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		conflict_date TEXT NOT NULL,
		person_id TEXT NOT NULL,
		person_name TEXT NOT NULL,
		type TEXT NOT NULL,
		justification TEXT NOT NULL DEFAULT '',
		removed_sector TEXT NOT NULL DEFAULT '',
		removed_time TEXT NOT NULL DEFAULT '',
		removed_assignment_id TEXT NOT NULL DEFAULT '',
		kept_sector TEXT NOT NULL DEFAULT '',
		kept_time TEXT NOT NULL DEFAULT '',
		kept_assignment_id TEXT NOT NULL DEFAULT '',
		snapshot_json TEXT,
		resolved_by TEXT NOT NULL,
		resolved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resolutions_scope
		ON conflict_resolutions(tenant, year, month);

	CREATE TABLE IF NOT EXISTS reopen_passwords (
		tenant TEXT PRIMARY KEY,
		password TEXT NOT NULL DEFAULT '',
		must_change BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT,
		updated_by TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullMoney(m roster.Money) any {
	if !m.Valid {
		return nil
	}
	return m.Value.String()
}

func scanMoney(ns sql.NullString) roster.Money {
	if !ns.Valid || ns.String == "" {
		return roster.NullMoney()
	}
	m, err := roster.ParseMoney(ns.String)
	if err != nil {
		return roster.NullMoney()
	}
	return m
}

func confirmWrite(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return roster.ErrSilentDenial
	}
	return nil
}

// =============================================================================
// SECTORS / PEOPLE
// =============================================================================

func (s *Store) SaveSector(ctx context.Context, sec roster.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sectors (id, tenant, name) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		sec.ID, sec.Tenant, sec.Name)
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) SavePerson(ctx context.Context, p roster.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO people (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		p.ID, p.Name)
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) DisplayName(ctx context.Context, id roster.PersonID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM people WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: person %s", roster.ErrNotFound, id)
	}
	return name, err
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) CreateShift(ctx context.Context, sh roster.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shifts (id, tenant, sector_id, date, start_time, end_time, base_value, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.Tenant, sh.Sector, sh.Date.String(),
		sh.Start.String(), sh.End.String(), nullMoney(sh.BaseValue), sh.Notes)
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

const shiftSelect = `
	SELECT sh.id, sh.tenant, sh.sector_id, COALESCE(sec.name, sh.sector_id),
	       sh.date, sh.start_time, sh.end_time, sh.base_value, sh.notes
	FROM shifts sh
	LEFT JOIN sectors sec ON sec.id = sh.sector_id`

func scanShift(row interface{ Scan(...any) error }) (*roster.Shift, error) {
	var sh roster.Shift
	var date, start, end string
	var base sql.NullString
	if err := row.Scan(&sh.ID, &sh.Tenant, &sh.Sector, &sh.SectorName,
		&date, &start, &end, &base, &sh.Notes); err != nil {
		return nil, err
	}
	var err error
	if sh.Date, err = roster.ParseDate(date); err != nil {
		return nil, err
	}
	if sh.Start, err = roster.ParseTimeOfDay(start); err != nil {
		return nil, err
	}
	if sh.End, err = roster.ParseTimeOfDay(end); err != nil {
		return nil, err
	}
	sh.BaseValue = scanMoney(base)
	return &sh, nil
}

func (s *Store) GetShift(ctx context.Context, id roster.ShiftID) (*roster.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, shiftSelect+` WHERE sh.id = ?`, id)
	sh, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: shift %s", roster.ErrNotFound, id)
	}
	return sh, err
}

func (s *Store) UpdateShift(ctx context.Context, sh roster.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE shifts SET sector_id = ?, date = ?, start_time = ?, end_time = ?, base_value = ?, notes = ?
		 WHERE id = ?`,
		sh.Sector, sh.Date.String(), sh.Start.String(), sh.End.String(),
		nullMoney(sh.BaseValue), sh.Notes, sh.ID)
	if err != nil {
		return err
	}
	if err := confirmWrite(res); err != nil {
		return fmt.Errorf("%w: shift %s", roster.ErrNotFound, sh.ID)
	}
	return nil
}

func (s *Store) DeleteShift(ctx context.Context, id roster.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := confirmWrite(res); err != nil {
		return fmt.Errorf("%w: shift %s", roster.ErrNotFound, id)
	}
	return nil
}

func (s *Store) QueryShifts(ctx context.Context, tenant roster.TenantID, period roster.Period, sector roster.SectorID) ([]roster.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := shiftSelect + ` WHERE sh.tenant = ? AND sh.date >= ? AND sh.date <= ?`
	args := []any{tenant, periodStart(period), periodEnd(period)}
	if sector != "" {
		query += ` AND sh.sector_id = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY sh.date, sh.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}
	return out, rows.Err()
}

func periodStart(p roster.Period) string {
	return roster.NewDate(p.Year, p.Month, 1).String()
}

func periodEnd(p roster.Period) string {
	last := time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return last.Format("2006-01-02")
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (s *Store) CreateAssignment(ctx context.Context, a roster.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (id, shift_id, slot, value, status) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.ShiftID, a.Slot.String(), nullMoney(a.Value), a.Status)
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) GetAssignment(ctx context.Context, id roster.AssignmentID) (*roster.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a roster.Assignment
	var slot string
	var value sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, shift_id, slot, value, status FROM assignments WHERE id = ?`, id).
		Scan(&a.ID, &a.ShiftID, &slot, &value, &a.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: assignment %s", roster.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	a.Slot = roster.ParseSlot(slot)
	a.Value = scanMoney(value)
	return &a, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, a roster.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET shift_id = ?, slot = ?, value = ?, status = ? WHERE id = ?`,
		a.ShiftID, a.Slot.String(), nullMoney(a.Value), a.Status, a.ID)
	if err != nil {
		return err
	}
	if err := confirmWrite(res); err != nil {
		return fmt.Errorf("%w: assignment %s", roster.ErrNotFound, a.ID)
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id roster.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := confirmWrite(res); err != nil {
		return fmt.Errorf("%w: assignment %s", roster.ErrNotFound, id)
	}
	return nil
}

func (s *Store) ListAssignmentViews(ctx context.Context, tenant roster.TenantID, period roster.Period, sector roster.SectorID) ([]roster.AssignmentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT a.id, sh.id, a.slot, sh.sector_id, COALESCE(sec.name, sh.sector_id),
		       sh.date, sh.start_time, sh.end_time
		FROM assignments a
		JOIN shifts sh ON sh.id = a.shift_id
		LEFT JOIN sectors sec ON sec.id = sh.sector_id
		WHERE sh.tenant = ? AND sh.date >= ? AND sh.date <= ?`
	args := []any{tenant, periodStart(period), periodEnd(period)}
	if sector != "" {
		query += ` AND sh.sector_id = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY a.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.AssignmentView
	for rows.Next() {
		var v roster.AssignmentView
		var slot, date, start, end string
		if err := rows.Scan(&v.AssignmentID, &v.ShiftID, &slot, &v.Sector, &v.SectorName,
			&date, &start, &end); err != nil {
			return nil, err
		}
		if v.Date, err = roster.ParseDate(date); err != nil {
			return nil, err
		}
		if v.Start, err = roster.ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if v.End, err = roster.ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		if person, assigned := roster.ParseSlot(slot).Person(); assigned {
			v.Person = person
			v.PersonName = s.personName(ctx, person)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) personName(ctx context.Context, id roster.PersonID) string {
	var name string
	if err := s.db.QueryRowContext(ctx, `SELECT name FROM people WHERE id = ?`, id).Scan(&name); err != nil {
		return string(id)
	}
	return name
}

// =============================================================================
// RATES
// =============================================================================

func (s *Store) UpsertRate(ctx context.Context, r roster.SectorRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sector_rates (tenant, sector_id, person_id, month, year, day_value, night_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant, sector_id, person_id, month, year)
		 DO UPDATE SET day_value = excluded.day_value, night_value = excluded.night_value`,
		r.Tenant, r.Sector, r.Person, int(r.Period.Month), r.Period.Year,
		nullMoney(r.DayValue), nullMoney(r.NightValue))
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) ListRates(ctx context.Context, tenant roster.TenantID, period roster.Period) ([]roster.SectorRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT tenant, sector_id, person_id, month, year, day_value, night_value
		 FROM sector_rates WHERE tenant = ? AND month = ? AND year = ?`,
		tenant, int(period.Month), period.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.SectorRate
	for rows.Next() {
		var r roster.SectorRate
		var month, year int
		var day, night sql.NullString
		if err := rows.Scan(&r.Tenant, &r.Sector, &r.Person, &month, &year, &day, &night); err != nil {
			return nil, err
		}
		r.Period = roster.NewPeriod(time.Month(month), year)
		r.DayValue = scanMoney(day)
		r.NightValue = scanMoney(night)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// FINALIZATIONS
// =============================================================================

func (s *Store) GetFinalization(ctx context.Context, scope roster.Scope) (*roster.Finalization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var f roster.Finalization
	var finalizedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT finalized_at, finalized_by, notes FROM finalizations
		 WHERE tenant = ? AND month = ? AND year = ? AND sector_id = ?`,
		scope.Tenant, int(scope.Period.Month), scope.Period.Year, scope.Sector).
		Scan(&finalizedAt, &f.FinalizedBy, &f.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Scope = scope
	f.FinalizedAt, _ = time.Parse(time.RFC3339, finalizedAt)
	return &f, nil
}

func (s *Store) CreateFinalization(ctx context.Context, f roster.Finalization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO finalizations (tenant, month, year, sector_id, finalized_at, finalized_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Scope.Tenant, int(f.Scope.Period.Month), f.Scope.Period.Year, f.Scope.Sector,
		f.FinalizedAt.UTC().Format(time.RFC3339), f.FinalizedBy, f.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", roster.ErrAlreadyFinalized, f.Scope)
		}
		return err
	}
	return confirmWrite(res)
}

func (s *Store) DeleteFinalization(ctx context.Context, scope roster.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM finalizations WHERE tenant = ? AND month = ? AND year = ? AND sector_id = ?`,
		scope.Tenant, int(scope.Period.Month), scope.Period.Year, scope.Sector)
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) ListFinalizations(ctx context.Context, tenant roster.TenantID, period roster.Period) ([]roster.Finalization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT sector_id, finalized_at, finalized_by, notes FROM finalizations
		 WHERE tenant = ? AND month = ? AND year = ? ORDER BY sector_id`,
		tenant, int(period.Month), period.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.Finalization
	for rows.Next() {
		var f roster.Finalization
		var finalizedAt string
		if err := rows.Scan(&f.Scope.Sector, &finalizedAt, &f.FinalizedBy, &f.Notes); err != nil {
			return nil, err
		}
		f.Scope.Tenant = tenant
		f.Scope.Period = period
		f.FinalizedAt, _ = time.Parse(time.RFC3339, finalizedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// =============================================================================
// MOVEMENTS - Append-only
// =============================================================================

func (s *Store) AppendMovement(ctx context.Context, m roster.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceJSON, err := marshalSide(m.Source)
	if err != nil {
		return err
	}
	destJSON, err := marshalSide(m.Destination)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO movements
		 (id, tenant, month, year, scope_sector, type, person_id, person_name,
		  source_json, destination_json, reason, performed_by, performed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Scope.Tenant, int(m.Scope.Period.Month), m.Scope.Period.Year, m.Scope.Sector,
		m.Type, m.Person, m.PersonName, sourceJSON, destJSON,
		m.Reason, m.PerformedBy, m.PerformedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func marshalSide(side *roster.MovementSide) (any, error) {
	if side == nil {
		return nil, nil
	}
	b, err := json.Marshal(side)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Store) ListMovements(ctx context.Context, tenant roster.TenantID, period roster.Period) ([]roster.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scope_sector, type, person_id, person_name,
		        source_json, destination_json, reason, performed_by, performed_at
		 FROM movements WHERE tenant = ? AND month = ? AND year = ?
		 ORDER BY rowid`,
		tenant, int(period.Month), period.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.Movement
	for rows.Next() {
		var m roster.Movement
		var sourceJSON, destJSON sql.NullString
		var performedAt string
		if err := rows.Scan(&m.ID, &m.Scope.Sector, &m.Type, &m.Person, &m.PersonName,
			&sourceJSON, &destJSON, &m.Reason, &m.PerformedBy, &performedAt); err != nil {
			return nil, err
		}
		m.Scope.Tenant = tenant
		m.Scope.Period = period
		if m.Source, err = unmarshalSide(sourceJSON); err != nil {
			return nil, err
		}
		if m.Destination, err = unmarshalSide(destJSON); err != nil {
			return nil, err
		}
		m.PerformedAt, _ = time.Parse(time.RFC3339, performedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func unmarshalSide(ns sql.NullString) (*roster.MovementSide, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var side roster.MovementSide
	if err := json.Unmarshal([]byte(ns.String), &side); err != nil {
		return nil, err
	}
	return &side, nil
}

// =============================================================================
// CONFLICT RESOLUTIONS - Append-only
// =============================================================================

func (s *Store) AppendResolution(ctx context.Context, r roster.ConflictResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotJSON, err := json.Marshal(r.Snapshot)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conflict_resolutions
		 (id, tenant, month, year, conflict_date, person_id, person_name, type, justification,
		  removed_sector, removed_time, removed_assignment_id,
		  kept_sector, kept_time, kept_assignment_id,
		  snapshot_json, resolved_by, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Tenant, int(r.Period.Month), r.Period.Year, r.ConflictDate.String(),
		r.Person, r.PersonName, r.Type, r.Justification,
		r.RemovedSector, r.RemovedTime, r.RemovedAssignment,
		r.KeptSector, r.KeptTime, r.KeptAssignment,
		string(snapshotJSON), r.ResolvedBy, r.ResolvedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

func (s *Store) ListResolutions(ctx context.Context, tenant roster.TenantID, period roster.Period) ([]roster.ResolutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conflict_date, person_id, person_name, type, justification,
		        removed_sector, removed_time, removed_assignment_id,
		        kept_sector, kept_time, kept_assignment_id,
		        snapshot_json, resolved_by, resolved_at
		 FROM conflict_resolutions WHERE tenant = ? AND month = ? AND year = ?
		 ORDER BY rowid`,
		tenant, int(period.Month), period.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roster.ResolutionRecord
	for rows.Next() {
		var rec roster.ResolutionRecord
		var conflictDate, resolvedAt string
		var snapshot sql.NullString
		if err := rows.Scan(&rec.ID, &conflictDate, &rec.Person, &rec.PersonName,
			&rec.Type, &rec.Justification,
			&rec.RemovedSector, &rec.RemovedTime, &rec.RemovedAssignment,
			&rec.KeptSector, &rec.KeptTime, &rec.KeptAssignment,
			&snapshot, &rec.ResolvedBy, &resolvedAt); err != nil {
			return nil, err
		}
		rec.Tenant = tenant
		rec.Period = period
		if rec.ConflictDate, err = roster.ParseDate(conflictDate); err != nil {
			return nil, err
		}
		if snapshot.Valid {
			rec.SnapshotJSON = []byte(snapshot.String)
		}
		rec.ResolvedAt, _ = time.Parse(time.RFC3339, resolvedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// REOPEN PASSWORDS
// =============================================================================

func (s *Store) GetStatus(ctx context.Context, tenant roster.TenantID) (roster.PasswordStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var password string
	var mustChange bool
	var updatedAt sql.NullString
	var status roster.PasswordStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT password, must_change, updated_at, updated_by FROM reopen_passwords WHERE tenant = ?`,
		tenant).Scan(&password, &mustChange, &updatedAt, &status.UpdatedBy)
	if err == sql.ErrNoRows {
		return roster.PasswordStatus{}, nil
	}
	if err != nil {
		return roster.PasswordStatus{}, err
	}
	status.HasPassword = password != ""
	status.MustChange = mustChange
	if updatedAt.Valid {
		status.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt.String)
	}
	return status, nil
}

func (s *Store) Verify(ctx context.Context, tenant roster.TenantID, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM reopen_passwords WHERE tenant = ?`, tenant).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored != "" && stored == password, nil
}

func (s *Store) Set(ctx context.Context, tenant roster.TenantID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM reopen_passwords WHERE tenant = ?`, tenant).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if stored != "" && stored != current {
		return roster.ErrWrongPassword
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reopen_passwords (tenant, password, must_change, updated_at)
		 VALUES (?, ?, FALSE, ?)
		 ON CONFLICT(tenant) DO UPDATE SET password = excluded.password,
		   must_change = FALSE, updated_at = excluded.updated_at`,
		tenant, next, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return confirmWrite(res)
}

// SeedPassword sets the tenant's reopen password state directly (fixtures,
// first-access provisioning).
func (s *Store) SeedPassword(ctx context.Context, tenant roster.TenantID, password string, mustChange bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reopen_passwords (tenant, password, must_change, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(tenant) DO UPDATE SET password = excluded.password,
		   must_change = excluded.must_change, updated_at = excluded.updated_at`,
		tenant, password, mustChange, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return confirmWrite(res)
}
