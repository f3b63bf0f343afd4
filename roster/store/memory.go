// Package store provides an in-memory roster.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/medroster/shift-engine/roster"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	sectors       map[roster.SectorID]roster.Sector
	people        map[roster.PersonID]roster.Person
	shifts        map[roster.ShiftID]roster.Shift
	assignments   map[roster.AssignmentID]roster.Assignment
	rates         map[rateKey]roster.SectorRate
	finalizations map[roster.Scope]roster.Finalization
	movements     []roster.Movement
	resolutions   []roster.ResolutionRecord
	passwords     map[roster.TenantID]passwordEntry
}

type rateKey struct {
	Tenant roster.TenantID
	Sector roster.SectorID
	Person roster.PersonID
	Period roster.Period
}

type passwordEntry struct {
	password   string
	mustChange bool
	updatedAt  time.Time
	updatedBy  string
}

func NewMemory() *Memory {
	return &Memory{
		sectors:       make(map[roster.SectorID]roster.Sector),
		people:        make(map[roster.PersonID]roster.Person),
		shifts:        make(map[roster.ShiftID]roster.Shift),
		assignments:   make(map[roster.AssignmentID]roster.Assignment),
		rates:         make(map[rateKey]roster.SectorRate),
		finalizations: make(map[roster.Scope]roster.Finalization),
		passwords:     make(map[roster.TenantID]passwordEntry),
	}
}

// =============================================================================
// SECTORS / PEOPLE
// =============================================================================

func (m *Memory) SaveSector(_ context.Context, s roster.Sector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[s.ID] = s
	return nil
}

func (m *Memory) SavePerson(_ context.Context, p roster.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = p
	return nil
}

func (m *Memory) DisplayName(_ context.Context, id roster.PersonID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.people[id]; ok {
		return p.Name, nil
	}
	return "", fmt.Errorf("%w: person %s", roster.ErrNotFound, id)
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) CreateShift(_ context.Context, s roster.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = s
	return nil
}

func (m *Memory) GetShift(_ context.Context, id roster.ShiftID) (*roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, fmt.Errorf("%w: shift %s", roster.ErrNotFound, id)
	}
	s.SectorName = m.sectorNameLocked(s.Sector)
	return &s, nil
}

func (m *Memory) UpdateShift(_ context.Context, s roster.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[s.ID]; !ok {
		return fmt.Errorf("%w: shift %s", roster.ErrNotFound, s.ID)
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *Memory) DeleteShift(_ context.Context, id roster.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return fmt.Errorf("%w: shift %s", roster.ErrNotFound, id)
	}
	delete(m.shifts, id)
	return nil
}

func (m *Memory) QueryShifts(_ context.Context, tenant roster.TenantID, period roster.Period, sector roster.SectorID) ([]roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.Shift
	for _, s := range m.shifts {
		if s.Tenant != tenant || !period.Contains(s.Date) {
			continue
		}
		if sector != "" && s.Sector != sector {
			continue
		}
		s.SectorName = m.sectorNameLocked(s.Sector)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) sectorNameLocked(id roster.SectorID) string {
	if s, ok := m.sectors[id]; ok {
		return s.Name
	}
	return string(id)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) CreateAssignment(_ context.Context, a roster.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, id roster.AssignmentID) (*roster.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assignment %s", roster.ErrNotFound, id)
	}
	return &a, nil
}

func (m *Memory) UpdateAssignment(_ context.Context, a roster.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return fmt.Errorf("%w: assignment %s", roster.ErrNotFound, a.ID)
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id roster.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return fmt.Errorf("%w: assignment %s", roster.ErrNotFound, id)
	}
	delete(m.assignments, id)
	return nil
}

func (m *Memory) ListAssignmentViews(_ context.Context, tenant roster.TenantID, period roster.Period, sector roster.SectorID) ([]roster.AssignmentView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.AssignmentView
	for _, a := range m.assignments {
		shift, ok := m.shifts[a.ShiftID]
		if !ok || shift.Tenant != tenant || !period.Contains(shift.Date) {
			continue
		}
		if sector != "" && shift.Sector != sector {
			continue
		}
		view := roster.AssignmentView{
			AssignmentID: a.ID,
			ShiftID:      shift.ID,
			Sector:       shift.Sector,
			SectorName:   m.sectorNameLocked(shift.Sector),
			Date:         shift.Date,
			Start:        shift.Start,
			End:          shift.End,
		}
		if person, assigned := a.Slot.Person(); assigned {
			view.Person = person
			if p, ok := m.people[person]; ok {
				view.PersonName = p.Name
			} else {
				view.PersonName = string(person)
			}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AssignmentID < out[j].AssignmentID
	})
	return out, nil
}

// =============================================================================
// RATES
// =============================================================================

func (m *Memory) UpsertRate(_ context.Context, r roster.SectorRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rateKey{Tenant: r.Tenant, Sector: r.Sector, Person: r.Person, Period: r.Period}] = r
	return nil
}

func (m *Memory) ListRates(_ context.Context, tenant roster.TenantID, period roster.Period) ([]roster.SectorRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.SectorRate
	for _, r := range m.rates {
		if r.Tenant == tenant && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// FINALIZATIONS
// =============================================================================

func (m *Memory) GetFinalization(_ context.Context, scope roster.Scope) (*roster.Finalization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.finalizations[scope]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *Memory) CreateFinalization(_ context.Context, f roster.Finalization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.finalizations[f.Scope]; ok {
		return fmt.Errorf("%w: %s", roster.ErrAlreadyFinalized, f.Scope)
	}
	m.finalizations[f.Scope] = f
	return nil
}

func (m *Memory) DeleteFinalization(_ context.Context, scope roster.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.finalizations[scope]; !ok {
		return fmt.Errorf("%w: %s", roster.ErrSilentDenial, scope)
	}
	delete(m.finalizations, scope)
	return nil
}

func (m *Memory) ListFinalizations(_ context.Context, tenant roster.TenantID, period roster.Period) ([]roster.Finalization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.Finalization
	for _, f := range m.finalizations {
		if f.Scope.Tenant == tenant && f.Scope.Period == period {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Scope.Sector < out[j].Scope.Sector
	})
	return out, nil
}

// =============================================================================
// MOVEMENTS - Append-only
// =============================================================================

func (m *Memory) AppendMovement(_ context.Context, mv roster.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, mv)
	return nil
}

func (m *Memory) ListMovements(_ context.Context, tenant roster.TenantID, period roster.Period) ([]roster.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.Movement
	for _, mv := range m.movements {
		if mv.Scope.Tenant == tenant && mv.Scope.Period == period {
			out = append(out, mv)
		}
	}
	return out, nil
}

// =============================================================================
// RESOLUTIONS - Append-only
// =============================================================================

func (m *Memory) AppendResolution(_ context.Context, r roster.ConflictResolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, roster.ResolutionRecord{ConflictResolution: r})
	return nil
}

// SeedResolutionRecord injects a raw stored record, including legacy-shaped
// rows, for exercising read-side normalization.
func (m *Memory) SeedResolutionRecord(rec roster.ResolutionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, rec)
}

func (m *Memory) ListResolutions(_ context.Context, tenant roster.TenantID, period roster.Period) ([]roster.ResolutionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.ResolutionRecord
	for _, r := range m.resolutions {
		if r.Tenant == tenant && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// REOPEN PASSWORDS
// =============================================================================

func (m *Memory) GetStatus(_ context.Context, tenant roster.TenantID) (roster.PasswordStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.passwords[tenant]
	if !ok {
		return roster.PasswordStatus{}, nil
	}
	return roster.PasswordStatus{
		HasPassword: entry.password != "",
		MustChange:  entry.mustChange,
		UpdatedAt:   entry.updatedAt,
		UpdatedBy:   entry.updatedBy,
	}, nil
}

func (m *Memory) Verify(_ context.Context, tenant roster.TenantID, password string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.passwords[tenant]
	if !ok || entry.password == "" {
		return false, nil
	}
	return entry.password == password, nil
}

func (m *Memory) Set(_ context.Context, tenant roster.TenantID, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.passwords[tenant]
	if entry.password != "" && entry.password != current {
		return roster.ErrWrongPassword
	}
	m.passwords[tenant] = passwordEntry{
		password:  next,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// SeedPassword sets the tenant's reopen password state directly, bypassing
// the current-password check (fixture setup).
func (m *Memory) SeedPassword(tenant roster.TenantID, password string, mustChange bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[tenant] = passwordEntry{password: password, mustChange: mustChange}
}
