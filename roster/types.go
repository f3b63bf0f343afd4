/*
Package roster is the core engine behind a hospital shift roster.

PURPOSE:
  Three tightly related subsystems live here:
  - Value resolution: what a shift or assignment is worth, under a strict
    precedence chain with pro-rata duration scaling (value.go)
  - Conflict detection: people double-booked into overlapping windows on the
    same date (conflict.go)
  - Finalization + audit ledgers: locking a period and recording every
    subsequent assignment change for compliance (finalize.go, movement.go,
    resolution.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift / Assignment / SectorRate: the roster data model
  - Scope: the (tenant, period, optional sector) key finalization locks on
  - Movement / ConflictResolution: append-only audit rows

DESIGN PRINCIPLES:
  1. Append-only history: Movements and ConflictResolutions are never
     updated or deleted; reopening a period keeps them intact
  2. Precision: decimal.Decimal for money, never float64
  3. Zero is a value: Money carries explicit validity; 0 never falls through
  4. Denormalize at write: audit rows embed sector names and formatted time
     ranges so history survives renames and deletions

SEE ALSO:
  - store.go: persistence interfaces
  - store/memory.go: in-memory store for tests
  - ../store/sqlite: production store
*/
package roster

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type SectorID string
type PersonID string
type ShiftID string
type AssignmentID string

// =============================================================================
// SCOPE - What finalization locks
// =============================================================================

// Scope identifies a lockable slice of the roster: a tenant's month, either
// for every sector (Sector == "") or for one sector.
type Scope struct {
	Tenant TenantID
	Period Period
	Sector SectorID
}

func (s Scope) String() string {
	if s.Sector == "" {
		return string(s.Tenant) + "/" + s.Period.String()
	}
	return string(s.Tenant) + "/" + s.Period.String() + "/" + string(s.Sector)
}

// =============================================================================
// ROSTER DATA MODEL
// =============================================================================

type Sector struct {
	ID     SectorID
	Tenant TenantID
	Name   string
}

type Person struct {
	ID   PersonID
	Name string
}

type Shift struct {
	ID         ShiftID
	Tenant     TenantID
	Sector     SectorID
	SectorName string // joined, not stored on the shift row
	Date       Date
	Start      TimeOfDay
	End        TimeOfDay
	BaseValue  Money // null = no shift-level value; 0 is a real value
	Notes      string
}

// Interval returns the shift window for overlap/duration math.
func (s Shift) Interval() Interval { return Interval{Start: s.Start, End: s.End} }

type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "active"
	AssignmentRemoved AssignmentStatus = "removed"
)

type Assignment struct {
	ID      AssignmentID
	ShiftID ShiftID
	Slot    Slot
	Value   Money // explicit assignment-level value; null = unset
	Status  AssignmentStatus
}

// SectorRate carries a sector's default day/night values for one period,
// optionally overridden per person (Person != "").
type SectorRate struct {
	Tenant     TenantID
	Sector     SectorID
	Person     PersonID // "" = sector-wide default
	Period     Period
	DayValue   Money
	NightValue Money
}

// AssignmentView is an assignment joined to its shift's date/time/sector,
// the unit of input for conflict detection.
type AssignmentView struct {
	AssignmentID AssignmentID
	ShiftID      ShiftID
	Person       PersonID
	PersonName   string
	Sector       SectorID
	SectorName   string
	Date         Date
	Start        TimeOfDay
	End          TimeOfDay
}

func (v AssignmentView) Interval() Interval { return Interval{Start: v.Start, End: v.End} }

// =============================================================================
// FINALIZATION - Period lock row
// =============================================================================

// Finalization existence means the scope is locked. Deleting the row reopens
// the scope but never touches prior Movements or ConflictResolutions.
type Finalization struct {
	Scope       Scope
	FinalizedAt time.Time
	FinalizedBy string
	Notes       string
}

// PasswordStatus is the tenant-scoped reopen-password state.
type PasswordStatus struct {
	HasPassword bool
	MustChange  bool
	UpdatedAt   time.Time
	UpdatedBy   string
}

// =============================================================================
// MOVEMENT - Append-only audit row for assignment changes under a lock
// =============================================================================

type MovementType string

const (
	MovementAdded   MovementType = "added"
	MovementRemoved MovementType = "removed"

	// MovementTransferred exists in the taxonomy but is never written by the
	// recorder: a substitution is always two linked rows, one removed and one
	// added, with reciprocal reason text.
	MovementTransferred MovementType = "transferred"
)

// MovementSide is a denormalized slot descriptor. Sector name and time range
// are captured as text at write time.
type MovementSide struct {
	Sector       SectorID     `json:"sector"`
	SectorName   string       `json:"sector_name"`
	Date         Date         `json:"date"`
	TimeRange    string       `json:"time_range"`
	AssignmentID AssignmentID `json:"assignment_id"`
}

// Movement records one audited assignment change. type=added has a nil
// Source; type=removed has a nil Destination.
type Movement struct {
	ID          string
	Scope       Scope
	Type        MovementType
	Person      PersonID
	PersonName  string
	Source      *MovementSide
	Destination *MovementSide
	Reason      string
	PerformedBy string
	PerformedAt time.Time
}

// =============================================================================
// CONFLICT RESOLUTION - Append-only audit row for resolved double-bookings
// =============================================================================

type ResolutionType string

const (
	ResolutionAcknowledged ResolutionType = "acknowledged"
	ResolutionRemoved      ResolutionType = "removed"
)

// ConflictResolution is the canonical, normalized shape every read returns,
// regardless of which historical generation wrote the row (see resolution.go
// for the legacy snapshot-derived generation).
type ConflictResolution struct {
	ID           string
	Tenant       TenantID
	Period       Period
	ConflictDate Date
	Person       PersonID
	PersonName   string
	Type         ResolutionType

	// Acknowledged rows.
	Justification string

	// Removed rows: both sides denormalized.
	RemovedSector     string
	RemovedTime       string
	RemovedAssignment AssignmentID
	KeptSector        string
	KeptTime          string
	KeptAssignment    AssignmentID

	// Snapshot of the conflicting shift descriptors at resolution time.
	Snapshot []ConflictShift

	ResolvedBy string
	ResolvedAt time.Time
}
