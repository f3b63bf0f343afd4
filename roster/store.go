/*
store.go - Persistence interfaces for the roster engine

PURPOSE:
  Defines the boundary between the engine and the shared data store. The
  store has last-write-wins semantics: no optimistic versioning exists in
  this layer, and two admins racing on the same scope silently resolve to
  the later write.

WRITE-CONFIRMATION CONTRACT:
  Append* and Delete* implementations must confirm the row was actually
  affected (rows-affected check or read-back) and return ErrSilentDenial
  otherwise. A write that "succeeds" without confirmation is a failure.

APPEND-ONLY CONTRACT:
  MovementStore and ResolutionStore expose no update or delete. Reopening a
  finalized scope deletes the Finalization row only; audit history is
  permanent.

IMPLEMENTATIONS:
  - store/memory.go: in-memory, for tests and dev
  - ../store/sqlite: production SQLite

SEE ALSO:
  - finalize.go, movement.go, resolution.go: the services on top
*/
package roster

import "context"

// =============================================================================
// SHIFT / ASSIGNMENT STORES
// =============================================================================

type ShiftStore interface {
	CreateShift(ctx context.Context, s Shift) error
	GetShift(ctx context.Context, id ShiftID) (*Shift, error)
	UpdateShift(ctx context.Context, s Shift) error
	DeleteShift(ctx context.Context, id ShiftID) error

	// QueryShifts returns a tenant's shifts for one period, optionally
	// filtered to a sector (sector == "" means all), with SectorName joined.
	QueryShifts(ctx context.Context, tenant TenantID, period Period, sector SectorID) ([]Shift, error)
}

type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id AssignmentID) (*Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment) error

	// DeleteAssignment must confirm the row existed (ErrSilentDenial
	// otherwise); conflict resolution depends on exactly-one removal.
	DeleteAssignment(ctx context.Context, id AssignmentID) error

	// ListAssignmentViews returns assignments joined to their shift's
	// date/time/sector for the visible period - the detector's input.
	ListAssignmentViews(ctx context.Context, tenant TenantID, period Period, sector SectorID) ([]AssignmentView, error)
}

// =============================================================================
// RATES
// =============================================================================

type RateStore interface {
	ListRates(ctx context.Context, tenant TenantID, period Period) ([]SectorRate, error)
	UpsertRate(ctx context.Context, r SectorRate) error
}

// =============================================================================
// FINALIZATION
// =============================================================================

type FinalizationStore interface {
	// GetFinalization returns nil (no error) when the scope is open.
	GetFinalization(ctx context.Context, scope Scope) (*Finalization, error)

	// CreateFinalization fails with ErrAlreadyFinalized on a duplicate scope.
	CreateFinalization(ctx context.Context, f Finalization) error

	// DeleteFinalization removes the lock row. Audit rows are untouched.
	DeleteFinalization(ctx context.Context, scope Scope) error

	ListFinalizations(ctx context.Context, tenant TenantID, period Period) ([]Finalization, error)
}

// =============================================================================
// AUDIT LEDGERS - Append-only
// =============================================================================

type MovementStore interface {
	AppendMovement(ctx context.Context, m Movement) error
	ListMovements(ctx context.Context, tenant TenantID, period Period) ([]Movement, error)
}

// ResolutionRecord is a raw stored row. Older-generation rows lack the
// explicit removed/kept columns; their snapshot JSON carries the information
// instead. resolution.go normalizes both generations into ConflictResolution.
type ResolutionRecord struct {
	ConflictResolution
	SnapshotJSON []byte
}

type ResolutionStore interface {
	AppendResolution(ctx context.Context, r ConflictResolution) error
	ListResolutions(ctx context.Context, tenant TenantID, period Period) ([]ResolutionRecord, error)
}

// =============================================================================
// REOPEN PASSWORD - Tenant-scoped
// =============================================================================

type PasswordStore interface {
	GetStatus(ctx context.Context, tenant TenantID) (PasswordStatus, error)

	// Verify is the single typed verification call. A definitive mismatch is
	// (false, nil); errors are either soft schema mismatches (fallback
	// triggers, see IsSchemaMismatch) or hard remote failures.
	Verify(ctx context.Context, tenant TenantID, password string) (bool, error)

	// Set stores a new password. current may be blank on first access.
	Set(ctx context.Context, tenant TenantID, current, next string) error
}

// =============================================================================
// IDENTITY - Audit denormalization only
// =============================================================================

type IdentityLookup interface {
	// DisplayName resolves a person id for embedding into audit rows.
	DisplayName(ctx context.Context, id PersonID) (string, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Store is the full persistence surface a deployment provides.
type Store interface {
	ShiftStore
	AssignmentStore
	RateStore
	FinalizationStore
	MovementStore
	ResolutionStore
	PasswordStore
	IdentityLookup

	SaveSector(ctx context.Context, s Sector) error
	SavePerson(ctx context.Context, p Person) error
}
