/*
movement.go - Append-only audit rows for assignment changes under a lock

PURPOSE:
  While a scope is finalized, every assignment change must leave a Movement
  row behind. The recorder is a pure append operation: it does NOT re-derive
  finalization state. Callers consult Finalizer.IsFinalized and invoke the
  recorder only when the scope is locked.

INVARIANTS:
  - type=added   => Source is nil
  - type=removed => Destination is nil
  - A substitution is exactly TWO linked rows (removed + added) with
    reciprocal reason text, never one merged "transferred" row
  - Sector name and the formatted time range are denormalized at write time
    so history stays readable after renames/deletions

SILENT DENIAL:
  AppendMovement implementations confirm the row landed; an unconfirmed
  write surfaces ErrSilentDenial to the caller instead of passing as
  success.

SEE ALSO:
  - finalize.go: the gate callers consult first
  - store.go: MovementStore contract
*/
package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SLOT REFERENCE - Recorder input
// =============================================================================

// SlotRef identifies the shift slot a movement touches, before
// denormalization.
type SlotRef struct {
	Sector       SectorID
	SectorName   string
	Date         Date
	Start        TimeOfDay
	End          TimeOfDay
	AssignmentID AssignmentID
}

// side freezes the reference into the stored, rename-proof form.
func (ref SlotRef) side() *MovementSide {
	return &MovementSide{
		Sector:       ref.Sector,
		SectorName:   ref.SectorName,
		Date:         ref.Date,
		TimeRange:    FormatTimeRange(ref.Start, ref.End),
		AssignmentID: ref.AssignmentID,
	}
}

// =============================================================================
// RECORDER
// =============================================================================

type MovementRecorder struct {
	Store    MovementStore
	Identity IdentityLookup

	now func() time.Time
}

func NewMovementRecorder(store MovementStore, identity IdentityLookup) *MovementRecorder {
	return &MovementRecorder{Store: store, Identity: identity, now: time.Now}
}

// RecordAdded appends one added row. Source stays nil.
func (r *MovementRecorder) RecordAdded(ctx context.Context, scope Scope, person PersonID, dest SlotRef, reason, by string) (*Movement, error) {
	return r.record(ctx, scope, MovementAdded, person, nil, dest.side(), reason, by)
}

// RecordRemoved appends one removed row. Destination stays nil.
func (r *MovementRecorder) RecordRemoved(ctx context.Context, scope Scope, person PersonID, source SlotRef, reason, by string) (*Movement, error) {
	return r.record(ctx, scope, MovementRemoved, person, source.side(), nil, reason, by)
}

// RecordSubstitution appends the removed+added pair for a person replacing
// another in the same slot. The reasons reference each other; the combined
// MovementTransferred type is deliberately never used here.
func (r *MovementRecorder) RecordSubstitution(ctx context.Context, scope Scope, outgoing, incoming PersonID, slot SlotRef, by string) ([]*Movement, error) {
	outName := r.displayName(ctx, outgoing)
	inName := r.displayName(ctx, incoming)

	removed, err := r.record(ctx, scope, MovementRemoved, outgoing, slot.side(), nil,
		fmt.Sprintf("substituted by %s", inName), by)
	if err != nil {
		return nil, err
	}
	added, err := r.record(ctx, scope, MovementAdded, incoming, nil, slot.side(),
		fmt.Sprintf("substituting %s", outName), by)
	if err != nil {
		// The removed row stays: the ledger is append-only and the partial
		// pair is still true history. The caller sees the failure.
		return []*Movement{removed}, err
	}
	return []*Movement{removed, added}, nil
}

func (r *MovementRecorder) record(ctx context.Context, scope Scope, typ MovementType, person PersonID, source, dest *MovementSide, reason, by string) (*Movement, error) {
	m := Movement{
		ID:          uuid.NewString(),
		Scope:       scope,
		Type:        typ,
		Person:      person,
		PersonName:  r.displayName(ctx, person),
		Source:      source,
		Destination: dest,
		Reason:      reason,
		PerformedBy: by,
		PerformedAt: r.now().UTC(),
	}
	if err := r.Store.AppendMovement(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// displayName denormalizes the person's name at write time; an unavailable
// identity store degrades to the raw id rather than blocking the audit row.
func (r *MovementRecorder) displayName(ctx context.Context, person PersonID) string {
	if r.Identity == nil {
		return string(person)
	}
	name, err := r.Identity.DisplayName(ctx, person)
	if err != nil || name == "" {
		return string(person)
	}
	return name
}
