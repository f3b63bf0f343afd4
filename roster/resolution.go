/*
resolution.go - Conflict resolution ledger

PURPOSE:
  Persists what an admin did about a detected double-booking. Two actions:

  ACKNOWLEDGE: the conflict is intentional (e.g. a split shift). Requires a
  non-empty justification, changes no Assignment, and embeds a structured
  snapshot of the conflicting shift descriptors as they were at that moment.

  REMOVE: deletes exactly one Assignment from the conflicting group and
  records both the removed side and the "kept" side. When more than one
  assignment remains, the kept side is the first remaining one in the
  conflict's stable shift order.

DUAL-GENERATION READS:
  Stored rows come from two historical generations. The current one carries
  explicit removed/kept sector+time columns. The older one lacks them and the
  same information must be derived from the embedded snapshot by matching
  assignment id - tolerating two different key-naming conventions in the
  snapshot JSON (snake_case and camelCase). Reads normalize both generations
  into one canonical ConflictResolution; display code never sees the split.

SEE ALSO:
  - conflict.go: where conflicts (and snapshot descriptors) come from
  - store.go: ResolutionStore / ResolutionRecord
*/
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER
// =============================================================================

type ResolutionLedger struct {
	Store       ResolutionStore
	Assignments AssignmentStore
	Identity    IdentityLookup

	now func() time.Time
}

func NewResolutionLedger(store ResolutionStore, assignments AssignmentStore, identity IdentityLookup) *ResolutionLedger {
	return &ResolutionLedger{Store: store, Assignments: assignments, Identity: identity, now: time.Now}
}

// Acknowledge records a conflict as intentional. No Assignment changes.
func (l *ResolutionLedger) Acknowledge(ctx context.Context, tenant TenantID, period Period, c Conflict, justification, by string) (*ConflictResolution, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, ErrEmptyJustification
	}

	res := ConflictResolution{
		ID:            uuid.NewString(),
		Tenant:        tenant,
		Period:        period,
		ConflictDate:  c.Date,
		Person:        c.Person,
		PersonName:    l.displayName(ctx, c.Person, c.PersonName),
		Type:          ResolutionAcknowledged,
		Justification: justification,
		Snapshot:      append([]ConflictShift(nil), c.Shifts...),
		ResolvedBy:    by,
		ResolvedAt:    l.now().UTC(),
	}
	if err := l.Store.AppendResolution(ctx, res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Remove deletes exactly one assignment from the conflicting group and
// records the removed and kept sides. The ledger row is written only after
// the deletion is confirmed.
func (l *ResolutionLedger) Remove(ctx context.Context, tenant TenantID, period Period, c Conflict, remove AssignmentID, by string) (*ConflictResolution, error) {
	var removed *ConflictShift
	var remaining []ConflictShift
	for i := range c.Shifts {
		if c.Shifts[i].AssignmentID == remove {
			s := c.Shifts[i]
			removed = &s
			continue
		}
		remaining = append(remaining, c.Shifts[i])
	}
	if removed == nil {
		return nil, fmt.Errorf("%w: assignment %s not in conflict %s", ErrNotFound, remove, c.ID)
	}
	if len(remaining) == 0 {
		return nil, fmt.Errorf("%w: conflict %s has no assignment to keep", ErrValidation, c.ID)
	}

	if err := l.Assignments.DeleteAssignment(ctx, remove); err != nil {
		return nil, err
	}

	// Kept side: first remaining in the conflict's stable order.
	kept := remaining[0]

	res := ConflictResolution{
		ID:                uuid.NewString(),
		Tenant:            tenant,
		Period:            period,
		ConflictDate:      c.Date,
		Person:            c.Person,
		PersonName:        l.displayName(ctx, c.Person, c.PersonName),
		Type:              ResolutionRemoved,
		RemovedSector:     removed.SectorName,
		RemovedTime:       FormatTimeRange(removed.Start, removed.End),
		RemovedAssignment: removed.AssignmentID,
		KeptSector:        kept.SectorName,
		KeptTime:          FormatTimeRange(kept.Start, kept.End),
		KeptAssignment:    kept.AssignmentID,
		Snapshot:          append([]ConflictShift(nil), c.Shifts...),
		ResolvedBy:        by,
		ResolvedAt:        l.now().UTC(),
	}
	if err := l.Store.AppendResolution(ctx, res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Resolutions returns the scope's resolution history, every row normalized
// into the canonical shape regardless of which generation wrote it.
func (l *ResolutionLedger) Resolutions(ctx context.Context, tenant TenantID, period Period) ([]ConflictResolution, error) {
	records, err := l.Store.ListResolutions(ctx, tenant, period)
	if err != nil {
		return nil, err
	}

	out := make([]ConflictResolution, 0, len(records))
	for _, rec := range records {
		out = append(out, NormalizeResolution(rec))
	}
	return out, nil
}

func (l *ResolutionLedger) displayName(ctx context.Context, person PersonID, fallback string) string {
	if l.Identity != nil {
		if name, err := l.Identity.DisplayName(ctx, person); err == nil && name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return string(person)
}

// =============================================================================
// NORMALIZATION - Legacy rows migrate at read time
// =============================================================================

// NormalizeResolution converts a stored record into the canonical shape.
// Snapshot JSON is decoded with legacy key tolerance; rows from the older
// generation (no explicit removed/kept columns) get those fields derived from
// the snapshot by assignment id.
func NormalizeResolution(rec ResolutionRecord) ConflictResolution {
	res := rec.ConflictResolution

	if len(res.Snapshot) == 0 && len(rec.SnapshotJSON) > 0 {
		res.Snapshot = decodeSnapshot(rec.SnapshotJSON)
	}

	if res.Type == ResolutionRemoved && res.RemovedSector == "" {
		fillFromSnapshot(&res)
	}
	return res
}

// fillFromSnapshot derives the removed/kept columns an old-generation row is
// missing. The removed assignment is matched by id; the kept side is the
// first other snapshot entry, matching the write-time rule.
func fillFromSnapshot(res *ConflictResolution) {
	for _, s := range res.Snapshot {
		if s.AssignmentID == res.RemovedAssignment {
			res.RemovedSector = s.SectorName
			res.RemovedTime = FormatTimeRange(s.Start, s.End)
			break
		}
	}
	for _, s := range res.Snapshot {
		if s.AssignmentID == res.RemovedAssignment {
			continue
		}
		if res.KeptAssignment != "" && s.AssignmentID != res.KeptAssignment {
			continue
		}
		res.KeptSector = s.SectorName
		res.KeptTime = FormatTimeRange(s.Start, s.End)
		res.KeptAssignment = s.AssignmentID
		return
	}
}

// snapshotEntry tolerates both key conventions found in stored snapshots.
type snapshotEntry struct {
	ShiftID       ShiftID      `json:"shift_id"`
	ShiftIDAlt    ShiftID      `json:"shiftId"`
	SectorName    string       `json:"sector_name"`
	SectorNameAlt string       `json:"sectorName"`
	Start         string       `json:"start"`
	StartAlt      string       `json:"startTime"`
	End           string       `json:"end"`
	EndAlt        string       `json:"endTime"`
	Assignment    AssignmentID `json:"assignment_id"`
	AssignmentAlt AssignmentID `json:"assignmentId"`
}

func decodeSnapshot(raw []byte) []ConflictShift {
	var entries []snapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	shifts := make([]ConflictShift, 0, len(entries))
	for _, e := range entries {
		s := ConflictShift{
			ShiftID:      firstOf(e.ShiftID, e.ShiftIDAlt),
			SectorName:   firstOf(e.SectorName, e.SectorNameAlt),
			AssignmentID: firstOf(e.Assignment, e.AssignmentAlt),
		}
		if t, err := ParseTimeOfDay(firstOf(e.Start, e.StartAlt)); err == nil {
			s.Start = t
		}
		if t, err := ParseTimeOfDay(firstOf(e.End, e.EndAlt)); err == nil {
			s.End = t
		}
		shifts = append(shifts, s)
	}
	return shifts
}

func firstOf[T ~string](a, b T) T {
	if a != "" {
		return a
	}
	return b
}
