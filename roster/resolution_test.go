package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medroster/shift-engine/roster"
	"github.com/medroster/shift-engine/roster/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*roster.ResolutionLedger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.SavePerson(context.Background(), roster.Person{ID: "dr-a", Name: "Dr. Alice"}))
	return roster.NewResolutionLedger(mem, mem, mem), mem
}

func twoShiftConflict() roster.Conflict {
	return roster.Conflict{
		ID:         roster.ConflictID("dr-a", roster.NewDate(2026, 3, 10)),
		Person:     "dr-a",
		PersonName: "Dr. Alice",
		Date:       roster.NewDate(2026, 3, 10),
		Shifts: []roster.ConflictShift{
			{ShiftID: "s1", SectorName: "ICU", Start: roster.NewTimeOfDay(7, 0), End: roster.NewTimeOfDay(19, 0), AssignmentID: "a1"},
			{ShiftID: "s2", SectorName: "Ward", Start: roster.NewTimeOfDay(12, 0), End: roster.NewTimeOfDay(20, 0), AssignmentID: "a2"},
		},
	}
}

func seedAssignment(t *testing.T, mem *store.Memory, id string) {
	t.Helper()
	err := mem.CreateAssignment(context.Background(), roster.Assignment{
		ID:      roster.AssignmentID(id),
		ShiftID: "s1",
		Slot:    roster.AssignedTo("dr-a"),
		Status:  roster.AssignmentActive,
	})
	require.NoError(t, err)
}

// =============================================================================
// ACKNOWLEDGE
// =============================================================================

func TestAcknowledge_RequiresJustification(t *testing.T) {
	l, mem := newTestLedger(t)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)

	_, err := l.Acknowledge(ctx, "hosp-1", period, twoShiftConflict(), "   ", "chief")
	assert.ErrorIs(t, err, roster.ErrEmptyJustification)

	rows, err := mem.ListResolutions(ctx, "hosp-1", period)
	require.NoError(t, err)
	assert.Empty(t, rows, "rejected acknowledgement writes nothing")
}

func TestAcknowledge_EmbedsSnapshotAndChangesNoAssignment(t *testing.T) {
	// GIVEN: A two-shift conflict
	// WHEN: Acknowledging with a justification
	// THEN: One ledger row with the full snapshot; assignments untouched

	l, mem := newTestLedger(t)
	ctx := context.Background()
	seedAssignment(t, mem, "a1")
	seedAssignment(t, mem, "a2")

	res, err := l.Acknowledge(ctx, "hosp-1", roster.NewPeriod(3, 2026),
		twoShiftConflict(), "split shift agreed with both wards", "chief")
	require.NoError(t, err)

	assert.Equal(t, roster.ResolutionAcknowledged, res.Type)
	assert.Equal(t, "Dr. Alice", res.PersonName)
	assert.Len(t, res.Snapshot, 2)

	for _, id := range []string{"a1", "a2"} {
		_, err := mem.GetAssignment(ctx, roster.AssignmentID(id))
		assert.NoError(t, err, "assignment %s must survive an acknowledge", id)
	}
}

// =============================================================================
// REMOVE
// =============================================================================

func TestRemove_DeletesExactlyOneAndRecordsBothSides(t *testing.T) {
	// GIVEN: A two-shift conflict with both assignments present
	// WHEN: Removing a2
	// THEN: a2 is gone, a1 survives, and the row carries removed+kept details

	l, mem := newTestLedger(t)
	ctx := context.Background()
	seedAssignment(t, mem, "a1")
	seedAssignment(t, mem, "a2")

	res, err := l.Remove(ctx, "hosp-1", roster.NewPeriod(3, 2026), twoShiftConflict(), "a2", "chief")
	require.NoError(t, err)

	assert.Equal(t, roster.ResolutionRemoved, res.Type)
	assert.Equal(t, "Ward", res.RemovedSector)
	assert.Equal(t, "12:00 - 20:00", res.RemovedTime)
	assert.Equal(t, roster.AssignmentID("a2"), res.RemovedAssignment)
	assert.Equal(t, "ICU", res.KeptSector)
	assert.Equal(t, "07:00 - 19:00", res.KeptTime)
	assert.Equal(t, roster.AssignmentID("a1"), res.KeptAssignment)

	_, err = mem.GetAssignment(ctx, "a2")
	assert.True(t, roster.IsNotFound(err))
	_, err = mem.GetAssignment(ctx, "a1")
	assert.NoError(t, err)
}

func TestRemove_KeptSideIsFirstRemainingInStableOrder(t *testing.T) {
	// GIVEN: A three-shift conflict, removing the middle one
	// WHEN: Removing
	// THEN: The kept side is the FIRST remaining shift in conflict order

	l, mem := newTestLedger(t)
	ctx := context.Background()
	c := twoShiftConflict()
	c.Shifts = append(c.Shifts, roster.ConflictShift{
		ShiftID: "s3", SectorName: "ER",
		Start: roster.NewTimeOfDay(18, 0), End: roster.NewTimeOfDay(23, 0),
		AssignmentID: "a3",
	})
	for _, id := range []string{"a1", "a2", "a3"} {
		seedAssignment(t, mem, id)
	}

	res, err := l.Remove(ctx, "hosp-1", roster.NewPeriod(3, 2026), c, "a2", "chief")
	require.NoError(t, err)
	assert.Equal(t, roster.AssignmentID("a1"), res.KeptAssignment)
}

func TestRemove_UnknownAssignmentInConflict(t *testing.T) {
	l, mem := newTestLedger(t)
	seedAssignment(t, mem, "a1")
	seedAssignment(t, mem, "a2")

	_, err := l.Remove(context.Background(), "hosp-1", roster.NewPeriod(3, 2026),
		twoShiftConflict(), "a99", "chief")
	assert.True(t, roster.IsNotFound(err))
}

func TestRemove_MissingAssignmentRowAbortsResolution(t *testing.T) {
	// GIVEN: A conflict referencing an assignment already gone from the store
	// WHEN: Removing it
	// THEN: The failed delete aborts the resolution; nothing is appended

	l, mem := newTestLedger(t)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)

	_, err := l.Remove(ctx, "hosp-1", period, twoShiftConflict(), "a2", "chief")
	require.Error(t, err)

	rows, lerr := mem.ListResolutions(ctx, "hosp-1", period)
	require.NoError(t, lerr)
	assert.Empty(t, rows)
}

// =============================================================================
// DUAL-GENERATION READS
// =============================================================================

func TestResolutions_LegacySnapshotRowNormalizes(t *testing.T) {
	// GIVEN: A stored old-generation row: no removed/kept columns, snapshot
	//        JSON written with camelCase keys
	// WHEN: Reading resolutions
	// THEN: The row comes back in the canonical shape, sides derived from
	//       the snapshot by assignment id

	l, mem := newTestLedger(t)
	period := roster.NewPeriod(3, 2026)

	mem.SeedResolutionRecord(roster.ResolutionRecord{
		ConflictResolution: roster.ConflictResolution{
			ID:                "legacy-1",
			Tenant:            "hosp-1",
			Period:            period,
			ConflictDate:      roster.NewDate(2026, 3, 10),
			Person:            "dr-a",
			PersonName:        "Dr. Alice",
			Type:              roster.ResolutionRemoved,
			RemovedAssignment: "a2",
		},
		SnapshotJSON: []byte(`[
			{"shiftId":"s1","sectorName":"ICU","startTime":"07:00","endTime":"19:00","assignmentId":"a1"},
			{"shiftId":"s2","sectorName":"Ward","startTime":"12:00","endTime":"20:00","assignmentId":"a2"}
		]`),
	})

	rows, err := l.Resolutions(context.Background(), "hosp-1", period)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	res := rows[0]
	assert.Equal(t, "Ward", res.RemovedSector)
	assert.Equal(t, "12:00 - 20:00", res.RemovedTime)
	assert.Equal(t, "ICU", res.KeptSector)
	assert.Equal(t, "07:00 - 19:00", res.KeptTime)
	assert.Equal(t, roster.AssignmentID("a1"), res.KeptAssignment)
	require.Len(t, res.Snapshot, 2)
	assert.Equal(t, roster.ShiftID("s1"), res.Snapshot[0].ShiftID)
}

func TestResolutions_SnakeCaseSnapshotAlsoTolerated(t *testing.T) {
	l, mem := newTestLedger(t)
	period := roster.NewPeriod(3, 2026)

	mem.SeedResolutionRecord(roster.ResolutionRecord{
		ConflictResolution: roster.ConflictResolution{
			ID:                "legacy-2",
			Tenant:            "hosp-1",
			Period:            period,
			ConflictDate:      roster.NewDate(2026, 3, 11),
			Person:            "dr-a",
			Type:              roster.ResolutionRemoved,
			RemovedAssignment: "a1",
		},
		SnapshotJSON: []byte(`[
			{"shift_id":"s1","sector_name":"ICU","start":"07:00","end":"19:00","assignment_id":"a1"},
			{"shift_id":"s2","sector_name":"Ward","start":"12:00","end":"20:00","assignment_id":"a2"}
		]`),
	})

	rows, err := l.Resolutions(context.Background(), "hosp-1", period)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ICU", rows[0].RemovedSector)
	assert.Equal(t, "Ward", rows[0].KeptSector)
}

func TestResolutions_CurrentGenerationPassesThroughUnchanged(t *testing.T) {
	l, mem := newTestLedger(t)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)
	seedAssignment(t, mem, "a1")
	seedAssignment(t, mem, "a2")

	written, err := l.Remove(ctx, "hosp-1", period, twoShiftConflict(), "a2", "chief")
	require.NoError(t, err)

	rows, err := l.Resolutions(ctx, "hosp-1", period)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, written.RemovedSector, rows[0].RemovedSector)
	assert.Equal(t, written.KeptAssignment, rows[0].KeptAssignment)
}

func TestResolutions_SurviveReopen(t *testing.T) {
	l, mem := newTestLedger(t)
	f := roster.NewFinalizer(mem, mem)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)
	seedAssignment(t, mem, "a1")
	seedAssignment(t, mem, "a2")

	mem.SeedPassword("hosp-1", "s3cret", false)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	_, err = l.Acknowledge(ctx, "hosp-1", period, twoShiftConflict(), "intentional split", "chief")
	require.NoError(t, err)

	require.NoError(t, f.Reopen(ctx, icuScope(), "s3cret", "chief"))

	rows, err := l.Resolutions(ctx, "hosp-1", period)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "reopening never deletes resolution history")
}
