package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medroster/shift-engine/roster"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestShiftRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSector(ctx, roster.Sector{ID: "icu", Tenant: "hosp-1", Name: "ICU"}))

	shift := roster.Shift{
		ID:        "s1",
		Tenant:    "hosp-1",
		Sector:    "icu",
		Date:      roster.NewDate(2026, 3, 10),
		Start:     roster.NewTimeOfDay(7, 0),
		End:       roster.NewTimeOfDay(19, 0),
		BaseValue: roster.MoneyFromInt(0), // zero must survive, distinct from null
		Notes:     "holiday cover",
	}
	require.NoError(t, st.CreateShift(ctx, shift))

	got, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ICU", got.SectorName, "sector name joined on read")
	assert.True(t, got.BaseValue.Valid)
	assert.True(t, got.BaseValue.IsZero())
	assert.Equal(t, shift.Date, got.Date)
	assert.Equal(t, shift.Start, got.Start)
}

func TestShiftNullBaseValue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	shift := roster.Shift{
		ID: "s1", Tenant: "hosp-1", Sector: "icu",
		Date:  roster.NewDate(2026, 3, 10),
		Start: roster.NewTimeOfDay(7, 0), End: roster.NewTimeOfDay(19, 0),
	}
	require.NoError(t, st.CreateShift(ctx, shift))

	got, err := st.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.BaseValue.Valid, "null stays null")
}

func TestQueryShifts_PeriodBoundaries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, d := range []roster.Date{
		roster.NewDate(2026, 2, 28),
		roster.NewDate(2026, 3, 1),
		roster.NewDate(2026, 3, 31),
		roster.NewDate(2026, 4, 1),
	} {
		require.NoError(t, st.CreateShift(ctx, roster.Shift{
			ID: roster.ShiftID("s-" + d.String()), Tenant: "hosp-1", Sector: "icu",
			Date: d, Start: roster.NewTimeOfDay(7, 0), End: roster.NewTimeOfDay(19, 0),
		}))
	}

	shifts, err := st.QueryShifts(ctx, "hosp-1", roster.NewPeriod(3, 2026), "")
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, roster.NewDate(2026, 3, 1), shifts[0].Date)
	assert.Equal(t, roster.NewDate(2026, 3, 31), shifts[1].Date)
}

func TestDeleteMissingRows_ConfirmedAsNotFound(t *testing.T) {
	// Writes must confirm they touched a row; a no-op delete is an error,
	// never a silent success.
	st := newTestStore(t)
	ctx := context.Background()

	assert.True(t, roster.IsNotFound(st.DeleteShift(ctx, "ghost")))
	assert.True(t, roster.IsNotFound(st.DeleteAssignment(ctx, "ghost")))
}

func TestDeleteFinalization_MissingRowIsSilentDenial(t *testing.T) {
	st := newTestStore(t)
	scope := roster.Scope{Tenant: "hosp-1", Period: roster.NewPeriod(3, 2026), Sector: "icu"}
	err := st.DeleteFinalization(context.Background(), scope)
	assert.ErrorIs(t, err, roster.ErrSilentDenial)
}

func TestCreateFinalization_DuplicateMapsToAlreadyFinalized(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	fin := roster.Finalization{
		Scope: roster.Scope{Tenant: "hosp-1", Period: roster.NewPeriod(3, 2026), Sector: "icu"},
		FinalizedAt: time.Now().UTC(), FinalizedBy: "chief",
	}
	require.NoError(t, st.CreateFinalization(ctx, fin))
	assert.ErrorIs(t, st.CreateFinalization(ctx, fin), roster.ErrAlreadyFinalized)
}

func TestMovementSidesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	scope := roster.Scope{Tenant: "hosp-1", Period: roster.NewPeriod(3, 2026), Sector: "icu"}

	m := roster.Movement{
		ID:     "mv-1",
		Scope:  scope,
		Type:   roster.MovementRemoved,
		Person: "dr-a", PersonName: "Dr. Alice",
		Source: &roster.MovementSide{
			Sector: "icu", SectorName: "ICU",
			Date:      roster.NewDate(2026, 3, 10),
			TimeRange: "07:00 - 19:00", AssignmentID: "a1",
		},
		Reason:      "sick leave",
		PerformedBy: "chief",
		PerformedAt: time.Now().UTC(),
	}
	require.NoError(t, st.AppendMovement(ctx, m))

	rows, err := st.ListMovements(ctx, "hosp-1", roster.NewPeriod(3, 2026))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Nil(t, got.Destination)
	require.NotNil(t, got.Source)
	assert.Equal(t, "07:00 - 19:00", got.Source.TimeRange)
	assert.Equal(t, roster.AssignmentID("a1"), got.Source.AssignmentID)
	assert.Equal(t, roster.NewDate(2026, 3, 10), got.Source.Date)
}

func TestResolutionSnapshotPersistsAsJSON(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)

	res := roster.ConflictResolution{
		ID: "res-1", Tenant: "hosp-1", Period: period,
		ConflictDate: roster.NewDate(2026, 3, 10),
		Person:       "dr-a", PersonName: "Dr. Alice",
		Type:          roster.ResolutionAcknowledged,
		Justification: "intentional split",
		Snapshot: []roster.ConflictShift{
			{ShiftID: "s1", SectorName: "ICU", Start: roster.NewTimeOfDay(7, 0), End: roster.NewTimeOfDay(19, 0), AssignmentID: "a1"},
		},
		ResolvedBy: "chief",
		ResolvedAt: time.Now().UTC(),
	}
	require.NoError(t, st.AppendResolution(ctx, res))

	records, err := st.ListResolutions(ctx, "hosp-1", period)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].SnapshotJSON)

	normalized := roster.NormalizeResolution(records[0])
	require.Len(t, normalized.Snapshot, 1)
	assert.Equal(t, roster.ShiftID("s1"), normalized.Snapshot[0].ShiftID)
}

func TestUpsertRate_Overwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	period := roster.NewPeriod(3, 2026)

	rate := roster.SectorRate{
		Tenant: "hosp-1", Sector: "icu", Period: period,
		DayValue: roster.MoneyFromInt(300), NightValue: roster.MoneyFromInt(400),
	}
	require.NoError(t, st.UpsertRate(ctx, rate))

	rate.DayValue = roster.MoneyFromInt(320)
	require.NoError(t, st.UpsertRate(ctx, rate))

	rates, err := st.ListRates(ctx, "hosp-1", period)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "320.00", rates[0].DayValue.String())
}

func TestPasswordSet_RequiresCurrent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SeedPassword(ctx, "hosp-1", "old-pass", false))

	assert.ErrorIs(t, st.Set(ctx, "hosp-1", "wrong", "new-pass"), roster.ErrWrongPassword)
	require.NoError(t, st.Set(ctx, "hosp-1", "old-pass", "new-pass"))

	ok, err := st.Verify(ctx, "hosp-1", "new-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := st.GetStatus(ctx, "hosp-1")
	require.NoError(t, err)
	assert.True(t, status.HasPassword)
	assert.False(t, status.MustChange, "a successful change clears must-change")
}
