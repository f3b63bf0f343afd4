package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medroster/shift-engine/roster"
	"github.com/medroster/shift-engine/roster/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestFinalizer(t *testing.T) (*roster.Finalizer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return roster.NewFinalizer(mem, mem), mem
}

func icuScope() roster.Scope {
	return roster.Scope{
		Tenant: "hosp-1",
		Period: roster.NewPeriod(3, 2026),
		Sector: "icu",
	}
}

// =============================================================================
// FINALIZE / IS-FINALIZED
// =============================================================================

func TestFinalize_LocksScope(t *testing.T) {
	f, _ := newTestFinalizer(t)
	ctx := context.Background()

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.False(t, locked)

	fin, err := f.Finalize(ctx, icuScope(), "chief", "march roster done")
	require.NoError(t, err)
	assert.Equal(t, "chief", fin.FinalizedBy)

	locked, err = f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestFinalize_TwiceIsRejected(t *testing.T) {
	// GIVEN: An already-finalized scope
	// WHEN: Finalizing again
	// THEN: ErrAlreadyFinalized, no second row

	f, _ := newTestFinalizer(t)
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	_, err = f.Finalize(ctx, icuScope(), "chief", "")
	assert.ErrorIs(t, err, roster.ErrAlreadyFinalized)
}

func TestIsFinalized_WholePeriodLockCoversSectors(t *testing.T) {
	// GIVEN: A finalization covering the whole period (no sector)
	// WHEN: Probing a sector-level scope
	// THEN: The sector counts as locked

	f, _ := newTestFinalizer(t)
	ctx := context.Background()

	whole := roster.Scope{Tenant: "hosp-1", Period: roster.NewPeriod(3, 2026)}
	_, err := f.Finalize(ctx, whole, "chief", "")
	require.NoError(t, err)

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.True(t, locked)
}

// =============================================================================
// REOPEN - Password gate
// =============================================================================

func TestReopen_CorrectPasswordUnlocks(t *testing.T) {
	f, mem := newTestFinalizer(t)
	ctx := context.Background()

	mem.SeedPassword("hosp-1", "s3cret", false)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	require.NoError(t, f.Reopen(ctx, icuScope(), "s3cret", "chief"))

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestReopen_WrongPasswordLeavesLockIntact(t *testing.T) {
	f, mem := newTestFinalizer(t)
	ctx := context.Background()

	mem.SeedPassword("hosp-1", "s3cret", false)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), "wrong", "chief")
	assert.ErrorIs(t, err, roster.ErrWrongPassword)

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.True(t, locked, "failed reopen must not unlock")
}

func TestReopen_EmptyPasswordRejectedBeforeAnyLookup(t *testing.T) {
	f, _ := newTestFinalizer(t)
	err := f.Reopen(context.Background(), icuScope(), "   ", "chief")
	assert.ErrorIs(t, err, roster.ErrValidation)
}

func TestReopen_NotFinalizedScope(t *testing.T) {
	f, _ := newTestFinalizer(t)
	err := f.Reopen(context.Background(), icuScope(), "s3cret", "chief")
	assert.ErrorIs(t, err, roster.ErrNotFinalized)
}

func TestReopen_DefaultPasswordForFirstAccessTenant(t *testing.T) {
	// GIVEN: A tenant that never stored a reopen password
	// WHEN: Reopening with the default password
	// THEN: The reopen lands

	f, _ := newTestFinalizer(t)
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	require.NoError(t, f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief"))
}

func TestReopen_DefaultPasswordWithMustChangeIsDeferred(t *testing.T) {
	// GIVEN: A tenant flagged must-change, passing the gate with the default
	// WHEN: Reopening
	// THEN: ErrPasswordChangeRequired and the scope STAYS locked until the
	//       password-change flow completes the reopen

	f, mem := newTestFinalizer(t)
	ctx := context.Background()

	mem.SeedPassword("hosp-1", roster.DefaultReopenPassword, true)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief")
	assert.ErrorIs(t, err, roster.ErrPasswordChangeRequired)

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.True(t, locked)
}

// =============================================================================
// SCHEMA-MISMATCH FALLBACK
// =============================================================================

// mismatchPasswords simulates a remote password store whose verification
// function is missing.
type mismatchPasswords struct{}

func (mismatchPasswords) GetStatus(context.Context, roster.TenantID) (roster.PasswordStatus, error) {
	return roster.PasswordStatus{}, nil
}

func (mismatchPasswords) Verify(context.Context, roster.TenantID, string) (bool, error) {
	return false, errors.New("could not find the function verify_reopen_password")
}

func (mismatchPasswords) Set(context.Context, roster.TenantID, string, string) error {
	return nil
}

// brokenPasswords simulates a hard remote failure.
type brokenPasswords struct{ mismatchPasswords }

func (brokenPasswords) Verify(context.Context, roster.TenantID, string) (bool, error) {
	return false, errors.New("connection reset by peer")
}

func TestReopen_SchemaMismatchFallsBackToDefault(t *testing.T) {
	// GIVEN: A password store missing its verification function
	// WHEN: Reopening with the default password
	// THEN: The soft mismatch triggers the fallback and the reopen lands

	mem := store.NewMemory()
	f := roster.NewFinalizer(mem, mismatchPasswords{})
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	require.NoError(t, f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief"))
}

func TestReopen_SchemaMismatchStillRejectsNonDefault(t *testing.T) {
	mem := store.NewMemory()
	f := roster.NewFinalizer(mem, mismatchPasswords{})
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), "anything-else", "chief")
	assert.Error(t, err)

	locked, lerr := f.IsFinalized(ctx, icuScope())
	require.NoError(t, lerr)
	assert.True(t, locked)
}

func TestReopen_HardVerificationFailureAborts(t *testing.T) {
	// GIVEN: A password store failing hard (not a schema mismatch)
	// WHEN: Reopening, even with the default password
	// THEN: The operation aborts with the remote error and nothing changes

	mem := store.NewMemory()
	f := roster.NewFinalizer(mem, brokenPasswords{})
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief")
	require.Error(t, err)
	assert.NotErrorIs(t, err, roster.ErrWrongPassword)

	locked, lerr := f.IsFinalized(ctx, icuScope())
	require.NoError(t, lerr)
	assert.True(t, locked)
}

// statusDownPasswords verifies fine but fails hard on status reads.
type statusDownPasswords struct{ accept bool }

func (s statusDownPasswords) Verify(context.Context, roster.TenantID, string) (bool, error) {
	return s.accept, nil
}

func (statusDownPasswords) GetStatus(context.Context, roster.TenantID) (roster.PasswordStatus, error) {
	return roster.PasswordStatus{}, errors.New("connection reset by peer")
}

func (statusDownPasswords) Set(context.Context, roster.TenantID, string, string) error {
	return nil
}

func TestReopen_StatusFailureAfterDefaultAcceptAborts(t *testing.T) {
	// GIVEN: The default password verifies, but the must-change status read
	//        fails hard
	// WHEN: Reopening
	// THEN: The operation aborts with the remote error and the scope stays
	//       locked - the mandatory password-change rule cannot be skipped
	//       just because the status read went down

	mem := store.NewMemory()
	f := roster.NewFinalizer(mem, statusDownPasswords{accept: true})
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief")
	require.Error(t, err)
	assert.NotErrorIs(t, err, roster.ErrPasswordChangeRequired)

	locked, lerr := f.IsFinalized(ctx, icuScope())
	require.NoError(t, lerr)
	assert.True(t, locked)
}

func TestReopen_StatusFailureDuringFirstAccessCheckAborts(t *testing.T) {
	// GIVEN: The default password mismatches the stored one and the
	//        first-access status read fails hard
	// WHEN: Reopening with the default password
	// THEN: The remote error surfaces as-is, not as a wrong password

	mem := store.NewMemory()
	f := roster.NewFinalizer(mem, statusDownPasswords{accept: false})
	ctx := context.Background()

	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief")
	require.Error(t, err)
	assert.NotErrorIs(t, err, roster.ErrWrongPassword)

	locked, lerr := f.IsFinalized(ctx, icuScope())
	require.NoError(t, lerr)
	assert.True(t, locked)
}

// =============================================================================
// PASSWORD-CHANGE FLOW
// =============================================================================

func TestChangePasswordAndReopen_CompletesDeferredReopen(t *testing.T) {
	f, mem := newTestFinalizer(t)
	ctx := context.Background()

	mem.SeedPassword("hosp-1", roster.DefaultReopenPassword, true)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief")
	require.ErrorIs(t, err, roster.ErrPasswordChangeRequired)

	err = f.ChangePasswordAndReopen(ctx, icuScope(), roster.DefaultReopenPassword, "n3w-pass", "n3w-pass")
	require.NoError(t, err)

	locked, err := f.IsFinalized(ctx, icuScope())
	require.NoError(t, err)
	assert.False(t, locked, "the reopen lands once the new password is saved")

	// The new password now gates future reopens.
	_, err = f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)
	assert.ErrorIs(t, f.Reopen(ctx, icuScope(), roster.DefaultReopenPassword, "chief"), roster.ErrWrongPassword)
	assert.NoError(t, f.Reopen(ctx, icuScope(), "n3w-pass", "chief"))
}

func TestChangePasswordAndReopen_Validation(t *testing.T) {
	f, mem := newTestFinalizer(t)
	ctx := context.Background()

	mem.SeedPassword("hosp-1", roster.DefaultReopenPassword, true)
	_, err := f.Finalize(ctx, icuScope(), "chief", "")
	require.NoError(t, err)

	err = f.ChangePasswordAndReopen(ctx, icuScope(), roster.DefaultReopenPassword, "abc", "abc")
	assert.ErrorIs(t, err, roster.ErrPasswordTooShort)

	err = f.ChangePasswordAndReopen(ctx, icuScope(), roster.DefaultReopenPassword, "n3w-pass", "different")
	assert.ErrorIs(t, err, roster.ErrPasswordMismatch)

	locked, lerr := f.IsFinalized(ctx, icuScope())
	require.NoError(t, lerr)
	assert.True(t, locked, "validation failures change nothing")
}
