/*
finalize.go - Schedule finalization state machine

PURPOSE:
  A (tenant, period, sector) scope is either OPEN (freely editable, nothing
  audited) or FINALIZED (locked; every assignment change must go through the
  movement recorder). The state IS the existence of a Finalization row.

TRANSITIONS:
  OPEN -> FINALIZED   Finalize(): creates the row. A scope already finalized
                      must not be finalized twice (ErrAlreadyFinalized).
  FINALIZED -> OPEN   Reopen(): password-gated; deletes the row on success.
                      Prior Movements/ConflictResolutions are PERMANENT -
                      reopening never deletes history.

PASSWORD GATE:
  One typed Verify(tenant, password) call against the reopen-password store.
  A soft schema mismatch from the store (missing/renamed remote function) is
  a fallback trigger, not a failure: the known default password is then
  accepted for legacy/first-access tenants. When the DEFAULT password is what
  got the admin in and the tenant is flagged must-change, the reopen is
  deferred (ErrPasswordChangeRequired) and completes automatically inside
  ChangePasswordAndReopen once the new password is saved.

FAILURE SEMANTICS:
  Wrong password -> ErrWrongPassword, row untouched. Hard remote failure
  during verification -> abort, no state change.

CALLER CONTRACT:
  Every mutation path consults IsFinalized() explicitly before deciding
  whether to record movements. No call site may cache or "remember" the
  lock state across requests.

SEE ALSO:
  - movement.go: what happens to changes while FINALIZED
  - errors.go: IsSchemaMismatch, sentinel errors
*/
package roster

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultReopenPassword is the legacy first-access password. It is only
// accepted when the tenant has never stored a real password or the password
// store itself is schema-mismatched, and its use with a must-change flag
// forces the password-change flow before the reopen lands.
const DefaultReopenPassword = "1234"

// MinReopenPasswordLen bounds the password-change flow.
const MinReopenPasswordLen = 4

// =============================================================================
// FINALIZER
// =============================================================================

type Finalizer struct {
	Store     FinalizationStore
	Passwords PasswordStore

	now func() time.Time
}

func NewFinalizer(store FinalizationStore, passwords PasswordStore) *Finalizer {
	return &Finalizer{Store: store, Passwords: passwords, now: time.Now}
}

// IsFinalized is the one lock query every mutation path goes through.
// A sector-scoped probe is also locked by a whole-period finalization.
func (f *Finalizer) IsFinalized(ctx context.Context, scope Scope) (bool, error) {
	fin, err := f.Store.GetFinalization(ctx, scope)
	if err != nil {
		return false, err
	}
	if fin != nil {
		return true, nil
	}
	if scope.Sector != "" {
		whole := Scope{Tenant: scope.Tenant, Period: scope.Period}
		fin, err = f.Store.GetFinalization(ctx, whole)
		if err != nil {
			return false, err
		}
		return fin != nil, nil
	}
	return false, nil
}

// Finalize locks a scope. Idempotent guard: finalizing an already-finalized
// scope fails with ErrAlreadyFinalized and changes nothing.
func (f *Finalizer) Finalize(ctx context.Context, scope Scope, by, notes string) (*Finalization, error) {
	existing, err := f.Store.GetFinalization(ctx, scope)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, scope)
	}

	fin := Finalization{
		Scope:       scope,
		FinalizedAt: f.now().UTC(),
		FinalizedBy: by,
		Notes:       notes,
	}
	if err := f.Store.CreateFinalization(ctx, fin); err != nil {
		return nil, err
	}
	return &fin, nil
}

// Reopen unlocks a scope after password verification. On any failure the
// Finalization row is untouched.
func (f *Finalizer) Reopen(ctx context.Context, scope Scope, password, by string) error {
	if strings.TrimSpace(password) == "" {
		return &ValidationError{Field: "password", Message: "must not be empty"}
	}

	fin, err := f.Store.GetFinalization(ctx, scope)
	if err != nil {
		return err
	}
	if fin == nil {
		return fmt.Errorf("%w: %s", ErrNotFinalized, scope)
	}

	usedDefault, err := f.verify(ctx, scope.Tenant, password)
	if err != nil {
		return err
	}

	if usedDefault {
		status, serr := f.Passwords.GetStatus(ctx, scope.Tenant)
		if serr != nil {
			if !IsSchemaMismatch(serr) {
				// Hard remote failure: without the must-change flag we cannot
				// tell whether the reopen may land. Abort, row untouched.
				return serr
			}
			// Soft mismatch: a legacy store without the status function has
			// no must-change flag to enforce.
		} else if status.MustChange {
			// Deferred: the admin goes through the password-change flow and
			// ChangePasswordAndReopen finishes the job.
			return ErrPasswordChangeRequired
		}
	}

	return f.Store.DeleteFinalization(ctx, scope)
}

// verify runs the typed verification call plus the legacy fallbacks. It
// reports whether the DEFAULT password is what was accepted.
func (f *Finalizer) verify(ctx context.Context, tenant TenantID, password string) (usedDefault bool, err error) {
	ok, verr := f.Passwords.Verify(ctx, tenant, password)
	if verr != nil {
		if !IsSchemaMismatch(verr) {
			// Genuine remote failure: abort, no state change.
			return false, verr
		}
		// Soft mismatch: the verification function isn't there. Fall back to
		// the legacy default before giving up.
		if password == DefaultReopenPassword {
			return true, nil
		}
		return false, fmt.Errorf("reopen verification unavailable: %w", verr)
	}
	if ok {
		return password == DefaultReopenPassword, nil
	}

	// Definitive mismatch against the stored password. First-access tenants
	// without a stored password still get the default.
	if password == DefaultReopenPassword {
		status, serr := f.Passwords.GetStatus(ctx, tenant)
		if serr != nil {
			if !IsSchemaMismatch(serr) {
				// Hard remote failure: not a wrong password, abort.
				return false, serr
			}
		} else if !status.HasPassword {
			return true, nil
		}
	}
	return false, ErrWrongPassword
}

// ChangePasswordAndReopen completes a deferred reopen: it validates and saves
// the new password, then deletes the Finalization row. The reopen only lands
// after the password save succeeded.
func (f *Finalizer) ChangePasswordAndReopen(ctx context.Context, scope Scope, current, next, confirm string) error {
	if len(next) < MinReopenPasswordLen {
		return ErrPasswordTooShort
	}
	if next != confirm {
		return ErrPasswordMismatch
	}

	fin, err := f.Store.GetFinalization(ctx, scope)
	if err != nil {
		return err
	}
	if fin == nil {
		return fmt.Errorf("%w: %s", ErrNotFinalized, scope)
	}

	if err := f.Passwords.Set(ctx, scope.Tenant, current, next); err != nil {
		return err
	}
	return f.Store.DeleteFinalization(ctx, scope)
}
