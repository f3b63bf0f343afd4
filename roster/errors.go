/*
errors.go - Centralized error types for the roster engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy the rest of the system is built around:

  1. Validation errors - rejected before any store call, no side effects
  2. Silent denial     - a write "succeeded" without confirming the row
                         (typical under row-level permission checks)
  3. Soft schema mismatch - a remote call failed because a function was
                         renamed or is missing; recognized by message
                         pattern and handled via fallback, not surfaced
  4. Hard remote failure - genuine store error, operation aborted
  5. Batch partial failure - accumulated per item, never aborts the batch
                         (see batch.go)

USAGE:
  if errors.Is(err, roster.ErrWrongPassword) { ... }
  if roster.IsSchemaMismatch(err) { // fall back, don't surface }

SEE ALSO:
  - finalize.go: password gate consuming the schema-mismatch fallback
  - batch.go: partial-failure accumulation
*/
package roster

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all pre-flight input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidMoney is returned for unparseable monetary text.
	ErrInvalidMoney = fmt.Errorf("%w: invalid monetary value", ErrValidation)

	// ErrInvalidTime is returned for unparseable clock times.
	ErrInvalidTime = fmt.Errorf("%w: invalid time", ErrValidation)

	// ErrInvalidDate is returned for unparseable dates.
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)

	// ErrEmptyJustification is returned when acknowledging a conflict
	// without a justification. Rejected before any store call.
	ErrEmptyJustification = fmt.Errorf("%w: justification must not be empty", ErrValidation)

	// ErrPasswordTooShort is returned by the password-change flow.
	ErrPasswordTooShort = fmt.Errorf("%w: password too short", ErrValidation)

	// ErrPasswordMismatch is returned when new password and confirmation differ.
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)

	// ErrWrongPassword is a definitive verification failure. The finalization
	// row is untouched and no state changes.
	ErrWrongPassword = errors.New("incorrect reopen password")

	// ErrPasswordChangeRequired defers a reopen: the default password was
	// accepted but the tenant must set a real one first. The reopen completes
	// only after ChangePasswordAndReopen succeeds.
	ErrPasswordChangeRequired = errors.New("password change required before reopening")

	// ErrAlreadyFinalized guards the OPEN -> FINALIZED transition. A scope
	// must not be finalized twice.
	ErrAlreadyFinalized = errors.New("schedule already finalized for this scope")

	// ErrNotFinalized is returned when reopening a scope that is not locked.
	ErrNotFinalized = errors.New("schedule is not finalized")

	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrSilentDenial is returned when a write reported success but the row
	// cannot be confirmed. Must be surfaced, never assumed to be success.
	ErrSilentDenial = errors.New("write was not confirmed by the store")

	// ErrSchemaMismatch marks a remote call that failed because the function
	// signature is missing or renamed. A soft fallback trigger, not a
	// user-facing failure.
	ErrSchemaMismatch = errors.New("remote function signature mismatch")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError carries the offending field for API-level reporting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// schemaMismatchPatterns are the message fragments remote stores emit when a
// function signature has been renamed or dropped. Matching any of them makes
// the failure a fallback trigger instead of a hard error.
var schemaMismatchPatterns = []string{
	"could not find the function",
	"no function matches",
	"schema cache",
	"does not exist",
}

// IsSchemaMismatch reports whether err is a soft schema-mismatch, either a
// tagged ErrSchemaMismatch or a raw remote error matching a known pattern.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSchemaMismatch) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range schemaMismatchPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsClientError reports whether the error is due to invalid client input or
// a rejected business action, as opposed to a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrNotFinalized) ||
		errors.Is(err, ErrPasswordChangeRequired)
}

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
