/*
handlers.go - HTTP API handlers for the roster engine

PURPOSE:
  Exposes the roster engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Shifts:
    GET    /api/shifts                 Query by tenant+period(+sector)
    POST   /api/shifts                 Create shift
    PUT    /api/shifts/{id}            Update shift
    DELETE /api/shifts/{id}            Delete shift
    POST   /api/shifts/bulk            Bulk create (item-by-item)
    POST   /api/shifts/bulk-delete     Bulk delete (item-by-item)

  Assignments:
    POST   /api/assignments            Assign a person/slot to a shift
    DELETE /api/assignments/{id}       Remove an assignment
    POST   /api/assignments/{id}/substitute  Replace the assigned person

  Conflicts:
    GET    /api/conflicts              Derived view over live assignments
    POST   /api/conflicts/{id}/acknowledge
    POST   /api/conflicts/{id}/remove

  Finalization:
    GET    /api/finalizations
    POST   /api/finalizations          Lock a scope
    POST   /api/finalizations/reopen   Password-gated unlock
    POST   /api/finalizations/password Change password + complete reopen

  Audit (read-only for reporting consumers):
    GET    /api/movements
    GET    /api/resolutions

  Values:
    POST   /api/values/resolve         Resolver preview for the admin UI
    POST   /api/rates                  Upsert a sector/individual rate

FINALIZATION GATING:
  Every assignment mutation asks the state machine whether its scope is
  finalized, on every request. Only then does it record movements. No
  handler caches the lock state.

ERROR HANDLING:
  Errors map to JSON + HTTP status:
  - 400: validation, invalid input
  - 403: wrong reopen password
  - 404: missing row
  - 409: already finalized / deferred reopen / reopen in flight
  - 502: silent denial (write not confirmed)
  - 500: everything else

SEE ALSO:
  - dto.go: wire shapes
  - server.go: router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/medroster/shift-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       roster.Store
	Finalizer   *roster.Finalizer
	Movements   *roster.MovementRecorder
	Resolutions *roster.ResolutionLedger
	Log         *logrus.Logger

	// Reopen verification is a single blocking round trip; while one is in
	// flight for a scope, further submissions for that scope are rejected.
	reopenMu       sync.Mutex
	reopenInFlight map[string]bool
}

func NewHandler(store roster.Store, log *logrus.Logger) *Handler {
	return &Handler{
		Store:          store,
		Finalizer:      roster.NewFinalizer(store, store),
		Movements:      roster.NewMovementRecorder(store, store),
		Resolutions:    roster.NewResolutionLedger(store, store, store),
		Log:            log,
		reopenInFlight: make(map[string]bool),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := ""
	switch {
	case errors.Is(err, roster.ErrPasswordChangeRequired):
		status, code = http.StatusConflict, "password_change_required"
	case errors.Is(err, roster.ErrWrongPassword):
		status = http.StatusForbidden
	case errors.Is(err, roster.ErrAlreadyFinalized), errors.Is(err, roster.ErrNotFinalized):
		status = http.StatusConflict
	case errors.Is(err, roster.ErrValidation):
		status = http.StatusBadRequest
	case roster.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, roster.ErrSilentDenial):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		h.Log.WithFields(logrus.Fields{
			"path":   r.URL.Path,
			"method": r.Method,
		}).Error(err.Error())
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &roster.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

// parseScopeQuery reads tenant/month/year/sector from the query string.
func parseScopeQuery(r *http.Request) (ScopeParams, error) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return ScopeParams{}, &roster.ValidationError{Field: "month", Message: "must be 1-12"}
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 2000 {
		return ScopeParams{}, &roster.ValidationError{Field: "year", Message: "must be a 4-digit year"}
	}
	tenant := q.Get("tenant")
	if tenant == "" {
		return ScopeParams{}, &roster.ValidationError{Field: "tenant", Message: "required"}
	}
	return ScopeParams{Tenant: tenant, Month: month, Year: year, Sector: q.Get("sector")}, nil
}

func (p ScopeParams) validate() error {
	if p.Tenant == "" {
		return &roster.ValidationError{Field: "tenant", Message: "required"}
	}
	if p.Month < 1 || p.Month > 12 {
		return &roster.ValidationError{Field: "month", Message: "must be 1-12"}
	}
	if p.Year < 2000 {
		return &roster.ValidationError{Field: "year", Message: "must be a 4-digit year"}
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	params, err := parseScopeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	scope := params.Scope()

	shifts, err := h.Store.QueryShifts(r.Context(), scope.Tenant, scope.Period, scope.Sector)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, toShiftResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) shiftFromRequest(req ShiftRequest, id roster.ShiftID) (roster.Shift, error) {
	var s roster.Shift
	var err error
	if req.Tenant == "" {
		return s, &roster.ValidationError{Field: "tenant", Message: "required"}
	}
	if req.Sector == "" {
		return s, &roster.ValidationError{Field: "sector", Message: "required"}
	}
	s.ID = id
	s.Tenant = roster.TenantID(req.Tenant)
	s.Sector = roster.SectorID(req.Sector)
	if s.Date, err = roster.ParseDate(req.Date); err != nil {
		return s, err
	}
	if s.Start, err = roster.ParseTimeOfDay(req.Start); err != nil {
		return s, err
	}
	if s.End, err = roster.ParseTimeOfDay(req.End); err != nil {
		return s, err
	}
	if s.BaseValue, err = roster.ParseMoney(req.BaseValue); err != nil {
		return s, err
	}
	s.Notes = req.Notes
	return s, nil
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id := roster.ShiftID(fmt.Sprintf("shift-%d", time.Now().UnixNano()))
	shift, err := h.shiftFromRequest(req, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.CreateShift(r.Context(), shift); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftResponse(shift))
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id := roster.ShiftID(chi.URLParam(r, "id"))
	var req ShiftRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	shift, err := h.shiftFromRequest(req, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.UpdateShift(r.Context(), shift); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(shift))
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := roster.ShiftID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteShift(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkCreateShifts creates shifts one at a time: each store call completes
// before the next starts, a failure never aborts the batch, and nothing is
// rolled back.
func (h *Handler) BulkCreateShifts(w http.ResponseWriter, r *http.Request) {
	var req BulkShiftRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	base := time.Now().UnixNano()
	i := 0
	result := roster.RunBatch(r.Context(), req.Shifts, func(ctx context.Context, item ShiftRequest) error {
		id := roster.ShiftID(fmt.Sprintf("shift-%d-%d", base, i))
		i++
		shift, err := h.shiftFromRequest(item, id)
		if err != nil {
			return err
		}
		return h.Store.CreateShift(ctx, shift)
	})
	writeJSON(w, http.StatusOK, toBatchResponse(result))
}

func (h *Handler) BulkDeleteShifts(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result := roster.RunBatch(r.Context(), req.IDs, func(ctx context.Context, id string) error {
		return h.Store.DeleteShift(ctx, roster.ShiftID(id))
	})
	writeJSON(w, http.StatusOK, toBatchResponse(result))
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// shiftScope derives the finalization scope an assignment mutation must be
// checked against: the shift's tenant, its date's period, and its sector.
func shiftScope(s *roster.Shift) roster.Scope {
	return roster.Scope{
		Tenant: s.Tenant,
		Period: roster.NewPeriod(s.Date.Month, s.Date.Year),
		Sector: s.Sector,
	}
}

func slotRef(s *roster.Shift, assignmentID roster.AssignmentID) roster.SlotRef {
	return roster.SlotRef{
		Sector:       s.Sector,
		SectorName:   s.SectorName,
		Date:         s.Date,
		Start:        s.Start,
		End:          s.End,
		AssignmentID: assignmentID,
	}
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	shift, err := h.Store.GetShift(r.Context(), roster.ShiftID(req.ShiftID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slot := roster.Vacant()
	if req.PersonID != "" {
		slot = roster.AssignedTo(roster.PersonID(req.PersonID))
	} else if req.Available {
		slot = roster.Available()
	}

	value, err := roster.ParseMoney(req.RawValue)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	a := roster.Assignment{
		ID:      roster.AssignmentID(fmt.Sprintf("asg-%d", time.Now().UnixNano())),
		ShiftID: shift.ID,
		Slot:    slot,
		Value:   value,
		Status:  roster.AssignmentActive,
	}
	if err := h.Store.CreateAssignment(r.Context(), a); err != nil {
		h.writeError(w, r, err)
		return
	}

	resolved, err := h.resolveFor(r, shift, req.RawValue, req.PersonID, req.UseSectorDefault, req.ApplyProRata)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Audit only while the scope is finalized; checked live, every time.
	if person, assigned := slot.Person(); assigned {
		finalized, err := h.Finalizer.IsFinalized(r.Context(), shiftScope(shift))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if finalized {
			if _, err := h.Movements.RecordAdded(r.Context(), shiftScope(shift), person,
				slotRef(shift, a.ID), req.Reason, req.PerformedBy); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusCreated, AssignmentResponse{
		ID:            string(a.ID),
		ShiftID:       string(a.ShiftID),
		Slot:          a.Slot.String(),
		Value:         a.Value.String(),
		ResolvedValue: resolved.Value.String(),
		ValueSource:   string(resolved.Source),
		Status:        string(a.Status),
	})
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := roster.AssignmentID(chi.URLParam(r, "id"))

	var req DeleteAssignmentRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shift, err := h.Store.GetShift(r.Context(), a.ShiftID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Store.DeleteAssignment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	if person, assigned := a.Slot.Person(); assigned {
		finalized, err := h.Finalizer.IsFinalized(r.Context(), shiftScope(shift))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if finalized {
			if _, err := h.Movements.RecordRemoved(r.Context(), shiftScope(shift), person,
				slotRef(shift, id), req.Reason, req.PerformedBy); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Substitute replaces the assigned person in a shift slot. Under a finalized
// scope this produces exactly two movement rows (removed + added).
func (h *Handler) Substitute(w http.ResponseWriter, r *http.Request) {
	id := roster.AssignmentID(chi.URLParam(r, "id"))
	var req SubstituteRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.PersonID == "" {
		h.writeError(w, r, &roster.ValidationError{Field: "person_id", Message: "required"})
		return
	}

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	outgoing, assigned := a.Slot.Person()
	if !assigned {
		h.writeError(w, r, &roster.ValidationError{Field: "assignment", Message: "slot has no assigned person"})
		return
	}
	shift, err := h.Store.GetShift(r.Context(), a.ShiftID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	incoming := roster.PersonID(req.PersonID)
	a.Slot = roster.AssignedTo(incoming)
	if err := h.Store.UpdateAssignment(r.Context(), *a); err != nil {
		h.writeError(w, r, err)
		return
	}

	finalized, err := h.Finalizer.IsFinalized(r.Context(), shiftScope(shift))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if finalized {
		if _, err := h.Movements.RecordSubstitution(r.Context(), shiftScope(shift),
			outgoing, incoming, slotRef(shift, id), req.PerformedBy); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, AssignmentResponse{
		ID:      string(a.ID),
		ShiftID: string(a.ShiftID),
		Slot:    a.Slot.String(),
		Value:   a.Value.String(),
		Status:  string(a.Status),
	})
}

// =============================================================================
// VALUE RESOLUTION
// =============================================================================

func (h *Handler) resolveFor(r *http.Request, shift *roster.Shift, rawValue, personID string, useDefault, proRata bool) (roster.Resolved, error) {
	period := roster.NewPeriod(shift.Date.Month, shift.Date.Year)
	rates, err := h.Store.ListRates(r.Context(), shift.Tenant, period)
	if err != nil {
		return roster.Resolved{}, err
	}
	start, end := shift.Start, shift.End
	resolver := roster.NewResolver(roster.NewRateTable(rates))
	return resolver.Resolve(roster.ResolveInput{
		RawValue:         rawValue,
		Sector:           shift.Sector,
		Person:           roster.PersonID(personID),
		Start:            &start,
		End:              &end,
		ShiftValue:       shift.BaseValue,
		UseSectorDefault: useDefault,
		ApplyProRata:     proRata,
	})
}

func (h *Handler) ResolveValue(w http.ResponseWriter, r *http.Request) {
	var req ResolveValueRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	scope := ScopeParams{Tenant: req.Tenant, Month: req.Month, Year: req.Year, Sector: req.Sector}
	if err := scope.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	period := roster.NewPeriod(time.Month(req.Month), req.Year)
	rates, err := h.Store.ListRates(r.Context(), roster.TenantID(req.Tenant), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in := roster.ResolveInput{
		RawValue:         req.RawValue,
		Sector:           roster.SectorID(req.Sector),
		Person:           roster.PersonID(req.PersonID),
		UseSectorDefault: req.UseSectorDefault,
		ApplyProRata:     req.ApplyProRata,
	}
	if req.Start != "" {
		t, err := roster.ParseTimeOfDay(req.Start)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.Start = &t
	}
	if req.End != "" {
		t, err := roster.ParseTimeOfDay(req.End)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.End = &t
	}
	if in.ShiftValue, err = roster.ParseMoney(req.ShiftValue); err != nil {
		h.writeError(w, r, err)
		return
	}

	resolved, err := roster.NewResolver(roster.NewRateTable(rates)).Resolve(in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	hours := decimal.NewFromInt(int64(resolved.Duration)).Div(decimal.NewFromInt(60))
	writeJSON(w, http.StatusOK, ResolveValueResponse{
		Value:         resolved.Value.String(),
		Source:        string(resolved.Source),
		Night:         resolved.Night,
		DurationHours: hours.StringFixed(2),
	})
}

func (h *Handler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rate := roster.SectorRate{
		Tenant: roster.TenantID(req.Tenant),
		Sector: roster.SectorID(req.Sector),
		Person: roster.PersonID(req.PersonID),
		Period: roster.NewPeriod(time.Month(req.Month), req.Year),
	}
	var err error
	if rate.DayValue, err = roster.ParseMoney(req.DayValue); err != nil {
		h.writeError(w, r, err)
		return
	}
	if rate.NightValue, err = roster.ParseMoney(req.NightValue); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.UpsertRate(r.Context(), rate); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CONFLICTS
// =============================================================================

func (h *Handler) detectConflicts(r *http.Request, params ScopeParams) ([]roster.Conflict, error) {
	scope := params.Scope()
	views, err := h.Store.ListAssignmentViews(r.Context(), scope.Tenant, scope.Period, scope.Sector)
	if err != nil {
		return nil, err
	}
	return roster.DetectConflicts(views), nil
}

func (h *Handler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	params, err := parseScopeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conflicts, err := h.detectConflicts(r, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, toConflictResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// findConflict recomputes the current conflict set and picks one by id; the
// set is derived state, so the id is only as durable as the data behind it.
func (h *Handler) findConflict(r *http.Request, params ScopeParams, id string) (*roster.Conflict, error) {
	conflicts, err := h.detectConflicts(r, params)
	if err != nil {
		return nil, err
	}
	for i := range conflicts {
		if conflicts[i].ID == id {
			return &conflicts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: conflict %s", roster.ErrNotFound, id)
}

// conflictParam reads the {id} route param. Conflict ids contain "|" and
// arrive percent-encoded from most clients.
func conflictParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

func (h *Handler) AcknowledgeConflict(w http.ResponseWriter, r *http.Request) {
	id := conflictParam(r)
	var req AcknowledgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	conflict, err := h.findConflict(r, req.ScopeParams, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scope := req.Scope()
	res, err := h.Resolutions.Acknowledge(r.Context(), scope.Tenant, scope.Period,
		*conflict, req.Justification, req.ResolvedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResolutionResponse(*res))
}

func (h *Handler) RemoveConflictAssignment(w http.ResponseWriter, r *http.Request) {
	id := conflictParam(r)
	var req RemoveConflictRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	conflict, err := h.findConflict(r, req.ScopeParams, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The removed slot's shift, fetched before the assignment goes away so the
	// movement row can be denormalized from it.
	var removedShift *roster.Shift
	for _, cs := range conflict.Shifts {
		if cs.AssignmentID == roster.AssignmentID(req.AssignmentID) {
			if removedShift, err = h.Store.GetShift(r.Context(), cs.ShiftID); err != nil {
				h.writeError(w, r, err)
				return
			}
			break
		}
	}

	scope := req.Scope()
	res, err := h.Resolutions.Remove(r.Context(), scope.Tenant, scope.Period,
		*conflict, roster.AssignmentID(req.AssignmentID), req.ResolvedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Audit only while the scope is finalized; checked live, every time.
	if removedShift != nil {
		finalized, err := h.Finalizer.IsFinalized(r.Context(), shiftScope(removedShift))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if finalized {
			reason := fmt.Sprintf("removed resolving conflict on %s", conflict.Date)
			if _, err := h.Movements.RecordRemoved(r.Context(), shiftScope(removedShift), conflict.Person,
				slotRef(removedShift, roster.AssignmentID(req.AssignmentID)), reason, req.ResolvedBy); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusCreated, toResolutionResponse(*res))
}

func (h *Handler) ListResolutions(w http.ResponseWriter, r *http.Request) {
	params, err := parseScopeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	scope := params.Scope()

	resolutions, err := h.Resolutions.Resolutions(r.Context(), scope.Tenant, scope.Period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]ResolutionResponse, 0, len(resolutions))
	for _, res := range resolutions {
		out = append(out, toResolutionResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// FINALIZATION
// =============================================================================

func (h *Handler) ListFinalizations(w http.ResponseWriter, r *http.Request) {
	params, err := parseScopeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	scope := params.Scope()

	finalizations, err := h.Store.ListFinalizations(r.Context(), scope.Tenant, scope.Period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]FinalizationResponse, 0, len(finalizations))
	for _, f := range finalizations {
		out = append(out, toFinalizationResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	fin, err := h.Finalizer.Finalize(r.Context(), req.Scope(), req.FinalizedBy, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFinalizationResponse(*fin))
}

func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	var req ReopenRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	scope := req.Scope()
	if !h.beginReopen(scope) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "a reopen for this scope is already in progress",
			Code:  "reopen_in_flight",
		})
		return
	}
	defer h.endReopen(scope)

	if err := h.Finalizer.Reopen(r.Context(), scope, req.Password, req.ReopenedBy); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) beginReopen(scope roster.Scope) bool {
	h.reopenMu.Lock()
	defer h.reopenMu.Unlock()
	key := scope.String()
	if h.reopenInFlight[key] {
		return false
	}
	h.reopenInFlight[key] = true
	return true
}

func (h *Handler) endReopen(scope roster.Scope) {
	h.reopenMu.Lock()
	defer h.reopenMu.Unlock()
	delete(h.reopenInFlight, scope.String())
}

// ChangeReopenPassword completes a deferred reopen: the new password is saved
// first and the unlock follows automatically.
func (h *Handler) ChangeReopenPassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	err := h.Finalizer.ChangePasswordAndReopen(r.Context(), req.Scope(),
		req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MOVEMENTS (read-only reporting surface)
// =============================================================================

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	params, err := parseScopeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	scope := params.Scope()

	movements, err := h.Store.ListMovements(r.Context(), scope.Tenant, scope.Period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (h *Handler) SaveSector(w http.ResponseWriter, r *http.Request) {
	var req SectorRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ID == "" || req.Name == "" {
		h.writeError(w, r, &roster.ValidationError{Field: "sector", Message: "id and name required"})
		return
	}
	err := h.Store.SaveSector(r.Context(), roster.Sector{
		ID:     roster.SectorID(req.ID),
		Tenant: roster.TenantID(req.Tenant),
		Name:   req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SavePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ID == "" || req.Name == "" {
		h.writeError(w, r, &roster.ValidationError{Field: "person", Message: "id and name required"})
		return
	}
	err := h.Store.SavePerson(r.Context(), roster.Person{
		ID:   roster.PersonID(req.ID),
		Name: req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
