/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Wire-level shapes, separate from domain types. Handlers parse these,
  validate, and translate into roster calls; domain types never leak raw
  form input (monetary values stay strings until ParseMoney).

SEE ALSO:
  - handlers.go: the consumers
*/
package api

import (
	"time"

	"github.com/medroster/shift-engine/roster"
)

// =============================================================================
// SCOPE / COMMON
// =============================================================================

// ScopeParams is the (tenant, month, year, optional sector) tuple most
// endpoints are keyed by, from query string or request body.
type ScopeParams struct {
	Tenant string `json:"tenant"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	Sector string `json:"sector,omitempty"`
}

func (p ScopeParams) Scope() roster.Scope {
	return roster.Scope{
		Tenant: roster.TenantID(p.Tenant),
		Period: roster.NewPeriod(time.Month(p.Month), p.Year),
		Sector: roster.SectorID(p.Sector),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// SHIFTS
// =============================================================================

type ShiftRequest struct {
	Tenant    string `json:"tenant"`
	Sector    string `json:"sector"`
	Date      string `json:"date"`       // "2006-01-02"
	Start     string `json:"start_time"` // "HH:MM"
	End       string `json:"end_time"`
	BaseValue string `json:"base_value"` // raw text; "" = unset, "0" = zero
	Notes     string `json:"notes"`
}

type ShiftResponse struct {
	ID         string `json:"id"`
	Tenant     string `json:"tenant"`
	Sector     string `json:"sector"`
	SectorName string `json:"sector_name"`
	Date       string `json:"date"`
	Start      string `json:"start_time"`
	End        string `json:"end_time"`
	BaseValue  string `json:"base_value,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func toShiftResponse(s roster.Shift) ShiftResponse {
	return ShiftResponse{
		ID:         string(s.ID),
		Tenant:     string(s.Tenant),
		Sector:     string(s.Sector),
		SectorName: s.SectorName,
		Date:       s.Date.String(),
		Start:      s.Start.String(),
		End:        s.End.String(),
		BaseValue:  s.BaseValue.String(),
		Notes:      s.Notes,
	}
}

type BulkShiftRequest struct {
	Shifts []ShiftRequest `json:"shifts"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchResponse always reports both counts, never one blended status.
type BatchResponse struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func toBatchResponse(r roster.BatchResult) BatchResponse {
	resp := BatchResponse{Succeeded: r.Succeeded, Failed: r.Failed}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return resp
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

type AssignmentRequest struct {
	ShiftID          string `json:"shift_id"`
	PersonID         string `json:"person_id"` // "" with Available=true marks the slot open
	Available        bool   `json:"available,omitempty"`
	RawValue         string `json:"value"` // raw text, parsed server-side
	UseSectorDefault bool   `json:"use_sector_default"`
	ApplyProRata     bool   `json:"apply_pro_rata"`
	Reason           string `json:"reason,omitempty"`
	PerformedBy      string `json:"performed_by"`
}

type SubstituteRequest struct {
	PersonID    string `json:"person_id"` // incoming person
	PerformedBy string `json:"performed_by"`
}

type DeleteAssignmentRequest struct {
	Reason      string `json:"reason,omitempty"`
	PerformedBy string `json:"performed_by"`
}

type AssignmentResponse struct {
	ID            string `json:"id"`
	ShiftID       string `json:"shift_id"`
	Slot          string `json:"slot"`
	Value         string `json:"value,omitempty"`
	ResolvedValue string `json:"resolved_value,omitempty"`
	ValueSource   string `json:"value_source,omitempty"`
	Status        string `json:"status"`
}

// =============================================================================
// VALUE RESOLUTION
// =============================================================================

type ResolveValueRequest struct {
	Tenant           string `json:"tenant"`
	Month            int    `json:"month"`
	Year             int    `json:"year"`
	Sector           string `json:"sector"`
	PersonID         string `json:"person_id,omitempty"`
	RawValue         string `json:"value,omitempty"`
	ShiftValue       string `json:"shift_value,omitempty"`
	Start            string `json:"start_time,omitempty"`
	End              string `json:"end_time,omitempty"`
	UseSectorDefault bool   `json:"use_sector_default"`
	ApplyProRata     bool   `json:"apply_pro_rata"`
}

type ResolveValueResponse struct {
	Value         string `json:"value"` // "" = no value resolved
	Source        string `json:"source"`
	Night         bool   `json:"night"`
	DurationHours string `json:"duration_hours"`
}

// =============================================================================
// RATES
// =============================================================================

type RateRequest struct {
	Tenant     string `json:"tenant"`
	Sector     string `json:"sector"`
	PersonID   string `json:"person_id,omitempty"` // set = individual override
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	DayValue   string `json:"day_value"`
	NightValue string `json:"night_value"`
}

// =============================================================================
// CONFLICTS
// =============================================================================

type ConflictShiftResponse struct {
	ShiftID      string `json:"shift_id"`
	SectorName   string `json:"sector_name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	AssignmentID string `json:"assignment_id"`
}

type ConflictResponse struct {
	ID         string                  `json:"id"`
	PersonID   string                  `json:"person_id"`
	PersonName string                  `json:"person_name"`
	Date       string                  `json:"date"`
	Shifts     []ConflictShiftResponse `json:"shifts"`
}

func toConflictResponse(c roster.Conflict) ConflictResponse {
	resp := ConflictResponse{
		ID:         c.ID,
		PersonID:   string(c.Person),
		PersonName: c.PersonName,
		Date:       c.Date.String(),
	}
	for _, s := range c.Shifts {
		resp.Shifts = append(resp.Shifts, ConflictShiftResponse{
			ShiftID:      string(s.ShiftID),
			SectorName:   s.SectorName,
			Start:        s.Start.String(),
			End:          s.End.String(),
			AssignmentID: string(s.AssignmentID),
		})
	}
	return resp
}

type AcknowledgeRequest struct {
	ScopeParams
	Justification string `json:"justification"`
	ResolvedBy    string `json:"resolved_by"`
}

type RemoveConflictRequest struct {
	ScopeParams
	AssignmentID string `json:"assignment_id"`
	ResolvedBy   string `json:"resolved_by"`
}

type ResolutionResponse struct {
	ID            string                  `json:"id"`
	ConflictDate  string                  `json:"conflict_date"`
	PersonID      string                  `json:"person_id"`
	PersonName    string                  `json:"person_name"`
	Type          string                  `json:"type"`
	Justification string                  `json:"justification,omitempty"`
	RemovedSector string                  `json:"removed_sector,omitempty"`
	RemovedTime   string                  `json:"removed_time,omitempty"`
	RemovedID     string                  `json:"removed_assignment_id,omitempty"`
	KeptSector    string                  `json:"kept_sector,omitempty"`
	KeptTime      string                  `json:"kept_time,omitempty"`
	KeptID        string                  `json:"kept_assignment_id,omitempty"`
	Snapshot      []ConflictShiftResponse `json:"snapshot,omitempty"`
	ResolvedBy    string                  `json:"resolved_by"`
	ResolvedAt    time.Time               `json:"resolved_at"`
}

func toResolutionResponse(r roster.ConflictResolution) ResolutionResponse {
	resp := ResolutionResponse{
		ID:            r.ID,
		ConflictDate:  r.ConflictDate.String(),
		PersonID:      string(r.Person),
		PersonName:    r.PersonName,
		Type:          string(r.Type),
		Justification: r.Justification,
		RemovedSector: r.RemovedSector,
		RemovedTime:   r.RemovedTime,
		RemovedID:     string(r.RemovedAssignment),
		KeptSector:    r.KeptSector,
		KeptTime:      r.KeptTime,
		KeptID:        string(r.KeptAssignment),
		ResolvedBy:    r.ResolvedBy,
		ResolvedAt:    r.ResolvedAt,
	}
	for _, s := range r.Snapshot {
		resp.Snapshot = append(resp.Snapshot, ConflictShiftResponse{
			ShiftID:      string(s.ShiftID),
			SectorName:   s.SectorName,
			Start:        s.Start.String(),
			End:          s.End.String(),
			AssignmentID: string(s.AssignmentID),
		})
	}
	return resp
}

// =============================================================================
// FINALIZATION
// =============================================================================

type FinalizeRequest struct {
	ScopeParams
	Notes       string `json:"notes,omitempty"`
	FinalizedBy string `json:"finalized_by"`
}

type ReopenRequest struct {
	ScopeParams
	Password   string `json:"password"`
	ReopenedBy string `json:"reopened_by"`
}

type ChangePasswordRequest struct {
	ScopeParams
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type FinalizationResponse struct {
	Tenant      string    `json:"tenant"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Sector      string    `json:"sector,omitempty"`
	FinalizedAt time.Time `json:"finalized_at"`
	FinalizedBy string    `json:"finalized_by"`
	Notes       string    `json:"notes,omitempty"`
}

func toFinalizationResponse(f roster.Finalization) FinalizationResponse {
	return FinalizationResponse{
		Tenant:      string(f.Scope.Tenant),
		Month:       int(f.Scope.Period.Month),
		Year:        f.Scope.Period.Year,
		Sector:      string(f.Scope.Sector),
		FinalizedAt: f.FinalizedAt,
		FinalizedBy: f.FinalizedBy,
		Notes:       f.Notes,
	}
}

// =============================================================================
// MOVEMENTS
// =============================================================================

type MovementSideResponse struct {
	Sector       string `json:"sector"`
	SectorName   string `json:"sector_name"`
	Date         string `json:"date"`
	TimeRange    string `json:"time_range"`
	AssignmentID string `json:"assignment_id"`
}

type MovementResponse struct {
	ID          string                `json:"id"`
	Type        string                `json:"type"`
	PersonID    string                `json:"person_id"`
	PersonName  string                `json:"person_name"`
	Source      *MovementSideResponse `json:"source,omitempty"`
	Destination *MovementSideResponse `json:"destination,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	PerformedBy string                `json:"performed_by"`
	PerformedAt time.Time             `json:"performed_at"`
}

func toMovementResponse(m roster.Movement) MovementResponse {
	resp := MovementResponse{
		ID:          m.ID,
		Type:        string(m.Type),
		PersonID:    string(m.Person),
		PersonName:  m.PersonName,
		Reason:      m.Reason,
		PerformedBy: m.PerformedBy,
		PerformedAt: m.PerformedAt,
	}
	resp.Source = toSideResponse(m.Source)
	resp.Destination = toSideResponse(m.Destination)
	return resp
}

func toSideResponse(side *roster.MovementSide) *MovementSideResponse {
	if side == nil {
		return nil
	}
	return &MovementSideResponse{
		Sector:       string(side.Sector),
		SectorName:   side.SectorName,
		Date:         side.Date.String(),
		TimeRange:    side.TimeRange,
		AssignmentID: string(side.AssignmentID),
	}
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

type SectorRequest struct {
	ID     string `json:"id"`
	Tenant string `json:"tenant"`
	Name   string `json:"name"`
}

type PersonRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
