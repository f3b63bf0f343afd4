/*
slot.go - Assignment slot state as a tagged union

PURPOSE:
  A shift slot is in exactly one of three states: vacant, open-for-grabs
  ("available"), or assigned to a specific person. Historically this was a
  string column holding either a sentinel or a person id, with equality
  checks scattered across value resolution and UI state. Slot makes the
  tri-state explicit and keeps the person id out of reach unless the slot is
  actually assigned.

USAGE:
  slot := roster.AssignedTo("person-42")
  if id, ok := slot.Person(); ok { ... }

SEE ALSO:
  - types.go: Assignment embeds a Slot
*/
package roster

import (
	"encoding/json"
	"fmt"
)

type slotKind int

const (
	slotVacant slotKind = iota
	slotAvailable
	slotAssigned
)

// Slot is the occupancy state of an assignment. The zero value is Vacant.
type Slot struct {
	kind   slotKind
	person PersonID
}

func Vacant() Slot    { return Slot{kind: slotVacant} }
func Available() Slot { return Slot{kind: slotAvailable} }

func AssignedTo(person PersonID) Slot {
	if person == "" {
		return Vacant()
	}
	return Slot{kind: slotAssigned, person: person}
}

func (s Slot) IsVacant() bool    { return s.kind == slotVacant }
func (s Slot) IsAvailable() bool { return s.kind == slotAvailable }
func (s Slot) IsAssigned() bool  { return s.kind == slotAssigned }

// Person returns the assigned person id, ok=false unless assigned.
func (s Slot) Person() (PersonID, bool) {
	return s.person, s.kind == slotAssigned
}

func (s Slot) String() string {
	switch s.kind {
	case slotAvailable:
		return "available"
	case slotAssigned:
		return string(s.person)
	default:
		return "vacant"
	}
}

// =============================================================================
// ENCODING - Wire/storage form
// =============================================================================
// The stored form keeps the legacy column shape ("vacant"/"available"/person
// id) so existing rows decode without migration; the sentinel strings never
// escape this file.

func ParseSlot(s string) Slot {
	switch s {
	case "", "vacant":
		return Vacant()
	case "available":
		return Available()
	default:
		return AssignedTo(PersonID(s))
	}
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("slot: %w", err)
	}
	*s = ParseSlot(raw)
	return nil
}
