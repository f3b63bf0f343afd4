/*
conflict.go - Double-booking detection

PURPOSE:
  Finds people assigned to two or more overlapping shift windows on the same
  date. A pure derived view: recomputed fully from live assignments on every
  refresh, never persisted - only its resolutions are (resolution.go).

ALGORITHM:
  1. Group assignment views by (person, date)
  2. Normalize each window (+24h on the end when end <= start)
  3. Pairwise strict overlap: [s1,e1) x [s2,e2) overlap iff s1<e2 && s2<e1
  4. A shift joins the conflict only if it overlaps at least one OTHER shift
     in its group. No transitive closure: a third shift overlapping neither
     of the other two stays out even though it shares the person and date.

DETERMINISM:
  Output is fully ordered (date, person, then shift start/id), so detection
  over unchanged input yields an identical conflict set.

SEE ALSO:
  - timeofday.go: Interval.Overlaps
  - resolution.go: persisting what the admin did about a conflict
*/
package roster

import (
	"sort"
)

// =============================================================================
// CONFLICT - One (person, date) group of mutually overlapping shifts
// =============================================================================

// ConflictShift describes one involved shift. The same descriptor is embedded
// as the snapshot in ConflictResolution rows.
type ConflictShift struct {
	ShiftID      ShiftID      `json:"shift_id"`
	SectorName   string       `json:"sector_name"`
	Start        TimeOfDay    `json:"start"`
	End          TimeOfDay    `json:"end"`
	AssignmentID AssignmentID `json:"assignment_id"`
}

type Conflict struct {
	ID         string
	Person     PersonID
	PersonName string
	Date       Date
	Shifts     []ConflictShift
}

// ConflictID builds the stable grouping key.
func ConflictID(person PersonID, date Date) string {
	return string(person) + "|" + date.String()
}

// =============================================================================
// DETECTOR
// =============================================================================

type conflictKey struct {
	Person PersonID
	Date   Date
}

// DetectConflicts scans assignment views for the visible period and reports
// every (person, date) group holding two or more mutually overlapping shifts.
// Views without an assigned person are skipped.
func DetectConflicts(views []AssignmentView) []Conflict {
	groups := make(map[conflictKey][]AssignmentView)
	for _, v := range views {
		if v.Person == "" {
			continue
		}
		k := conflictKey{Person: v.Person, Date: v.Date}
		groups[k] = append(groups[k], v)
	}

	var conflicts []Conflict
	for k, group := range groups {
		if len(group) < 2 {
			continue
		}

		// Stable order inside the group before the pairwise pass, so both the
		// output and the "kept side" chosen by resolution-remove are
		// deterministic.
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].ShiftID < group[j].ShiftID
		})

		involved := overlappingMembers(group)
		if len(involved) < 2 {
			continue
		}

		c := Conflict{
			ID:         ConflictID(k.Person, k.Date),
			Person:     k.Person,
			PersonName: group[0].PersonName,
			Date:       k.Date,
		}
		for _, v := range involved {
			c.Shifts = append(c.Shifts, ConflictShift{
				ShiftID:      v.ShiftID,
				SectorName:   v.SectorName,
				Start:        v.Start,
				End:          v.End,
				AssignmentID: v.AssignmentID,
			})
		}
		conflicts = append(conflicts, c)
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Date != conflicts[j].Date {
			return conflicts[i].Date.Before(conflicts[j].Date)
		}
		return conflicts[i].Person < conflicts[j].Person
	})
	return conflicts
}

// overlappingMembers keeps only the shifts that pairwise-overlap at least one
// other shift in the group, preserving the group's order.
func overlappingMembers(group []AssignmentView) []AssignmentView {
	var out []AssignmentView
	for i, a := range group {
		for j, b := range group {
			if i == j {
				continue
			}
			if a.Interval().Overlaps(b.Interval()) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
