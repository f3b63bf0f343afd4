/*
timeofday.go - Clock times, dates, and shift interval arithmetic

PURPOSE:
  Shift windows are clock times without a timezone ("07:00", "19:00") attached
  to a calendar date. This file defines the TimeOfDay and Date value types and
  the interval math shared by value resolution (duration, day/night
  classification) and conflict detection (overlap checks).

KEY CONCEPTS:
  - TimeOfDay: minutes since midnight (0..1439)
  - Date: a calendar day, comparable, usable as a map key
  - Interval: [start, end) window that may wrap past midnight

OVERNIGHT WRAP:
  A shift ending at or before its start time crosses midnight. Normalization
  adds 24h to the end, so 19:00-07:00 becomes [1140, 1860). All duration and
  overlap logic operates on normalized intervals.

OVERLAP SEMANTICS:
  Strict inequality: [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
  Touching endpoints (07:00-19:00 vs 19:00-07:00) do NOT overlap.

SEE ALSO:
  - value.go: duration and day/night classification consumers
  - conflict.go: overlap consumer
*/
package roster

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// TIME OF DAY - Minutes since midnight
// =============================================================================

// TimeOfDay is a wall-clock time stored as minutes since midnight.
type TimeOfDay int

const (
	// MinutesPerDay is the wrap constant for overnight shifts.
	MinutesPerDay = 24 * 60

	// StandardShiftMinutes is the reference shift length for pro-rata scaling.
	StandardShiftMinutes = 12 * 60

	// NightStartHour and NightEndHour bound the night classification window:
	// a shift is a night shift iff its start hour is >= 19 or < 7.
	NightStartHour = 19
	NightEndHour   = 7
)

// Standard shift windows, used when a caller provides no explicit times.
var (
	DayShiftStart   = NewTimeOfDay(7, 0)
	DayShiftEnd     = NewTimeOfDay(19, 0)
	NightShiftStart = NewTimeOfDay(19, 0)
	NightShiftEnd   = NewTimeOfDay(7, 0)
)

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (also tolerates "HH:MM:SS", ignoring seconds).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("%w: time %q", ErrInvalidTime, s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", ErrInvalidTime, s)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) Hour() int    { return int(t) / 60 }
func (t TimeOfDay) Minute() int  { return int(t) % 60 }
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// IsNight reports whether a shift starting at t is a night shift.
func (t TimeOfDay) IsNight() bool {
	return t.Hour() >= NightStartHour || t.Hour() < NightEndHour
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// FormatTimeRange renders the denormalized time range written into audit
// rows, e.g. "07:00 - 19:00". History must stay readable after the referenced
// shift is renamed or deleted, so the formatted text is stored verbatim.
func FormatTimeRange(start, end TimeOfDay) string {
	return start.String() + " - " + end.String()
}

// =============================================================================
// INTERVAL - Shift window with overnight wrap
// =============================================================================

type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// normalized returns (start, end) in minutes with the end pushed past
// midnight when the raw window wraps (end <= start).
func (iv Interval) normalized() (int, int) {
	s, e := iv.Start.Minutes(), iv.End.Minutes()
	if e <= s {
		e += MinutesPerDay
	}
	return s, e
}

// DurationMinutes returns the shift length, wrapping overnight windows.
func (iv Interval) DurationMinutes() int {
	s, e := iv.normalized()
	return e - s
}

// Overlaps reports whether two same-date windows overlap. Strict comparison:
// back-to-back shifts sharing an endpoint are not an overlap.
func (iv Interval) Overlaps(other Interval) bool {
	s1, e1 := iv.normalized()
	s2, e2 := other.normalized()
	return s1 < e2 && s2 < e1
}

// =============================================================================
// DATE - Calendar day (comparable, map-key safe)
// =============================================================================

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q", ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string { return d.Time().Format("2006-01-02") }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// PERIOD - Roster month
// =============================================================================

// Period identifies the month a roster (and its rates, finalizations, and
// audit history) is scoped to.
type Period struct {
	Month time.Month
	Year  int
}

func NewPeriod(month time.Month, year int) Period {
	return Period{Month: month, Year: year}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Contains reports whether a date falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

func (p Period) IsZero() bool { return p == Period{} }
