/*
value.go - Monetary value resolution for shifts and assignments

PURPOSE:
  Computes what a shift/assignment is worth from override, sector, and
  duration rules. Pure: rates for the period are loaded into a RateTable
  first, then Resolve runs with no store access.

PRECEDENCE (strictly highest to lowest):
  1. Individual override  (SectorRate with a person reference)
  2. Explicit assignment value (raw text typed by the admin)
  3. Shift base_value
  4. Sector default        (day or night, by start-hour classification)
  5. null

  Zero is first-class at EVERY level. An individual override of 0 resolves
  to 0 even when every lower level carries a non-zero value. A level only
  falls through when it is absent, never when it is zero.

DAY/NIGHT:
  Night iff start_hour >= 19 or start_hour < 7. Missing times default to the
  standard 12h day window (07:00-19:00); night callers pass the night window
  explicitly.

PRO-RATA:
  Applied after resolution when requested: round(v / 12 * hours, 2) for any
  duration other than 12h; 12h passes through exactly.

SEE ALSO:
  - money.go: ParseMoney, ProRata
  - types.go: SectorRate
*/
package roster

// =============================================================================
// RATE TABLE - Period-scoped rate lookup
// =============================================================================

// DayNight pairs a sector's (or person's) day and night values. Either side
// may be null independently.
type DayNight struct {
	Day   Money
	Night Money
}

// pick returns the value for the classified shift kind.
func (dn DayNight) pick(night bool) Money {
	if night {
		return dn.Night
	}
	return dn.Day
}

type rateKey struct {
	Sector SectorID
	Person PersonID
}

// RateTable indexes one period's SectorRate rows for the resolver.
type RateTable struct {
	individual map[rateKey]DayNight
	sector     map[SectorID]DayNight
}

func NewRateTable(rates []SectorRate) *RateTable {
	t := &RateTable{
		individual: make(map[rateKey]DayNight),
		sector:     make(map[SectorID]DayNight),
	}
	for _, r := range rates {
		dn := DayNight{Day: r.DayValue, Night: r.NightValue}
		if r.Person != "" {
			t.individual[rateKey{Sector: r.Sector, Person: r.Person}] = dn
		} else {
			t.sector[r.Sector] = dn
		}
	}
	return t
}

func (t *RateTable) Individual(sector SectorID, person PersonID) (DayNight, bool) {
	dn, ok := t.individual[rateKey{Sector: sector, Person: person}]
	return dn, ok
}

func (t *RateTable) Sector(sector SectorID) (DayNight, bool) {
	dn, ok := t.sector[sector]
	return dn, ok
}

// =============================================================================
// RESOLVER
// =============================================================================

// ResolveInput carries everything one resolution needs. Start/End are
// optional; when nil the standard day window applies.
type ResolveInput struct {
	RawValue         string   // explicit assignment value as typed; "" = absent
	Sector           SectorID
	Person           PersonID // "" = no individual override lookup
	Start, End       *TimeOfDay
	ShiftValue       Money // shift base_value
	UseSectorDefault bool
	ApplyProRata     bool
}

// Resolved carries the outcome plus the classification details callers
// display alongside the value.
type Resolved struct {
	Value    Money
	Night    bool
	Duration int // minutes, overnight-wrapped
	Source   ValueSource
}

// ValueSource names which precedence level produced the value.
type ValueSource string

const (
	SourceIndividualOverride ValueSource = "individual_override"
	SourceAssignment         ValueSource = "assignment"
	SourceShift              ValueSource = "shift"
	SourceSectorDefault      ValueSource = "sector_default"
	SourceNone               ValueSource = "none"
)

type Resolver struct {
	Rates *RateTable
}

func NewResolver(rates *RateTable) *Resolver {
	return &Resolver{Rates: rates}
}

// Resolve walks the precedence chain. It returns a null value only when no
// explicit value was given, sector defaulting is disabled or absent, and no
// lower-precedence value exists.
func (r *Resolver) Resolve(in ResolveInput) (Resolved, error) {
	start := DayShiftStart
	if in.Start != nil {
		start = *in.Start
	}
	end := start + TimeOfDay(StandardShiftMinutes)
	if end >= TimeOfDay(MinutesPerDay) {
		end -= TimeOfDay(MinutesPerDay)
	}
	if in.End != nil {
		end = *in.End
	}

	night := start.IsNight()
	duration := Interval{Start: start, End: end}.DurationMinutes()

	out := Resolved{Night: night, Duration: duration, Source: SourceNone}

	value, source, err := r.resolveBase(in, night)
	if err != nil {
		return out, err
	}
	out.Source = source

	if value.Valid && in.ApplyProRata {
		value = SomeMoney(ProRata(value.Value, duration))
	}
	out.Value = value
	return out, nil
}

// resolveBase applies the precedence chain. Each level returns immediately
// when it holds a value, including zero.
func (r *Resolver) resolveBase(in ResolveInput, night bool) (Money, ValueSource, error) {
	// 1. Individual override for (sector, person) in this period.
	if in.Person != "" && r.Rates != nil {
		if dn, ok := r.Rates.Individual(in.Sector, in.Person); ok {
			if v := dn.pick(night); v.Valid {
				return v, SourceIndividualOverride, nil
			}
		}
	}

	// 2. Explicit assignment value.
	if in.RawValue != "" {
		v, err := ParseMoney(in.RawValue)
		if err != nil {
			return NullMoney(), SourceNone, err
		}
		if v.Valid {
			return v, SourceAssignment, nil
		}
	}

	// 3. Shift base_value.
	if in.ShiftValue.Valid {
		return in.ShiftValue, SourceShift, nil
	}

	// 4. Sector default, only when defaulting is enabled.
	if in.UseSectorDefault && r.Rates != nil {
		if dn, ok := r.Rates.Sector(in.Sector); ok {
			if v := dn.pick(night); v.Valid {
				return v, SourceSectorDefault, nil
			}
		}
	}

	return NullMoney(), SourceNone, nil
}
