package model

import "time"

// EventType distinguishes events pinned to a civil day/month from events
// whose date is derived from an anchor (Easter or another event).
type EventType int

const (
	TypeFixed EventType = iota
	TypeMovable
)

func (t EventType) String() string {
	if t == TypeMovable {
		return "movable"
	}
	return "fixed"
}

// MarshalText renders the type as "fixed" or "movable".
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// EasterAnchor is the anchor name used by rules relative to Easter Sunday.
const EasterAnchor = "Easter"

// MovableRule describes how a movable event is dated in a given year.
//
// The rule is resolved against Anchor (EasterAnchor or the key of another
// event in the same collection). When Nth is non-zero the result is the
// Nth Weekday strictly after (Nth > 0) or strictly before (Nth < 0) the
// anchor date; otherwise the result is the anchor date plus OffsetDays.
type MovableRule struct {
	Anchor     string       `json:"anchor" yaml:"anchor"`
	OffsetDays int          `json:"offset_days,omitempty" yaml:"offset_days,omitempty"`
	Weekday    time.Weekday `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	Nth        int          `json:"nth,omitempty" yaml:"nth,omitempty"`
}

// LiturgicalEvent is the canonical record for a single celebration.
//
// Date is the resolved civil date (UTC midnight). Inside a collection the
// date is only changed through the collection's MoveEventDate so the date
// index stays consistent; events handed out by a collection are copies.
type LiturgicalEvent struct {
	Key    string    `json:"event_key" yaml:"event_key"`
	Name   string    `json:"name" yaml:"name"`
	Date   time.Time `json:"date" yaml:"date"`
	Grade  Grade     `json:"grade" yaml:"grade"`
	Colors []Color   `json:"color" yaml:"color"`
	Common []Common  `json:"common" yaml:"common"`
	Type   EventType `json:"type" yaml:"type"`

	// Month/Day are set for fixed events.
	Month time.Month `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int        `json:"day,omitempty" yaml:"day,omitempty"`

	// Rule is set for movable events.
	Rule *MovableRule `json:"-" yaml:"-"`

	Validity *Validity `json:"validity,omitempty" yaml:"validity,omitempty"`

	// Rank is the position in the table of liturgical days (1 = highest).
	// Zero means "derive from Grade and Proper".
	Rank Rank `json:"-" yaml:"-"`

	// Proper marks events introduced or elevated by a particular
	// (national/diocesan) calendar.
	Proper bool `json:"-" yaml:"-"`

	// Privileged marks weekdays that reduce memorials to commemorations
	// (Lent, Advent December 17-24, the Christmas octave).
	Privileged bool `json:"-" yaml:"-"`

	// Sunday marks Sundays of the temporal cycle.
	Sunday bool `json:"-" yaml:"-"`

	// Cycle is the lectionary cycle: A/B/C for Sundays and solemnities,
	// I/II for weekdays.
	Cycle string `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// Precedence returns the effective rank of the event in the table of
// liturgical days.
func (e LiturgicalEvent) Precedence() Rank {
	if e.Rank != 0 {
		return e.Rank
	}
	return DefaultRank(e.Grade, e.Proper)
}

// Clone returns a deep copy of the event.
func (e LiturgicalEvent) Clone() LiturgicalEvent {
	out := e
	if e.Colors != nil {
		out.Colors = append([]Color(nil), e.Colors...)
	}
	if e.Common != nil {
		out.Common = append([]Common(nil), e.Common...)
	}
	if e.Rule != nil {
		r := *e.Rule
		out.Rule = &r
	}
	if e.Validity != nil {
		v := *e.Validity
		out.Validity = &v
	}
	return out
}

// ActiveIn reports whether the event is in force for the given year.
func (e LiturgicalEvent) ActiveIn(year int) bool {
	if e.Validity == nil {
		return true
	}
	return e.Validity.Contains(year)
}

// Day returns the UTC-midnight time for a civil date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate normalizes t to the UTC midnight of its civil date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
