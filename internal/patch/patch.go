// Package patch defines the override instructions a jurisdiction applies on
// top of the General Roman Calendar, and parses them from calendar
// documents.
//
// A Patch is one of CreateNew, MoveEvent, SetName, SetGrade or MakePatron;
// the set is closed (the interface has an unexported method) so consumers
// can switch over it exhaustively.
package patch

import (
	"time"

	"litcal/internal/model"
)

// Action is the document spelling of a patch kind.
type Action string

const (
	ActionCreateNew   Action = "createNew"
	ActionMoveEvent   Action = "moveEvent"
	ActionSetProperty Action = "setProperty"
	ActionMakePatron  Action = "makePatron"
)

// Property is the field a setProperty patch overwrites.
type Property string

const (
	PropertyName  Property = "name"
	PropertyGrade Property = "grade"
)

// Metadata is shared by every patch.
type Metadata struct {
	Validity model.Validity
	// Authority is the missal edition or decree that introduced the change.
	Authority string
	Reason    string
	URL       string
	// Index is the position of the patch in its source document.
	Index int
}

// AppliesTo reports whether the patch is in force for year.
func (m Metadata) AppliesTo(year int) bool {
	return m.Validity.Contains(year)
}

// Patch is a single typed override instruction.
type Patch interface {
	// Target is the event key the patch creates or changes.
	Target() string
	Action() Action
	Meta() Metadata
	sealed()
}

// CreateNew inserts a new event. Event carries either Month/Day (fixed) or
// Rule (movable); its Date is resolved at application time.
type CreateNew struct {
	Metadata
	Event model.LiturgicalEvent
}

// MoveEvent relocates an existing event to a new fixed date.
type MoveEvent struct {
	Metadata
	EventKey string
	Month    time.Month
	Day      int
}

// SetName overwrites an existing event's name.
type SetName struct {
	Metadata
	EventKey string
	Name     string
}

// SetGrade overwrites an existing event's grade.
type SetGrade struct {
	Metadata
	EventKey string
	Grade    model.Grade
}

// MakePatron elevates an existing event to patronal status. The grade may
// not be lower than the event's current grade.
type MakePatron struct {
	Metadata
	EventKey string
	Grade    model.Grade
	// Name optionally replaces the event name (e.g. "..., Patron of ...").
	Name string
}

func (p CreateNew) Target() string  { return p.Event.Key }
func (p MoveEvent) Target() string  { return p.EventKey }
func (p SetName) Target() string    { return p.EventKey }
func (p SetGrade) Target() string   { return p.EventKey }
func (p MakePatron) Target() string { return p.EventKey }

func (CreateNew) Action() Action  { return ActionCreateNew }
func (MoveEvent) Action() Action  { return ActionMoveEvent }
func (SetName) Action() Action    { return ActionSetProperty }
func (SetGrade) Action() Action   { return ActionSetProperty }
func (MakePatron) Action() Action { return ActionMakePatron }

func (p CreateNew) Meta() Metadata  { return p.Metadata }
func (p MoveEvent) Meta() Metadata  { return p.Metadata }
func (p SetName) Meta() Metadata    { return p.Metadata }
func (p SetGrade) Meta() Metadata   { return p.Metadata }
func (p MakePatron) Meta() Metadata { return p.Metadata }

func (CreateNew) sealed()  {}
func (MoveEvent) sealed()  {}
func (SetName) sealed()    {}
func (SetGrade) sealed()   {}
func (MakePatron) sealed() {}

// Set is the ordered patch list of one jurisdiction. Declaration order is
// authoritative.
type Set struct {
	Layer  model.Layer
	Source string
	// KeyPrefix namespaces keys created by this set (dioceses).
	KeyPrefix string
	Patches   []Patch
	// Rejected holds the structural errors found while parsing.
	Rejected []error
}
