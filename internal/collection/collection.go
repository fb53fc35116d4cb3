// Package collection holds the keyed container of liturgical events used
// while a calendar is assembled and resolved.
package collection

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"litcal/internal/model"
)

var (
	ErrDuplicateKey = errors.New("duplicate event key")
	ErrNotFound     = errors.New("event not found")
	ErrInvalidEvent = errors.New("invalid event")
)

// Collection maps event keys to events and keeps a date index in sync.
// It is not safe for concurrent mutation; each computation owns its own.
type Collection struct {
	events map[string]*model.LiturgicalEvent
	byDate map[time.Time]map[string]struct{}
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{
		events: make(map[string]*model.LiturgicalEvent),
		byDate: make(map[time.Time]map[string]struct{}),
	}
}

// Len returns the number of events.
func (c *Collection) Len() int {
	return len(c.events)
}

// Add inserts ev. It fails if the key is already present.
func (c *Collection) Add(ev model.LiturgicalEvent) error {
	if err := validate(ev); err != nil {
		return err
	}
	if _, ok := c.events[ev.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, ev.Key)
	}
	c.insert(ev)
	return nil
}

func (c *Collection) insert(ev model.LiturgicalEvent) {
	cp := ev.Clone()
	if !cp.Date.IsZero() {
		cp.Date = model.Truncate(cp.Date)
	}
	c.events[cp.Key] = &cp
	c.index(cp.Key, cp.Date)
}

func validate(ev model.LiturgicalEvent) error {
	switch {
	case ev.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidEvent)
	case !ev.Grade.Valid():
		return fmt.Errorf("%w: %s has %s", ErrInvalidEvent, ev.Key, ev.Grade)
	case len(ev.Colors) == 0:
		return fmt.Errorf("%w: %s has no color", ErrInvalidEvent, ev.Key)
	}
	return nil
}

func (c *Collection) index(key string, d time.Time) {
	if d.IsZero() {
		return
	}
	set, ok := c.byDate[d]
	if !ok {
		set = make(map[string]struct{})
		c.byDate[d] = set
	}
	set[key] = struct{}{}
}

func (c *Collection) unindex(key string, d time.Time) {
	if set, ok := c.byDate[d]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(c.byDate, d)
		}
	}
}

// Get returns a copy of the event stored under key.
func (c *Collection) Get(key string) (model.LiturgicalEvent, bool) {
	ev, ok := c.events[key]
	if !ok {
		return model.LiturgicalEvent{}, false
	}
	return ev.Clone(), true
}

// Has reports whether key is present.
func (c *Collection) Has(key string) bool {
	_, ok := c.events[key]
	return ok
}

// AnchorDate implements dates.AnchorLookup.
func (c *Collection) AnchorDate(key string) (time.Time, bool) {
	ev, ok := c.events[key]
	if !ok || ev.Date.IsZero() {
		return time.Time{}, false
	}
	return ev.Date, true
}

// Remove deletes key and reports whether it was present.
func (c *Collection) Remove(key string) bool {
	ev, ok := c.events[key]
	if !ok {
		return false
	}
	c.unindex(key, ev.Date)
	delete(c.events, key)
	return true
}

// MoveEventDate is the only way to change the date of a stored event.
// Fixed events also get their month/day updated.
func (c *Collection) MoveEventDate(key string, d time.Time) error {
	ev, ok := c.events[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	d = model.Truncate(d)
	c.unindex(key, ev.Date)
	ev.Date = d
	if ev.Type == model.TypeFixed {
		ev.Month = d.Month()
		ev.Day = d.Day()
	}
	c.index(key, d)
	return nil
}

// Modify applies fn to the stored event. Changes to the key or the date
// made by fn are discarded; use MoveEventDate for dates.
func (c *Collection) Modify(key string, fn func(*model.LiturgicalEvent)) error {
	ev, ok := c.events[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	keep, date := ev.Key, ev.Date
	fn(ev)
	ev.Key, ev.Date = keep, date
	return nil
}

// HasDate reports whether any event falls on d.
func (c *Collection) HasDate(d time.Time) bool {
	return len(c.byDate[model.Truncate(d)]) > 0
}

// EventsByDate returns every event on d, highest precedence first.
func (c *Collection) EventsByDate(d time.Time) []model.LiturgicalEvent {
	set := c.byDate[model.Truncate(d)]
	out := make([]model.LiturgicalEvent, 0, len(set))
	for key := range set {
		out = append(out, c.events[key].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return Outranks(out[i], out[j]) })
	return out
}

// EventByDate returns the highest-precedence event on d.
func (c *Collection) EventByDate(d time.Time) (model.LiturgicalEvent, bool) {
	evs := c.EventsByDate(d)
	if len(evs) == 0 {
		return model.LiturgicalEvent{}, false
	}
	return evs[0], true
}

// Dates returns every occupied date in ascending order.
func (c *Collection) Dates() []time.Time {
	out := make([]time.Time, 0, len(c.byDate))
	for d := range c.byDate {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Keys returns every key in lexical order.
func (c *Collection) Keys() []string {
	out := make([]string, 0, len(c.events))
	for k := range c.events {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ByGrade returns the events of one grade, sorted canonically.
func (c *Collection) ByGrade(g model.Grade) []model.LiturgicalEvent {
	out := make([]model.LiturgicalEvent, 0)
	for _, ev := range c.events {
		if ev.Grade == g {
			out = append(out, ev.Clone())
		}
	}
	sortCanonical(out)
	return out
}

// Merge copies every event of other into c, overwriting identical keys.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	for _, key := range other.Keys() {
		ev := other.events[key]
		c.Remove(key)
		c.insert(*ev)
	}
}

// Clone returns an independent copy.
func (c *Collection) Clone() *Collection {
	out := New()
	for _, ev := range c.events {
		out.insert(*ev)
	}
	return out
}

// Filter returns a new collection holding the events for which keep is true.
func (c *Collection) Filter(keep func(model.LiturgicalEvent) bool) *Collection {
	out := New()
	for _, ev := range c.events {
		if keep(*ev) {
			out.insert(*ev)
		}
	}
	return out
}

// Sorted returns every event ordered by date, then grade (ascending), then
// key. Events without a date sort last.
func (c *Collection) Sorted() []model.LiturgicalEvent {
	out := make([]model.LiturgicalEvent, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Clone())
	}
	sortCanonical(out)
	return out
}

func sortCanonical(evs []model.LiturgicalEvent) {
	sort.Slice(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if !a.Date.Equal(b.Date) {
			if a.Date.IsZero() || b.Date.IsZero() {
				return b.Date.IsZero()
			}
			return a.Date.Before(b.Date)
		}
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		return a.Key < b.Key
	})
}

// Outranks orders events by grade (higher first), then by position in the
// table of liturgical days (lower first), then by key for determinism.
func Outranks(a, b model.LiturgicalEvent) bool {
	if a.Grade != b.Grade {
		return a.Grade > b.Grade
	}
	if pa, pb := a.Precedence(), b.Precedence(); pa != pb {
		return pa < pb
	}
	return a.Key < b.Key
}
