// Package precedence decides, for every date on which several celebrations
// coincide, which one is kept, which is transferred and which is
// suppressed.
//
// Resolution runs in batches: named exceptions, reduction of memorials on
// privileged weekdays, per-date decisions taken from a snapshot, then
// transfers in canonical order. No date is changed while coincidences are
// still being detected, so the result does not depend on iteration order.
package precedence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"litcal/internal/collection"
	"litcal/internal/model"
)

// ErrTie marks two celebrations of equal grade and rank on one date.
var ErrTie = errors.New("unresolved precedence tie")

// State is the end state of an event after resolution.
type State int

const (
	StatePending State = iota
	StateKept
	StateTransferred
	StateSuppressed
)

func (s State) String() string {
	switch s {
	case StateKept:
		return "kept"
	case StateTransferred:
		return "transferred"
	case StateSuppressed:
		return "suppressed"
	default:
		return "pending"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome records what happened to one event.
type Outcome struct {
	Key    string    `json:"event_key" yaml:"event_key"`
	State  State     `json:"state" yaml:"state"`
	From   time.Time `json:"from" yaml:"from"`
	To     time.Time `json:"to,omitempty" yaml:"to,omitempty"`
	By     string    `json:"by,omitempty" yaml:"by,omitempty"`
	Reason string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result is the resolved collection with its bookkeeping.
type Result struct {
	Events      *collection.Collection
	Outcomes    []Outcome
	Diagnostics []model.Diagnostic
}

// Outcome returns the outcome for key.
func (r Result) Outcome(key string) (Outcome, bool) {
	i := sort.Search(len(r.Outcomes), func(i int) bool { return r.Outcomes[i].Key >= key })
	if i < len(r.Outcomes) && r.Outcomes[i].Key == key {
		return r.Outcomes[i], true
	}
	return Outcome{}, false
}

const defaultMaxTransferDays = 60

// Resolver applies the precedence rules. It holds no per-run state and may
// be shared between goroutines.
type Resolver struct {
	exceptions      []Exception
	maxTransferDays int
}

// NewResolver builds a resolver with the given named exceptions.
func NewResolver(exceptions ...Exception) *Resolver {
	return &Resolver{
		exceptions:      append([]Exception(nil), exceptions...),
		maxTransferDays: defaultMaxTransferDays,
	}
}

type run struct {
	out      *collection.Collection
	outcomes map[string]*Outcome
	diags    []model.Diagnostic
}

func (rn *run) settle(key string, st State, to time.Time, by, reason string) {
	o := rn.outcomes[key]
	o.State = st
	o.To = to
	o.By = by
	o.Reason = reason
}

// Resolve returns a new collection in which every coincidence has been
// decided. The input collection is left untouched.
func (r *Resolver) Resolve(in *collection.Collection) Result {
	rn := &run{
		out:      in.Clone(),
		outcomes: make(map[string]*Outcome, in.Len()),
	}
	for _, ev := range in.Sorted() {
		rn.outcomes[ev.Key] = &Outcome{Key: ev.Key, State: StatePending, From: ev.Date}
	}

	r.applyExceptions(rn)
	reducePrivileged(rn)
	transfers := decide(rn)
	r.transfer(rn, transfers)

	res := Result{Events: rn.out, Diagnostics: rn.diags}
	for _, key := range in.Keys() {
		o := rn.outcomes[key]
		if o.State == StatePending {
			ev, _ := rn.out.Get(key)
			o.State = StateKept
			o.To = ev.Date
		}
		res.Outcomes = append(res.Outcomes, *o)
	}
	return res
}

// applyExceptions moves the losers of named pairs found on the same date.
// All matches are collected before any date changes.
func (r *Resolver) applyExceptions(rn *run) {
	type move struct {
		ex   Exception
		from time.Time
	}
	var moves []move
	for _, ex := range r.exceptions {
		w, okW := rn.out.Get(ex.Winner)
		l, okL := rn.out.Get(ex.Loser)
		if !okW || !okL || l.Date.IsZero() || !w.Date.Equal(l.Date) {
			continue
		}
		moves = append(moves, move{ex: ex, from: l.Date})
	}
	for _, m := range moves {
		to := m.ex.target(m.from)
		if err := rn.out.MoveEventDate(m.ex.Loser, to); err != nil {
			continue
		}
		rn.settle(m.ex.Loser, StateTransferred, to, m.ex.Winner, m.ex.Reason)
	}
}

// reducePrivileged turns memorials falling on a privileged weekday into
// commemorations kept alongside the weekday. A date also held by a Feast
// or higher is left to decide, which suppresses the memorial.
func reducePrivileged(rn *run) {
	var reduce []string
	for _, d := range rn.out.Dates() {
		evs := rn.out.EventsByDate(d)
		privileged, outranked := false, false
		for _, ev := range evs {
			if ev.Privileged {
				privileged = true
			}
			if ev.Grade >= model.GradeFeast {
				outranked = true
			}
		}
		if !privileged || outranked {
			continue
		}
		for _, ev := range evs {
			if ev.Grade == model.GradeMemorial || ev.Grade == model.GradeOptionalMemorial {
				reduce = append(reduce, ev.Key)
			}
		}
	}
	for _, key := range reduce {
		_ = rn.out.Modify(key, func(ev *model.LiturgicalEvent) {
			ev.Grade = model.GradeCommemoration
			ev.Rank = 0
		})
		rn.outcomes[key].Reason = "reduced to a commemoration on a privileged weekday"
	}
}

type decision struct {
	key    string
	state  State
	by     string
	reason string
}

// decide compares every crowded date and returns the events that must be
// transferred, in canonical order.
func decide(rn *run) []model.LiturgicalEvent {
	var (
		decisions  []decision
		toOptional []string
		transfers  []model.LiturgicalEvent
	)

	for _, d := range rn.out.Dates() {
		var group []model.LiturgicalEvent
		for _, ev := range rn.out.EventsByDate(d) {
			if ev.Grade != model.GradeCommemoration {
				group = append(group, ev)
			}
		}
		if len(group) < 2 {
			continue
		}

		top := group[0]
		winners := 1
		for winners < len(group) && sameStanding(top, group[winners]) {
			winners++
		}
		switch {
		case top.Grade == model.GradeOptionalMemorial:
			// Optional memorials may share a date.
			for winners < len(group) && group[winners].Grade == model.GradeOptionalMemorial {
				winners++
			}
		case winners > 1 && top.Grade == model.GradeMemorial:
			for _, ev := range group[:winners] {
				toOptional = append(toOptional, ev.Key)
			}
		case winners > 1 && top.Grade > model.GradeWeekday:
			keys := make([]string, 0, winners)
			for _, ev := range group[:winners] {
				keys = append(keys, ev.Key)
			}
			rn.diags = append(rn.diags, model.Diagnostic{
				Kind:     model.DiagTie,
				Layer:    model.LayerPrecedence,
				EventKey: top.Key,
				Message:  fmt.Sprintf("%v: %v share %s with grade %s", ErrTie, keys, d.Format("2006-01-02"), top.Grade),
			})
		}

		for _, ev := range group[winners:] {
			switch {
			case ev.Grade >= model.GradeSolemnity:
				transfers = append(transfers, ev)
			case ev.Grade == model.GradeWeekday:
				decisions = append(decisions, decision{key: ev.Key, state: StateSuppressed, by: top.Key})
			default:
				decisions = append(decisions, decision{
					key:    ev.Key,
					state:  StateSuppressed,
					by:     top.Key,
					reason: fmt.Sprintf("superseded by %s", top.Key),
				})
			}
		}
	}

	for _, key := range toOptional {
		_ = rn.out.Modify(key, func(ev *model.LiturgicalEvent) {
			ev.Grade = model.GradeOptionalMemorial
			ev.Rank = 0
		})
		rn.outcomes[key].Reason = "coinciding memorials are both kept as optional"
	}
	for _, dc := range decisions {
		rn.out.Remove(dc.key)
		rn.settle(dc.key, dc.state, time.Time{}, dc.by, dc.reason)
	}

	sort.Slice(transfers, func(i, j int) bool {
		if !transfers[i].Date.Equal(transfers[j].Date) {
			return transfers[i].Date.Before(transfers[j].Date)
		}
		return collection.Outranks(transfers[i], transfers[j])
	})
	return transfers
}

// sameStanding reports a grade and rank tie.
func sameStanding(a, b model.LiturgicalEvent) bool {
	return a.Grade == b.Grade && a.Precedence() == b.Precedence()
}

// transfer moves each displaced solemnity to the nearest following date
// that holds no memorial or higher celebration.
func (r *Resolver) transfer(rn *run, candidates []model.LiturgicalEvent) {
	for _, ev := range candidates {
		winner, _ := rn.out.EventByDate(ev.Date)
		to, ok := r.openDate(rn.out, ev)
		if !ok {
			rn.out.Remove(ev.Key)
			rn.settle(ev.Key, StateSuppressed, time.Time{}, winner.Key, "no open date to transfer to")
			rn.diags = append(rn.diags, model.Diagnostic{
				Kind:     model.DiagTransferFailed,
				Layer:    model.LayerPrecedence,
				EventKey: ev.Key,
				Message:  fmt.Sprintf("no open date within %d days after %s", r.maxTransferDays, ev.Date.Format("2006-01-02")),
			})
			continue
		}
		for _, other := range rn.out.EventsByDate(to) {
			rn.out.Remove(other.Key)
			reason := ""
			if other.Grade != model.GradeWeekday {
				reason = fmt.Sprintf("displaced by transferred %s", ev.Key)
			}
			rn.settle(other.Key, StateSuppressed, time.Time{}, ev.Key, reason)
		}
		_ = rn.out.MoveEventDate(ev.Key, to)
		rn.settle(ev.Key, StateTransferred, to, winner.Key, fmt.Sprintf("impeded by %s", winner.Key))
	}
}

func (r *Resolver) openDate(c *collection.Collection, ev model.LiturgicalEvent) (time.Time, bool) {
	for i := 1; i <= r.maxTransferDays; i++ {
		d := ev.Date.AddDate(0, 0, i)
		if isOpen(c, d) {
			return d, true
		}
	}
	return time.Time{}, false
}

func isOpen(c *collection.Collection, d time.Time) bool {
	for _, ev := range c.EventsByDate(d) {
		if ev.Grade >= model.GradeMemorial {
			return false
		}
	}
	return true
}
