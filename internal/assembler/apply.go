package assembler

import (
	"errors"
	"fmt"
	"time"

	"litcal/internal/collection"
	"litcal/internal/dates"
	"litcal/internal/model"
	"litcal/internal/patch"
)

var (
	// ErrReference marks a patch whose target key is missing, or a
	// CreateNew whose key is already taken.
	ErrReference = errors.New("reference error")
	// ErrDemotion marks a MakePatron that would lower the grade.
	ErrDemotion = errors.New("demotion rejected")
)

// ApplyPatches applies one jurisdiction's patch set, in declaration order,
// to a copy of base. Patches outside their validity window are skipped.
// A patch that cannot be applied is reported as a diagnostic and skipped;
// the remaining patches still run.
func ApplyPatches(base *collection.Collection, set patch.Set, year int) (*collection.Collection, []model.Diagnostic) {
	out := base.Clone()
	var diags []model.Diagnostic
	report := func(kind model.DiagnosticKind, key string, err error) {
		diags = append(diags, model.Diagnostic{
			Kind:     kind,
			Layer:    set.Layer,
			Source:   set.Source,
			EventKey: key,
			Message:  err.Error(),
		})
	}

	for _, p := range set.Patches {
		if !p.Meta().AppliesTo(year) {
			continue
		}
		switch p := p.(type) {
		case patch.CreateNew:
			key := set.KeyPrefix + p.Event.Key
			if err := createNew(out, p, key, set.Layer, year); err != nil {
				report(model.DiagReference, key, err)
			}

		case patch.MoveEvent:
			key, ok := lookup(out, set, p.EventKey)
			if !ok {
				report(model.DiagReference, p.EventKey, missing(p))
				continue
			}
			if p.Month == time.February && p.Day == 29 && !isLeap(year) {
				// As with createNew, an event on February 29 only exists in leap years.
				out.Remove(key)
				continue
			}
			if err := moveEvent(out, key, model.Day(year, p.Month, p.Day)); err != nil {
				report(model.DiagReference, key, err)
			}

		case patch.SetName:
			key, ok := lookup(out, set, p.EventKey)
			if !ok {
				report(model.DiagReference, p.EventKey, missing(p))
				continue
			}
			_ = out.Modify(key, func(ev *model.LiturgicalEvent) { ev.Name = p.Name })

		case patch.SetGrade:
			key, ok := lookup(out, set, p.EventKey)
			if !ok {
				report(model.DiagReference, p.EventKey, missing(p))
				continue
			}
			_ = out.Modify(key, func(ev *model.LiturgicalEvent) {
				ev.Grade = p.Grade
				ev.Rank = 0
				ev.Proper = ev.Proper || set.Layer != model.LayerGeneral
			})

		case patch.MakePatron:
			key, ok := lookup(out, set, p.EventKey)
			if !ok {
				report(model.DiagReference, p.EventKey, missing(p))
				continue
			}
			cur, _ := out.Get(key)
			if p.Grade < cur.Grade {
				report(model.DiagDemotion, key, fmt.Errorf("%w: %s is %s, patron grade %s", ErrDemotion, key, cur.Grade, p.Grade))
				continue
			}
			_ = out.Modify(key, func(ev *model.LiturgicalEvent) {
				ev.Grade = p.Grade
				ev.Rank = 0
				ev.Proper = true
				if p.Name != "" {
					ev.Name = p.Name
				}
			})
		}
	}
	return out, diags
}

func missing(p patch.Patch) error {
	return fmt.Errorf("%w: %s targets unknown event %q", ErrReference, p.Action(), p.Target())
}

// lookup resolves the target of a mutating patch. A diocese may address
// its own events without the prefix.
func lookup(c *collection.Collection, set patch.Set, key string) (string, bool) {
	if set.KeyPrefix != "" && c.Has(set.KeyPrefix+key) {
		return set.KeyPrefix + key, true
	}
	return key, c.Has(key)
}

func createNew(c *collection.Collection, p patch.CreateNew, key string, layer model.Layer, year int) error {
	if c.Has(key) {
		return fmt.Errorf("%w: createNew on existing event %q", ErrReference, key)
	}
	ev := p.Event.Clone()
	ev.Key = key
	ev.Proper = layer != model.LayerGeneral

	switch ev.Type {
	case model.TypeFixed:
		if ev.Month == time.February && ev.Day == 29 && !isLeap(year) {
			return nil
		}
		ev.Date = model.Day(year, ev.Month, ev.Day)
	case model.TypeMovable:
		if ev.Rule == nil {
			return fmt.Errorf("%w: movable event %q has no rule", ErrReference, key)
		}
		d, err := dates.ResolveMovable(*ev.Rule, year, c)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReference, key, err)
		}
		ev.Date = d
	}
	return c.Add(ev)
}

// moveEvent pins the event to a civil date; a movable event becomes fixed.
func moveEvent(c *collection.Collection, key string, to time.Time) error {
	err := c.Modify(key, func(ev *model.LiturgicalEvent) {
		ev.Type = model.TypeFixed
		ev.Rule = nil
	})
	if err != nil {
		return err
	}
	return c.MoveEventDate(key, to)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
