// Package ics renders a computed liturgical calendar as an iCalendar feed
// of all-day events and reads such feeds back.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"litcal/internal/assembler"
	"litcal/internal/model"
)

const (
	DefaultProductID = "-//litcal//Liturgical Calendar//EN"
	DefaultDomain    = "litcal.local"

	// PropertyEventKey carries the event key so a feed can be matched
	// back to the calendar it was generated from.
	PropertyEventKey ical.ComponentProperty = "X-LITCAL-EVENT-KEY"
	PropertyGrade    ical.ComponentProperty = "X-LITCAL-GRADE"
)

// Options controls feed metadata.
type Options struct {
	ProductID string
	Domain    string
	// Label renders grade names; nil uses the grade identifiers.
	Label func(key string) string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ProductID) == "" {
		o.ProductID = DefaultProductID
	}
	if strings.TrimSpace(o.Domain) == "" {
		o.Domain = DefaultDomain
	}
	if o.Label == nil {
		o.Label = func(key string) string { return strings.TrimPrefix(key, "grade.") }
	}
	return o
}

// UID is the stable identifier of an event occurrence in a feed.
func UID(year int, scope, key, domain string) string {
	scope = strings.NewReplacer(":", "-", " ", "-").Replace(strings.ToLower(scope))
	return fmt.Sprintf("%s-%d-%s@%s", scope, year, key, domain)
}

// Export renders res. The output only depends on res and opts, so the
// same calendar always yields the same bytes.
func Export(res assembler.Result, opts Options) string {
	opts = opts.withDefaults()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	cal.SetName(fmt.Sprintf("Liturgical Calendar %d (%s)", res.Year, res.Scope))
	cal.SetXWRCalName(fmt.Sprintf("Liturgical Calendar %d (%s)", res.Year, res.Scope))

	// DTSTAMP is pinned to the start of the year for reproducible output.
	stamp := model.Day(res.Year, time.January, 1)
	for _, ev := range res.Events {
		e := cal.AddEvent(UID(res.Year, res.Scope, ev.Key, opts.Domain))
		e.SetDtStampTime(stamp)
		e.SetAllDayStartAt(ev.Date)
		e.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
		e.SetSummary(ev.Name)
		e.SetDescription(describe(ev, opts))
		e.SetProperty(ical.ComponentPropertyCategories, opts.Label("grade."+ev.Grade.String()))
		e.SetProperty(PropertyEventKey, ev.Key)
		e.SetProperty(PropertyGrade, ev.Grade.String())
	}
	return cal.Serialize()
}

func describe(ev model.LiturgicalEvent, opts Options) string {
	colors := make([]string, 0, len(ev.Colors))
	for _, c := range ev.Colors {
		colors = append(colors, string(c))
	}
	parts := []string{opts.Label("grade." + ev.Grade.String())}
	if len(colors) > 0 {
		parts = append(parts, strings.Join(colors, "/"))
	}
	if ev.Cycle != "" {
		parts = append(parts, ev.Cycle)
	}
	return strings.Join(parts, ", ")
}
