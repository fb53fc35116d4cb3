// Package assembler builds the calendar of a year for a scope: the General
// Roman Calendar, then the wider region, national and diocesan patch sets
// in that order, then precedence resolution.
package assembler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"litcal/internal/collection"
	"litcal/internal/dates"
	appLog "litcal/internal/log"
	"litcal/internal/model"
	"litcal/internal/patch"
	"litcal/internal/precedence"
	"litcal/internal/proprium"
)

const (
	MinYear = 1970
	MaxYear = 9999
)

var (
	ErrUnknownScope = errors.New("unknown calendar scope")
	ErrYearRange    = errors.New("year out of range")
)

// ScopeKind selects which jurisdictions contribute to a calendar.
type ScopeKind int

const (
	ScopeGeneral ScopeKind = iota
	ScopeNational
	ScopeDiocesan
)

// Scope is the target calendar of a computation.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func General() Scope             { return Scope{Kind: ScopeGeneral} }
func National(id string) Scope   { return Scope{Kind: ScopeNational, ID: id} }
func Diocesan(id string) Scope   { return Scope{Kind: ScopeDiocesan, ID: id} }
func (s Scope) IsGeneral() bool  { return s.Kind == ScopeGeneral }
func (s Scope) IsDiocesan() bool { return s.Kind == ScopeDiocesan }

func (s Scope) String() string {
	switch s.Kind {
	case ScopeNational:
		return "national:" + s.ID
	case ScopeDiocesan:
		return "diocesan:" + s.ID
	default:
		return "general"
	}
}

// Catalog supplies the parsed jurisdiction documents.
type Catalog interface {
	WiderRegion(name string) (patch.WiderRegionCalendar, bool)
	Nation(id string) (patch.NationalCalendar, bool)
	Diocese(id string) (patch.DiocesanCalendar, bool)
}

// Localizer renders catalog messages; ok is false for unknown keys.
type Localizer interface {
	Lookup(locale, key string, args ...any) (string, bool)
}

// Result is one computed calendar.
type Result struct {
	ComputationID string                  `json:"computation_id" yaml:"computation_id"`
	Year          int                     `json:"year" yaml:"year"`
	Scope         string                  `json:"scope" yaml:"scope"`
	Locale        string                  `json:"locale,omitempty" yaml:"locale,omitempty"`
	Settings      model.Settings          `json:"settings" yaml:"settings"`
	Events        []model.LiturgicalEvent `json:"litcal" yaml:"litcal"`
	Outcomes      []precedence.Outcome    `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Diagnostics   []model.Diagnostic      `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Assembler holds the read-only inputs shared by every computation.
type Assembler struct {
	proprium  *proprium.Proprium
	catalog   Catalog
	resolver  *precedence.Resolver
	localizer Localizer
	general   model.Settings
}

type Option func(*Assembler)

func WithCatalog(c Catalog) Option { return func(a *Assembler) { a.catalog = c } }

func WithResolver(r *precedence.Resolver) Option { return func(a *Assembler) { a.resolver = r } }

func WithLocalizer(l Localizer) Option { return func(a *Assembler) { a.localizer = l } }

// WithGeneralSettings sets the settings used for the General Roman scope.
func WithGeneralSettings(s model.Settings) Option { return func(a *Assembler) { a.general = s } }

// New builds an assembler. Without options it computes the General Roman
// Calendar with the default named exceptions and no translations.
func New(p *proprium.Proprium, opts ...Option) *Assembler {
	a := &Assembler{
		proprium: p,
		resolver: precedence.NewResolver(precedence.DefaultExceptions()...),
		general:  model.DefaultSettings(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type plan struct {
	settings model.Settings
	sets     []patch.Set
	diags    []model.Diagnostic
}

// layers resolves the patch sets and settings of scope.
func (a *Assembler) layers(scope Scope) (plan, error) {
	pl := plan{settings: a.general}
	if scope.IsGeneral() {
		return pl, nil
	}
	if a.catalog == nil {
		return pl, fmt.Errorf("%w: %s (no calendar catalog)", ErrUnknownScope, scope)
	}

	nationID := scope.ID
	var diocese patch.DiocesanCalendar
	if scope.IsDiocesan() {
		d, ok := a.catalog.Diocese(scope.ID)
		if !ok {
			return pl, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
		}
		diocese = d
		nationID = d.Nation
	}
	nation, ok := a.catalog.Nation(nationID)
	if !ok {
		return pl, fmt.Errorf("%w: nation %q", ErrUnknownScope, nationID)
	}

	if nation.WiderRegion != "" {
		if wr, ok := a.catalog.WiderRegion(nation.WiderRegion); ok {
			pl.sets = append(pl.sets, wr.Patches)
		} else {
			pl.diags = append(pl.diags, model.Diagnostic{
				Kind:    model.DiagReference,
				Layer:   model.LayerWiderRegion,
				Source:  nation.WiderRegion,
				Message: fmt.Sprintf("%v: national calendar %s names unknown wider region", ErrReference, nation.ID),
			})
		}
	}
	pl.sets = append(pl.sets, nation.Patches)
	pl.settings = nation.Settings
	if scope.IsDiocesan() {
		pl.sets = append(pl.sets, diocese.Patches)
		pl.settings = nation.Settings.With(diocese.Settings)
	}
	return pl, nil
}

// ComputeCalendar returns the resolved calendar of year for scope, with
// names rendered for locale. Patch problems are returned as diagnostics
// alongside the calendar; only an unknown scope or year is an error.
func (a *Assembler) ComputeCalendar(year int, scope Scope, locale string) (Result, error) {
	if year < MinYear || year > MaxYear {
		return Result{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrYearRange, year, MinYear, MaxYear)
	}
	pl, err := a.layers(scope)
	if err != nil {
		return Result{}, err
	}
	name := a.namer(locale)

	c, err := a.proprium.Base(year, pl.settings, name)
	if err != nil {
		return Result{}, err
	}
	decrees := a.proprium.Decrees()
	c, diags := ApplyPatches(c, decrees, year)
	localizeCreated(c, decrees, name)
	diags = append(pl.diags, diags...)

	for _, set := range pl.sets {
		diags = append(diags, structural(set)...)
		var d []model.Diagnostic
		c, d = ApplyPatches(c, set, year)
		diags = append(diags, d...)
	}

	c = c.Filter(func(ev model.LiturgicalEvent) bool {
		return ev.ActiveIn(year) && ev.Date.Year() == year
	})
	resolved := a.resolver.Resolve(c)
	assignCycles(resolved.Events)
	diags = append(diags, resolved.Diagnostics...)

	res := Result{
		ComputationID: uuid.NewString(),
		Year:          year,
		Scope:         scope.String(),
		Locale:        locale,
		Settings:      pl.settings,
		Events:        resolved.Events.Sorted(),
		Outcomes:      resolved.Outcomes,
		Diagnostics:   diags,
	}
	for _, d := range diags {
		appLog.Warn("calendar diagnostic",
			"computation_id", res.ComputationID,
			"kind", d.Kind,
			"layer", d.Layer,
			"source", d.Source,
			"event_key", d.EventKey,
			"msg", d.Message,
		)
	}
	appLog.Debug("calendar computed",
		"computation_id", res.ComputationID,
		"scope", res.Scope,
		"year", year,
		"events", len(res.Events),
		"diagnostics", len(diags),
	)
	return res, nil
}

func (a *Assembler) namer(locale string) proprium.Namer {
	if a.localizer == nil {
		return nil
	}
	locale = strings.TrimSpace(locale)
	return func(key string, args ...any) (string, bool) {
		return a.localizer.Lookup(locale, key, args...)
	}
}

// localizeCreated renders the names of events created by general decrees.
func localizeCreated(c *collection.Collection, set patch.Set, name proprium.Namer) {
	if name == nil {
		return
	}
	for _, p := range set.Patches {
		cn, ok := p.(patch.CreateNew)
		if !ok || !c.Has(cn.Event.Key) {
			continue
		}
		if s, ok := name(cn.Event.Key); ok {
			_ = c.Modify(cn.Event.Key, func(ev *model.LiturgicalEvent) { ev.Name = s })
		}
	}
}

// structural turns the rejected entries of a set into diagnostics.
func structural(set patch.Set) []model.Diagnostic {
	out := make([]model.Diagnostic, 0, len(set.Rejected))
	for _, err := range set.Rejected {
		d := model.Diagnostic{
			Kind:    model.DiagStructural,
			Layer:   set.Layer,
			Source:  set.Source,
			Message: err.Error(),
		}
		var se *patch.StructuralError
		if errors.As(err, &se) {
			d.EventKey = se.EventKey
		}
		out = append(out, d)
	}
	return out
}

// assignCycles sets the lectionary cycle: A/B/C on Sundays and
// solemnities, I/II otherwise.
func assignCycles(c *collection.Collection) {
	for _, key := range c.Keys() {
		_ = c.Modify(key, func(ev *model.LiturgicalEvent) {
			if ev.Sunday || ev.Date.Weekday() == time.Sunday || ev.Grade >= model.GradeSolemnity {
				ev.Cycle = dates.SundayCycle(ev.Date)
			} else {
				ev.Cycle = dates.WeekdayCycle(ev.Date)
			}
		})
	}
}
