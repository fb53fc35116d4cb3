// Package proprium provides the General Roman Calendar: the Proprium de
// Tempore generated for a year, the Proprium de Sanctis and the decrees
// that changed it after 1970.
//
// The sanctorale and decree data are embedded and parsed once; a Proprium
// is read-only after Load and may be shared by concurrent computations.
package proprium

import (
	"embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"litcal/internal/collection"
	"litcal/internal/model"
	"litcal/internal/patch"
)

//go:embed data/*.yaml
var dataFS embed.FS

// GeneralSource names the General Roman Calendar in patch sets and
// diagnostics.
const GeneralSource = "GeneralRoman"

type sanctoraleEntry struct {
	Key    string      `yaml:"key"`
	Name   string      `yaml:"name"`
	Month  int         `yaml:"month"`
	Day    int         `yaml:"day"`
	Grade  model.Grade `yaml:"grade"`
	Color  []string    `yaml:"color"`
	Common []string    `yaml:"common"`
}

// Proprium is the parsed, immutable General Roman Calendar data.
type Proprium struct {
	sanctorale []model.LiturgicalEvent
	decrees    patch.Set
}

// Load parses the embedded sanctorale and decree data.
func Load() (*Proprium, error) {
	sanctorale, err := loadSanctorale()
	if err != nil {
		return nil, err
	}
	decrees, err := loadDecrees()
	if err != nil {
		return nil, err
	}
	return &Proprium{sanctorale: sanctorale, decrees: decrees}, nil
}

func loadSanctorale() ([]model.LiturgicalEvent, error) {
	raw, err := dataFS.ReadFile("data/sanctorale.yaml")
	if err != nil {
		return nil, fmt.Errorf("read sanctorale: %w", err)
	}
	var entries []sanctoraleEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse sanctorale: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	out := make([]model.LiturgicalEvent, 0, len(entries))
	for _, e := range entries {
		if e.Key == "" || seen[e.Key] {
			return nil, fmt.Errorf("sanctorale: missing or duplicate key %q", e.Key)
		}
		seen[e.Key] = true
		colors, err := model.ParseColors(e.Color)
		if err != nil {
			return nil, fmt.Errorf("sanctorale %s: %w", e.Key, err)
		}
		commons, err := model.ParseCommons(e.Common)
		if err != nil {
			return nil, fmt.Errorf("sanctorale %s: %w", e.Key, err)
		}
		if e.Month < 1 || e.Month > 12 || e.Day < 1 || e.Day > 31 {
			return nil, fmt.Errorf("sanctorale %s: invalid date %d/%d", e.Key, e.Month, e.Day)
		}
		out = append(out, model.LiturgicalEvent{
			Key:    e.Key,
			Name:   e.Name,
			Grade:  e.Grade,
			Colors: colors,
			Common: commons,
			Type:   model.TypeFixed,
			Month:  time.Month(e.Month),
			Day:    e.Day,
		})
	}
	return out, nil
}

func loadDecrees() (patch.Set, error) {
	raw, err := dataFS.ReadFile("data/decrees.yaml")
	if err != nil {
		return patch.Set{}, fmt.Errorf("read decrees: %w", err)
	}
	var entries []patch.RawEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return patch.Set{}, fmt.Errorf("parse decrees: %w", err)
	}
	patches, rejected := patch.ParseEntries(entries, model.LayerGeneral)
	if len(rejected) > 0 {
		return patch.Set{}, fmt.Errorf("decrees: %w", rejected[0])
	}
	return patch.Set{
		Layer:   model.LayerGeneral,
		Source:  GeneralSource,
		Patches: patches,
	}, nil
}

// Decrees returns the ordered changes to the General Roman Calendar.
func (p *Proprium) Decrees() patch.Set {
	out := p.decrees
	out.Patches = append([]patch.Patch(nil), p.decrees.Patches...)
	return out
}

// Sanctorale returns the 1970 saints dated in year. Names come from name
// when the catalog knows the key.
func (p *Proprium) Sanctorale(year int, name Namer) []model.LiturgicalEvent {
	out := make([]model.LiturgicalEvent, 0, len(p.sanctorale))
	for _, ev := range p.sanctorale {
		ev = ev.Clone()
		ev.Name = name.family(ev.Name, ev.Key)
		ev.Date = model.Day(year, ev.Month, ev.Day)
		out = append(out, ev)
	}
	return out
}

// Base builds the 1970 General Roman Calendar of year as a fresh
// collection. Decrees are not applied.
func (p *Proprium) Base(year int, s model.Settings, name Namer) (*collection.Collection, error) {
	c := collection.New()
	for _, ev := range Temporale(year, s, name) {
		if err := c.Add(ev); err != nil {
			return nil, fmt.Errorf("temporale %d: %w", year, err)
		}
	}
	for _, ev := range p.Sanctorale(year, name) {
		if err := c.Add(ev); err != nil {
			return nil, fmt.Errorf("sanctorale %d: %w", year, err)
		}
	}
	return c, nil
}
