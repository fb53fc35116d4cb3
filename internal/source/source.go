// Package source loads the wider-region, national and diocesan calendar
// documents from a data directory into a read-only Registry.
//
// Layout:
//
//	<dir>/wider_regions/*.json
//	<dir>/nations/*.json
//	<dir>/dioceses/*.json
//
// A missing subdirectory is treated as empty. Entries that fail structural
// validation do not fail the load; they travel with the calendar and are
// reported as diagnostics when it is computed.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	appLog "litcal/internal/log"
	"litcal/internal/patch"
)

var (
	ErrNotFound        = errors.New("calendar not found")
	ErrInvalidDocument = errors.New("invalid calendar document")
)

// Registry is immutable after Load and safe for concurrent readers.
type Registry struct {
	regions  map[string]patch.WiderRegionCalendar
	nations  map[string]patch.NationalCalendar
	dioceses map[string]patch.DiocesanCalendar
}

// Empty returns a registry with no jurisdictions.
func Empty() *Registry {
	return &Registry{
		regions:  map[string]patch.WiderRegionCalendar{},
		nations:  map[string]patch.NationalCalendar{},
		dioceses: map[string]patch.DiocesanCalendar{},
	}
}

// Load reads every document under dir.
func Load(dir string) (*Registry, error) {
	r := Empty()

	err := eachJSON(filepath.Join(dir, "wider_regions"), func(doc *patch.WiderRegionDocument) error {
		wr, err := patch.NewWiderRegion(*doc)
		if err != nil {
			return err
		}
		if r.hasRegion(fold(wr.Name)) {
			return duplicate(wr.Name)
		}
		r.regions[fold(wr.Name)] = wr
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachJSON(filepath.Join(dir, "nations"), func(doc *patch.NationalDocument) error {
		nc, err := patch.NewNational(*doc)
		if err != nil {
			return err
		}
		if r.hasNation(fold(nc.ID)) {
			return duplicate(nc.ID)
		}
		r.nations[fold(nc.ID)] = nc
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachJSON(filepath.Join(dir, "dioceses"), func(doc *patch.DiocesanDocument) error {
		dc, err := patch.NewDiocesan(*doc)
		if err != nil {
			return err
		}
		if !r.hasNation(fold(dc.Nation)) {
			return fmt.Errorf("diocese %s belongs to unknown nation %q", dc.ID, dc.Nation)
		}
		if r.hasDiocese(fold(dc.ID)) {
			return duplicate(dc.ID)
		}
		r.dioceses[fold(dc.ID)] = dc
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, nc := range r.nations {
		if nc.WiderRegion != "" && !r.hasRegion(fold(nc.WiderRegion)) {
			appLog.Warn("national calendar names unknown wider region", "nation", nc.ID, "wider_region", nc.WiderRegion)
		}
	}
	appLog.Info("calendar sources loaded",
		"dir", dir,
		"wider_regions", len(r.regions),
		"nations", len(r.nations),
		"dioceses", len(r.dioceses),
	)
	return r, nil
}

func duplicate(id string) error {
	return fmt.Errorf("duplicate calendar id %q", id)
}

// eachJSON decodes every *.json file of dir, in name order, and hands it
// to fn. Decode and fn errors are wrapped with ErrInvalidDocument.
func eachJSON[T any](dir string, fn func(doc *T) error) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		doc := new(T)
		if err := json.Unmarshal(b, doc); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
		}
		if err := fn(doc); err != nil {
			if errors.Is(err, ErrInvalidDocument) {
				return err
			}
			return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
		}
	}
	return nil
}

func fold(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

func (r *Registry) hasRegion(id string) bool {
	_, ok := r.regions[id]
	return ok
}

func (r *Registry) hasNation(id string) bool {
	_, ok := r.nations[id]
	return ok
}

func (r *Registry) hasDiocese(id string) bool {
	_, ok := r.dioceses[id]
	return ok
}

// WiderRegion returns the wider-region calendar called name.
func (r *Registry) WiderRegion(name string) (patch.WiderRegionCalendar, bool) {
	wr, ok := r.regions[fold(name)]
	return wr, ok
}

// Nation returns the national calendar with the given id, e.g. "US".
func (r *Registry) Nation(id string) (patch.NationalCalendar, bool) {
	nc, ok := r.nations[fold(id)]
	return nc, ok
}

// Diocese returns the diocesan calendar with the given id.
func (r *Registry) Diocese(id string) (patch.DiocesanCalendar, bool) {
	dc, ok := r.dioceses[fold(id)]
	return dc, ok
}

// NationInfo describes one national calendar in an Index.
type NationInfo struct {
	ID          string   `json:"calendar_id" yaml:"calendar_id"`
	WiderRegion string   `json:"wider_region,omitempty" yaml:"wider_region,omitempty"`
	Locales     []string `json:"locales,omitempty" yaml:"locales,omitempty"`
	Dioceses    []string `json:"dioceses,omitempty" yaml:"dioceses,omitempty"`
}

// DioceseInfo describes one diocesan calendar in an Index.
type DioceseInfo struct {
	ID     string `json:"calendar_id" yaml:"calendar_id"`
	Name   string `json:"diocese,omitempty" yaml:"diocese,omitempty"`
	Nation string `json:"nation" yaml:"nation"`
}

// Index lists the available calendars.
type Index struct {
	WiderRegions []string      `json:"wider_regions" yaml:"wider_regions"`
	Nations      []NationInfo  `json:"national_calendars" yaml:"national_calendars"`
	Dioceses     []DioceseInfo `json:"diocesan_calendars" yaml:"diocesan_calendars"`
}

// Index returns the registry contents sorted by id.
func (r *Registry) Index() Index {
	idx := Index{
		WiderRegions: []string{},
		Nations:      []NationInfo{},
		Dioceses:     []DioceseInfo{},
	}
	for _, wr := range r.regions {
		idx.WiderRegions = append(idx.WiderRegions, wr.Name)
	}
	byNation := map[string][]string{}
	for _, dc := range r.dioceses {
		idx.Dioceses = append(idx.Dioceses, DioceseInfo{ID: dc.ID, Name: dc.Name, Nation: dc.Nation})
		byNation[fold(dc.Nation)] = append(byNation[fold(dc.Nation)], dc.ID)
	}
	for key, nc := range r.nations {
		ds := byNation[key]
		sort.Strings(ds)
		idx.Nations = append(idx.Nations, NationInfo{
			ID:          nc.ID,
			WiderRegion: nc.WiderRegion,
			Locales:     nc.Locales,
			Dioceses:    ds,
		})
	}
	sort.Strings(idx.WiderRegions)
	sort.Slice(idx.Nations, func(i, j int) bool { return idx.Nations[i].ID < idx.Nations[j].ID })
	sort.Slice(idx.Dioceses, func(i, j int) bool { return idx.Dioceses[i].ID < idx.Dioceses[j].ID })
	return idx
}

// RequireNation is Nation with an ErrNotFound error.
func (r *Registry) RequireNation(id string) (patch.NationalCalendar, error) {
	if nc, ok := r.Nation(id); ok {
		return nc, nil
	}
	return patch.NationalCalendar{}, fmt.Errorf("%w: nation %q", ErrNotFound, id)
}

// RequireDiocese is Diocese with an ErrNotFound error.
func (r *Registry) RequireDiocese(id string) (patch.DiocesanCalendar, error) {
	if dc, ok := r.Diocese(id); ok {
		return dc, nil
	}
	return patch.DiocesanCalendar{}, fmt.Errorf("%w: diocese %q", ErrNotFound, id)
}
