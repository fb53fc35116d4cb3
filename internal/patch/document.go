package patch

import (
	"fmt"
	"strings"

	"litcal/internal/model"
)

// RawEvent is the liturgical_event object of a document entry.
type RawEvent struct {
	EventKey string       `json:"event_key" yaml:"event_key"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Day      int          `json:"day,omitempty" yaml:"day,omitempty"`
	Month    int          `json:"month,omitempty" yaml:"month,omitempty"`
	Movable  *RawMovable  `json:"movable,omitempty" yaml:"movable,omitempty"`
	Color    []string     `json:"color,omitempty" yaml:"color,omitempty"`
	Grade    *model.Grade `json:"grade,omitempty" yaml:"grade,omitempty"`
	Common   []string     `json:"common,omitempty" yaml:"common,omitempty"`
}

// RawMovable is the date rule of a movable CreateNew entry.
type RawMovable struct {
	Anchor     string `json:"anchor" yaml:"anchor"`
	OffsetDays int    `json:"offset_days,omitempty" yaml:"offset_days,omitempty"`
	Weekday    string `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	Nth        int    `json:"nth,omitempty" yaml:"nth,omitempty"`
}

// RawMetadata is the metadata object of a document entry.
type RawMetadata struct {
	Action    string `json:"action" yaml:"action"`
	Property  string `json:"property,omitempty" yaml:"property,omitempty"`
	SinceYear int    `json:"since_year" yaml:"since_year"`
	UntilYear int    `json:"until_year,omitempty" yaml:"until_year,omitempty"`
	Missal    string `json:"missal,omitempty" yaml:"missal,omitempty"`
	Decree    string `json:"decree,omitempty" yaml:"decree,omitempty"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
}

// RawEntry is one element of a document's litcal array.
type RawEntry struct {
	Event    RawEvent    `json:"liturgical_event" yaml:"liturgical_event"`
	Metadata RawMetadata `json:"metadata" yaml:"metadata"`
}

// RawSettings is the settings object of national and diocesan documents.
// Empty fields mean "inherit".
type RawSettings struct {
	Epiphany          string `json:"epiphany,omitempty"`
	Ascension         string `json:"ascension,omitempty"`
	CorpusChristi     string `json:"corpus_christi,omitempty"`
	EternalHighPriest *bool  `json:"eternal_high_priest,omitempty"`
}

// Override converts the raw settings into a validated override.
func (r RawSettings) Override() (model.SettingsOverride, error) {
	var o model.SettingsOverride
	if strings.TrimSpace(r.Epiphany) != "" {
		v, err := model.ParseEpiphany(r.Epiphany)
		if err != nil {
			return o, err
		}
		o.Epiphany = &v
	}
	if strings.TrimSpace(r.Ascension) != "" {
		v, err := model.ParseFeastDay(r.Ascension)
		if err != nil {
			return o, fmt.Errorf("ascension: %w", err)
		}
		o.Ascension = &v
	}
	if strings.TrimSpace(r.CorpusChristi) != "" {
		v, err := model.ParseFeastDay(r.CorpusChristi)
		if err != nil {
			return o, fmt.Errorf("corpus_christi: %w", err)
		}
		o.CorpusChristi = &v
	}
	o.EternalHighPriest = r.EternalHighPriest
	return o, nil
}

// NationalDocument is a national calendar as stored on disk.
type NationalDocument struct {
	Litcal   []RawEntry  `json:"litcal"`
	Settings RawSettings `json:"settings"`
	Metadata struct {
		Nation      string   `json:"nation"`
		Locales     []string `json:"locales"`
		WiderRegion string   `json:"wider_region,omitempty"`
		Missals     []string `json:"missals,omitempty"`
	} `json:"metadata"`
}

// DiocesanDocument is a diocesan calendar as stored on disk.
type DiocesanDocument struct {
	Litcal   []RawEntry  `json:"litcal"`
	Settings RawSettings `json:"settings"`
	Metadata struct {
		Diocese     string   `json:"diocese"`
		DioceseName string   `json:"diocese_name,omitempty"`
		Nation      string   `json:"nation"`
		Locales     []string `json:"locales,omitempty"`
	} `json:"metadata"`
}

// WiderRegionDocument is a wider-region calendar as stored on disk.
type WiderRegionDocument struct {
	Litcal   []RawEntry `json:"litcal"`
	Metadata struct {
		WiderRegion string   `json:"wider_region"`
		Locales     []string `json:"locales,omitempty"`
	} `json:"metadata"`
}

// NationalCalendar is the typed form of a NationalDocument.
type NationalCalendar struct {
	ID          string
	WiderRegion string
	Locales     []string
	Missals     []string
	Settings    model.Settings
	Patches     Set
}

// DiocesanCalendar is the typed form of a DiocesanDocument.
type DiocesanCalendar struct {
	ID       string
	Name     string
	Nation   string
	Locales  []string
	Settings model.SettingsOverride
	Patches  Set
}

// WiderRegionCalendar is the typed form of a WiderRegionDocument.
type WiderRegionCalendar struct {
	Name    string
	Locales []string
	Patches Set
}

// NewNational validates a national document. Settings missing from the
// document fall back to the General Roman Calendar defaults. Malformed
// entries are recorded in Patches.Rejected; only document-level problems
// return an error.
func NewNational(doc NationalDocument) (NationalCalendar, error) {
	id := strings.TrimSpace(doc.Metadata.Nation)
	if id == "" {
		return NationalCalendar{}, fmt.Errorf("national calendar: metadata.nation is required")
	}
	o, err := doc.Settings.Override()
	if err != nil {
		return NationalCalendar{}, fmt.Errorf("national calendar %s: settings: %w", id, err)
	}
	patches, rejected := ParseEntries(doc.Litcal, model.LayerNational)
	return NationalCalendar{
		ID:          id,
		WiderRegion: strings.TrimSpace(doc.Metadata.WiderRegion),
		Locales:     doc.Metadata.Locales,
		Missals:     doc.Metadata.Missals,
		Settings:    model.DefaultSettings().With(o),
		Patches: Set{
			Layer:    model.LayerNational,
			Source:   id,
			Patches:  patches,
			Rejected: rejected,
		},
	}, nil
}

// NewDiocesan validates a diocesan document. Keys created by the diocese
// are namespaced with "<DIOCESE>_".
func NewDiocesan(doc DiocesanDocument) (DiocesanCalendar, error) {
	id := strings.TrimSpace(doc.Metadata.Diocese)
	if id == "" {
		return DiocesanCalendar{}, fmt.Errorf("diocesan calendar: metadata.diocese is required")
	}
	nation := strings.TrimSpace(doc.Metadata.Nation)
	if nation == "" {
		return DiocesanCalendar{}, fmt.Errorf("diocesan calendar %s: metadata.nation is required", id)
	}
	o, err := doc.Settings.Override()
	if err != nil {
		return DiocesanCalendar{}, fmt.Errorf("diocesan calendar %s: settings: %w", id, err)
	}
	patches, rejected := ParseEntries(doc.Litcal, model.LayerDiocesan)
	return DiocesanCalendar{
		ID:       id,
		Name:     doc.Metadata.DioceseName,
		Nation:   nation,
		Locales:  doc.Metadata.Locales,
		Settings: o,
		Patches: Set{
			Layer:     model.LayerDiocesan,
			Source:    id,
			KeyPrefix: DiocesanPrefix(id),
			Patches:   patches,
			Rejected:  rejected,
		},
	}, nil
}

// NewWiderRegion validates a wider-region document; only createNew entries
// are accepted.
func NewWiderRegion(doc WiderRegionDocument) (WiderRegionCalendar, error) {
	name := strings.TrimSpace(doc.Metadata.WiderRegion)
	if name == "" {
		return WiderRegionCalendar{}, fmt.Errorf("wider region calendar: metadata.wider_region is required")
	}
	patches, rejected := ParseEntries(doc.Litcal, model.LayerWiderRegion)
	return WiderRegionCalendar{
		Name:    name,
		Locales: doc.Metadata.Locales,
		Patches: Set{
			Layer:    model.LayerWiderRegion,
			Source:   name,
			Patches:  patches,
			Rejected: rejected,
		},
	}, nil
}

// DiocesanPrefix is the namespace for keys a diocese creates.
func DiocesanPrefix(id string) string {
	return strings.ToUpper(strings.TrimSpace(id)) + "_"
}
