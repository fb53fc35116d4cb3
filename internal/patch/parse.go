package patch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"litcal/internal/model"
)

// ParseEntries converts document entries into typed patches, preserving
// declaration order. A malformed entry is rejected on its own and does not
// stop the others from parsing. Wider-region documents may only create.
func ParseEntries(entries []RawEntry, layer model.Layer) ([]Patch, []error) {
	patches := make([]Patch, 0, len(entries))
	var rejected []error
	for i, e := range entries {
		p, err := parseEntry(i, e, layer)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		patches = append(patches, p)
	}
	return patches, rejected
}

func parseEntry(i int, e RawEntry, layer model.Layer) (Patch, error) {
	key := strings.TrimSpace(e.Event.EventKey)
	action := strings.TrimSpace(e.Metadata.Action)
	fail := func(field, msg string) error {
		return &StructuralError{Index: i, Action: action, EventKey: key, Field: field, Msg: msg}
	}

	if key == "" {
		return nil, fail("event_key", "is required")
	}
	meta := Metadata{
		Validity: model.Validity{
			SinceYear: e.Metadata.SinceYear,
			UntilYear: e.Metadata.UntilYear,
		},
		Authority: firstNonEmpty(e.Metadata.Missal, e.Metadata.Decree),
		Reason:    strings.TrimSpace(e.Metadata.Reason),
		URL:       strings.TrimSpace(e.Metadata.URL),
		Index:     i,
	}
	if err := meta.Validity.Validate(); err != nil {
		return nil, fail("since_year", err.Error())
	}
	if layer == model.LayerWiderRegion && Action(action) != ActionCreateNew {
		return nil, fail("action", "wider region calendars may only use "+string(ActionCreateNew))
	}

	switch Action(action) {
	case ActionCreateNew:
		return parseCreateNew(e.Event, key, meta, fail)

	case ActionMoveEvent:
		month, day, err := fixedDate(e.Event.Month, e.Event.Day)
		if err != nil {
			return nil, fail("month/day", err.Error())
		}
		if meta.Authority == "" {
			return nil, fail("missal", "moveEvent requires the authorizing missal or decree")
		}
		if meta.Reason == "" {
			return nil, fail("reason", "moveEvent requires a reason")
		}
		return MoveEvent{Metadata: meta, EventKey: key, Month: month, Day: day}, nil

	case ActionSetProperty:
		switch Property(strings.TrimSpace(e.Metadata.Property)) {
		case PropertyName:
			name := strings.TrimSpace(e.Event.Name)
			if name == "" {
				return nil, fail("name", "setProperty name requires a name")
			}
			return SetName{Metadata: meta, EventKey: key, Name: name}, nil
		case PropertyGrade:
			if e.Event.Grade == nil || !e.Event.Grade.Valid() {
				return nil, fail("grade", "setProperty grade requires a valid grade")
			}
			return SetGrade{Metadata: meta, EventKey: key, Grade: *e.Event.Grade}, nil
		default:
			return nil, fail("property", "must be \"name\" or \"grade\", got \""+e.Metadata.Property+"\"")
		}

	case ActionMakePatron:
		if e.Event.Grade == nil || !e.Event.Grade.Valid() {
			return nil, fail("grade", "makePatron requires a valid grade")
		}
		return MakePatron{
			Metadata: meta,
			EventKey: key,
			Grade:    *e.Event.Grade,
			Name:     strings.TrimSpace(e.Event.Name),
		}, nil

	case "":
		return nil, fail("action", "is required")
	default:
		return nil, fail("action", "unknown action \""+action+"\"")
	}
}

func parseCreateNew(raw RawEvent, key string, meta Metadata, fail func(field, msg string) error) (Patch, error) {
	if raw.Grade == nil || !raw.Grade.Valid() {
		return nil, fail("grade", "createNew requires a valid grade")
	}
	colors, err := model.ParseColors(raw.Color)
	if err != nil {
		return nil, fail("color", err.Error())
	}
	commons, err := model.ParseCommons(raw.Common)
	if err != nil {
		return nil, fail("common", err.Error())
	}

	ev := model.LiturgicalEvent{
		Key:      key,
		Name:     strings.TrimSpace(raw.Name),
		Grade:    *raw.Grade,
		Colors:   colors,
		Common:   commons,
		Validity: &model.Validity{SinceYear: meta.Validity.SinceYear, UntilYear: meta.Validity.UntilYear},
	}

	hasFixed := raw.Month != 0 || raw.Day != 0
	switch {
	case hasFixed && raw.Movable != nil:
		return nil, fail("date", "give either month/day or movable, not both")
	case raw.Movable != nil:
		rule, err := movableRule(*raw.Movable)
		if err != nil {
			return nil, fail("movable", err.Error())
		}
		ev.Type = model.TypeMovable
		ev.Rule = &rule
	case hasFixed:
		month, day, err := fixedDate(raw.Month, raw.Day)
		if err != nil {
			return nil, fail("month/day", err.Error())
		}
		ev.Type = model.TypeFixed
		ev.Month = month
		ev.Day = day
	default:
		return nil, fail("date", "createNew requires month/day or a movable rule")
	}
	return CreateNew{Metadata: meta, Event: ev}, nil
}

// fixedDate validates a month/day pair against a leap year so February 29
// is accepted.
func fixedDate(month, day int) (time.Month, int, error) {
	if month < 1 || month > 12 {
		return 0, 0, errors.New("month must be between 1 and 12")
	}
	last := time.Date(2024, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day < 1 || day > last {
		return 0, 0, errors.New("day out of range for month")
	}
	return time.Month(month), day, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func movableRule(raw RawMovable) (model.MovableRule, error) {
	rule := model.MovableRule{
		Anchor:     strings.TrimSpace(raw.Anchor),
		OffsetDays: raw.OffsetDays,
		Nth:        raw.Nth,
	}
	if rule.Anchor == "" {
		rule.Anchor = model.EasterAnchor
	}
	wd := strings.ToLower(strings.TrimSpace(raw.Weekday))
	switch {
	case raw.Nth != 0 && wd == "":
		return rule, errors.New("nth requires a weekday")
	case raw.Nth != 0 && raw.OffsetDays != 0:
		return rule, errors.New("give either offset_days or weekday/nth, not both")
	case wd != "":
		d, ok := weekdays[wd]
		if !ok {
			return rule, fmt.Errorf("unknown weekday %q", raw.Weekday)
		}
		if raw.Nth == 0 {
			return rule, errors.New("weekday requires a non-zero nth")
		}
		rule.Weekday = d
	}
	return rule, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
