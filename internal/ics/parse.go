package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"litcal/internal/model"
)

// Entry is one all-day VEVENT read back from a feed.
type Entry struct {
	UID      string
	EventKey string
	Summary  string
	Grade    string
	Date     time.Time
	AllDay   bool
}

// Parse reads the VEVENTs of an iCalendar feed. Events without a UID or
// start date are rejected; the feed is expected to be one Export wrote.
func Parse(r io.Reader) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}
	var out []Entry
	for _, ve := range cal.Events() {
		e, err := parseVEvent(ve)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("parse ics: VEVENT without UID")
	}
	out.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(PropertyEventKey); p != nil {
		out.EventKey = p.Value
	}
	if p := ve.GetProperty(PropertyGrade); p != nil {
		out.Grade = p.Value
	}

	// VALUE=DATE or a value without a time part is an all-day start.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
	}
	var (
		start time.Time
		err   error
	)
	if out.AllDay {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, fmt.Errorf("parse ics: %s: %w", out.UID, err)
	}
	out.Date = model.Day(start.Year(), start.Month(), start.Day())
	return out, nil
}
