package ics

import (
	"strings"
	"testing"
	"time"

	"litcal/internal/assembler"
	"litcal/internal/model"
)

func sample() assembler.Result {
	return assembler.Result{
		Year:  2024,
		Scope: "national:US",
		Events: []model.LiturgicalEvent{
			{
				Key:    "StNicholas",
				Name:   "Saint Nicholas, Bishop",
				Date:   model.Day(2024, time.December, 6),
				Grade:  model.GradeOptionalMemorial,
				Colors: []model.Color{model.ColorWhite},
				Cycle:  "II",
			},
			{
				Key:    "ImmaculateConception",
				Name:   "The Immaculate Conception; Patronal Feastday, USA",
				Date:   model.Day(2024, time.December, 9),
				Grade:  model.GradeSolemnity,
				Colors: []model.Color{model.ColorWhite},
				Cycle:  "C",
			},
		},
	}
}

func TestExportRoundTrip(t *testing.T) {
	out := Export(sample(), Options{Domain: "example.org"})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"PRODID:" + DefaultProductID,
		"UID:national-us-2024-StNicholas@example.org",
		"DTSTART;VALUE=DATE:20241206",
		"DTEND;VALUE=DATE:20241207",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}

	entries, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	ic := entries[1]
	if ic.EventKey != "ImmaculateConception" || ic.Grade != "solemnity" || !ic.AllDay {
		t.Errorf("entry = %+v", ic)
	}
	if ic.Summary != "The Immaculate Conception; Patronal Feastday, USA" {
		t.Errorf("summary not unescaped: %q", ic.Summary)
	}
	if !ic.Date.Equal(model.Day(2024, time.December, 9)) {
		t.Errorf("date = %s", ic.Date)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	if Export(sample(), Options{}) != Export(sample(), Options{}) {
		t.Fatal("two exports of the same calendar differ")
	}
}

func TestExportUsesLabels(t *testing.T) {
	label := func(key string) string {
		if key == "grade.optional_memorial" {
			return "memoria facoltativa"
		}
		return key
	}
	out := Export(sample(), Options{Label: label})
	if !strings.Contains(out, "CATEGORIES:memoria facoltativa") {
		t.Errorf("label not applied:\n%s", out)
	}
	if !strings.Contains(out, "DESCRIPTION:memoria facoltativa\\, white\\, II") {
		t.Errorf("description:\n%s", out)
	}
}

func TestParseRejectsEventWithoutUID(t *testing.T) {
	feed := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:x\r\nBEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240101\r\nSUMMARY:x\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	if _, err := Parse(strings.NewReader(feed)); err == nil {
		t.Fatal("expected error")
	}
}
