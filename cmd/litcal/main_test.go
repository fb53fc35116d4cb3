package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"litcal/internal/config"
	"litcal/internal/source"
)

func testApp(t *testing.T) *app {
	t.Helper()
	conf := config.DefaultConfig()
	conf.DataDir = filepath.Join("..", "..", "data")
	a, err := newApp(conf)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestComputeFormats(t *testing.T) {
	a := testApp(t)
	cases := map[string]string{
		"json": `"scope": "national:US"`,
		"yaml": "scope: national:US",
		"ics":  "BEGIN:VCALENDAR",
	}
	for format, want := range cases {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			err := a.compute(&buf, flagConfig{year: 2025, nation: "US", format: format})
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output lacks %q:\n%.300s", want, buf.String())
			}
		})
	}
}

func TestComputeLocaleAndScope(t *testing.T) {
	a := testApp(t)
	var buf bytes.Buffer
	if err := a.compute(&buf, flagConfig{year: 2025, diocese: "milano", locale: "it_IT", format: "json"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"locale": "it"`) || !strings.Contains(out, `"scope": "diocesan:milano"`) {
		t.Errorf("output:\n%.300s", out)
	}
}

func TestComputeErrors(t *testing.T) {
	a := testApp(t)
	var buf bytes.Buffer
	if err := a.compute(&buf, flagConfig{year: 2025, nation: "XX", format: "json"}); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("unknown nation: %v", err)
	}
	if err := a.compute(&buf, flagConfig{year: 2025, format: "pdf"}); err == nil {
		t.Error("unknown format accepted")
	}
	if err := a.compute(&buf, flagConfig{year: 1200, format: "json"}); err == nil {
		t.Error("year out of range accepted")
	}
}
