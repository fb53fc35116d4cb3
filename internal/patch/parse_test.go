package patch

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"litcal/internal/model"
)

const nationalDoc = `{
  "litcal": [
    {
      "liturgical_event": {"event_key": "StKateriTekakwitha", "name": "Saint Kateri Tekakwitha, Virgin", "day": 14, "month": 7, "color": ["white"], "grade": 3, "common": ["Virgins"]},
      "metadata": {"action": "createNew", "since_year": 2013}
    },
    {
      "liturgical_event": {"event_key": "StPaulCross", "day": 20, "month": 10},
      "metadata": {"action": "moveEvent", "since_year": 1970, "missal": "US 2011", "reason": "Saints John de Brebeuf and Isaac Jogues are kept on October 19"}
    },
    {
      "liturgical_event": {"event_key": "StsJohnBrebeufIsaacJogues", "grade": "memorial"},
      "metadata": {"action": "setProperty", "property": "grade", "since_year": 1970}
    },
    {
      "liturgical_event": {"event_key": "StMartha", "name": "Saints Martha, Mary and Lazarus"},
      "metadata": {"action": "setProperty", "property": "name", "since_year": 2021}
    },
    {
      "liturgical_event": {"event_key": "ImmaculateConception", "grade": 6, "name": "Immaculate Conception, Patronal Feastday of the United States"},
      "metadata": {"action": "makePatron", "since_year": 1970, "url": "https://example.org/decree"}
    },
    {
      "liturgical_event": {"event_key": "Broken"},
      "metadata": {"action": "explode", "since_year": 1970}
    },
    {
      "liturgical_event": {"event_key": "OurLadyThursday", "movable": {"anchor": "Pentecost", "weekday": "thursday", "nth": 1}, "color": ["white"], "grade": 5},
      "metadata": {"action": "createNew", "since_year": 2012, "until_year": 2030}
    }
  ],
  "settings": {"epiphany": "SUNDAY_JAN2_JAN8", "ascension": "SUNDAY", "corpus_christi": "SUNDAY"},
  "metadata": {"nation": "US", "locales": ["en_US"], "wider_region": "Americas"}
}`

func TestNewNationalParsesEveryActionInOrder(t *testing.T) {
	var doc NationalDocument
	if err := json.Unmarshal([]byte(nationalDoc), &doc); err != nil {
		t.Fatal(err)
	}
	cal, err := NewNational(doc)
	if err != nil {
		t.Fatal(err)
	}
	if cal.ID != "US" || cal.WiderRegion != "Americas" {
		t.Fatalf("metadata = %+v", cal)
	}
	if cal.Settings.Epiphany != model.EpiphanySundayJan2_8 || cal.Settings.Ascension != model.Sunday || cal.Settings.CorpusChristi != model.Sunday {
		t.Fatalf("settings = %+v", cal.Settings)
	}

	ps := cal.Patches.Patches
	if len(ps) != 6 {
		t.Fatalf("got %d patches, want 6", len(ps))
	}
	if len(cal.Patches.Rejected) != 1 || !errors.Is(cal.Patches.Rejected[0], ErrStructural) {
		t.Fatalf("rejected = %v", cal.Patches.Rejected)
	}

	create, ok := ps[0].(CreateNew)
	if !ok || create.Event.Month != time.July || create.Event.Day != 14 || create.Event.Grade != model.GradeMemorial {
		t.Fatalf("patch 0 = %#v", ps[0])
	}
	if create.Event.Validity == nil || create.Event.Validity.SinceYear != 2013 {
		t.Fatalf("created event validity = %+v", create.Event.Validity)
	}
	move, ok := ps[1].(MoveEvent)
	if !ok || move.Month != time.October || move.Day != 20 || move.Authority != "US 2011" {
		t.Fatalf("patch 1 = %#v", ps[1])
	}
	if g, ok := ps[2].(SetGrade); !ok || g.Grade != model.GradeMemorial {
		t.Fatalf("patch 2 = %#v", ps[2])
	}
	if n, ok := ps[3].(SetName); !ok || n.Name != "Saints Martha, Mary and Lazarus" {
		t.Fatalf("patch 3 = %#v", ps[3])
	}
	if p, ok := ps[4].(MakePatron); !ok || p.Grade != model.GradeSolemnity || p.URL == "" {
		t.Fatalf("patch 4 = %#v", ps[4])
	}
	mov, ok := ps[5].(CreateNew)
	if !ok || mov.Event.Type != model.TypeMovable || mov.Event.Rule.Weekday != time.Thursday || mov.Event.Rule.Nth != 1 {
		t.Fatalf("patch 5 = %#v", ps[5])
	}
	if mov.Meta().AppliesTo(2031) || !mov.Meta().AppliesTo(2030) || mov.Meta().AppliesTo(2011) {
		t.Fatal("validity window not honoured")
	}
}

func TestStructuralErrors(t *testing.T) {
	grade := model.GradeMemorial
	cases := []struct {
		name  string
		entry RawEntry
		field string
	}{
		{"missing key", RawEntry{Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "event_key"},
		{"missing since", RawEntry{Event: RawEvent{EventKey: "X"}, Metadata: RawMetadata{Action: "setProperty", Property: "name"}}, "since_year"},
		{"until not after since", RawEntry{Event: RawEvent{EventKey: "X", Name: "x"}, Metadata: RawMetadata{Action: "setProperty", Property: "name", SinceYear: 2000, UntilYear: 2000}}, "since_year"},
		{"missing action", RawEntry{Event: RawEvent{EventKey: "X"}, Metadata: RawMetadata{SinceYear: 2000}}, "action"},
		{"unknown property", RawEntry{Event: RawEvent{EventKey: "X"}, Metadata: RawMetadata{Action: "setProperty", Property: "color", SinceYear: 2000}}, "property"},
		{"create without color", RawEntry{Event: RawEvent{EventKey: "X", Month: 1, Day: 2, Grade: &grade}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "color"},
		{"create bad color", RawEntry{Event: RawEvent{EventKey: "X", Month: 1, Day: 2, Grade: &grade, Color: []string{"gold"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "color"},
		{"create without date", RawEntry{Event: RawEvent{EventKey: "X", Grade: &grade, Color: []string{"red"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "date"},
		{"create both dates", RawEntry{Event: RawEvent{EventKey: "X", Month: 1, Day: 2, Movable: &RawMovable{OffsetDays: 3}, Grade: &grade, Color: []string{"red"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "date"},
		{"create bad day", RawEntry{Event: RawEvent{EventKey: "X", Month: 2, Day: 30, Grade: &grade, Color: []string{"red"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "month/day"},
		{"create bad common", RawEntry{Event: RawEvent{EventKey: "X", Month: 2, Day: 3, Grade: &grade, Color: []string{"red"}, Common: []string{"Heroes"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "common"},
		{"move without reason", RawEntry{Event: RawEvent{EventKey: "X", Month: 2, Day: 3}, Metadata: RawMetadata{Action: "moveEvent", Missal: "MR2002", SinceYear: 2002}}, "reason"},
		{"move without missal", RawEntry{Event: RawEvent{EventKey: "X", Month: 2, Day: 3}, Metadata: RawMetadata{Action: "moveEvent", Reason: "r", SinceYear: 2002}}, "missal"},
		{"patron without grade", RawEntry{Event: RawEvent{EventKey: "X"}, Metadata: RawMetadata{Action: "makePatron", SinceYear: 2002}}, "grade"},
		{"movable nth without weekday", RawEntry{Event: RawEvent{EventKey: "X", Movable: &RawMovable{Nth: 1}, Grade: &grade, Color: []string{"red"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2000}}, "movable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps, errs := ParseEntries([]RawEntry{tc.entry}, model.LayerNational)
			if len(ps) != 0 || len(errs) != 1 {
				t.Fatalf("patches=%d errs=%v", len(ps), errs)
			}
			var se *StructuralError
			if !errors.As(errs[0], &se) {
				t.Fatalf("expected *StructuralError, got %T", errs[0])
			}
			if se.Field != tc.field {
				t.Fatalf("field = %q, want %q (%v)", se.Field, tc.field, se)
			}
		})
	}
}

func TestWiderRegionOnlyCreates(t *testing.T) {
	grade := model.GradeOptionalMemorial
	entries := []RawEntry{
		{Event: RawEvent{EventKey: "StJosephAnchieta", Month: 6, Day: 9, Grade: &grade, Color: []string{"white"}, Common: []string{"Pastors:For Missionaries"}}, Metadata: RawMetadata{Action: "createNew", SinceYear: 2015}},
		{Event: RawEvent{EventKey: "StRoseLima", Name: "Patroness"}, Metadata: RawMetadata{Action: "setProperty", Property: "name", SinceYear: 1970}},
	}
	ps, errs := ParseEntries(entries, model.LayerWiderRegion)
	if len(ps) != 1 || len(errs) != 1 {
		t.Fatalf("patches=%d errs=%v", len(ps), errs)
	}
	if ps[0].Action() != ActionCreateNew {
		t.Fatalf("kept %s", ps[0].Action())
	}
}

func TestNewDiocesanNamespacesKeys(t *testing.T) {
	var doc DiocesanDocument
	doc.Metadata.Diocese = "sampletown"
	doc.Metadata.Nation = "US"
	doc.Settings.Ascension = "thursday"
	cal, err := NewDiocesan(doc)
	if err != nil {
		t.Fatal(err)
	}
	if cal.Patches.KeyPrefix != "SAMPLETOWN_" {
		t.Fatalf("prefix = %q", cal.Patches.KeyPrefix)
	}
	if cal.Settings.Ascension == nil || *cal.Settings.Ascension != model.Thursday || cal.Settings.Epiphany != nil {
		t.Fatalf("override = %+v", cal.Settings)
	}

	doc.Settings.Ascension = "friday"
	if _, err := NewDiocesan(doc); err == nil {
		t.Fatal("expected invalid settings error")
	}
	doc.Metadata.Nation = ""
	if _, err := NewDiocesan(doc); err == nil {
		t.Fatal("expected missing nation error")
	}
}
