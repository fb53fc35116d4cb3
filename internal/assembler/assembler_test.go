package assembler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"litcal/internal/model"
	"litcal/internal/patch"
	"litcal/internal/precedence"
	"litcal/internal/proprium"
)

type fakeCatalog struct {
	regions  map[string]patch.WiderRegionCalendar
	nations  map[string]patch.NationalCalendar
	dioceses map[string]patch.DiocesanCalendar
}

func (f fakeCatalog) WiderRegion(name string) (patch.WiderRegionCalendar, bool) {
	c, ok := f.regions[name]
	return c, ok
}

func (f fakeCatalog) Nation(id string) (patch.NationalCalendar, bool) {
	c, ok := f.nations[id]
	return c, ok
}

func (f fakeCatalog) Diocese(id string) (patch.DiocesanCalendar, bool) {
	c, ok := f.dioceses[id]
	return c, ok
}

func decode(t *testing.T, name string, v any) {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

func loadCatalog(t *testing.T) fakeCatalog {
	t.Helper()
	var (
		wrDoc  patch.WiderRegionDocument
		natDoc patch.NationalDocument
		dioDoc patch.DiocesanDocument
	)
	decode(t, "americas.json", &wrDoc)
	decode(t, "us.json", &natDoc)
	decode(t, "sampletown.json", &dioDoc)

	wr, err := patch.NewWiderRegion(wrDoc)
	if err != nil {
		t.Fatal(err)
	}
	nat, err := patch.NewNational(natDoc)
	if err != nil {
		t.Fatal(err)
	}
	dio, err := patch.NewDiocesan(dioDoc)
	if err != nil {
		t.Fatal(err)
	}
	return fakeCatalog{
		regions:  map[string]patch.WiderRegionCalendar{wr.Name: wr},
		nations:  map[string]patch.NationalCalendar{nat.ID: nat},
		dioceses: map[string]patch.DiocesanCalendar{dio.ID: dio},
	}
}

func newAssembler(t *testing.T, opts ...Option) *Assembler {
	t.Helper()
	p, err := proprium.Load()
	if err != nil {
		t.Fatal(err)
	}
	return New(p, opts...)
}

func compute(t *testing.T, a *Assembler, year int, scope Scope) Result {
	t.Helper()
	res, err := a.ComputeCalendar(year, scope, "")
	if err != nil {
		t.Fatalf("%d %s: %v", year, scope, err)
	}
	return res
}

func index(res Result) map[string]model.LiturgicalEvent {
	m := make(map[string]model.LiturgicalEvent, len(res.Events))
	for _, ev := range res.Events {
		m[ev.Key] = ev
	}
	return m
}

func outcome(res Result, key string) (precedence.Outcome, bool) {
	for _, o := range res.Outcomes {
		if o.Key == key {
			return o, true
		}
	}
	return precedence.Outcome{}, false
}

func ymd(t time.Time) string { return t.Format("2006-01-02") }

func TestMaryMotherChurchFollowsPentecost(t *testing.T) {
	a := newAssembler(t)

	if _, ok := index(compute(t, a, 2017, General()))["MaryMotherChurch"]; ok {
		t.Error("MaryMotherChurch present before 2018")
	}
	cases := map[int]time.Time{
		2018: model.Day(2018, time.May, 21),
		2019: model.Day(2019, time.June, 10),
		2024: model.Day(2024, time.May, 20),
	}
	for year, want := range cases {
		ev, ok := index(compute(t, a, year, General()))["MaryMotherChurch"]
		if !ok {
			t.Errorf("%d: MaryMotherChurch missing", year)
			continue
		}
		if !ev.Date.Equal(want) || ev.Grade != model.GradeMemorial {
			t.Errorf("%d: MaryMotherChurch on %s grade %s", year, ymd(ev.Date), ev.Grade)
		}
	}
}

func TestJohnBaptistAnticipatedBeforeSacredHeart(t *testing.T) {
	a := newAssembler(t)
	for year := 2015; year <= 2030; year++ {
		res := compute(t, a, year, General())
		evs := index(res)
		jb, ok := evs["NativityJohnBaptist"]
		if !ok {
			t.Fatalf("%d: NativityJohnBaptist missing", year)
		}
		want := model.Day(year, time.June, 24)
		if year == 2022 {
			want = model.Day(year, time.June, 23)
		}
		if !jb.Date.Equal(want) {
			t.Errorf("%d: NativityJohnBaptist on %s, want %s", year, ymd(jb.Date), ymd(want))
		}
	}

	for _, year := range []int{2022, 2033, 2044} {
		res := compute(t, a, year, General())
		evs := index(res)
		if d := evs["NativityJohnBaptist"].Date; !d.Equal(model.Day(year, time.June, 23)) {
			t.Errorf("%d: NativityJohnBaptist on %s", year, ymd(d))
		}
		if d := evs["SacredHeart"].Date; !d.Equal(model.Day(year, time.June, 24)) {
			t.Errorf("%d: SacredHeart on %s", year, ymd(d))
		}
		o, _ := outcome(res, "NativityJohnBaptist")
		if o.State != precedence.StateTransferred || o.By != "SacredHeart" {
			t.Errorf("%d: outcome %+v", year, o)
		}
	}
}

func TestJaneFrancesDeChantalMovedIn2002(t *testing.T) {
	a := newAssembler(t)

	ev, ok := index(compute(t, a, 2001, General()))["StJaneFrancesDeChantal"]
	if !ok || !ev.Date.Equal(model.Day(2001, time.December, 12)) {
		t.Fatalf("2001: StJaneFrancesDeChantal = %+v", ev)
	}
	sundays := map[int]bool{}
	for year := 2002; year <= 2030; year++ {
		res := compute(t, a, year, General())
		ev, ok := index(res)["StJaneFrancesDeChantal"]
		switch {
		case model.Day(year, time.August, 12).Weekday() == time.Sunday:
			sundays[year] = true
			if ok {
				t.Errorf("%d: StJaneFrancesDeChantal kept on %s", year, ymd(ev.Date))
			}
			if o, _ := outcome(res, "StJaneFrancesDeChantal"); o.State != precedence.StateSuppressed {
				t.Errorf("%d: outcome %+v", year, o)
			}
		default:
			if !ok || !ev.Date.Equal(model.Day(year, time.August, 12)) {
				t.Errorf("%d: StJaneFrancesDeChantal = %v %s", year, ok, ymd(ev.Date))
			}
		}
	}
	for _, year := range []int{2007, 2012, 2018, 2029} {
		if !sundays[year] {
			t.Errorf("%d: August 12 should be a Sunday", year)
		}
	}
}

func TestGradeChangeValidity(t *testing.T) {
	a := newAssembler(t)
	if g := index(compute(t, a, 2015, General()))["StMaryMagdalene"].Grade; g != model.GradeMemorial {
		t.Errorf("2015 StMaryMagdalene grade %s", g)
	}
	if g := index(compute(t, a, 2016, General()))["StMaryMagdalene"].Grade; g != model.GradeFeast {
		t.Errorf("2016 StMaryMagdalene grade %s", g)
	}
}

func TestSolemnityTransfers2024(t *testing.T) {
	res := compute(t, newAssembler(t), 2024, General())
	evs := index(res)

	if d := evs["Annunciation"].Date; !d.Equal(model.Day(2024, time.April, 8)) {
		t.Errorf("Annunciation on %s", ymd(d))
	}
	if d := evs["ImmaculateConception"].Date; !d.Equal(model.Day(2024, time.December, 9)) {
		t.Errorf("ImmaculateConception on %s", ymd(d))
	}
	if _, ok := evs["StJuanDiego"]; ok {
		t.Error("StJuanDiego kept on the transfer date")
	}
	o, _ := outcome(res, "StJuanDiego")
	if o.State != precedence.StateSuppressed || o.By != "ImmaculateConception" {
		t.Errorf("StJuanDiego outcome %+v", o)
	}
	o, _ = outcome(res, "ImmaculateConception")
	if o.State != precedence.StateTransferred || o.By != "Advent2" {
		t.Errorf("ImmaculateConception outcome %+v", o)
	}
}

func TestResolvedCalendarInvariants(t *testing.T) {
	a := newAssembler(t, WithCatalog(loadCatalog(t)))
	scopes := []Scope{General(), National("US"), Diocesan("sampletown")}
	for _, scope := range scopes {
		for year := 2000; year <= 2030; year++ {
			res := compute(t, a, year, scope)
			seen := map[string]bool{}
			perDay := map[time.Time][]model.LiturgicalEvent{}
			for _, ev := range res.Events {
				if seen[ev.Key] {
					t.Fatalf("%s %d: duplicate key %s", scope, year, ev.Key)
				}
				seen[ev.Key] = true
				if ev.Date.Year() != year {
					t.Fatalf("%s %d: %s dated %s", scope, year, ev.Key, ymd(ev.Date))
				}
				if ev.Cycle == "" {
					t.Fatalf("%s %d: %s has no cycle", scope, year, ev.Key)
				}
				perDay[ev.Date] = append(perDay[ev.Date], ev)
			}
			for d, evs := range perDay {
				strong := 0
				for _, ev := range evs {
					if ev.Grade >= model.GradeMemorial {
						strong++
					}
				}
				if strong > 1 && !hasTie(res.Diagnostics) {
					t.Errorf("%s %d: %s keeps %d celebrations", scope, year, ymd(d), strong)
				}
			}
			for i := 1; i < len(res.Events); i++ {
				if res.Events[i].Date.Before(res.Events[i-1].Date) {
					t.Fatalf("%s %d: events not in date order", scope, year)
				}
			}
		}
	}
}

func hasTie(diags []model.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind == model.DiagTie {
			return true
		}
	}
	return false
}

func TestComputeIsRepeatable(t *testing.T) {
	a := newAssembler(t, WithCatalog(loadCatalog(t)))
	first := compute(t, a, 2024, Diocesan("sampletown"))
	second := compute(t, a, 2024, Diocesan("sampletown"))
	if first.ComputationID == second.ComputationID {
		t.Error("computation ids should differ between runs")
	}
	if !reflect.DeepEqual(first.Events, second.Events) {
		t.Error("events differ between identical runs")
	}
	if !reflect.DeepEqual(first.Diagnostics, second.Diagnostics) {
		t.Errorf("diagnostics differ:\n%v\n%v", first.Diagnostics, second.Diagnostics)
	}
}

func TestNationalCalendar(t *testing.T) {
	res := compute(t, newAssembler(t, WithCatalog(loadCatalog(t))), 2025, National("US"))
	evs := index(res)

	if res.Scope != "national:US" || res.Settings.Epiphany != model.EpiphanySundayJan2_8 {
		t.Fatalf("scope %q settings %+v", res.Scope, res.Settings)
	}
	if d := evs["Epiphany"].Date; !d.Equal(model.Day(2025, time.January, 5)) {
		t.Errorf("Epiphany on %s", ymd(d))
	}
	if ev := evs["StKateriTekakwitha"]; !ev.Date.Equal(model.Day(2025, time.July, 14)) || ev.Grade != model.GradeMemorial || !ev.Proper {
		t.Errorf("StKateriTekakwitha = %+v", ev)
	}
	if _, ok := evs["StCamillusDeLellis"]; ok {
		t.Error("StCamillusDeLellis should yield to the national memorial")
	}
	if ev := evs["ImmaculateConception"]; ev.Grade != model.GradeSolemnity || ev.Name == "The Immaculate Conception of the Blessed Virgin Mary" {
		t.Errorf("patronal ImmaculateConception = %+v", ev)
	}
	if ev := evs["LadyGuadalupe"]; ev.Grade != model.GradeFeast || !ev.Date.Equal(model.Day(2025, time.December, 12)) {
		t.Errorf("LadyGuadalupe = %+v", ev)
	}
	if d := evs["StPaulCross"].Date; !d.Equal(model.Day(2025, time.October, 20)) {
		t.Errorf("StPaulCross on %s", ymd(d))
	}
	if d := evs["StJosephAnchieta"].Date; !d.Equal(model.Day(2025, time.June, 10)) {
		t.Errorf("StJosephAnchieta on %s", ymd(d))
	}
	if g := evs["StBenedict"].Grade; g != model.GradeMemorial {
		t.Errorf("StBenedict demoted to %s", g)
	}

	want := map[model.DiagnosticKind][]string{
		model.DiagReference:  {"StRoseLima", "DoesNotExist"},
		model.DiagDemotion:   {"StBenedict"},
		model.DiagStructural: {"Broken"},
	}
	got := map[model.DiagnosticKind][]string{}
	for _, d := range res.Diagnostics {
		got[d.Kind] = append(got[d.Kind], d.EventKey)
	}
	for kind, keys := range want {
		if !reflect.DeepEqual(got[kind], keys) {
			t.Errorf("%s diagnostics = %v, want %v", kind, got[kind], keys)
		}
	}

	res24 := compute(t, newAssembler(t, WithCatalog(loadCatalog(t))), 2024, National("US"))
	if g := index(res24)["StsJohnBrebeufIsaacJogues"].Grade; g != model.GradeMemorial {
		t.Errorf("2024 StsJohnBrebeufIsaacJogues grade %s", g)
	}
}

func TestValidityWindowSkipsPatches(t *testing.T) {
	a := newAssembler(t, WithCatalog(loadCatalog(t)))
	evs := index(compute(t, a, 2010, National("US")))
	if _, ok := evs["StKateriTekakwitha"]; ok {
		t.Error("StKateriTekakwitha created before 2013")
	}
	if _, ok := evs["StJosephAnchieta"]; ok {
		t.Error("StJosephAnchieta created before 2015")
	}
}

func TestDiocesanCalendar(t *testing.T) {
	res := compute(t, newAssembler(t, WithCatalog(loadCatalog(t))), 2024, Diocesan("sampletown"))
	evs := index(res)

	ded, ok := evs["SAMPLETOWN_Dedication"]
	if !ok {
		t.Fatal("diocesan event not namespaced")
	}
	if ded.Name != "Dedication of the Cathedral of Saint Patrick" || !ded.Date.Equal(model.Day(2024, time.September, 5)) {
		t.Errorf("dedication = %+v", ded)
	}
	if _, ok := evs["Dedication"]; ok {
		t.Error("unprefixed diocesan key leaked")
	}

	// March 17 2024 is the Fifth Sunday of Lent.
	pat := evs["StPatrick"]
	if pat.Grade != model.GradeSolemnity || !pat.Date.Equal(model.Day(2024, time.March, 18)) {
		t.Errorf("StPatrick = %s on %s", pat.Grade, ymd(pat.Date))
	}
	if o, _ := outcome(res, "StPatrick"); o.State != precedence.StateTransferred || o.By != "Lent5" {
		t.Errorf("StPatrick outcome %+v", o)
	}

	if d := evs["Ascension"].Date; !d.Equal(model.Day(2024, time.May, 12)) {
		t.Errorf("diocesan Ascension on %s", ymd(d))
	}
	if res.Settings.Epiphany != model.EpiphanySundayJan2_8 {
		t.Errorf("diocese should inherit the national Epiphany setting, got %s", res.Settings.Epiphany)
	}
}

func TestScopeAndYearErrors(t *testing.T) {
	a := newAssembler(t, WithCatalog(loadCatalog(t)))
	if _, err := a.ComputeCalendar(1969, General(), ""); !errors.Is(err, ErrYearRange) {
		t.Errorf("1969: %v", err)
	}
	if _, err := a.ComputeCalendar(10000, General(), ""); !errors.Is(err, ErrYearRange) {
		t.Errorf("10000: %v", err)
	}
	if _, err := a.ComputeCalendar(2024, National("ZZ"), ""); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("ZZ: %v", err)
	}
	if _, err := a.ComputeCalendar(2024, Diocesan("nowhere"), ""); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("nowhere: %v", err)
	}
	if _, err := newAssembler(t).ComputeCalendar(2024, National("US"), ""); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("no catalog: %v", err)
	}
}

func TestMissingWiderRegionIsReported(t *testing.T) {
	cat := loadCatalog(t)
	cat.regions = nil
	res := compute(t, newAssembler(t, WithCatalog(cat)), 2025, National("US"))
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == model.DiagReference && d.Layer == model.LayerWiderRegion && d.Source == "Americas" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no diagnostic for the missing wider region: %v", res.Diagnostics)
	}
	if _, ok := index(res)["StKateriTekakwitha"]; !ok {
		t.Error("national patches should still apply")
	}
}

type mapLocalizer map[string]string

func (m mapLocalizer) Lookup(locale, key string, args ...any) (string, bool) {
	if locale != "it" {
		return "", false
	}
	tmpl, ok := m[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(tmpl, args...), true
}

func TestLocalizedNames(t *testing.T) {
	loc := mapLocalizer{
		"Advent1":          "I Domenica di Avvento",
		"MaryMotherChurch": "Beata Vergine Maria Madre della Chiesa",
	}
	a := newAssembler(t, WithLocalizer(loc))

	res, err := a.ComputeCalendar(2024, General(), "it")
	if err != nil {
		t.Fatal(err)
	}
	evs := index(res)
	if n := evs["Advent1"].Name; n != "I Domenica di Avvento" {
		t.Errorf("Advent1 = %q", n)
	}
	if n := evs["MaryMotherChurch"].Name; n != "Beata Vergine Maria Madre della Chiesa" {
		t.Errorf("MaryMotherChurch = %q", n)
	}
	if n := evs["StNicholas"].Name; n != "Saint Nicholas, Bishop" {
		t.Errorf("untranslated name = %q", n)
	}
	if res.Locale != "it" {
		t.Errorf("locale = %q", res.Locale)
	}
}

func TestApplyPatchesLeavesBaseUntouched(t *testing.T) {
	p, err := proprium.Load()
	if err != nil {
		t.Fatal(err)
	}
	base, err := p.Base(2025, model.DefaultSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	before := base.Sorted()

	cat := loadCatalog(t)
	out, diags := ApplyPatches(base, cat.nations["US"].Patches, 2025)
	if !reflect.DeepEqual(before, base.Sorted()) {
		t.Fatal("ApplyPatches mutated its input")
	}
	if ev, _ := out.Get("StPaulCross"); !ev.Date.Equal(model.Day(2025, time.October, 20)) {
		t.Errorf("StPaulCross on %s", ymd(ev.Date))
	}
	// The wider region did not run, so the national move has no target.
	var missing []string
	for _, d := range diags {
		if d.Kind == model.DiagReference {
			missing = append(missing, d.EventKey)
		}
	}
	if !reflect.DeepEqual(missing, []string{"LadyGuadalupe", "StJosephAnchieta", "DoesNotExist"}) {
		t.Errorf("reference diagnostics = %v", missing)
	}
}

func TestMoveToLeapDay(t *testing.T) {
	p, err := proprium.Load()
	if err != nil {
		t.Fatal(err)
	}
	set := patch.Set{
		Layer:  model.LayerNational,
		Source: "XX",
		Patches: []patch.Patch{patch.MoveEvent{
			Metadata: patch.Metadata{Validity: model.Validity{SinceYear: 2000}},
			EventKey: "StNicholas",
			Month:    time.February,
			Day:      29,
		}},
	}

	for _, tc := range []struct {
		year int
		want time.Time
	}{
		{2024, model.Day(2024, time.February, 29)},
		{2025, time.Time{}},
	} {
		base, err := p.Base(tc.year, model.DefaultSettings(), nil)
		if err != nil {
			t.Fatal(err)
		}
		out, diags := ApplyPatches(base, set, tc.year)
		if len(diags) != 0 {
			t.Errorf("%d: diagnostics %v", tc.year, diags)
		}
		ev, ok := out.Get("StNicholas")
		if tc.want.IsZero() {
			if ok {
				t.Errorf("%d: StNicholas kept on %s", tc.year, ymd(ev.Date))
			}
			continue
		}
		if !ok || !ev.Date.Equal(tc.want) || ev.Month != time.February || ev.Day != 29 {
			t.Errorf("%d: StNicholas = %+v", tc.year, ev)
		}
	}
}
