package proprium

import (
	"fmt"
	"time"

	"litcal/internal/dates"
	"litcal/internal/model"
)

// Namer returns the localized text for a catalog key with args formatted
// into it. ok is false when the catalog has no entry for key.
type Namer func(key string, args ...any) (string, bool)

func (n Namer) text(key string, args ...any) string {
	return n.family(key, key, args...)
}

// family renders template tmpl, falling back to the event key.
func (n Namer) family(fallback, tmpl string, args ...any) string {
	if n != nil {
		if s, ok := n(tmpl, args...); ok {
			return s
		}
	}
	return fallback
}

type option func(*model.LiturgicalEvent)

// fixedOn marks a celebration tied to its civil date.
func fixedOn(ev *model.LiturgicalEvent) {
	ev.Type = model.TypeFixed
	ev.Month = ev.Date.Month()
	ev.Day = ev.Date.Day()
}

// easter attaches the Easter-relative rule that dates the celebration.
func easter(offset int) option {
	return func(ev *model.LiturgicalEvent) {
		ev.Rule = &model.MovableRule{Anchor: model.EasterAnchor, OffsetDays: offset}
	}
}

func ranked(r model.Rank) option {
	return func(ev *model.LiturgicalEvent) { ev.Rank = r }
}

func privileged(ev *model.LiturgicalEvent) { ev.Privileged = true }

type temporale struct {
	year   int
	s      model.Settings
	name   Namer
	events []model.LiturgicalEvent
	taken  map[time.Time]bool

	easter    time.Time
	baptism   time.Time
	ashWed    time.Time
	pentecost time.Time
	christKng time.Time
	advent1   time.Time
}

// Temporale builds the Proprium de Tempore of one civil year: the
// Christmas and Easter cycles, the Sundays of Ordinary Time and a weekday
// for every remaining day.
func Temporale(year int, s model.Settings, name Namer) []model.LiturgicalEvent {
	t := &temporale{
		year:      year,
		s:         s,
		name:      name,
		taken:     make(map[time.Time]bool, 128),
		easter:    dates.Easter(year, dates.Gregorian),
		baptism:   dates.BaptismOfTheLord(year, s.Epiphany),
		ashWed:    dates.FromEaster(year, dates.OffsetAshWednesday),
		pentecost: dates.FromEaster(year, dates.OffsetPentecost),
		christKng: dates.ChristTheKing(year),
		advent1:   dates.Advent1(year),
	}
	t.christmasCycle()
	t.easterCycle()
	t.ordinarySundays()
	t.weekdays()
	return t.events
}

func (t *temporale) add(key string, d time.Time, g model.Grade, colors []model.Color, opts ...option) {
	ev := model.LiturgicalEvent{
		Key:    key,
		Name:   t.name.text(key),
		Date:   d,
		Grade:  g,
		Colors: colors,
		Common: []model.Common{model.CommonProper},
		Type:   model.TypeMovable,
		Sunday: d.Weekday() == time.Sunday,
	}
	for _, o := range opts {
		o(&ev)
	}
	t.events = append(t.events, ev)
	t.taken[d] = true
}

var (
	white      = []model.Color{model.ColorWhite}
	red        = []model.Color{model.ColorRed}
	green      = []model.Color{model.ColorGreen}
	purple     = []model.Color{model.ColorPurple}
	pinkPurple = []model.Color{model.ColorPink, model.ColorPurple}
)

func (t *temporale) christmasCycle() {
	y := t.year
	for i := 1; i <= 4; i++ {
		colors := purple
		if i == 3 {
			colors = pinkPurple
		}
		t.add(fmt.Sprintf("Advent%d", i), t.advent1.AddDate(0, 0, 7*(i-1)), model.GradeHigherSolemnity, colors)
	}
	t.add("Christmas", model.Day(y, time.December, 25), model.GradeHigherSolemnity, white, fixedOn)
	t.add("HolyFamily", dates.HolyFamily(y), model.GradeFeastOfTheLord, white)

	t.add("MotherGod", model.Day(y, time.January, 1), model.GradeSolemnity, white, fixedOn)
	if d, ok := dates.SecondSundayAfterChristmas(y, t.s.Epiphany); ok {
		t.add("Christmas2", d, model.GradeFeastOfTheLord, white, ranked(model.RankOrdinarySunday))
	}
	epiphany := []option(nil)
	if t.s.Epiphany == model.EpiphanyJan6 {
		epiphany = append(epiphany, fixedOn)
	}
	t.add("Epiphany", dates.Epiphany(y, t.s.Epiphany), model.GradeHigherSolemnity, white, epiphany...)
	t.add("BaptismLord", t.baptism, model.GradeFeastOfTheLord, white)
}

func (t *temporale) easterCycle() {
	y := t.year
	at := func(offset int) time.Time { return dates.FromEaster(y, offset) }

	t.add("AshWednesday", t.ashWed, model.GradeHigherSolemnity, purple, easter(dates.OffsetAshWednesday))
	for i := 1; i <= 5; i++ {
		colors := purple
		if i == 4 {
			colors = pinkPurple
		}
		off := -42 + 7*(i-1)
		t.add(fmt.Sprintf("Lent%d", i), at(off), model.GradeHigherSolemnity, colors, easter(off))
	}
	t.add("PalmSun", at(dates.OffsetPalmSunday), model.GradeHigherSolemnity, red, easter(dates.OffsetPalmSunday))
	for i, key := range []string{"MonHolyWeek", "TueHolyWeek", "WedHolyWeek"} {
		off := dates.OffsetPalmSunday + 1 + i
		t.add(key, at(off), model.GradeHigherSolemnity, purple, easter(off))
	}

	triduum := ranked(model.RankTriduum)
	t.add("HolyThurs", at(dates.OffsetHolyThursday), model.GradeHigherSolemnity, white, easter(dates.OffsetHolyThursday), triduum)
	t.add("GoodFri", at(dates.OffsetGoodFriday), model.GradeHigherSolemnity, red, easter(dates.OffsetGoodFriday), triduum)
	t.add("EasterVigil", at(dates.OffsetHolySaturday), model.GradeHigherSolemnity, white, easter(dates.OffsetHolySaturday), triduum)
	t.add("Easter", t.easter, model.GradeHigherSolemnity, white, easter(0), triduum)

	for i, key := range []string{"MonOctaveEaster", "TueOctaveEaster", "WedOctaveEaster", "ThuOctaveEaster", "FriOctaveEaster", "SatOctaveEaster"} {
		t.add(key, at(i+1), model.GradeHigherSolemnity, white, easter(i+1))
	}
	for i := 2; i <= 7; i++ {
		if i == 7 && t.s.Ascension == model.Sunday {
			continue
		}
		off := 7 * (i - 1)
		t.add(fmt.Sprintf("Easter%d", i), at(off), model.GradeHigherSolemnity, white, easter(off))
	}

	ascension := dates.OffsetAscension
	if t.s.Ascension == model.Sunday {
		ascension = dates.OffsetAscensionSunday
	}
	t.add("Ascension", at(ascension), model.GradeHigherSolemnity, white, easter(ascension))
	t.add("Pentecost", t.pentecost, model.GradeHigherSolemnity, red, easter(dates.OffsetPentecost))
	if t.s.EternalHighPriest {
		t.add("JesusChristEternalHighPriest", at(dates.OffsetEternalHighPriest), model.GradeFeastOfTheLord, white, easter(dates.OffsetEternalHighPriest))
	}
	t.add("Trinity", at(dates.OffsetTrinity), model.GradeSolemnity, white, easter(dates.OffsetTrinity))
	corpus := dates.OffsetCorpusChristi
	if t.s.CorpusChristi == model.Sunday {
		corpus = dates.OffsetCorpusChristiSunday
	}
	t.add("CorpusChristi", at(corpus), model.GradeSolemnity, white, easter(corpus))
	t.add("SacredHeart", at(dates.OffsetSacredHeart), model.GradeSolemnity, white, easter(dates.OffsetSacredHeart))
	t.add("ImmaculateHeart", at(dates.OffsetImmaculateHeart), model.GradeMemorial, white, easter(dates.OffsetImmaculateHeart))
	t.add("ChristKing", t.christKng, model.GradeSolemnity, white)
}

// ordinarySundays numbers the Sundays after the Baptism forwards and the
// Sundays after Pentecost backwards from Christ the King (the 34th).
func (t *temporale) ordinarySundays() {
	base := dates.SundayOnOrBefore(t.baptism)
	for _, d := range dates.Sundays(t.baptism.AddDate(0, 0, 1), t.ashWed) {
		n := 1 + dates.DaysBetween(base, d)/7
		t.ordinarySunday(d, n)
	}
	for _, d := range dates.Sundays(t.pentecost.AddDate(0, 0, 1), t.christKng.AddDate(0, 0, -1)) {
		if t.taken[d] {
			continue
		}
		n := 34 - dates.DaysBetween(d, t.christKng)/7
		t.ordinarySunday(d, n)
	}
}

func (t *temporale) ordinarySunday(d time.Time, n int) {
	key := fmt.Sprintf("OrdSunday%d", n)
	t.events = append(t.events, model.LiturgicalEvent{
		Key:    key,
		Name:   t.name.family(key, "sunday.ordinary", t.name.text(ordinalKey(n))),
		Date:   d,
		Grade:  model.GradeFeastOfTheLord,
		Rank:   model.RankOrdinarySunday,
		Colors: green,
		Common: []model.Common{model.CommonProper},
		Type:   model.TypeMovable,
		Sunday: true,
	})
	t.taken[d] = true
}

// weekdays fills every remaining day of the year that is not a Sunday.
func (t *temporale) weekdays() {
	start := model.Day(t.year, time.January, 1)
	end := model.Day(t.year, time.December, 31)
	lent1 := dates.FromEaster(t.year, -42)
	ordBase := dates.SundayOnOrBefore(t.baptism)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if t.taken[d] || d.Weekday() == time.Sunday {
			continue
		}
		day := t.name.text(dayKey(d.Weekday()))
		week := func(from time.Time) int { return 1 + dates.DaysBetween(from, dates.SundayOnOrBefore(d))/7 }

		switch {
		case d.Before(t.baptism):
			key := fmt.Sprintf("ChristmasWeekdayJan%d", d.Day())
			t.weekday(key, t.name.family(key, "weekday.christmas_jan", d.Day()), d, white, false)

		case d.Before(t.ashWed):
			n := week(ordBase)
			key := fmt.Sprintf("OrdWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.ordinary", day, t.name.text(ordinalKey(n))), d, green, false)

		case d.Before(lent1):
			key := d.Weekday().String() + "AfterAshWednesday"
			t.weekday(key, t.name.family(key, "weekday.after_ash_wednesday", day), d, purple, true)

		case d.Before(t.easter):
			n := week(lent1)
			key := fmt.Sprintf("LentWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.lent", day, t.name.text(ordinalKey(n))), d, purple, true)

		case d.Before(t.pentecost):
			n := week(t.easter)
			key := fmt.Sprintf("EasterWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.easter", day, t.name.text(ordinalKey(n))), d, white, false)

		case d.Before(t.advent1):
			n := 34 - dates.DaysBetween(dates.SundayOnOrBefore(d), t.christKng)/7
			key := fmt.Sprintf("OrdWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.ordinary", day, t.name.text(ordinalKey(n))), d, green, false)

		case d.Month() == time.December && d.Day() >= 17 && d.Day() <= 24:
			key := fmt.Sprintf("AdventWeekdayDec%d", d.Day())
			t.weekday(key, t.name.family(key, "weekday.advent_dec", d.Day()), d, purple, true)

		case d.Month() == time.December && d.Day() < 25:
			n := week(t.advent1)
			key := fmt.Sprintf("AdventWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.advent", day, t.name.text(ordinalKey(n))), d, purple, false)

		case d.Month() == time.December && d.Day() > 25:
			key := fmt.Sprintf("ChristmasWeekdayDec%d", d.Day())
			t.weekday(key, t.name.family(key, "weekday.christmas_octave", d.Day()), d, white, true)

		default:
			// Advent weeks before December.
			n := week(t.advent1)
			key := fmt.Sprintf("AdventWeekday%d%s", n, d.Weekday())
			t.weekday(key, t.name.family(key, "weekday.advent", day, t.name.text(ordinalKey(n))), d, purple, false)
		}
	}
}

func (t *temporale) weekday(key, name string, d time.Time, colors []model.Color, priv bool) {
	rank := model.RankWeekday
	if priv {
		rank = model.RankPrivilegedWeekday
	}
	t.events = append(t.events, model.LiturgicalEvent{
		Key:        key,
		Name:       name,
		Date:       d,
		Grade:      model.GradeWeekday,
		Rank:       rank,
		Colors:     colors,
		Type:       model.TypeMovable,
		Privileged: priv,
	})
}

func ordinalKey(n int) string { return fmt.Sprintf("ordinal.%d", n) }

func dayKey(wd time.Weekday) string { return "day." + wd.String() }
