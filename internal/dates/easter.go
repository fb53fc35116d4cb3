// Package dates computes Easter under the Gregorian and Julian computus and
// derives every Easter-dependent and Sunday-bound date of the liturgical
// year. All functions are pure; dates are UTC midnight.
package dates

import (
	"time"

	"litcal/internal/model"
)

// CalendarSystem selects the computus and the civil calendar the result is
// expressed in.
type CalendarSystem int

const (
	// Gregorian is the Gregorian computus on the Gregorian civil calendar.
	Gregorian CalendarSystem = iota
	// Julian is the Julian computus expressed as a Julian civil date.
	Julian
	// WesternJulian is the Julian computus converted to the Gregorian civil
	// calendar (the date Eastern churches celebrate on a Western calendar).
	WesternJulian
)

func (s CalendarSystem) String() string {
	switch s {
	case Julian:
		return "julian"
	case WesternJulian:
		return "western_julian"
	default:
		return "gregorian"
	}
}

// Easter returns Easter Sunday for year under the given calendar system.
func Easter(year int, system CalendarSystem) time.Time {
	switch system {
	case Julian:
		return julianEaster(year)
	case WesternJulian:
		return julianEaster(year).AddDate(0, 0, julianOffset(year))
	default:
		return gregorianEaster(year)
	}
}

// gregorianEaster uses the Meeus/Jones/Butcher algorithm.
func gregorianEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return model.Day(year, time.Month(month), day)
}

// julianEaster uses the Meeus Julian algorithm. The returned value carries
// the Julian calendar's month and day; it is not a Gregorian civil date.
func julianEaster(year int) time.Time {
	a := year % 4
	b := year % 7
	c := year % 19
	d := (19*c + 15) % 30
	e := (2*a + 4*b - d + 34) % 7
	month := (d + e + 114) / 31
	day := ((d + e + 114) % 31) + 1
	return model.Day(year, time.Month(month), day)
}

// julianOffset is the number of days the Gregorian calendar runs ahead of
// the Julian one during March-May of year.
func julianOffset(year int) int {
	return year/100 - year/400 - 2
}

// Coinciding reports whether Gregorian and Julian Easter fall on the same
// civil date in year.
func Coinciding(year int) bool {
	return Easter(year, Gregorian).Equal(Easter(year, WesternJulian))
}

// LastCoincidence returns the most recent year strictly before the given
// year in which both Easters coincided, together with the shared date.
// ok is false when no coincidence exists back to 1583.
func LastCoincidence(before int) (year int, date time.Time, ok bool) {
	for y := before - 1; y >= 1583; y-- {
		if Coinciding(y) {
			return y, Easter(y, Gregorian), true
		}
	}
	return 0, time.Time{}, false
}

// EasterInfo bundles the three Easter computations for one year.
type EasterInfo struct {
	Year          int       `json:"year"`
	Gregorian     time.Time `json:"gregorian"`
	Julian        time.Time `json:"julian"`
	WesternJulian time.Time `json:"western_julian"`
	Coinciding    bool      `json:"coinciding"`
}

// EasterFor computes every Easter variant for year.
func EasterFor(year int) EasterInfo {
	g := Easter(year, Gregorian)
	wj := Easter(year, WesternJulian)
	return EasterInfo{
		Year:          year,
		Gregorian:     g,
		Julian:        Easter(year, Julian),
		WesternJulian: wj,
		Coinciding:    g.Equal(wj),
	}
}
