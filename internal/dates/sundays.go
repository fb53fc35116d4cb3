package dates

import (
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// weekly builds a weekly rule on a single weekday. The options are fixed by
// the callers in this package, so an error here is a programming mistake.
func weekly(wd time.Weekday, opt rrule.ROption) *rrule.RRule {
	opt.Freq = rrule.WEEKLY
	opt.Byweekday = []rrule.Weekday{rruleWeekdays[wd]}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		panic("dates: invalid weekly rule: " + err.Error())
	}
	return r
}

// WeekdayOnOrAfter returns the first wd on or after t.
func WeekdayOnOrAfter(t time.Time, wd time.Weekday) time.Time {
	return weekly(wd, rrule.ROption{Dtstart: t, Count: 1}).All()[0]
}

// SundayOnOrAfter returns the first Sunday on or after t.
func SundayOnOrAfter(t time.Time) time.Time {
	return WeekdayOnOrAfter(t, time.Sunday)
}

// SundayOnOrBefore returns the last Sunday on or before t.
func SundayOnOrBefore(t time.Time) time.Time {
	return weekly(time.Sunday, rrule.ROption{Dtstart: t.AddDate(0, 0, -6), Count: 1}).All()[0]
}

// NthWeekday returns the nth wd strictly after anchor (n > 0) or strictly
// before it (n < 0). n must not be zero.
func NthWeekday(anchor time.Time, wd time.Weekday, n int) time.Time {
	if n > 0 {
		occ := weekly(wd, rrule.ROption{Dtstart: anchor.AddDate(0, 0, 1), Count: n}).All()
		return occ[len(occ)-1]
	}
	n = -n
	occ := weekly(wd, rrule.ROption{
		Dtstart: anchor.AddDate(0, 0, -7*n),
		Until:   anchor.AddDate(0, 0, -1),
	}).All()
	return occ[len(occ)-n]
}

// Sundays lists every Sunday in [from, to].
func Sundays(from, to time.Time) []time.Time {
	if to.Before(from) {
		return nil
	}
	return weekly(time.Sunday, rrule.ROption{Dtstart: from, Until: to}).All()
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
