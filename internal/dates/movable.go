package dates

import (
	"errors"
	"fmt"
	"time"

	"litcal/internal/model"
)

// Day offsets from Easter Sunday.
const (
	OffsetAshWednesday        = -46
	OffsetPalmSunday          = -7
	OffsetHolyThursday        = -3
	OffsetGoodFriday          = -2
	OffsetHolySaturday        = -1
	OffsetDivineMercy         = 7
	OffsetAscension           = 39
	OffsetAscensionSunday     = 42
	OffsetPentecost           = 49
	OffsetPentecostMonday     = 50
	OffsetEternalHighPriest   = 53
	OffsetTrinity             = 56
	OffsetCorpusChristi       = 60
	OffsetCorpusChristiSunday = 63
	OffsetSacredHeart         = 68
	OffsetImmaculateHeart     = 69
)

// FromEaster returns Gregorian Easter of year shifted by offset days.
func FromEaster(year, offset int) time.Time {
	return Easter(year, Gregorian).AddDate(0, 0, offset)
}

// Ascension returns Ascension Thursday, or the following Sunday.
func Ascension(year int, s model.FeastDaySetting) time.Time {
	if s == model.Sunday {
		return FromEaster(year, OffsetAscensionSunday)
	}
	return FromEaster(year, OffsetAscension)
}

// CorpusChristi returns the Thursday after Trinity, or the following Sunday.
func CorpusChristi(year int, s model.FeastDaySetting) time.Time {
	if s == model.Sunday {
		return FromEaster(year, OffsetCorpusChristiSunday)
	}
	return FromEaster(year, OffsetCorpusChristi)
}

// Epiphany returns January 6 or the Sunday between January 2 and 8.
func Epiphany(year int, s model.EpiphanySetting) time.Time {
	if s == model.EpiphanySundayJan2_8 {
		return SundayOnOrAfter(model.Day(year, time.January, 2))
	}
	return model.Day(year, time.January, 6)
}

// BaptismOfTheLord is the Sunday after Epiphany, moved to the Monday when
// Epiphany itself falls on January 7 or 8.
func BaptismOfTheLord(year int, s model.EpiphanySetting) time.Time {
	ep := Epiphany(year, s)
	if ep.Weekday() == time.Sunday && ep.Day() >= 7 {
		return ep.AddDate(0, 0, 1)
	}
	return SundayOnOrAfter(ep.AddDate(0, 0, 1))
}

// SecondSundayAfterChristmas exists only when Epiphany is kept on January 6
// and a Sunday falls between January 2 and 5.
func SecondSundayAfterChristmas(year int, s model.EpiphanySetting) (time.Time, bool) {
	if s != model.EpiphanyJan6 {
		return time.Time{}, false
	}
	sun := SundayOnOrAfter(model.Day(year, time.January, 2))
	if sun.Day() > 5 {
		return time.Time{}, false
	}
	return sun, true
}

// Advent1 is the fourth Sunday before Christmas.
func Advent1(year int) time.Time {
	return SundayOnOrAfter(model.Day(year, time.November, 27))
}

// ChristTheKing is the last Sunday before Advent.
func ChristTheKing(year int) time.Time {
	return Advent1(year).AddDate(0, 0, -7)
}

// HolyFamily is the Sunday within the Christmas octave, or December 30 when
// Christmas is itself a Sunday.
func HolyFamily(year int) time.Time {
	christmas := model.Day(year, time.December, 25)
	if christmas.Weekday() == time.Sunday {
		return model.Day(year, time.December, 30)
	}
	return SundayOnOrAfter(christmas.AddDate(0, 0, 1))
}

// AnchorLookup resolves the date of a named event already placed in the
// calendar being assembled.
type AnchorLookup interface {
	AnchorDate(key string) (time.Time, bool)
}

// ErrUnknownAnchor is returned when a movable rule references an event that
// is not present.
var ErrUnknownAnchor = errors.New("unknown anchor")

// ResolveMovable dates a movable rule in year.
func ResolveMovable(rule model.MovableRule, year int, anchors AnchorLookup) (time.Time, error) {
	var anchor time.Time
	switch {
	case rule.Anchor == "" || rule.Anchor == model.EasterAnchor:
		anchor = Easter(year, Gregorian)
	case anchors != nil:
		d, ok := anchors.AnchorDate(rule.Anchor)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownAnchor, rule.Anchor)
		}
		anchor = d
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownAnchor, rule.Anchor)
	}
	if rule.Nth != 0 {
		return NthWeekday(anchor, rule.Weekday, rule.Nth), nil
	}
	return anchor.AddDate(0, 0, rule.OffsetDays), nil
}
