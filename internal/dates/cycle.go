package dates

import "time"

// LiturgicalYear returns the civil year in which the liturgical year
// containing d began (on the first Sunday of Advent).
func LiturgicalYear(d time.Time) int {
	year := d.Year()
	if d.Before(Advent1(year)) {
		return year - 1
	}
	return year
}

// SundayCycle returns the Sunday lectionary cycle (A, B or C) for d.
func SundayCycle(d time.Time) string {
	switch (LiturgicalYear(d) + 1) % 3 {
	case 1:
		return "A"
	case 2:
		return "B"
	default:
		return "C"
	}
}

// WeekdayCycle returns the weekday lectionary cycle (I or II) for d.
func WeekdayCycle(d time.Time) string {
	if (LiturgicalYear(d)+1)%2 == 1 {
		return "I"
	}
	return "II"
}
