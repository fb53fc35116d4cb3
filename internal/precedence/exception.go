package precedence

import "time"

// ExceptionAction says which way the loser of a named pair is moved.
type ExceptionAction int

const (
	Anticipate ExceptionAction = iota
	Postpone
)

// Exception is a decree-driven rule for two named events that would
// otherwise tie: when both fall on the same date, Loser is moved by Days
// before (Anticipate) or after (Postpone) that date.
type Exception struct {
	Winner string
	Loser  string
	Action ExceptionAction
	Days   int
	Reason string
}

func (e Exception) target(from time.Time) time.Time {
	days := e.Days
	if days <= 0 {
		days = 1
	}
	if e.Action == Anticipate {
		days = -days
	}
	return from.AddDate(0, 0, days)
}

// DefaultExceptions are the exceptions established by decree for the
// General Roman Calendar.
func DefaultExceptions() []Exception {
	return []Exception{
		{
			Winner: "SacredHeart",
			Loser:  "NativityJohnBaptist",
			Action: Anticipate,
			Days:   1,
			Reason: "decree of the Dicastery for Divine Worship: the Nativity of Saint John the Baptist is anticipated to June 23 when it coincides with the Sacred Heart",
		},
	}
}
