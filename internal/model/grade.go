package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Grade is the ordinal liturgical rank of a celebration. Comparisons are
// purely numeric.
type Grade int

const (
	GradeWeekday Grade = iota
	GradeCommemoration
	GradeOptionalMemorial
	GradeMemorial
	GradeFeast
	GradeFeastOfTheLord
	GradeSolemnity
	GradeHigherSolemnity
)

var gradeNames = [...]string{
	GradeWeekday:          "weekday",
	GradeCommemoration:    "commemoration",
	GradeOptionalMemorial: "optional_memorial",
	GradeMemorial:         "memorial",
	GradeFeast:            "feast",
	GradeFeastOfTheLord:   "feast_lord",
	GradeSolemnity:        "solemnity",
	GradeHigherSolemnity:  "higher_solemnity",
}

// gradeAliases accepts the spellings found in calendar documents.
var gradeAliases = map[string]Grade{
	"memorial_opt":      GradeOptionalMemorial,
	"optionalmemorial":  GradeOptionalMemorial,
	"feast_of_the_lord": GradeFeastOfTheLord,
	"feastofthelord":    GradeFeastOfTheLord,
	"highersolemnity":   GradeHigherSolemnity,
}

func (g Grade) String() string {
	if g.Valid() {
		return gradeNames[g]
	}
	return "grade(" + strconv.Itoa(int(g)) + ")"
}

// Valid reports whether g is one of the eight defined grades.
func (g Grade) Valid() bool {
	return g >= GradeWeekday && g <= GradeHigherSolemnity
}

// ParseGrade accepts a grade name or its ordinal (0-7).
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		g := Grade(n)
		if !g.Valid() {
			return 0, fmt.Errorf("grade %d out of range", n)
		}
		return g, nil
	}
	for i, name := range gradeNames {
		if name == s {
			return Grade(i), nil
		}
	}
	if g, ok := gradeAliases[s]; ok {
		return g, nil
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(b []byte) error {
	v, err := ParseGrade(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// UnmarshalJSON accepts both the numeric and the named form.
func (g *Grade) UnmarshalJSON(b []byte) error {
	return g.UnmarshalText(bytes.Trim(b, `"`))
}

// UnmarshalYAML accepts both the numeric and the named form.
func (g *Grade) UnmarshalYAML(n *yaml.Node) error {
	return g.UnmarshalText([]byte(n.Value))
}

// Rank is a position in the table of liturgical days; 1 is the highest.
type Rank int

const (
	RankTriduum           Rank = 1
	RankPrincipal         Rank = 2 // Christmas, Epiphany, Ascension, Pentecost, privileged Sundays, Ash Wednesday, Holy Week, Easter octave
	RankGeneralSolemnity  Rank = 3
	RankProperSolemnity   Rank = 4
	RankGeneralFeastLord  Rank = 5
	RankOrdinarySunday    Rank = 6 // Sundays of Christmas time and Ordinary Time
	RankGeneralFeast      Rank = 7
	RankProperFeast       Rank = 8
	RankPrivilegedWeekday Rank = 9
	RankGeneralMemorial   Rank = 10
	RankProperMemorial    Rank = 11
	RankOptionalMemorial  Rank = 12
	RankWeekday           Rank = 13
)

// DefaultRank maps a grade onto the table of liturgical days.
func DefaultRank(g Grade, proper bool) Rank {
	switch g {
	case GradeHigherSolemnity:
		return RankPrincipal
	case GradeSolemnity:
		if proper {
			return RankProperSolemnity
		}
		return RankGeneralSolemnity
	case GradeFeastOfTheLord:
		return RankGeneralFeastLord
	case GradeFeast:
		if proper {
			return RankProperFeast
		}
		return RankGeneralFeast
	case GradeMemorial:
		if proper {
			return RankProperMemorial
		}
		return RankGeneralMemorial
	case GradeOptionalMemorial, GradeCommemoration:
		return RankOptionalMemorial
	default:
		return RankWeekday
	}
}
