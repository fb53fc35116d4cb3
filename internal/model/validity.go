package model

import "fmt"

// Validity is an inclusive year range. UntilYear zero means open-ended.
type Validity struct {
	SinceYear int `json:"since_year" yaml:"since_year"`
	UntilYear int `json:"until_year,omitempty" yaml:"until_year,omitempty"`
}

// Contains reports whether year falls inside the window.
func (v Validity) Contains(year int) bool {
	if year < v.SinceYear {
		return false
	}
	return v.UntilYear == 0 || year <= v.UntilYear
}

// Validate rejects windows whose end is not after their start.
func (v Validity) Validate() error {
	if v.SinceYear <= 0 {
		return fmt.Errorf("since_year must be positive, got %d", v.SinceYear)
	}
	if v.UntilYear != 0 && v.UntilYear <= v.SinceYear {
		return fmt.Errorf("until_year %d must be greater than since_year %d", v.UntilYear, v.SinceYear)
	}
	return nil
}
