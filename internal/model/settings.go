package model

import (
	"fmt"
	"strings"
)

// EpiphanySetting selects how Epiphany is dated.
type EpiphanySetting string

const (
	EpiphanyJan6         EpiphanySetting = "JAN6"
	EpiphanySundayJan2_8 EpiphanySetting = "SUNDAY_JAN2_JAN8"
)

// FeastDaySetting selects between the Thursday and the following Sunday
// for Ascension and Corpus Christi.
type FeastDaySetting string

const (
	Thursday FeastDaySetting = "THURSDAY"
	Sunday   FeastDaySetting = "SUNDAY"
)

// Settings are the per-jurisdiction choices that affect date resolution.
type Settings struct {
	Epiphany          EpiphanySetting `json:"epiphany" yaml:"epiphany"`
	Ascension         FeastDaySetting `json:"ascension" yaml:"ascension"`
	CorpusChristi     FeastDaySetting `json:"corpus_christi" yaml:"corpus_christi"`
	EternalHighPriest bool            `json:"eternal_high_priest" yaml:"eternal_high_priest"`
}

// DefaultSettings are the settings of the General Roman Calendar.
func DefaultSettings() Settings {
	return Settings{
		Epiphany:      EpiphanyJan6,
		Ascension:     Thursday,
		CorpusChristi: Thursday,
	}
}

// Validate checks the enum values.
func (s Settings) Validate() error {
	switch s.Epiphany {
	case EpiphanyJan6, EpiphanySundayJan2_8:
	default:
		return fmt.Errorf("invalid epiphany setting %q", s.Epiphany)
	}
	if err := s.Ascension.validate("ascension"); err != nil {
		return err
	}
	return s.CorpusChristi.validate("corpus_christi")
}

func (f FeastDaySetting) validate(field string) error {
	switch f {
	case Thursday, Sunday:
		return nil
	}
	return fmt.Errorf("invalid %s setting %q", field, f)
}

// ParseEpiphany normalizes an epiphany setting.
func ParseEpiphany(s string) (EpiphanySetting, error) {
	v := EpiphanySetting(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case EpiphanyJan6, EpiphanySundayJan2_8:
		return v, nil
	}
	return "", fmt.Errorf("invalid epiphany setting %q", s)
}

// ParseFeastDay normalizes an ascension/corpus christi setting.
func ParseFeastDay(s string) (FeastDaySetting, error) {
	v := FeastDaySetting(strings.ToUpper(strings.TrimSpace(s)))
	if err := v.validate("feast day"); err != nil {
		return "", err
	}
	return v, nil
}

// SettingsOverride carries the subset of settings a diocese overrides.
type SettingsOverride struct {
	Epiphany          *EpiphanySetting
	Ascension         *FeastDaySetting
	CorpusChristi     *FeastDaySetting
	EternalHighPriest *bool
}

// With returns s with every non-nil field of o applied.
func (s Settings) With(o SettingsOverride) Settings {
	if o.Epiphany != nil {
		s.Epiphany = *o.Epiphany
	}
	if o.Ascension != nil {
		s.Ascension = *o.Ascension
	}
	if o.CorpusChristi != nil {
		s.CorpusChristi = *o.CorpusChristi
	}
	if o.EternalHighPriest != nil {
		s.EternalHighPriest = *o.EternalHighPriest
	}
	return s
}
