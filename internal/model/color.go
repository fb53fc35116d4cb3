package model

import (
	"fmt"
	"strings"
)

// Color is a liturgical vestment color.
type Color string

const (
	ColorWhite  Color = "white"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
)

// ParseColor normalizes and validates a color name.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ColorWhite, ColorRed, ColorGreen, ColorPurple, ColorPink:
		return c, nil
	case "violet":
		return ColorPurple, nil
	case "rose":
		return ColorPink, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// ParseColors validates a non-empty color set, dropping duplicates while
// keeping the first-seen order.
func ParseColors(in []string) ([]Color, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("color set is empty")
	}
	out := make([]Color, 0, len(in))
	seen := make(map[Color]bool, len(in))
	for _, s := range in {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Common is a "common of saints" classification, written either as a
// general common ("Martyrs") or general:specific ("Pastors:For a Bishop").
type Common string

// CommonProper marks an event with fully proper texts.
const CommonProper Common = "Proper"

var generalCommons = map[string]bool{
	"Proper":                 true,
	"Dedication of a Church": true,
	"Blessed Virgin Mary":    true,
	"Martyrs":                true,
	"Pastors":                true,
	"Doctors":                true,
	"Virgins":                true,
	"Holy Men and Women":     true,
}

// General returns the general part of the common.
func (c Common) General() string {
	general, _, _ := strings.Cut(string(c), ":")
	return strings.TrimSpace(general)
}

// Specific returns the specific part of the common, if any.
func (c Common) Specific() string {
	_, specific, _ := strings.Cut(string(c), ":")
	return strings.TrimSpace(specific)
}

// ParseCommons validates a list of commons. An empty list is allowed.
func ParseCommons(in []string) ([]Common, error) {
	out := make([]Common, 0, len(in))
	for _, s := range in {
		c := Common(strings.TrimSpace(s))
		if !generalCommons[c.General()] {
			return nil, fmt.Errorf("unknown common %q", s)
		}
		out = append(out, c)
	}
	return out, nil
}
