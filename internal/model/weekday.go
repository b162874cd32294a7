package model

import (
	"fmt"
	"strings"
)

// Weekday is one of the seven fixed day codes a class may recur on.
// The zero value is not a valid weekday; always construct values
// through ParseWeekday so that invalid input is rejected at the
// system boundary rather than at use sites.
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

// weekdayOrder fixes the canonical ordering used when rendering a set.
var weekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday validates a raw day code (case-insensitive, surrounding
// whitespace ignored) and returns the canonical Weekday value. It
// returns an error for anything outside the seven known codes.
func ParseWeekday(raw string) (Weekday, error) {
	s := strings.TrimSpace(raw)
	for _, d := range weekdayOrder {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid weekday: %q", raw)
}

// WeekdaySet is the set of weekdays a class recurs on. It is kept
// small and by-value; membership checks are linear over at most
// seven elements.
type WeekdaySet struct {
	days map[Weekday]struct{}
}

// NewWeekdaySet builds a set from already-validated weekdays.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	m := make(map[Weekday]struct{}, len(days))
	for _, d := range days {
		m[d] = struct{}{}
	}
	return WeekdaySet{days: m}
}

// ParseWeekdaySet parses a comma-delimited list of day codes into a
// WeekdaySet. Every element must be a valid code and the resulting
// set must be non-empty; duplicates collapse silently. This is the
// single place delimited day text is ever split.
func ParseWeekdaySet(raw string) (WeekdaySet, error) {
	parts := strings.Split(raw, ",")
	m := make(map[Weekday]struct{}, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		d, err := ParseWeekday(p)
		if err != nil {
			return WeekdaySet{}, err
		}
		m[d] = struct{}{}
	}
	if len(m) == 0 {
		return WeekdaySet{}, fmt.Errorf("weekday set must not be empty")
	}
	return WeekdaySet{days: m}, nil
}

// Contains reports whether d is a member of the set.
func (s WeekdaySet) Contains(d Weekday) bool {
	_, ok := s.days[d]
	return ok
}

// Len returns the number of distinct weekdays in the set.
func (s WeekdaySet) Len() int { return len(s.days) }

// Days returns the members in canonical Mon..Sun order.
func (s WeekdaySet) Days() []Weekday {
	out := make([]Weekday, 0, len(s.days))
	for _, d := range weekdayOrder {
		if _, ok := s.days[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// String renders the set as the canonical comma-delimited form used
// in the classes.days_of_week column, e.g. "Mon,Wed,Fri".
func (s WeekdaySet) String() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}
