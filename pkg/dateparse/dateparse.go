// Package dateparse normalizes the date formats found on vendor lifecycle
// pages into ISO-8601 (YYYY-MM-DD) strings.
//
// Vendor pages are wildly inconsistent: Microsoft writes "October 10, 2023",
// Ubuntu writes "April 2030", endoflife.date emits ISO dates, and some
// download pages carry a bare year. Parsers must not fail on any of these.
package dateparse

import (
	"regexp"
	"strings"
	"time"
)

// ISO is the canonical output layout.
const ISO = "2006-01-02"

// layouts tried in order for fully-specified dates.
var layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
	"01-02-2006",
	"2006.01.02",
}

// monthYear layouts resolve to the last day of the named month: a vendor
// that says support ends "Oct 2024" means through the end of October.
var monthYearLayouts = []string{
	"January 2006",
	"Jan 2006",
	"2006-01",
}

var yearOnly = regexp.MustCompile(`^(19|20)\d{2}$`)

// Parse attempts to interpret s as a lifecycle date. Returns the zero time
// and false when no known layout matches. Whitespace and trailing
// punctuation are tolerated.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".,;")
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return lastDayOfMonth(t), true
		}
	}

	// Bare year means "sometime that year"; pin to January 1 so the date
	// is conservative (earliest possible EOL).
	if yearOnly.MatchString(s) {
		if t, err := time.Parse("2006", s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseISO is Parse with the result rendered as an ISO-8601 string.
// Returns "" when parsing fails.
func ParseISO(s string) string {
	t, ok := Parse(s)
	if !ok {
		return ""
	}
	return t.Format(ISO)
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1)
}
