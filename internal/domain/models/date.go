package models

import (
	"strings"
	"time"
)

// ParseDate reads a YYYY-MM-DD field and anchors it at UTC midnight.
// An empty value yields the calendar date of today as observed in today's location.
func ParseDate(field, raw string, today time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := today.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, Invalid("%s %q must be formatted as YYYY-MM-DD", field, raw)
	}
	return t, nil
}
