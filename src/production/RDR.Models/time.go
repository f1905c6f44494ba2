package rdrmodels

import (
	"fmt"
	"strings"
	"time"
)

const naiveLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t the way existing dashboards expect: a naive
// timestamp with a literal "Z" appended. The original firmware protocol
// shipped with this convention and clients depend on it.
func FormatTimestamp(t time.Time) string {
	return t.Format(naiveLayout) + "Z"
}

// ParseTimestamp accepts RFC3339 as well as the naive "Z"-suffixed form
// produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	trimmed := strings.TrimSuffix(s, "Z")
	if t, err := time.Parse(naiveLayout, trimmed); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time format: %q", s)
}
