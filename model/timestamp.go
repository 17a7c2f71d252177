package model

import (
	"fmt"
	"strings"
	"time"
)

// MinuteLayout is the date-and-minute form an edit form works with.
const MinuteLayout = "2006-01-02T15:04"

// timestampLayouts are tried in order. Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	MinuteLayout,
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 style timestamp into UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// optional trims s and maps the empty string to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
