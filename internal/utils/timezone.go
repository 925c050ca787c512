package utils

import (
	"strings"
	"time"
)

// LoadLocation resolves a venue timezone name, falling back to UTC.
func LoadLocation(tz string) *time.Location {
	if strings.TrimSpace(tz) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func InTimezone(t time.Time, tz string) time.Time {
	return t.In(LoadLocation(tz))
}

// ParseDateInTimezone parses a YYYY-MM-DD date as midnight in tz.
func ParseDateInTimezone(raw, tz string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), LoadLocation(tz))
}

func CurrentDateInTimezone(tz string, now time.Time) string {
	return now.In(LoadLocation(tz)).Format("2006-01-02")
}
