package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reURL   = regexp.MustCompile(`^https?://[^\s]+$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a person or event name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 100 {
		return "", false
	}
	return s, true
}

// Phone accepts common US and international formats.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Text validates required free text of at most maxLen runes.
func Text(s string, maxLen int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxLen {
		return "", false
	}
	return s, true
}

// OptionalText is Text that also accepts an empty value.
func OptionalText(s string, maxLen int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return Text(s, maxLen)
}

func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func URL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 2048 && reURL.MatchString(s)
}

// Limit parses a list size, clamping to [1, maxN] and using def when unset.
func Limit(s string, def, maxN int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if n > maxN {
		return maxN
	}
	return n
}

// Errors collects field problems for a single response.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

func (e Errors) Empty() bool {
	return len(e) == 0
}
