// Package recency parses free-form posting dates and decides whether a
// posting falls inside the acceptance window.
package recency

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/amishk599/internfeed/internal/model"
)

// UnknownPolicy decides what happens to records whose date cannot be parsed.
type UnknownPolicy string

const (
	IncludeUnknown UnknownPolicy = "include"
	ExcludeUnknown UnknownPolicy = "exclude"
)

// ParsePolicy converts a config value into an UnknownPolicy.
// The empty string yields the default, ExcludeUnknown.
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExcludeUnknown:
		return ExcludeUnknown, nil
	case IncludeUnknown:
		return IncludeUnknown, nil
	default:
		return "", fmt.Errorf("unknown date policy %q (want include or exclude)", s)
	}
}

var (
	relativeRegex = regexp.MustCompile(`^(\d+|an?|one)\+?\s*(second|sec|minute|min|hour|hr|day|week|wk|month|mo|year|yr)s?\s+ago$`)
	digitRegex    = regexp.MustCompile(`\d`)
)

// ParseDate interprets text as a point in time relative to now. It returns
// false when the text is empty or cannot be understood; that is an expected
// outcome, not an error. The FreshlyObserved sentinel always parses to now.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	if strings.EqualFold(s, model.FreshlyObserved) {
		return now, true
	}

	lower := strings.ToLower(s)
	lower = strings.TrimPrefix(lower, "posted ")
	lower = strings.TrimPrefix(lower, "reposted ")
	switch lower {
	case "today", "just now", "just posted", "now":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}
	if relativeRegex.MatchString(lower) {
		return parseRelative(lower, now)
	}

	// Absolute dates always carry at least one digit; anything else is noise
	// like "N/A" or "Recently".
	if !digitRegex.MatchString(s) {
		return time.Time{}, false
	}
	return parseAbsolute(s, now.Location())
}

// maxRelativeCount bounds "N units ago" so the offset cannot overflow.
const maxRelativeCount = 100_000

func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := relativeRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n := 1
	if m[1][0] >= '0' && m[1][0] <= '9' {
		v, err := strconv.Atoi(m[1])
		if err != nil || v > maxRelativeCount {
			return time.Time{}, false
		}
		n = v
	}
	switch m[2] {
	case "second", "sec":
		return now.Add(-time.Duration(n) * time.Second), true
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week", "wk":
		return now.AddDate(0, 0, -7*n), true
	case "month", "mo":
		return now.AddDate(0, -n, 0), true
	case "year", "yr":
		return now.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}

// parseAbsolute delegates to dateparse, which panics on a handful of
// malformed inputs.
func parseAbsolute(s string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// IsRecent reports whether text names a time no older than windowDays before
// now. Future dates are accepted. Unknown dates are rejected.
func IsRecent(text string, windowDays int, now time.Time) bool {
	t, ok := ParseDate(text, now)
	if !ok {
		return false
	}
	return within(t, time.Duration(windowDays)*24*time.Hour, now)
}

func within(t time.Time, window time.Duration, now time.Time) bool {
	return !t.Before(now.Add(-window))
}

// Filter is the configurable recency gate used by the pipeline.
type Filter struct {
	window    time.Duration
	onUnknown UnknownPolicy
	now       func() time.Time
}

// NewFilter returns a gate accepting postings no older than window.
func NewFilter(window time.Duration, onUnknown UnknownPolicy) *Filter {
	if onUnknown == "" {
		onUnknown = ExcludeUnknown
	}
	return &Filter{window: window, onUnknown: onUnknown, now: time.Now}
}

// WithClock replaces the filter's time source.
func (f *Filter) WithClock(now func() time.Time) *Filter {
	f.now = now
	return f
}

// Accept reports whether a posting dated text passes the gate.
func (f *Filter) Accept(text string) bool {
	now := f.now()
	t, ok := ParseDate(text, now)
	if !ok {
		return f.onUnknown == IncludeUnknown
	}
	return within(t, f.window, now)
}

// Window returns the configured acceptance window.
func (f *Filter) Window() time.Duration { return f.window }
