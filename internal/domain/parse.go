package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout accepts DD.MM.YYYY (one or two digit day and month).
	DateLayout = "2.1.2006"
	// TimeLayout accepts HH:MM in 24-hour form.
	TimeLayout = "15:04"

	// DisplayLayout is used when echoing a due time back to the user.
	DisplayLayout = "02.01.2006 15:04"
)

// PostponePrefix starts every postpone command, e.g. "Postpone for 15 minutes".
const PostponePrefix = "Postpone for"

// Unit roots matched as substrings of the unit word.
var (
	minuteRoots = []string{"min"}
	hourRoots   = []string{"hour"}
)

// CanonicalOffsets are the postpone choices offered on the delivery keyboard.
var CanonicalOffsets = []string{
	PostponePrefix + " 5 minutes",
	PostponePrefix + " 15 minutes",
	PostponePrefix + " 1 hour",
	PostponePrefix + " 3 hours",
}

// ParseDate parses a DD.MM.YYYY string into midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseClock parses HH:MM into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidTime, s)
	}
	return t.Hour(), t.Minute(), nil
}

// Combine places hour:minute on the calendar day of date, keeping date's location.
func Combine(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// IsPostpone reports whether text looks like a postpone command.
func IsPostpone(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), PostponePrefix)
}

// ParseOffset parses "Postpone for <n> <unit>" into a positive duration.
func ParseOffset(text string) (time.Duration, error) {
	fields := strings.Fields(text)
	prefix := strings.Fields(PostponePrefix)
	if len(fields) != len(prefix)+2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOffset, text)
	}
	for i, p := range prefix {
		if fields[i] != p {
			return 0, fmt.Errorf("%w: %q", ErrMalformedOffset, text)
		}
	}

	n, err := strconv.Atoi(fields[len(prefix)])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: bad amount %q", ErrMalformedOffset, fields[len(prefix)])
	}

	word := strings.ToLower(fields[len(prefix)+1])
	var unit time.Duration
	switch {
	case containsAny(word, minuteRoots):
		unit = time.Minute
	case containsAny(word, hourRoots):
		unit = time.Hour
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrMalformedOffset, word)
	}

	if int64(n) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: amount %d out of range", ErrMalformedOffset, n)
	}
	return time.Duration(n) * unit, nil
}

func containsAny(s string, roots []string) bool {
	for _, r := range roots {
		if strings.Contains(s, r) {
			return true
		}
	}
	return false
}
