package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day with minute precision, detached from any date.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) Before(other Clock) bool { return c.Minutes() < other.Minutes() }

// On pins the clock onto a calendar date, in that date's location.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, date.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func clockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

var (
	clock24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Pattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([AaPp][Mm])$`)
)

// ParseClock24 parses a strict 24-hour H(H):MM string. Used for recurrence
// rules, which never accept 12-hour input.
func ParseClock24(s string) (Clock, error) {
	m := clock24Pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clock{}, validationErr(ReasonInvalidFormat, fmt.Sprintf("not a HH:MM time: %q", s))
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return Clock{}, validationErr(ReasonInvalidFormat, fmt.Sprintf("time out of range: %q", s))
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// ParseClock parses free-text time-of-day input: 24-hour H(H):MM or 12-hour
// H(H)(:MM) AM|PM, case-insensitive. A shape that matches neither is an
// INVALID_FORMAT error; it never silently falls back to midnight.
func ParseClock(s string) (Clock, error) {
	trimmed := strings.TrimSpace(s)

	if m := clock12Pattern.FindStringSubmatch(trimmed); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return Clock{}, validationErr(ReasonInvalidFormat, fmt.Sprintf("time out of range: %q", s))
		}
		// 12 AM is midnight, 12 PM is noon.
		if hour == 12 {
			hour = 0
		}
		if strings.EqualFold(m[3], "pm") {
			hour += 12
		}
		return Clock{Hour: hour, Minute: minute}, nil
	}

	return ParseClock24(trimmed)
}

// parseClockPair validates a daily start/end pair shared by recurrence
// expansion and matching: both strict 24-hour, end strictly after start
// (overnight wraparound is not supported).
func parseClockPair(start, end string) (Clock, Clock, error) {
	startClock, err := ParseClock24(start)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	endClock, err := ParseClock24(end)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	if !startClock.Before(endClock) {
		return Clock{}, Clock{}, validationErr(ReasonInvalidTimeRange,
			fmt.Sprintf("daily end %s must be after daily start %s", endClock, startClock))
	}
	return startClock, endClock, nil
}
