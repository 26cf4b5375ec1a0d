package schedule

import (
	"fmt"
	"time"
)

// DefaultMaxHorizonMonths bounds how far into the future a recurrence rule
// may generate slots when the caller does not override it.
const DefaultMaxHorizonMonths = 6

// Rule describes a weekly recurrence as it arrives from a coach: a weekday,
// a daily clock range, and the last date (inclusive) generation may reach.
// Rules are ephemeral input; the generated slots carry no recurrence
// identity once stored.
type Rule struct {
	Weekday    time.Weekday
	DailyStart string // HH:MM, 24-hour
	DailyEnd   string // HH:MM, 24-hour
	Horizon    time.Time
}

// ExpandRule generates one window per week on rule.Weekday, from the first
// occurrence strictly after today through the horizon date (inclusive).
// Today is never included even when it falls on rule.Weekday. The whole
// batch is returned at once so the caller can persist it atomically; an
// empty batch is reported as NO_SLOTS_GENERATED, never as a silent success.
func ExpandRule(rule Rule, now time.Time, maxHorizonMonths int) ([]Window, error) {
	startClock, endClock, err := parseClockPair(rule.DailyStart, rule.DailyEnd)
	if err != nil {
		return nil, err
	}
	if maxHorizonMonths <= 0 {
		maxHorizonMonths = DefaultMaxHorizonMonths
	}

	today := startOfDay(now)
	horizon := startOfDay(rule.Horizon)
	if !horizon.After(today) {
		return nil, validationErr(ReasonInvalidTimeRange, "horizon must be after today")
	}
	if maxHorizon := today.AddDate(0, maxHorizonMonths, 0); horizon.After(maxHorizon) {
		return nil, validationErr(ReasonInvalidTimeRange,
			fmt.Sprintf("horizon exceeds the %d-month maximum", maxHorizonMonths))
	}

	// Next occurrence strictly after today; if today already is the weekday,
	// generation starts next week.
	day := today.AddDate(0, 0, 1)
	for day.Weekday() != rule.Weekday {
		day = day.AddDate(0, 0, 1)
	}

	var windows []Window
	for !day.After(horizon) {
		windows = append(windows, Window{Start: startClock.On(day), End: endClock.On(day)})
		day = day.AddDate(0, 0, 7)
	}
	if len(windows) == 0 {
		return nil, validationErr(ReasonNoSlotsGenerated, "no occurrences before the horizon")
	}
	return windows, nil
}

// MatchRecurring selects the slots a recurring-deletion request refers to:
// slots dated today or later, on the given weekday, whose own clock range
// contains the queried range. Containment, not overlap — a 09:00-17:00 slot
// matches a 10:00-11:00 query, but a 10:00-11:00 slot does not match a
// 09:00-12:00 query. The matched slots are returned whole so the caller can
// show a count and delete the ids in one batch; an empty match is the
// NO_MATCHES error.
func MatchRecurring(slots []Slot, weekday time.Weekday, dailyStart, dailyEnd string, now time.Time) ([]Slot, error) {
	queryStart, queryEnd, err := parseClockPair(dailyStart, dailyEnd)
	if err != nil {
		return nil, err
	}

	today := startOfDay(now)
	var matched []Slot
	for _, slot := range slots {
		if !slot.Valid() || startOfDay(slot.Start).Before(today) || slot.Start.Weekday() != weekday {
			continue
		}
		slotStart := clockOf(slot.Start)
		slotEnd := clockOf(slot.End)
		if slotStart.Minutes() <= queryStart.Minutes() && slotEnd.Minutes() >= queryEnd.Minutes() {
			matched = append(matched, slot)
		}
	}
	if len(matched) == 0 {
		return nil, validationErr(ReasonNoMatches, "no recurring slots match")
	}
	return matched, nil
}
