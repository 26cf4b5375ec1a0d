package schedule

import "time"

// DefaultAdvanceNoticeHours is the advised minimum gap between "now" and a
// booking's start. Zero disables the advisory.
const DefaultAdvanceNoticeHours = 3

// ValidateBooking checks a proposed booking window against now. The checks
// run in a fixed order and the first failure wins: MISSING_TIMES, then
// INVALID_TIME_RANGE, then PAST_TIME.
//
// The returned shortNotice flag is advisory only — it is raised when the
// window is valid but starts less than advanceNotice from now (strictly
// less; a booking exactly at the threshold is fine). It never blocks the
// booking, and advanceNotice <= 0 disables it.
func ValidateBooking(start, end *time.Time, now time.Time, advanceNotice time.Duration) (shortNotice bool, err error) {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return false, validationErr(ReasonMissingTimes, "start and end times are required")
	}
	if !end.After(*start) {
		return false, validationErr(ReasonInvalidTimeRange, "end must be after start")
	}
	if start.Before(now) {
		return false, validationErr(ReasonPastTime, "start is in the past")
	}
	if advanceNotice > 0 && start.Sub(now) < advanceNotice {
		shortNotice = true
	}
	return shortNotice, nil
}

// ParseWindow parses a pair of RFC 3339 instants into a window. Used where
// instants cross the service boundary as strings; malformed input is an
// INVALID_FORMAT error, inverted input an INVALID_TIME_RANGE error.
func ParseWindow(start, end string) (Window, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return Window{}, validationErr(ReasonInvalidFormat, "start is not an RFC 3339 instant")
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return Window{}, validationErr(ReasonInvalidFormat, "end is not an RFC 3339 instant")
	}
	w := Window{Start: startTime, End: endTime}
	if !w.Valid() {
		return Window{}, validationErr(ReasonInvalidTimeRange, "end must be after start")
	}
	return w, nil
}
