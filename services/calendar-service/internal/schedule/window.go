package schedule

import "time"

// Window is a concrete start/end pair. All engine functions treat windows as
// half-open only where noted; the invariant everywhere is Start < End.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window has both bounds and positive length.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// Contains reports whether w fully contains other (boundary-inclusive).
func (w Window) Contains(other Window) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}

// DaySegment is one calendar day's share of a window, carrying the record it
// was cut from. Segments are derived per call and never stored.
type DaySegment[T any] struct {
	Start   time.Time
	End     time.Time
	Payload T
}

// DateKey returns the segment's calendar date formatted as YYYY-MM-DD.
func (s DaySegment[T]) DateKey() string {
	return s.Start.Format(dateLayout)
}

const dateLayout = "2006-01-02"

// SplitByDay cuts a window at local-midnight boundaries, one segment per
// calendar day it touches. A same-day window comes back as a single segment
// equal to the input. For multi-day windows the first segment starts at
// w.Start, every later segment starts at local midnight, and every segment
// except the last ends at the final nanosecond of its day. Windows must
// satisfy Start < End; the function does not re-check that contract.
func SplitByDay[T any](w Window, payload T) []DaySegment[T] {
	if sameDay(w.Start, w.End) {
		return []DaySegment[T]{{Start: w.Start, End: w.End, Payload: payload}}
	}

	var segments []DaySegment[T]
	cursor := w.Start
	for {
		if sameDay(cursor, w.End) {
			return append(segments, DaySegment[T]{Start: cursor, End: w.End, Payload: payload})
		}
		segments = append(segments, DaySegment[T]{Start: cursor, End: endOfDay(cursor), Payload: payload})
		cursor = startOfDay(cursor).AddDate(0, 0, 1)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
