package schedule

import (
	"log/slog"
	"time"
)

// Slot is a coach-declared availability window as the engine sees it.
type Slot struct {
	ID int64
	Window
}

// Session is a coaching session as the engine sees it. Unscheduled sessions
// carry a zero window and simply never land on the calendar.
type Session struct {
	ID       string
	Status   string // unscheduled | requested | scheduled | completed | canceled
	Kind     string // individual | group
	Offering string
	Window
}

// SnapshotState tags the upstream readiness of the data a snapshot was built
// from. Anything other than ready yields empty derived output, never an error.
type SnapshotState int

const (
	SnapshotReady SnapshotState = iota
	SnapshotPending
	SnapshotFailed
	SnapshotUnauthorized
)

// Snapshot is one immutable view of a coach's slots and sessions. Every
// aggregation below recomputes from scratch; nothing is cached or diffed
// between calls.
type Snapshot struct {
	State    SnapshotState
	Slots    []Slot
	Sessions []Session
	Skipped  int // malformed records dropped at build time
}

// NewSnapshot filters the raw records down to well-formed ones. A slot or a
// scheduled session with an inverted or half-missing window is dropped and
// counted rather than aborting the build: one bad record must not blank the
// whole calendar. Sessions with no window at all are unscheduled and are
// silently left out.
func NewSnapshot(state SnapshotState, slots []Slot, sessions []Session, logger *slog.Logger) Snapshot {
	snap := Snapshot{State: state}
	for _, slot := range slots {
		if !slot.Valid() {
			snap.Skipped++
			if logger != nil {
				logger.Warn("skipping malformed availability slot", "slot_id", slot.ID)
			}
			continue
		}
		snap.Slots = append(snap.Slots, slot)
	}
	for _, sess := range sessions {
		if sess.Start.IsZero() && sess.End.IsZero() {
			continue // unscheduled
		}
		if !sess.Valid() {
			snap.Skipped++
			if logger != nil {
				logger.Warn("skipping malformed session", "session_id", sess.ID)
			}
			continue
		}
		snap.Sessions = append(snap.Sessions, sess)
	}
	return snap
}

// Rendering priorities: on overlap, sessions draw above availability.
const (
	PriorityAvailability = 1
	PrioritySession      = 2
)

// Event is one renderable calendar entry, already cut to a single day.
type Event struct {
	Start     time.Time
	End       time.Time
	Priority  int
	SlotID    int64  // set for availability events
	SessionID string // set for session events
	Status    string
	Kind      string
	Offering  string
}

// WeekEvents flattens the snapshot into per-day events for a weekly view.
func (s Snapshot) WeekEvents() []Event {
	if s.State != SnapshotReady {
		return nil
	}

	var events []Event
	for _, slot := range s.Slots {
		for _, seg := range SplitByDay(slot.Window, slot) {
			events = append(events, Event{
				Start:    seg.Start,
				End:      seg.End,
				Priority: PriorityAvailability,
				SlotID:   seg.Payload.ID,
			})
		}
	}
	for _, sess := range s.Sessions {
		for _, seg := range SplitByDay(sess.Window, sess) {
			events = append(events, Event{
				Start:     seg.Start,
				End:       seg.End,
				Priority:  PrioritySession,
				SessionID: seg.Payload.ID,
				Status:    seg.Payload.Status,
				Kind:      seg.Payload.Kind,
				Offering:  seg.Payload.Offering,
			})
		}
	}
	return events
}

// DayFlags is the monthly-view summary for one calendar date.
type DayFlags struct {
	HasAvailability bool
	HasSessions     bool
}

// MonthSummary buckets the snapshot by calendar date, keyed YYYY-MM-DD.
func (s Snapshot) MonthSummary() map[string]DayFlags {
	if s.State != SnapshotReady {
		return map[string]DayFlags{}
	}

	summary := map[string]DayFlags{}
	for _, slot := range s.Slots {
		for _, seg := range SplitByDay(slot.Window, struct{}{}) {
			flags := summary[seg.DateKey()]
			flags.HasAvailability = true
			summary[seg.DateKey()] = flags
		}
	}
	for _, sess := range s.Sessions {
		for _, seg := range SplitByDay(sess.Window, struct{}{}) {
			flags := summary[seg.DateKey()]
			flags.HasSessions = true
			summary[seg.DateKey()] = flags
		}
	}
	return summary
}

// SessionSegment is a session's share of the selected day.
type SessionSegment struct {
	Start   time.Time
	End     time.Time
	Session Session
}

// DayGroup pairs an availability segment with the session segments it
// contains. Groups with a nil Availability hold sessions that fell outside
// every availability window that day.
type DayGroup struct {
	Availability *DaySegment[Slot]
	Sessions     []SessionSegment
}

// DayDetail builds the drill-down for one selected date. Each session
// segment is assigned to the first availability segment whose interval fully
// contains it; the assigned-id set is local to this call so a later snapshot
// can reassign freely. Whatever remains unassigned is emitted as its own
// group with no availability. A day with nothing on it is an empty list.
func (s Snapshot) DayDetail(date time.Time) []DayGroup {
	if s.State != SnapshotReady {
		return nil
	}
	key := startOfDay(date).Format(dateLayout)

	var availSegs []DaySegment[Slot]
	for _, slot := range s.Slots {
		for _, seg := range SplitByDay(slot.Window, slot) {
			if seg.DateKey() == key {
				availSegs = append(availSegs, seg)
			}
		}
	}
	var sessSegs []SessionSegment
	for _, sess := range s.Sessions {
		for _, seg := range SplitByDay(sess.Window, sess) {
			if seg.DateKey() == key {
				sessSegs = append(sessSegs, SessionSegment{Start: seg.Start, End: seg.End, Session: seg.Payload})
			}
		}
	}

	assigned := map[string]bool{}
	var groups []DayGroup
	for i := range availSegs {
		group := DayGroup{Availability: &availSegs[i]}
		for _, seg := range sessSegs {
			if assigned[seg.Session.ID] {
				continue
			}
			if !seg.Start.Before(availSegs[i].Start) && !seg.End.After(availSegs[i].End) {
				assigned[seg.Session.ID] = true
				group.Sessions = append(group.Sessions, seg)
			}
		}
		groups = append(groups, group)
	}
	for _, seg := range sessSegs {
		if !assigned[seg.Session.ID] {
			groups = append(groups, DayGroup{Sessions: []SessionSegment{seg}})
		}
	}
	if groups == nil {
		return []DayGroup{}
	}
	return groups
}
