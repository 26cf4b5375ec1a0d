package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/coachcal/coachcal/services/calendar-service/internal/model"
	"github.com/coachcal/coachcal/services/calendar-service/internal/schedule"
)

// snapshotFor loads the coach's slots and sessions intersecting [start, end)
// and shifts them into the requested location so day boundaries land on
// local midnight.
func (h *CalendarHandler) snapshotFor(r *http.Request, coachID string, start, end time.Time, loc *time.Location) (schedule.Snapshot, error) {
	slots, err := h.repo.ListSlots(r.Context(), coachID, start.UTC(), end.UTC())
	if err != nil {
		return schedule.Snapshot{}, err
	}
	sessions, err := h.repo.ListSessions(r.Context(), coachID, start.UTC(), end.UTC())
	if err != nil {
		return schedule.Snapshot{}, err
	}

	engineSlots := make([]schedule.Slot, 0, len(slots))
	for _, s := range slots {
		engineSlots = append(engineSlots, schedule.Slot{
			ID:     s.ID,
			Window: schedule.Window{Start: s.StartTime.In(loc), End: s.EndTime.In(loc)},
		})
	}
	engineSessions := make([]schedule.Session, 0, len(sessions))
	for _, s := range sessions {
		sess := schedule.Session{
			ID:       s.ID,
			Status:   s.Status,
			Kind:     s.Kind,
			Offering: s.Offering,
		}
		if s.StartTime != nil && s.EndTime != nil {
			sess.Window = schedule.Window{Start: s.StartTime.In(loc), End: s.EndTime.In(loc)}
		}
		engineSessions = append(engineSessions, sess)
	}
	return schedule.NewSnapshot(schedule.SnapshotReady, engineSlots, engineSessions, h.logger), nil
}

type eventItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Priority  int    `json:"priority"`
	SlotID    int64  `json:"slot_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Offering  string `json:"offering,omitempty"`
}

// Week serves GET /api/v1/calendar/week?start=YYYY-MM-DD[&tz=...]: the flat
// per-day event list for a seven-day view.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}
	loc, ok := locationFrom(r)
	if !ok {
		http.Error(w, "unknown tz", http.StatusBadRequest)
		return
	}
	start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(r.URL.Query().Get("start")), loc)
	if err != nil {
		http.Error(w, "start date required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	snap, err := h.snapshotFor(r, coachID, start, start.AddDate(0, 0, 7), loc)
	if err != nil {
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}

	events := snap.WeekEvents()
	items := make([]eventItem, 0, len(events))
	for _, e := range events {
		items = append(items, eventItem{
			StartTime: e.Start.Format(time.RFC3339),
			EndTime:   e.End.Format(time.RFC3339),
			Priority:  e.Priority,
			SlotID:    e.SlotID,
			SessionID: e.SessionID,
			Status:    e.Status,
			Kind:      e.Kind,
			Offering:  e.Offering,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type daySummaryItem struct {
	HasAvailability bool `json:"has_availability"`
	HasSessions     bool `json:"has_sessions"`
}

// Month serves GET /api/v1/calendar/month?month=YYYY-MM[&tz=...]: the
// per-date flag map feeding monthly views.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}
	loc, ok := locationFrom(r)
	if !ok {
		http.Error(w, "unknown tz", http.StatusBadRequest)
		return
	}
	first, err := time.ParseInLocation("2006-01", strings.TrimSpace(r.URL.Query().Get("month")), loc)
	if err != nil {
		http.Error(w, "month required (YYYY-MM)", http.StatusBadRequest)
		return
	}

	snap, err := h.snapshotFor(r, coachID, first, first.AddDate(0, 1, 0), loc)
	if err != nil {
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}

	summary := snap.MonthSummary()
	items := make(map[string]daySummaryItem, len(summary))
	for key, flags := range summary {
		items[key] = daySummaryItem{
			HasAvailability: flags.HasAvailability,
			HasSessions:     flags.HasSessions,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

type sessionItem struct {
	SessionID string `json:"session_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
	Kind      string `json:"kind"`
	Offering  string `json:"offering"`
}

type dayGroupItem struct {
	Availability *eventItem    `json:"availability,omitempty"`
	Sessions     []sessionItem `json:"sessions"`
}

// Day serves GET /api/v1/calendar/day?date=YYYY-MM-DD[&tz=...]: the coach's
// drill-down with sessions grouped under the availability windows that
// contain them.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}
	loc, ok := locationFrom(r)
	if !ok {
		http.Error(w, "unknown tz", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(r.URL.Query().Get("date")), loc)
	if err != nil {
		http.Error(w, "date required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	// Load a day either side so windows spilling over midnight still show.
	snap, err := h.snapshotFor(r, coachID, date.AddDate(0, 0, -1), date.AddDate(0, 0, 2), loc)
	if err != nil {
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}

	groups := snap.DayDetail(date)
	items := make([]dayGroupItem, 0, len(groups))
	for _, g := range groups {
		item := dayGroupItem{Sessions: make([]sessionItem, 0, len(g.Sessions))}
		if g.Availability != nil {
			item.Availability = &eventItem{
				StartTime: g.Availability.Start.Format(time.RFC3339),
				EndTime:   g.Availability.End.Format(time.RFC3339),
				Priority:  schedule.PriorityAvailability,
				SlotID:    g.Availability.Payload.ID,
			}
		}
		for _, seg := range g.Sessions {
			item.Sessions = append(item.Sessions, sessionItem{
				SessionID: seg.Session.ID,
				StartTime: seg.Start.Format(time.RFC3339),
				EndTime:   seg.End.Format(time.RFC3339),
				Status:    seg.Session.Status,
				Kind:      seg.Session.Kind,
				Offering:  seg.Session.Offering,
			})
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func sessionToItem(s model.CoachingSession) sessionItem {
	item := sessionItem{
		SessionID: s.ID,
		Status:    s.Status,
		Kind:      s.Kind,
		Offering:  s.Offering,
	}
	if s.StartTime != nil {
		item.StartTime = s.StartTime.UTC().Format(time.RFC3339)
	}
	if s.EndTime != nil {
		item.EndTime = s.EndTime.UTC().Format(time.RFC3339)
	}
	return item
}
