package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coachcal/coachcal/services/calendar-service/internal/model"
	"github.com/coachcal/coachcal/services/calendar-service/internal/outbox"
	"github.com/coachcal/coachcal/services/calendar-service/internal/schedule"
)

type sessionRequest struct {
	CoachID  string `json:"coach_id"`
	Offering string `json:"offering"`
	Kind     string `json:"kind"`

	// Explicit path: full RFC3339 instants.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Clock-entry path: a date plus a wall-clock start and a duration.
	Date            string `json:"date"`        // YYYY-MM-DD
	StartClock      string `json:"start_clock"` // "14:30" or "2:30 PM"
	DurationMinutes int    `json:"duration_minutes"`
}

// resolveWindow turns the request's two entry paths into start/end pointers
// for the validator. Missing pieces stay nil so the validator can report
// MISSING_TIMES itself. An explicit end_time always wins over one derived
// from duration_minutes.
func (h *CalendarHandler) resolveWindow(req sessionRequest, loc *time.Location) (start, end *time.Time, err error) {
	if req.StartTime != "" {
		t, perr := time.Parse(time.RFC3339, req.StartTime)
		if perr != nil {
			return nil, nil, &schedule.ValidationError{Reason: schedule.ReasonInvalidFormat, Detail: "start_time must be RFC3339"}
		}
		start = &t
	} else if req.Date != "" && req.StartClock != "" {
		day, perr := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), loc)
		if perr != nil {
			return nil, nil, &schedule.ValidationError{Reason: schedule.ReasonInvalidFormat, Detail: "date must be YYYY-MM-DD"}
		}
		clock, cerr := schedule.ParseClock(req.StartClock)
		if cerr != nil {
			return nil, nil, cerr
		}
		t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, loc)
		start = &t
	}

	if req.EndTime != "" {
		t, perr := time.Parse(time.RFC3339, req.EndTime)
		if perr != nil {
			return nil, nil, &schedule.ValidationError{Reason: schedule.ReasonInvalidFormat, Detail: "end_time must be RFC3339"}
		}
		end = &t
	} else if start != nil && req.DurationMinutes > 0 {
		t := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
		end = &t
	}
	return start, end, nil
}

// RequestSession serves POST /api/v1/sessions/request. The student identity
// comes from X-User-Id; the coach is named in the body. Validation failures
// reject the booking, a short-notice start only flags it.
func (h *CalendarHandler) RequestSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	studentID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if studentID == "" {
		http.Error(w, "missing X-User-Id", http.StatusBadRequest)
		return
	}
	loc, ok := locationFrom(r)
	if !ok {
		http.Error(w, "unknown tz", http.StatusBadRequest)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.CoachID) == "" {
		http.Error(w, "coach_id is required", http.StatusBadRequest)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = model.KindIndividual
	}
	if kind != model.KindIndividual && kind != model.KindGroup {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	start, end, err := h.resolveWindow(req, loc)
	if err != nil {
		if !writeEngineError(w, err) {
			http.Error(w, "invalid session times", http.StatusBadRequest)
		}
		return
	}

	ctx := r.Context()
	pol, err := h.policy.BookingPolicy(ctx, req.CoachID)
	if err != nil {
		http.Error(w, "policy lookup failed", http.StatusInternalServerError)
		return
	}

	shortNotice, err := schedule.ValidateBooking(start, end, h.now(), pol.AdvanceNotice)
	if err != nil {
		if !writeEngineError(w, err) {
			http.Error(w, "invalid session times", http.StatusBadRequest)
		}
		return
	}

	startUTC := start.UTC()
	endUTC := end.UTC()
	sess := &model.CoachingSession{
		ID:        uuid.NewString(),
		CoachID:   req.CoachID,
		StudentID: studentID,
		Offering:  req.Offering,
		Kind:      kind,
		Status:    model.SessionRequested,
		StartTime: &startUTC,
		EndTime:   &endUTC,
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.CreateSession(ctx, tx, sess); err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"session_id":   sess.ID,
		"coach_id":     sess.CoachID,
		"student_id":   sess.StudentID,
		"offering":     sess.Offering,
		"kind":         sess.Kind,
		"start_time":   startUTC.Format(time.RFC3339),
		"end_time":     endUTC.Format(time.RFC3339),
		"short_notice": shortNotice,
	})
	if err != nil {
		http.Error(w, "failed to encode event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "session",
		AggregateID:   sess.ID,
		EventType:     outbox.EventSessionRequested,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":   sess.ID,
		"short_notice": shortNotice,
	})
}

// ListSessions serves GET /api/v1/sessions: the coach's latest sessions,
// newest first, including unscheduled ones.
func (h *CalendarHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.repo.ListRecentSessions(r.Context(), coachID, limit)
	if err != nil {
		http.Error(w, "failed to load sessions", http.StatusInternalServerError)
		return
	}
	items := make([]sessionItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionToItem(s))
	}
	writeJSON(w, http.StatusOK, items)
}
