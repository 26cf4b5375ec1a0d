package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coachcal/coachcal/services/calendar-service/internal/schedule"
)

func TestParseWeekday(t *testing.T) {
	cases := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"monday", time.Monday, true},
		{"MONDAY", time.Monday, true},
		{" Sunday ", time.Sunday, true},
		{"0", time.Sunday, true},
		{"6", time.Saturday, true},
		{"7", 0, false},
		{"mon", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseWeekday(c.in)
		if ok != c.ok {
			t.Fatalf("parseWeekday(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("parseWeekday(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLocationFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/calendar/day", nil)
	loc, ok := locationFrom(req)
	if !ok || loc != time.UTC {
		t.Fatalf("expected UTC default, got %v ok=%v", loc, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/?tz=America/New_York", nil)
	loc, ok = locationFrom(req)
	if !ok || loc.String() != "America/New_York" {
		t.Fatalf("expected America/New_York, got %v ok=%v", loc, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/?tz=Not/AZone", nil)
	if _, ok := locationFrom(req); ok {
		t.Fatal("expected unknown tz to be rejected")
	}
}

func TestWriteEngineErrorStatuses(t *testing.T) {
	cases := []struct {
		reason schedule.Reason
		status int
	}{
		{schedule.ReasonMissingTimes, http.StatusBadRequest},
		{schedule.ReasonInvalidTimeRange, http.StatusBadRequest},
		{schedule.ReasonInvalidFormat, http.StatusBadRequest},
		{schedule.ReasonPastTime, http.StatusUnprocessableEntity},
		{schedule.ReasonNoSlotsGenerated, http.StatusUnprocessableEntity},
		{schedule.ReasonNoMatches, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		rw := httptest.NewRecorder()
		err := &schedule.ValidationError{Reason: c.reason}
		if !writeEngineError(rw, err) {
			t.Fatalf("writeEngineError should handle %s", c.reason)
		}
		if rw.Code != c.status {
			t.Fatalf("%s: expected %d, got %d", c.reason, c.status, rw.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rw.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != string(c.reason) {
			t.Fatalf("expected error %q, got %q", c.reason, body["error"])
		}
	}

	rw := httptest.NewRecorder()
	if writeEngineError(rw, http.ErrBodyNotAllowed) {
		t.Fatal("non-engine errors must not be handled")
	}
}

func TestResolveWindowExplicit(t *testing.T) {
	h := &CalendarHandler{}
	start, end, err := h.resolveWindow(sessionRequest{
		StartTime: "2026-09-01T10:00:00Z",
		EndTime:   "2026-09-01T11:00:00Z",
	}, time.UTC)
	if err != nil {
		t.Fatalf("resolveWindow failed: %v", err)
	}
	if start == nil || end == nil {
		t.Fatal("expected both instants resolved")
	}
	if !end.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected one-hour window, got %v..%v", start, end)
	}
}

func TestResolveWindowClockEntry(t *testing.T) {
	h := &CalendarHandler{}
	start, end, err := h.resolveWindow(sessionRequest{
		Date:            "2026-09-01",
		StartClock:      "2:30 PM",
		DurationMinutes: 45,
	}, time.UTC)
	if err != nil {
		t.Fatalf("resolveWindow failed: %v", err)
	}
	want := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	if start == nil || !start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, start)
	}
	if end == nil || !end.Equal(want.Add(45*time.Minute)) {
		t.Fatalf("expected 45m duration, got %v", end)
	}
}

func TestResolveWindowExplicitEndWins(t *testing.T) {
	h := &CalendarHandler{}
	start, end, err := h.resolveWindow(sessionRequest{
		StartTime:       "2026-09-01T10:00:00Z",
		EndTime:         "2026-09-01T10:30:00Z",
		DurationMinutes: 90,
	}, time.UTC)
	if err != nil {
		t.Fatalf("resolveWindow failed: %v", err)
	}
	if !end.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("explicit end_time must win over duration, got %v..%v", start, end)
	}
}

func TestResolveWindowMissingPiecesStayNil(t *testing.T) {
	h := &CalendarHandler{}
	start, end, err := h.resolveWindow(sessionRequest{}, time.UTC)
	if err != nil {
		t.Fatalf("resolveWindow failed: %v", err)
	}
	if start != nil || end != nil {
		t.Fatal("missing inputs must resolve to nil for the validator")
	}
}

func TestResolveWindowBadFormats(t *testing.T) {
	h := &CalendarHandler{}
	cases := []sessionRequest{
		{StartTime: "tomorrow at ten"},
		{Date: "09/01/2026", StartClock: "10:00"},
		{Date: "2026-09-01", StartClock: "quarter past nine"},
		{StartTime: "2026-09-01T10:00:00Z", EndTime: "later"},
	}
	for i, req := range cases {
		_, _, err := h.resolveWindow(req, time.UTC)
		reason, ok := schedule.ReasonOf(err)
		if !ok || reason != schedule.ReasonInvalidFormat {
			t.Fatalf("case %d: expected INVALID_FORMAT, got %v", i, err)
		}
	}
}

func TestHandlersRejectMissingIdentity(t *testing.T) {
	h := &CalendarHandler{}
	endpoints := []struct {
		method string
		target string
		fn     http.HandlerFunc
	}{
		{http.MethodPost, "/api/v1/availability", h.CreateSlot},
		{http.MethodPost, "/api/v1/availability/recurring", h.CreateRecurring},
		{http.MethodPost, "/api/v1/availability/recurring/matches", h.MatchRecurring},
		{http.MethodDelete, "/api/v1/availability/recurring", h.DeleteRecurring},
		{http.MethodDelete, "/api/v1/availability/7", h.DeleteSlot},
		{http.MethodGet, "/api/v1/calendar/week?start=2026-09-01", h.Week},
		{http.MethodGet, "/api/v1/calendar/month?month=2026-09", h.Month},
		{http.MethodGet, "/api/v1/calendar/day?date=2026-09-01", h.Day},
		{http.MethodGet, "/api/v1/sessions", h.ListSessions},
		{http.MethodPost, "/api/v1/sessions/request", h.RequestSession},
	}
	for _, e := range endpoints {
		req := httptest.NewRequest(e.method, "http://example.com"+e.target, strings.NewReader("{}"))
		rw := httptest.NewRecorder()
		e.fn(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400 without identity header, got %d", e.method, e.target, rw.Code)
		}
	}
}

func TestHandlersRejectWrongMethod(t *testing.T) {
	h := &CalendarHandler{}
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/availability", nil)
	req.Header.Set("X-Coach-Id", "coach-1")
	rw := httptest.NewRecorder()
	h.CreateSlot(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/calendar/week", nil)
	req.Header.Set("X-Coach-Id", "coach-1")
	rw = httptest.NewRecorder()
	h.Week(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}
