package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coachcal/coachcal/services/calendar-service/internal/outbox"
	"github.com/coachcal/coachcal/services/calendar-service/internal/policy"
	"github.com/coachcal/coachcal/services/calendar-service/internal/schedule"
	"github.com/coachcal/coachcal/services/calendar-service/internal/storage"
)

type CalendarHandler struct {
	repo       *storage.CalendarRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	policy     policy.Provider
	now        func() time.Time
}

func NewCalendarHandler(repo *storage.CalendarRepository, outboxRepo *outbox.Repository, logger *slog.Logger, policyProvider policy.Provider) *CalendarHandler {
	return &CalendarHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		policy:     policyProvider,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func coachIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Coach-Id"))
}

// locationFrom resolves the tz query parameter. Calendar-day boundaries are
// drawn in this location; everything is stored in UTC.
func locationFrom(r *http.Request) (*time.Location, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// writeEngineError maps engine validation reasons onto HTTP statuses. Format
// and shape problems are 400s; semantically empty outcomes are 422s.
func writeEngineError(w http.ResponseWriter, err error) bool {
	reason, ok := schedule.ReasonOf(err)
	if !ok {
		return false
	}
	status := http.StatusBadRequest
	switch reason {
	case schedule.ReasonPastTime, schedule.ReasonNoSlotsGenerated, schedule.ReasonNoMatches:
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  string(reason),
		"detail": err.Error(),
	})
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type createSlotRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *CalendarHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	window, err := schedule.ParseWindow(req.StartTime, req.EndTime)
	if err != nil {
		if !writeEngineError(w, err) {
			http.Error(w, "invalid window", http.StatusBadRequest)
		}
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.CreateSlot(ctx, tx, coachID, window.Start.UTC(), window.End.UTC())
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "slot overlaps an existing one", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create slot", http.StatusInternalServerError)
		return
	}

	if err := h.insertSlotEvent(ctx, tx, outbox.EventAvailabilityCreated, coachID, []int64{id}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"slot_id": id})
}

type recurringRequest struct {
	DayOfWeek   string `json:"day_of_week"`
	DailyStart  string `json:"daily_start"`
	DailyEnd    string `json:"daily_end"`
	HorizonDate string `json:"horizon_date"` // YYYY-MM-DD, required for creation only
}

func parseWeekday(s string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "0":
		return time.Sunday, true
	case "monday", "1":
		return time.Monday, true
	case "tuesday", "2":
		return time.Tuesday, true
	case "wednesday", "3":
		return time.Wednesday, true
	case "thursday", "4":
		return time.Thursday, true
	case "friday", "5":
		return time.Friday, true
	case "saturday", "6":
		return time.Saturday, true
	}
	return 0, false
}

// CreateRecurring expands a weekly rule and persists the whole batch in one
// transaction. Nothing is created when validation fails or when the rule
// yields no occurrences before the horizon.
func (h *CalendarHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	weekday, ok := parseWeekday(req.DayOfWeek)
	if !ok {
		http.Error(w, "invalid day_of_week", http.StatusBadRequest)
		return
	}
	horizon, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.HorizonDate), loc)
	if err != nil {
		http.Error(w, "invalid horizon_date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	pol, err := h.policy.BookingPolicy(ctx, coachID)
	if err != nil {
		http.Error(w, "policy lookup failed", http.StatusInternalServerError)
		return
	}

	rule := schedule.Rule{
		Weekday:    weekday,
		DailyStart: req.DailyStart,
		DailyEnd:   req.DailyEnd,
		Horizon:    horizon,
	}
	windows, err := schedule.ExpandRule(rule, h.now().In(loc), pol.MaxHorizonMonths)
	if err != nil {
		if !writeEngineError(w, err) {
			http.Error(w, "invalid recurrence rule", http.StatusBadRequest)
		}
		return
	}

	batch := make([][2]time.Time, 0, len(windows))
	for _, win := range windows {
		batch = append(batch, [2]time.Time{win.Start.UTC(), win.End.UTC()})
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids, err := h.repo.CreateSlotBatch(ctx, tx, coachID, batch)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "a generated slot overlaps an existing one", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create slots", http.StatusInternalServerError)
		return
	}
	if err := h.insertSlotEvent(ctx, tx, outbox.EventAvailabilityCreated, coachID, ids); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"created":  len(ids),
		"slot_ids": ids,
	})
}

// MatchRecurring previews which existing slots a recurring deletion would
// remove, so the UI can show a count before the coach confirms.
func (h *CalendarHandler) MatchRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slots, _, done := h.matchFromRequest(w, r)
	if done {
		return
	}
	ids := slotIDs(slots)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(ids),
		"slot_ids": ids,
	})
}

// DeleteRecurring removes every matched slot in one batch. The match runs
// against the snapshot the coach previewed; the delete is all-or-nothing.
func (h *CalendarHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slots, coachID, done := h.matchFromRequest(w, r)
	if done {
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := slotIDs(slots)
	deleted, err := h.repo.DeleteSlotBatch(ctx, tx, coachID, ids)
	if err != nil {
		http.Error(w, "failed to delete slots", http.StatusInternalServerError)
		return
	}
	if err := h.insertSlotEvent(ctx, tx, outbox.EventAvailabilityRemoved, coachID, ids); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":  deleted,
		"slot_ids": ids,
	})
}

// matchFromRequest runs the shared decode + recurrence match for the preview
// and delete endpoints. done is true when a response was already written.
func (h *CalendarHandler) matchFromRequest(w http.ResponseWriter, r *http.Request) (matched []schedule.Slot, coachID string, done bool) {
	coachID = coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return nil, "", true
	}
	loc, ok := locationFrom(r)
	if !ok {
		http.Error(w, "unknown tz", http.StatusBadRequest)
		return nil, "", true
	}

	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return nil, "", true
	}
	weekday, ok := parseWeekday(req.DayOfWeek)
	if !ok {
		http.Error(w, "invalid day_of_week", http.StatusBadRequest)
		return nil, "", true
	}

	now := h.now().In(loc)
	// Generous lower bound; the engine re-applies the today-or-later filter
	// against local midnight.
	existing, err := h.repo.ListUpcomingSlots(r.Context(), coachID, now.Add(-48*time.Hour))
	if err != nil {
		http.Error(w, "failed to load slots", http.StatusInternalServerError)
		return nil, "", true
	}

	candidates := make([]schedule.Slot, 0, len(existing))
	for _, s := range existing {
		candidates = append(candidates, schedule.Slot{
			ID:     s.ID,
			Window: schedule.Window{Start: s.StartTime.In(loc), End: s.EndTime.In(loc)},
		})
	}

	matched, err = schedule.MatchRecurring(candidates, weekday, req.DailyStart, req.DailyEnd, now)
	if err != nil {
		if !writeEngineError(w, err) {
			http.Error(w, "match failed", http.StatusBadRequest)
		}
		return nil, "", true
	}
	return matched, coachID, false
}

func slotIDs(slots []schedule.Slot) []int64 {
	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	return ids
}

// DeleteSlot removes one slot by id: DELETE /api/v1/availability/{id}.
func (h *CalendarHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	coachID := coachIDFromHeader(r)
	if coachID == "" {
		http.Error(w, "missing X-Coach-Id", http.StatusBadRequest)
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/v1/availability/")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteSlot(r.Context(), coachID, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "slot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete slot", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) insertSlotEvent(ctx context.Context, tx pgx.Tx, eventType, coachID string, ids []int64) error {
	payload, err := json.Marshal(map[string]any{
		"coach_id": coachID,
		"slot_ids": ids,
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "availability",
		AggregateID:   coachID,
		EventType:     eventType,
		Payload:       payload,
	})
}
