package schedule

import (
	"testing"
	"time"
)

// 2026-03-19 is a Thursday.
var thursdayNow = time.Date(2026, 3, 19, 10, 0, 0, 0, time.UTC)

func TestExpandRule_WeeklyBounds(t *testing.T) {
	rule := Rule{
		Weekday:    time.Thursday,
		DailyStart: "09:00",
		DailyEnd:   "17:00",
		Horizon:    time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	}

	windows, err := ExpandRule(rule, thursdayNow, 0)
	if err != nil {
		t.Fatalf("ExpandRule: %v", err)
	}
	if len(windows) != 6 {
		t.Fatalf("expected 6 windows, got %d", len(windows))
	}

	// Today is a Thursday but must not be included; generation starts next week.
	first := time.Date(2026, 3, 26, 9, 0, 0, 0, time.UTC)
	if !windows[0].Start.Equal(first) {
		t.Fatalf("first window = %s, want %s", windows[0].Start, first)
	}

	for i, w := range windows {
		if w.Start.Weekday() != time.Thursday {
			t.Fatalf("window %d on %s, want Thursday", i, w.Start.Weekday())
		}
		if !w.Start.After(thursdayNow) {
			t.Fatalf("window %d not strictly after today: %s", i, w.Start)
		}
		if w.End.Sub(w.Start) != 8*time.Hour {
			t.Fatalf("window %d span = %s, want 8h", i, w.End.Sub(w.Start))
		}
		if i > 0 && w.Start.Sub(windows[i-1].Start) != 7*24*time.Hour {
			t.Fatalf("windows %d and %d are not 7 days apart", i-1, i)
		}
	}

	// Horizon is inclusive: 2026-04-30 is itself a Thursday and must be emitted.
	last := windows[len(windows)-1]
	if last.Start.Day() != 30 || last.Start.Month() != time.April {
		t.Fatalf("last window = %s, want 2026-04-30", last.Start)
	}
}

func TestExpandRule_HorizonTooCloseIsNotSilent(t *testing.T) {
	rule := Rule{
		Weekday:    time.Monday,
		DailyStart: "09:00",
		DailyEnd:   "10:00",
		Horizon:    time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), // tomorrow, a Friday
	}

	if _, err := ExpandRule(rule, thursdayNow, 0); err == nil {
		t.Fatal("expected NO_SLOTS_GENERATED")
	} else if reason, _ := ReasonOf(err); reason != ReasonNoSlotsGenerated {
		t.Fatalf("reason = %v, want NO_SLOTS_GENERATED", reason)
	}
}

func TestExpandRule_HorizonValidation(t *testing.T) {
	base := Rule{Weekday: time.Monday, DailyStart: "09:00", DailyEnd: "10:00"}

	past := base
	past.Horizon = thursdayNow.AddDate(0, 0, -1)
	if _, err := ExpandRule(past, thursdayNow, 0); err == nil {
		t.Fatal("expected error for past horizon")
	}

	today := base
	today.Horizon = thursdayNow
	if _, err := ExpandRule(today, thursdayNow, 0); err == nil {
		t.Fatal("expected error for today horizon")
	}

	tooFar := base
	tooFar.Horizon = thursdayNow.AddDate(0, 7, 0)
	if _, err := ExpandRule(tooFar, thursdayNow, 6); err == nil {
		t.Fatal("expected error for horizon past the maximum")
	} else if reason, _ := ReasonOf(err); reason != ReasonInvalidTimeRange {
		t.Fatalf("reason = %v, want INVALID_TIME_RANGE", reason)
	}
}

func TestExpandRule_ClockValidation(t *testing.T) {
	rule := Rule{
		Weekday:    time.Monday,
		DailyStart: "9am",
		DailyEnd:   "17:00",
		Horizon:    thursdayNow.AddDate(0, 1, 0),
	}
	if _, err := ExpandRule(rule, thursdayNow, 0); err == nil {
		t.Fatal("expected INVALID_FORMAT for 12-hour input")
	} else if reason, _ := ReasonOf(err); reason != ReasonInvalidFormat {
		t.Fatalf("reason = %v, want INVALID_FORMAT", reason)
	}
}

func slotOn(id int64, day time.Time, startHour, startMin, endHour, endMin int) Slot {
	return Slot{
		ID: id,
		Window: Window{
			Start: time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, day.Location()),
			End:   time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, day.Location()),
		},
	}
}

func TestMatchRecurring_ContainmentNotOverlap(t *testing.T) {
	nextThursday := time.Date(2026, 3, 26, 0, 0, 0, 0, time.UTC)
	slots := []Slot{
		slotOn(1, nextThursday, 9, 0, 17, 0),  // contains 10:00-11:00
		slotOn(2, nextThursday, 10, 0, 11, 0), // exactly the query
		slotOn(3, nextThursday, 10, 30, 12, 0),
	}

	matched, err := MatchRecurring(slots, time.Thursday, "10:00", "11:00", thursdayNow)
	if err != nil {
		t.Fatalf("MatchRecurring: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0].ID != 1 || matched[1].ID != 2 {
		t.Fatalf("matched ids = %d,%d, want 1,2", matched[0].ID, matched[1].ID)
	}

	// Overlap without containment is not enough: a 10:00-11:00 slot does not
	// match a wider 09:00-12:00 query.
	if _, err := MatchRecurring([]Slot{slotOn(2, nextThursday, 10, 0, 11, 0)}, time.Thursday, "09:00", "12:00", thursdayNow); err == nil {
		t.Fatal("partial overlap must not match")
	}
}

func TestMatchRecurring_WeekdayAndDateFilters(t *testing.T) {
	friday := time.Date(2026, 3, 27, 0, 0, 0, 0, time.UTC)
	pastThursday := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	slots := []Slot{
		slotOn(1, friday, 9, 0, 17, 0),       // wrong weekday
		slotOn(2, pastThursday, 9, 0, 17, 0), // before today
	}

	_, err := MatchRecurring(slots, time.Thursday, "10:00", "11:00", thursdayNow)
	if err == nil {
		t.Fatal("expected NO_MATCHES")
	}
	if reason, _ := ReasonOf(err); reason != ReasonNoMatches {
		t.Fatalf("reason = %v, want NO_MATCHES", reason)
	}
}

func TestMatchRecurring_TodayIsEligible(t *testing.T) {
	today := time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)
	slots := []Slot{slotOn(7, today, 9, 0, 17, 0)}

	matched, err := MatchRecurring(slots, time.Thursday, "10:00", "11:00", thursdayNow)
	if err != nil {
		t.Fatalf("MatchRecurring: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != 7 {
		t.Fatalf("today's slot should match, got %v", matched)
	}
}
