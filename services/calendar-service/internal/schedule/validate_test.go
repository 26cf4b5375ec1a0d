package schedule

import (
	"testing"
	"time"
)

var bookingNow = time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)

func TestValidateBooking_OrderOfChecks(t *testing.T) {
	// Missing bounds win over everything else, even when ordering would also fail.
	if _, err := ValidateBooking(nil, nil, bookingNow, 3*time.Hour); err == nil {
		t.Fatal("expected MISSING_TIMES")
	} else if reason, _ := ReasonOf(err); reason != ReasonMissingTimes {
		t.Fatalf("reason = %v, want MISSING_TIMES", reason)
	}

	past := bookingNow.Add(-2 * time.Hour)
	if _, err := ValidateBooking(&past, nil, bookingNow, 3*time.Hour); err == nil {
		t.Fatal("expected MISSING_TIMES for nil end")
	} else if reason, _ := ReasonOf(err); reason != ReasonMissingTimes {
		t.Fatalf("reason = %v, want MISSING_TIMES", reason)
	}

	// Inverted range beats past-time.
	start := bookingNow.Add(-1 * time.Hour)
	end := bookingNow.Add(-2 * time.Hour)
	if _, err := ValidateBooking(&start, &end, bookingNow, 3*time.Hour); err == nil {
		t.Fatal("expected INVALID_TIME_RANGE")
	} else if reason, _ := ReasonOf(err); reason != ReasonInvalidTimeRange {
		t.Fatalf("reason = %v, want INVALID_TIME_RANGE", reason)
	}

	start = bookingNow.Add(-1 * time.Hour)
	end = bookingNow.Add(1 * time.Hour)
	if _, err := ValidateBooking(&start, &end, bookingNow, 3*time.Hour); err == nil {
		t.Fatal("expected PAST_TIME")
	} else if reason, _ := ReasonOf(err); reason != ReasonPastTime {
		t.Fatalf("reason = %v, want PAST_TIME", reason)
	}
}

func TestValidateBooking_ShortNoticeThreshold(t *testing.T) {
	notice := 3 * time.Hour

	// Exactly at the threshold: no advisory (strict less-than).
	start := bookingNow.Add(3 * time.Hour)
	end := start.Add(time.Hour)
	shortNotice, err := ValidateBooking(&start, &end, bookingNow, notice)
	if err != nil {
		t.Fatalf("ValidateBooking: %v", err)
	}
	if shortNotice {
		t.Fatal("a booking exactly at the notice threshold must not be flagged")
	}

	// Just under the threshold: advisory fires, booking still valid.
	start = bookingNow.Add(3*time.Hour - time.Minute)
	end = start.Add(time.Hour)
	shortNotice, err = ValidateBooking(&start, &end, bookingNow, notice)
	if err != nil {
		t.Fatalf("ValidateBooking: %v", err)
	}
	if !shortNotice {
		t.Fatal("a booking under the notice threshold must be flagged")
	}
}

func TestValidateBooking_AdvisoryDisabled(t *testing.T) {
	start := bookingNow.Add(10 * time.Minute)
	end := start.Add(time.Hour)
	shortNotice, err := ValidateBooking(&start, &end, bookingNow, 0)
	if err != nil {
		t.Fatalf("ValidateBooking: %v", err)
	}
	if shortNotice {
		t.Fatal("zero notice disables the advisory entirely")
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2026-03-20T09:00:00Z", "2026-03-20T17:00:00Z")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if !w.Valid() {
		t.Fatal("expected a valid window")
	}

	if _, err := ParseWindow("soon", "2026-03-20T17:00:00Z"); err == nil {
		t.Fatal("expected INVALID_FORMAT")
	} else if reason, _ := ReasonOf(err); reason != ReasonInvalidFormat {
		t.Fatalf("reason = %v, want INVALID_FORMAT", reason)
	}

	if _, err := ParseWindow("2026-03-20T17:00:00Z", "2026-03-20T09:00:00Z"); err == nil {
		t.Fatal("expected INVALID_TIME_RANGE")
	} else if reason, _ := ReasonOf(err); reason != ReasonInvalidTimeRange {
		t.Fatalf("reason = %v, want INVALID_TIME_RANGE", reason)
	}
}
