package schedule

import (
	"testing"
	"time"
)

func TestSplitByDay_SameDay(t *testing.T) {
	loc := time.UTC
	w := Window{
		Start: time.Date(2026, 3, 20, 9, 0, 0, 0, loc),
		End:   time.Date(2026, 3, 20, 17, 0, 0, 0, loc),
	}

	segs := SplitByDay(w, "payload")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if !segs[0].Start.Equal(w.Start) || !segs[0].End.Equal(w.End) {
		t.Fatalf("same-day segment must equal the input, got %s-%s", segs[0].Start, segs[0].End)
	}
	if segs[0].Payload != "payload" {
		t.Fatalf("payload not carried through")
	}
}

func TestSplitByDay_MultiDay(t *testing.T) {
	loc := time.UTC
	w := Window{
		Start: time.Date(2026, 3, 20, 22, 0, 0, 0, loc),
		End:   time.Date(2026, 3, 22, 2, 30, 0, 0, loc),
	}

	segs := SplitByDay(w, 0)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}

	// First segment starts at the original start.
	if !segs[0].Start.Equal(w.Start) {
		t.Fatalf("first segment start = %s, want %s", segs[0].Start, w.Start)
	}
	// Last segment ends at the original end.
	if !segs[len(segs)-1].End.Equal(w.End) {
		t.Fatalf("last segment end = %s, want %s", segs[len(segs)-1].End, w.End)
	}

	for i, seg := range segs {
		sy, sm, sd := seg.Start.Date()
		ey, em, ed := seg.End.Date()
		if sy != ey || sm != em || sd != ed {
			t.Fatalf("segment %d crosses a day boundary: %s-%s", i, seg.Start, seg.End)
		}
		if i == 0 {
			continue
		}
		// Each later segment starts at the midnight immediately after the
		// previous segment's end.
		wantStart := segs[i-1].End.Add(time.Nanosecond)
		if !seg.Start.Equal(wantStart) {
			t.Fatalf("segment %d start = %s, want contiguous %s", i, seg.Start, wantStart)
		}
		if seg.Start.Hour() != 0 || seg.Start.Minute() != 0 {
			t.Fatalf("segment %d must start at midnight, got %s", i, seg.Start)
		}
	}
}

func TestSplitByDay_EndExactlyAtMidnight(t *testing.T) {
	loc := time.UTC
	w := Window{
		Start: time.Date(2026, 3, 20, 23, 0, 0, 0, loc),
		End:   time.Date(2026, 3, 21, 0, 0, 0, 0, loc),
	}

	segs := SplitByDay(w, 0)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if !segs[1].Start.Equal(segs[1].End) {
		t.Fatalf("midnight-terminated window should end with a zero-length segment")
	}
}

func TestDaySegment_DateKey(t *testing.T) {
	seg := DaySegment[int]{Start: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)}
	if got := seg.DateKey(); got != "2026-03-05" {
		t.Fatalf("DateKey = %q, want 2026-03-05", got)
	}
}
