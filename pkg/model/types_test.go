package model

import (
	"testing"
	"time"
)

func TestInterval_Duration(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	iv := Interval{Start: start, End: start.Add(90 * time.Minute)}
	if d := iv.Duration(); d != 90*time.Minute {
		t.Fatalf("Duration: got %v, want 90m", d)
	}
}

func TestAppointment_Interval(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	a := Appointment{ID: "apt-1", Start: start, End: start.Add(time.Hour)}
	iv := a.Interval()
	if !iv.Start.Equal(a.Start) || !iv.End.Equal(a.End) {
		t.Fatalf("Interval: got %v, want [%v, %v)", iv, a.Start, a.End)
	}
}

func TestResolutionRequest_Requested(t *testing.T) {
	start := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	r := ResolutionRequest{RequestedStart: start, RequestedEnd: start.Add(3 * time.Hour)}
	if d := r.Requested().Duration(); d != 3*time.Hour {
		t.Fatalf("Requested().Duration: got %v, want 3h", d)
	}
}

func TestStatistics_Add(t *testing.T) {
	s := NewStatistics()
	s.Add(LogEntry{Pattern: PatternOverlapEnd, TopSuggestion: string(SuggestReschedule)})
	s.Add(LogEntry{Pattern: PatternOverlapEnd, TopSuggestion: NoSuggestion})
	s.Add(LogEntry{Pattern: PatternMultiple, TopSuggestion: string(SuggestReschedule)})

	if s.TotalConflicts != 3 {
		t.Fatalf("TotalConflicts: got %d, want 3", s.TotalConflicts)
	}
	if s.Patterns[PatternOverlapEnd] != 2 || s.Patterns[PatternMultiple] != 1 {
		t.Fatalf("Patterns: got %v", s.Patterns)
	}
	if s.Solutions["reschedule"] != 2 || s.Solutions[NoSuggestion] != 1 {
		t.Fatalf("Solutions: got %v", s.Solutions)
	}
}

func TestStatistics_ZeroValueMapsInitialized(t *testing.T) {
	s := NewStatistics()
	if s.Patterns == nil || s.Solutions == nil {
		t.Fatal("NewStatistics should initialize both maps")
	}
	if s.TotalConflicts != 0 {
		t.Fatalf("TotalConflicts: got %d, want 0", s.TotalConflicts)
	}
}
