package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daviddao/reslot/pkg/clock"
	"github.com/daviddao/reslot/pkg/model"
)

// fakeLister returns a fixed list and remembers the window it was asked for.
type fakeLister struct {
	apts []model.Appointment
	err  error

	calls    int
	gotFrom  time.Time
	gotTo    time.Time
	gotOrder model.WindowOrder
}

func (f *fakeLister) ListByOwnerInWindow(_ context.Context, _ string, from, to time.Time, order model.WindowOrder) ([]model.Appointment, error) {
	f.calls++
	f.gotFrom, f.gotTo, f.gotOrder = from, to, order
	if f.err != nil {
		return nil, f.err
	}
	return f.apts, nil
}

// at builds a UTC instant in January 2025. The 13th is a Monday.
func at(day, h, m int) time.Time {
	return time.Date(2025, 1, day, h, m, 0, 0, time.UTC)
}

func apt(start, end time.Time) model.Appointment {
	return model.Appointment{OwnerID: "alice", Title: "busy", Start: start, End: end}
}

func wantSlot(t *testing.T, got *model.Interval, start, end time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("got no slot, want [%v, %v)", start, end)
	}
	if !got.Start.Equal(start) || !got.End.Equal(end) {
		t.Fatalf("got [%v, %v), want [%v, %v)", got.Start, got.End, start, end)
	}
}

// --- Forward ---

func TestFindNextSlot(t *testing.T) {
	tests := []struct {
		name      string
		after     time.Time
		d         time.Duration
		apts      []model.Appointment
		wantStart time.Time
	}{
		{
			name:      "empty calendar starts at anchor",
			after:     at(15, 10, 0),
			d:         time.Hour,
			wantStart: at(15, 10, 0),
		},
		{
			name:      "gap before first appointment",
			after:     at(15, 9, 0),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(15, 11, 0), at(15, 12, 0))},
			wantStart: at(15, 9, 0),
		},
		{
			name:      "gap exactly the duration",
			after:     at(15, 9, 0),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(15, 10, 0), at(15, 12, 0))},
			wantStart: at(15, 9, 0),
		},
		{
			name:      "too small gap moves past appointment",
			after:     at(15, 9, 0),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(15, 9, 30), at(15, 10, 0)), apt(at(15, 10, 30), at(15, 11, 0))},
			wantStart: at(15, 11, 0),
		},
		{
			name:      "appointment running past close snaps to next morning",
			after:     at(15, 16, 0),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(15, 16, 30), at(15, 17, 30))},
			wantStart: at(16, 8, 0),
		},
		{
			name:      "friday evening snaps to monday",
			after:     at(17, 16, 30),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(17, 16, 45), at(17, 17, 0))},
			wantStart: at(20, 8, 0),
		},
		{
			name:      "weekend anchor snaps to monday",
			after:     at(18, 10, 0),
			d:         30 * time.Minute,
			wantStart: at(20, 8, 0),
		},
		{
			name:      "early anchor snaps to open",
			after:     at(15, 6, 0),
			d:         time.Hour,
			wantStart: at(15, 8, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeLister{apts: tt.apts}, clock.Default)
			got, err := s.FindNextSlot(context.Background(), "alice", tt.d, tt.after)
			if err != nil {
				t.Fatalf("FindNextSlot: %v", err)
			}
			wantSlot(t, got, tt.wantStart, tt.wantStart.Add(tt.d))
		})
	}
}

func TestFindNextSlot_Window(t *testing.T) {
	f := &fakeLister{}
	after := at(15, 10, 0)
	if _, err := New(f, clock.Default).FindNextSlot(context.Background(), "alice", time.Hour, after); err != nil {
		t.Fatal(err)
	}
	if f.calls != 1 {
		t.Fatalf("store calls: got %d, want 1", f.calls)
	}
	if !f.gotFrom.Equal(after) || !f.gotTo.Equal(after.Add(DefaultHorizon)) {
		t.Fatalf("window: got [%v, %v), want [%v, %v)", f.gotFrom, f.gotTo, after, after.Add(DefaultHorizon))
	}
	if f.gotOrder != model.OrderByStartAsc {
		t.Fatalf("order: got %v, want OrderByStartAsc", f.gotOrder)
	}
}

func TestFindNextSlot_BeyondHorizon(t *testing.T) {
	f := &fakeLister{apts: []model.Appointment{apt(at(15, 16, 10), at(15, 17, 0))}}
	s := New(f, clock.Default, WithHorizon(time.Hour))
	got, err := s.FindNextSlot(context.Background(), "alice", time.Hour, at(15, 16, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %+v, want no slot", got)
	}
}

func TestFindNextSlot_StoreError(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeLister{err: boom}, clock.Default)
	got, err := s.FindNextSlot(context.Background(), "alice", time.Hour, at(15, 10, 0))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v on error, want nil", got)
	}
}

func TestWithHorizon_IgnoresNonPositive(t *testing.T) {
	s := New(&fakeLister{}, clock.Default, WithHorizon(0), WithHorizon(-time.Hour))
	if s.horizon != DefaultHorizon {
		t.Fatalf("horizon: got %v, want %v", s.horizon, DefaultHorizon)
	}
}

// --- Backward ---

func TestFindSlotBefore(t *testing.T) {
	tests := []struct {
		name      string
		before    time.Time
		d         time.Duration
		apts      []model.Appointment // latest end first
		wantStart time.Time
		wantNone  bool
	}{
		{
			name:     "no appointments finds nothing",
			before:   at(15, 15, 0),
			d:        time.Hour,
			wantNone: true,
		},
		{
			name:      "gap after latest appointment",
			before:    at(15, 15, 0),
			d:         time.Hour,
			apts:      []model.Appointment{apt(at(15, 12, 0), at(15, 13, 0))},
			wantStart: at(15, 14, 0),
		},
		{
			name:   "walks back between appointments",
			before: at(15, 12, 0),
			d:      time.Hour,
			apts: []model.Appointment{
				apt(at(15, 11, 30), at(15, 12, 0)),
				apt(at(15, 9, 0), at(15, 10, 30)),
			},
			wantStart: at(15, 10, 30),
		},
		{
			name:   "candidate outside business hours is rejected",
			before: at(15, 17, 30),
			d:      time.Hour,
			// cursorEnd snaps to Thursday 08:00, so [07:00, 08:00) is rejected.
			apts:     []model.Appointment{apt(at(15, 9, 0), at(15, 10, 0))},
			wantNone: true,
		},
		{
			name:   "cursor is not re-snapped after moving to a start",
			before: at(15, 10, 0),
			d:      30 * time.Minute,
			apts: []model.Appointment{
				apt(at(15, 8, 10), at(15, 10, 0)),
				apt(at(14, 16, 0), at(14, 16, 30)),
			},
			wantNone: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeLister{apts: tt.apts}, clock.Default)
			got, err := s.FindSlotBefore(context.Background(), "alice", tt.d, tt.before)
			if err != nil {
				t.Fatalf("FindSlotBefore: %v", err)
			}
			if tt.wantNone {
				if got != nil {
					t.Fatalf("got [%v, %v), want no slot", got.Start, got.End)
				}
				return
			}
			wantSlot(t, got, tt.wantStart, tt.wantStart.Add(tt.d))
		})
	}
}

func TestFindSlotBefore_Window(t *testing.T) {
	f := &fakeLister{}
	before := at(15, 10, 0)
	if _, err := New(f, clock.Default).FindSlotBefore(context.Background(), "alice", time.Hour, before); err != nil {
		t.Fatal(err)
	}
	if !f.gotFrom.Equal(before.Add(-DefaultHorizon)) || !f.gotTo.Equal(before) {
		t.Fatalf("window: got [%v, %v], want [%v, %v]", f.gotFrom, f.gotTo, before.Add(-DefaultHorizon), before)
	}
	if f.gotOrder != model.OrderByEndDesc {
		t.Fatalf("order: got %v, want OrderByEndDesc", f.gotOrder)
	}
}

func TestFindSlotBefore_StoreError(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeLister{err: boom}, clock.Default)
	if _, err := s.FindSlotBefore(context.Background(), "alice", time.Hour, at(15, 10, 0)); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestScanner_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := New(&fakeLister{}, clock.New(loc))
	// 05:00 UTC is 07:00 local, so the slot starts at 08:00 local.
	got, err := s.FindNextSlot(context.Background(), "alice", time.Hour, at(15, 5, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 1, 15, 8, 0, 0, 0, loc)
	wantSlot(t, got, want, want.Add(time.Hour))
	if s.Calendar().Location != loc {
		t.Fatal("Calendar should report the configured location")
	}
}
