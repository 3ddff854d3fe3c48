// Package scan searches an owner's calendar for a free slot of a given
// length.
//
// Both searches are greedy walks over the owner's existing appointments,
// bounded by a horizon (seven days by default) so they always terminate.
//
// Forward (FindNextSlot), anchored at after:
//
//	appointments with after <= start < after+horizon, earliest start first
//	cursor := SnapForward(after)
//	for each a: if a.Start - cursor >= d, return [cursor, cursor+d)
//	            else cursor := SnapForward(a.End)
//	after the loop: [cursor, cursor+d) if cursor < after+horizon, else none
//
// Backward (FindSlotBefore), anchored at before:
//
//	appointments with end <= before and start >= before-horizon, latest end first
//	cursorEnd := SnapForward(before)
//	for each a: if cursorEnd - a.End >= d and both ends of
//	            [cursorEnd-d, cursorEnd) are business instants, return it
//	            cursorEnd := a.Start
//	after the loop: none
//
// The backward walk does not re-snap cursorEnd and has no trailing check
// after the loop. Callers relying on slot positions get the same answers
// the booking service has always produced.
//
// Scans only read the store. A failed read fails the scan; an empty window
// is a normal "nothing found" result.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/daviddao/reslot/pkg/clock"
	"github.com/daviddao/reslot/pkg/model"
)

// DefaultHorizon bounds how far either scan looks from its anchor.
const DefaultHorizon = 7 * 24 * time.Hour

// Lister is the slice of the appointment store a Scanner needs.
// *store.Store satisfies it.
type Lister interface {
	ListByOwnerInWindow(ctx context.Context, ownerID string, from, to time.Time, order model.WindowOrder) ([]model.Appointment, error)
}

// Scanner finds free slots in an owner's calendar.
type Scanner struct {
	store   Lister
	cal     clock.Calendar
	horizon time.Duration
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithHorizon overrides DefaultHorizon. Non-positive values are ignored.
func WithHorizon(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// New returns a Scanner reading from store and snapping with cal.
func New(store Lister, cal clock.Calendar, opts ...Option) *Scanner {
	s := &Scanner{store: store, cal: cal, horizon: DefaultHorizon}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Calendar returns the business-hours calendar the scanner snaps with.
func (s *Scanner) Calendar() clock.Calendar { return s.cal }

// FindNextSlot returns the earliest slot of length d at or after after, or
// nil when none fits inside the horizon.
func (s *Scanner) FindNextSlot(ctx context.Context, ownerID string, d time.Duration, after time.Time) (*model.Interval, error) {
	limit := after.Add(s.horizon)
	apts, err := s.store.ListByOwnerInWindow(ctx, ownerID, after, limit, model.OrderByStartAsc)
	if err != nil {
		return nil, fmt.Errorf("scan forward: %w", err)
	}

	cursor := s.cal.SnapForward(after)
	for _, a := range apts {
		if a.Start.Sub(cursor) >= d {
			return slot(cursor, cursor.Add(d)), nil
		}
		cursor = s.cal.SnapForward(a.End)
	}
	if cursor.Before(limit) {
		return slot(cursor, cursor.Add(d)), nil
	}
	return nil, nil
}

// FindSlotBefore returns the latest slot of length d ending at or before
// the snapped anchor, or nil when none is found between appointments.
func (s *Scanner) FindSlotBefore(ctx context.Context, ownerID string, d time.Duration, before time.Time) (*model.Interval, error) {
	apts, err := s.store.ListByOwnerInWindow(ctx, ownerID, before.Add(-s.horizon), before, model.OrderByEndDesc)
	if err != nil {
		return nil, fmt.Errorf("scan backward: %w", err)
	}

	cursorEnd := s.cal.SnapForward(before)
	for _, a := range apts {
		if cursorEnd.Sub(a.End) >= d {
			start := cursorEnd.Add(-d)
			if s.cal.IsBusinessInstant(start) && s.cal.IsBusinessInstant(cursorEnd) {
				return slot(start, cursorEnd), nil
			}
		}
		cursorEnd = a.Start
	}
	return nil, nil
}

func slot(start, end time.Time) *model.Interval {
	return &model.Interval{Start: start, End: end}
}
