// Package overlap classifies how a requested interval relates to the
// bookings it collides with.
//
// With a single conflicting booking c, the requested interval [s, e) falls
// into exactly one of four shapes, decided by boundary comparisons alone:
//
//	s >= c.Start && e <= c.End   fully-contained  (request sits inside c)
//	s <  c.Start && e >  c.End   fully-contains   (request swallows c)
//	s <  c.Start                 overlap-end      (request runs into c)
//	otherwise                    overlap-start    (request starts inside c)
//
// Zero conflicts is no-conflict; two or more is multiple-conflicts,
// whatever the individual shapes are. Titles and durations play no part.
package overlap

import (
	"time"

	"github.com/daviddao/reslot/pkg/model"
)

// Classify returns the conflict pattern of [start, end) against conflicts.
// It is total: any input, including end <= start, yields some pattern.
func Classify(start, end time.Time, conflicts []model.Appointment) model.ConflictPattern {
	switch len(conflicts) {
	case 0:
		return model.PatternNone
	case 1:
	default:
		return model.PatternMultiple
	}

	c := conflicts[0]
	switch {
	case !start.Before(c.Start) && !end.After(c.End):
		return model.PatternFullyContained
	case start.Before(c.Start) && end.After(c.End):
		return model.PatternFullyContains
	case start.Before(c.Start):
		return model.PatternOverlapEnd
	default:
		return model.PatternOverlapStart
	}
}

// Overlaps reports whether two half-open intervals intersect. Touching
// intervals ([9,10) and [10,11)) do not overlap.
func Overlaps(a, b model.Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Filter returns the appointments in candidates that overlap iv, in their
// input order.
func Filter(iv model.Interval, candidates []model.Appointment) []model.Appointment {
	var out []model.Appointment
	for _, a := range candidates {
		if Overlaps(iv, a.Interval()) {
			out = append(out, a)
		}
	}
	return out
}
