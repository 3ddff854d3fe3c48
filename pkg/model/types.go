// Package model defines the core domain types for reslot.
//
// Reslot resolves scheduling conflicts for an owner's appointments. When a
// requested interval overlaps existing bookings, the resolver:
//
//   - classifies how the request relates to the conflicting bookings
//     (a ConflictPattern),
//   - searches the owner's calendar forward and backward for a free slot of
//     the same length inside business hours, and
//   - runs a handful of independent heuristic rules, each of which may
//     propose one ConflictSuggestion. Suggestions are ranked by confidence.
//
// All types here are plain values. The resolver never mutates an
// Appointment it is handed.
package model

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Appointment is a booking owned by a single user.
type Appointment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	OwnerID     string     `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Interval returns the appointment's [Start, End) range.
func (a Appointment) Interval() Interval { return Interval{Start: a.Start, End: a.End} }

// WindowOrder selects how an owner's appointments are windowed and sorted
// when listed for a slot search.
type WindowOrder int

const (
	// OrderByStartAsc windows on start (from <= start < to), earliest first.
	OrderByStartAsc WindowOrder = iota
	// OrderByEndDesc windows on end <= to and start >= from, latest end first.
	OrderByEndDesc
)

// ConflictPattern describes how a requested interval relates to the
// interval(s) it overlaps.
type ConflictPattern string

const (
	PatternNone           ConflictPattern = "no-conflict"
	PatternFullyContained ConflictPattern = "fully-contained"
	PatternFullyContains  ConflictPattern = "fully-contains"
	PatternOverlapStart   ConflictPattern = "overlap-start"
	PatternOverlapEnd     ConflictPattern = "overlap-end"
	PatternMultiple       ConflictPattern = "multiple-conflicts"
)

// SuggestionType enumerates the kinds of resolution a rule can propose.
type SuggestionType string

const (
	SuggestReschedule  SuggestionType = "reschedule"
	SuggestMoveEarlier SuggestionType = "move_earlier"
	SuggestSwap        SuggestionType = "swap"
	SuggestSplit       SuggestionType = "split"
	SuggestShorten     SuggestionType = "shorten"
)

// ConflictSuggestion is one candidate resolution. Confidence is a ranking
// score in [0, 1], not a probability.
type ConflictSuggestion struct {
	Type        SuggestionType `json:"type"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Reasoning   string         `json:"reasoning"`
	Proposed    *Interval      `json:"proposed_time,omitempty"`
}

// ResolutionRequest is the input to a single resolution call. The caller
// guarantees RequestedEnd > RequestedStart. Title is optional ("" = unset).
type ResolutionRequest struct {
	RequestedStart time.Time     `json:"requested_start"`
	RequestedEnd   time.Time     `json:"requested_end"`
	Conflicts      []Appointment `json:"conflicts"`
	OwnerID        string        `json:"owner_id"`
	Title          string        `json:"title,omitempty"`
}

// Requested returns the requested [start, end) range.
func (r ResolutionRequest) Requested() Interval {
	return Interval{Start: r.RequestedStart, End: r.RequestedEnd}
}

// ResolutionResult holds at most three suggestions ordered by confidence
// descending.
type ResolutionResult struct {
	Suggestions       []ConflictSuggestion `json:"suggestions"`
	Pattern           ConflictPattern      `json:"conflict_pattern"`
	HistoricalContext string               `json:"historical_context"`
}

// NoSuggestion is recorded as the top suggestion when no rule fired.
const NoSuggestion = "none"

// LogEntry is one record in the resolution log.
type LogEntry struct {
	ID              string          `json:"id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	OwnerID         string          `json:"user_id"`
	RequestedStart  time.Time       `json:"requested_start"`
	RequestedEnd    time.Time       `json:"requested_end"`
	Title           string          `json:"title,omitempty"`
	Pattern         ConflictPattern `json:"conflict_pattern"`
	TopSuggestion   string          `json:"top_suggestion"`
	SuggestionCount int             `json:"suggestion_count"`
}

// Statistics summarizes an owner's resolution history.
type Statistics struct {
	TotalConflicts int                     `json:"total_conflicts"`
	Patterns       map[ConflictPattern]int `json:"common_patterns"`
	Solutions      map[string]int          `json:"common_solutions"`
}

// NewStatistics returns an empty Statistics with initialized maps.
func NewStatistics() Statistics {
	return Statistics{
		Patterns:  map[ConflictPattern]int{},
		Solutions: map[string]int{},
	}
}

// Add counts one log entry.
func (s *Statistics) Add(e LogEntry) {
	s.TotalConflicts++
	s.Patterns[e.Pattern]++
	s.Solutions[e.TopSuggestion]++
}
