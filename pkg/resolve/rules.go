package resolve

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/daviddao/reslot/pkg/model"
)

// Rule confidences. They rank suggestions against each other and carry no
// other meaning.
const (
	ConfidenceReschedule  = 0.90
	ConfidenceMoveEarlier = 0.85
	ConfidenceSwap        = 0.75
	ConfidenceShorten     = 0.70
	ConfidenceSplit       = 0.65
)

// MaxSuggestions caps the suggestions returned by Resolve.
const MaxSuggestions = 3

// splitMinGap is the exclusive lower bound on both halves of a split.
const splitMinGap = 15 * time.Minute

// swapKeywords mark a conflicting appointment as a likely swap candidate.
// Matching is a plain case-insensitive substring test.
var swapKeywords = []string{"planning", "review"}

// ruleInput is everything a rule may look at.
type ruleInput struct {
	req     model.ResolutionRequest
	next    *model.Interval // forward scan result, nil if none
	earlier *model.Interval // backward scan result, nil if none
}

// A rule proposes at most one suggestion.
type rule func(in ruleInput) *model.ConflictSuggestion

// rules in evaluation order. Equal confidences keep this order.
var rules = []rule{
	ruleReschedule,
	ruleMoveEarlier,
	ruleSwap,
	ruleSplit,
	ruleShorten,
}

// Suggest evaluates every rule and returns all candidates, stable-sorted by
// confidence descending. It does not truncate.
func Suggest(req model.ResolutionRequest, next, earlier *model.Interval) []model.ConflictSuggestion {
	in := ruleInput{req: req, next: next, earlier: earlier}
	var out []model.ConflictSuggestion
	for _, r := range rules {
		if s := r(in); s != nil {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func top(s []model.ConflictSuggestion, n int) []model.ConflictSuggestion {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func ruleReschedule(in ruleInput) *model.ConflictSuggestion {
	if in.next == nil {
		return nil
	}
	return &model.ConflictSuggestion{
		Type:        model.SuggestReschedule,
		Confidence:  ConfidenceReschedule,
		Description: "Reschedule to next available time slot",
		Reasoning:   "Next available slot with same duration. No conflicts detected.",
		Proposed:    copyInterval(*in.next),
	}
}

func ruleMoveEarlier(in ruleInput) *model.ConflictSuggestion {
	if in.earlier == nil {
		return nil
	}
	return &model.ConflictSuggestion{
		Type:        model.SuggestMoveEarlier,
		Confidence:  ConfidenceMoveEarlier,
		Description: "Move earlier to avoid conflict",
		Reasoning:   "Available slot before requested time. Same day if possible.",
		Proposed:    copyInterval(*in.earlier),
	}
}

func ruleSwap(in ruleInput) *model.ConflictSuggestion {
	for _, c := range in.req.Conflicts {
		if !isSwapCandidate(c.Title) {
			continue
		}
		return &model.ConflictSuggestion{
			Type:        model.SuggestSwap,
			Confidence:  ConfidenceSwap,
			Description: fmt.Sprintf("Swap with lower priority appointment: \"%s\"", c.Title),
			Reasoning:   fmt.Sprintf("Detected \"%s\" as potentially lower priority. Consider swapping.", c.Title),
			Proposed:    copyInterval(in.req.Requested()),
		}
	}
	return nil
}

func isSwapCandidate(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range swapKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func ruleSplit(in ruleInput) *model.ConflictSuggestion {
	if len(in.req.Conflicts) != 1 {
		return nil
	}
	c := in.req.Conflicts[0]
	start, end := in.req.RequestedStart, in.req.RequestedEnd
	if !start.Before(c.Start) || !end.After(c.End) {
		return nil
	}
	before, after := c.Start.Sub(start), end.Sub(c.End)
	if before <= splitMinGap || after <= splitMinGap {
		return nil
	}
	return &model.ConflictSuggestion{
		Type:        model.SuggestSplit,
		Confidence:  ConfidenceSplit,
		Description: "Split into two appointments around the conflict",
		Reasoning: fmt.Sprintf("Can create two separate appointments: %dmin before and %dmin after the conflicting appointment.",
			minutes(before), minutes(after)),
	}
}

func ruleShorten(in ruleInput) *model.ConflictSuggestion {
	if len(in.req.Conflicts) != 1 {
		return nil
	}
	c := in.req.Conflicts[0]
	start, end := in.req.RequestedStart, in.req.RequestedEnd
	if !start.Before(c.Start) || !end.After(c.Start) || end.After(c.End) {
		return nil
	}
	newEnd := c.Start.Add(-time.Second)
	return &model.ConflictSuggestion{
		Type:        model.SuggestShorten,
		Confidence:  ConfidenceShorten,
		Description: "Shorten appointment to end before conflict",
		Reasoning:   fmt.Sprintf("End appointment at %s to avoid conflict.", newEnd.Format("15:04:05")),
		Proposed:    &model.Interval{Start: start, End: newEnd},
	}
}

// minutes rounds d to the nearest whole minute.
func minutes(d time.Duration) int64 {
	return int64(d.Round(time.Minute) / time.Minute)
}

func copyInterval(iv model.Interval) *model.Interval { return &iv }
