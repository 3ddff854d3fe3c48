package main

import (
	"fmt"
	"io"
	"time"

	"github.com/daviddao/reslot/pkg/model"
)

const (
	dayLayout  = "Mon 2006-01-02 15:04"
	hourLayout = "15:04"
)

// formatRange renders [start, end) in loc, collapsing the date when both
// ends fall on the same day.
func formatRange(iv model.Interval, loc *time.Location) string {
	s, e := iv.Start.In(loc), iv.End.In(loc)
	if s.YearDay() == e.YearDay() && s.Year() == e.Year() {
		return s.Format(dayLayout) + "-" + e.Format(hourLayout)
	}
	return s.Format(dayLayout) + " -> " + e.Format(dayLayout)
}

func printAppointment(w io.Writer, apt model.Appointment, loc *time.Location) {
	fmt.Fprintf(w, "  %s  %-24s [%s]\n", formatRange(apt.Interval(), loc), apt.Title, apt.ID)
}

func printResolution(w io.Writer, res *model.ResolutionResult, loc *time.Location) {
	fmt.Fprintf(w, "pattern: %s\n", res.Pattern)
	fmt.Fprintln(w, "suggestions:")
	if len(res.Suggestions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, s := range res.Suggestions {
		fmt.Fprintf(w, "  %d. %s (%.2f) %s\n", i+1, s.Type, s.Confidence, s.Description)
		if s.Proposed != nil {
			fmt.Fprintf(w, "     %s\n", formatRange(*s.Proposed, loc))
		}
		fmt.Fprintf(w, "     %s\n", s.Reasoning)
	}
	fmt.Fprintf(w, "history: %s\n", res.HistoricalContext)
}
