package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/model"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the owner's conflict history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.stats(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) stats(ctx context.Context, w io.Writer) error {
	owner, err := a.resolveOwner()
	if err != nil {
		return err
	}
	// History is best-effort: an unreadable log reports zeros.
	st, err := a.history.Statistics(ctx, owner)
	if err != nil {
		a.logger.Warn("read conflict statistics", "owner", owner, "err", err)
		st = model.NewStatistics()
	}
	summary, err := a.history.LoadContext(ctx, owner)
	if err != nil {
		a.logger.Warn("load resolution history", "owner", owner, "err", err)
	}

	if a.jsonOut {
		printJSON(w, map[string]interface{}{
			"owner":      owner,
			"statistics": st,
			"recent":     summary,
		})
		return nil
	}
	fmt.Fprintf(w, "conflicts for %s: %d\n", owner, st.TotalConflicts)
	patterns := make(map[string]int, len(st.Patterns))
	for p, n := range st.Patterns {
		patterns[string(p)] = n
	}
	printCounts(w, "patterns", patterns)
	printCounts(w, "top suggestions", st.Solutions)
	fmt.Fprintf(w, "recent: %s\n", summary)
	return nil
}

// printCounts lists counts highest first, ties by name.
func printCounts(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(w, "%s:\n", label)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}
