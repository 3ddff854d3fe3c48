package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/model"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		slot  slotFlags
		title string
	)
	cmd := &cobra.Command{
		Use:   "resolve --start T (--end T | --duration D)",
		Short: "Show how a requested interval conflicts and what to do about it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolve(cmd.Context(), cmd.OutOrStdout(), title, slot)
		},
	}
	slot.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "title of the requested appointment")
	return cmd
}

func (a *app) resolve(ctx context.Context, w io.Writer, title string, slot slotFlags) error {
	owner, err := a.resolveOwner()
	if err != nil {
		return err
	}
	iv, err := a.interval(slot)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	conflicts, err := a.store.FindConflicts(ctx, owner, iv.Start, iv.End, "")
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if len(conflicts) == 0 {
		if a.jsonOut {
			printJSON(w, map[string]interface{}{"requested": iv, "conflicts": []model.Appointment{}, "resolution": nil})
		} else {
			fmt.Fprintf(w, "requested: %s\nconflicts: none\n", formatRange(iv, a.loc))
		}
		return nil
	}

	res, err := a.engine.Resolve(ctx, model.ResolutionRequest{
		RequestedStart: iv.Start,
		RequestedEnd:   iv.End,
		Conflicts:      conflicts,
		OwnerID:        owner,
		Title:          title,
	})
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	if a.jsonOut {
		printJSON(w, map[string]interface{}{
			"requested":  iv,
			"conflicts":  conflicts,
			"resolution": res,
		})
		return nil
	}
	fmt.Fprintf(w, "requested: %s\nconflicts: %d\n", formatRange(iv, a.loc), len(conflicts))
	for _, c := range conflicts {
		printAppointment(w, c, a.loc)
	}
	printResolution(w, res, a.loc)
	return nil
}
