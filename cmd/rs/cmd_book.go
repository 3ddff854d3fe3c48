package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/model"
)

func newBookCmd(a *app) *cobra.Command {
	var (
		slot  slotFlags
		desc  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "book <title> --start T (--end T | --duration D)",
		Short: "Book an appointment; on overlap print suggestions and exit 2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.book(cmd.Context(), cmd.OutOrStdout(), args[0], desc, slot, force)
		},
	}
	slot.register(cmd)
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().BoolVar(&force, "force", false, "book even if it overlaps existing appointments")
	return cmd
}

func (a *app) book(ctx context.Context, w io.Writer, title, desc string, slot slotFlags, force bool) error {
	owner, err := a.resolveOwner()
	if err != nil {
		return err
	}
	iv, err := a.interval(slot)
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}

	// Suggestions are advisory, so overlap is checked right before insert.
	conflicts, err := a.store.FindConflicts(ctx, owner, iv.Start, iv.End, "")
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}

	if len(conflicts) > 0 && !force {
		res, err := a.engine.Resolve(ctx, model.ResolutionRequest{
			RequestedStart: iv.Start,
			RequestedEnd:   iv.End,
			Conflicts:      conflicts,
			OwnerID:        owner,
			Title:          title,
		})
		if err != nil {
			return fmt.Errorf("book: %w", err)
		}
		if a.jsonOut {
			printJSON(w, map[string]interface{}{
				"booked":     false,
				"conflicts":  conflicts,
				"resolution": res,
			})
		} else {
			fmt.Fprintf(w, "CONFLICT: %q (%s) overlaps %d appointment(s):\n", title, formatRange(iv, a.loc), len(conflicts))
			for _, c := range conflicts {
				printAppointment(w, c, a.loc)
			}
			printResolution(w, res, a.loc)
		}
		return exitStatus(2)
	}

	apt := model.Appointment{
		Title:       title,
		Description: desc,
		Start:       iv.Start,
		End:         iv.End,
		OwnerID:     owner,
	}
	if err := a.store.InsertAppointment(ctx, &apt); err != nil {
		return fmt.Errorf("book: %w", err)
	}

	if a.jsonOut {
		printJSON(w, map[string]interface{}{
			"booked":      true,
			"appointment": apt,
			"overlaps":    len(conflicts),
		})
		return nil
	}
	fmt.Fprintf(w, "booked %q %s [%s]\n", title, formatRange(iv, a.loc), apt.ID)
	if len(conflicts) > 0 {
		fmt.Fprintf(w, "  forced over %d overlapping appointment(s)\n", len(conflicts))
	}
	return nil
}
