package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/store"
)

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel (soft-delete) an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cancel(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) cancel(ctx context.Context, w io.Writer, id string) error {
	apt, err := a.store.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("cancel: no appointment %q", id)
	}
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if err := a.store.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	if a.jsonOut {
		printJSON(w, map[string]interface{}{"cancelled": true, "appointment": apt})
		return nil
	}
	fmt.Fprintf(w, "cancelled %q %s\n", apt.Title, formatRange(apt.Interval(), a.loc))
	return nil
}
