package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/model"
)

func newListCmd(a *app) *cobra.Command {
	var (
		from string
		days int
	)
	cmd := &cobra.Command{
		Use:   "list [--from DATE] [--days N]",
		Short: "List the owner's appointments starting in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.list(cmd.Context(), cmd.OutOrStdout(), from, days)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start (default: today 00:00)")
	cmd.Flags().IntVar(&days, "days", 7, "window length in days")
	return cmd
}

func (a *app) list(ctx context.Context, w io.Writer, fromFlag string, days int) error {
	owner, err := a.resolveOwner()
	if err != nil {
		return err
	}
	if days <= 0 {
		return fmt.Errorf("list: --days must be positive")
	}

	var from time.Time
	if fromFlag == "" {
		y, m, d := time.Now().In(a.loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, a.loc)
	} else if from, err = a.parseTime(fromFlag); err != nil {
		if from, err = time.ParseInLocation("2006-01-02", fromFlag, a.loc); err != nil {
			return fmt.Errorf("list: cannot parse --from %q", fromFlag)
		}
	}
	to := from.AddDate(0, 0, days)

	apts, err := a.store.ListByOwnerInWindow(ctx, owner, from, to, model.OrderByStartAsc)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if a.jsonOut {
		if apts == nil {
			apts = []model.Appointment{}
		}
		printJSON(w, apts)
		return nil
	}
	if len(apts) == 0 {
		fmt.Fprintf(w, "no appointments for %s between %s and %s\n",
			owner, from.Format("2006-01-02"), to.Format("2006-01-02"))
		return nil
	}
	fmt.Fprintf(w, "%d appointment(s) for %s:\n", len(apts), owner)
	for _, apt := range apts {
		printAppointment(w, apt, a.loc)
	}
	return nil
}
