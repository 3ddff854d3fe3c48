// Command rs is the reslot CLI: book appointments for an owner and, when a
// booking collides with existing ones, get ranked alternatives.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	code := run(ctx, a, os.Args[1:], os.Stdout, os.Stderr)
	a.Close()
	stop()
	os.Exit(code)
}

// exitStatus ends a command with a non-zero code and no error message.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// run executes one command line and returns the process exit code.
func run(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var st exitStatus
	if errors.As(err, &st) {
		return int(st)
	}
	fmt.Fprintf(stderr, "rs: %v\n", err)
	return 1
}

// noApp marks commands that run without opening the database.
const noApp = "reslot/no-app"

func newRootCmd(a *app) *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:   "rs",
		Short: "rs: book appointments and resolve scheduling conflicts",
		Long: `rs books appointments for an owner. When a booking overlaps existing
appointments it is refused and rs suggests alternatives: the next free
slot, an earlier slot, a swap, a split or a shortened booking.

Environment:
  RESLOT_DB                 SQLite path or Postgres DSN (default: .reslot/reslot.db)
  RESLOT_DRIVER             sqlite | postgres
  RESLOT_OWNER              default owner (avoids passing --owner every time)
  RESLOT_TIMEZONE           zone for parsing times and business hours (default: UTC)
  RESLOT_HISTORY_BACKEND    sql | file | redis
  RESLOT_REDIS_ADDR         Redis address for the redis history backend

Exit codes:
  0  success
  1  error
  2  booking refused (conflict)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, skip := cmd.Annotations[noApp]; skip || cmd.Name() == "help" {
				return nil
			}
			return a.open(cfgPath)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default: ./reslot.yaml or .reslot/reslot.yaml)")
	pf.StringVar(&a.ownerFlag, "owner", "", "owner ID (default: RESLOT_OWNER)")
	pf.BoolVar(&a.jsonOut, "json", false, "JSON output")

	root.AddCommand(
		newInitCmd(a),
		newBookCmd(a),
		newResolveCmd(a),
		newListCmd(a),
		newCancelCmd(a),
		newStatsCmd(a),
		newImportCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noApp: ""},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rs", version)
		},
	}
}
