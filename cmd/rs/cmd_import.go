package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/reslot/pkg/model"
)

// importFile is the YAML layout accepted by `rs import`:
//
//	owner: alice            # optional, default for every entry
//	appointments:
//	  - title: Standup
//	    start: 2025-01-15T09:00
//	    end: 2025-01-15T09:15
//	    description: daily
//	    owner: bob          # optional per-entry override
type importFile struct {
	Owner        string        `yaml:"owner"`
	Appointments []importEntry `yaml:"appointments"`
}

type importEntry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Owner       string `yaml:"owner"`
}

type importSkip struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

func newImportCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import appointments from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(cmd.Context(), cmd.OutOrStdout(), args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "import entries that overlap existing appointments")
	return cmd
}

func (a *app) importFile(ctx context.Context, w io.Writer, path string, force bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	var f importFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("import: parse %s: %w", path, err)
	}

	var (
		imported []model.Appointment
		skipped  []importSkip
	)
	for i, e := range f.Appointments {
		apt, reason, err := a.importOne(ctx, f.Owner, e, force)
		if err != nil {
			return fmt.Errorf("import: entry %d (%q): %w", i+1, e.Title, err)
		}
		if reason != "" {
			skipped = append(skipped, importSkip{Title: e.Title, Reason: reason})
			continue
		}
		imported = append(imported, apt)
	}

	if a.jsonOut {
		printJSON(w, map[string]interface{}{"imported": len(imported), "skipped": skipped})
		return nil
	}
	fmt.Fprintf(w, "imported %d appointment(s) from %s\n", len(imported), path)
	for _, s := range skipped {
		fmt.Fprintf(w, "  skipped %q: %s\n", s.Title, s.Reason)
	}
	return nil
}

// importOne inserts one entry. A non-empty reason means it was skipped;
// an error aborts the import.
func (a *app) importOne(ctx context.Context, defaultOwner string, e importEntry, force bool) (model.Appointment, string, error) {
	owner := e.Owner
	if owner == "" {
		owner = defaultOwner
	}
	if owner == "" {
		var err error
		if owner, err = a.resolveOwner(); err != nil {
			return model.Appointment{}, "", err
		}
	}
	if e.Title == "" {
		return model.Appointment{}, "missing title", nil
	}
	iv, err := a.interval(slotFlags{start: e.Start, end: e.End})
	if err != nil {
		return model.Appointment{}, err.Error(), nil
	}

	if !force {
		conflicts, err := a.store.FindConflicts(ctx, owner, iv.Start, iv.End, "")
		if err != nil {
			return model.Appointment{}, "", err
		}
		if len(conflicts) > 0 {
			return model.Appointment{}, fmt.Sprintf("overlaps %q", conflicts[0].Title), nil
		}
	}

	apt := model.Appointment{
		Title:       e.Title,
		Description: e.Description,
		Start:       iv.Start,
		End:         iv.End,
		OwnerID:     owner,
	}
	if err := a.store.InsertAppointment(ctx, &apt); err != nil {
		return model.Appointment{}, "", err
	}
	return apt, "", nil
}
