package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/config"
)

const configTemplate = `# reslot configuration. RESLOT_* environment variables override these.
db: .reslot/reslot.db
driver: sqlite          # sqlite | postgres (db is then a DSN)
# owner: alice
timezone: UTC

history:
  backend: sql          # sql | file | redis
  dir: .reslot          # file backend: conflict_learnings.json lives here
  cache_size: 256
  breaker_failures: 3
  breaker_cooldown: 30s
  record_timeout: 5s

redis:
  addr: localhost:6379
  key: reslot:resolution_log

log:
  level: warn
  format: text
`

func newInitCmd(a *app) *cobra.Command {
	var (
		configPath string
		skipConfig bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd.OutOrStdout(), configPath, skipConfig)
		},
	}
	cmd.Flags().StringVar(&configPath, "write-config", filepath.Join(config.DefaultDir, config.FileName+".yaml"), "where to write the starter config")
	cmd.Flags().BoolVar(&skipConfig, "skip-config", false, "don't write a config file")
	return cmd
}

func (a *app) initialize(w io.Writer, configPath string, skipConfig bool) error {
	fmt.Fprintf(w, "initialized reslot (db: %s, driver: %s)\n", a.cfg.DB, a.cfg.Driver)
	fmt.Fprintf(w, "  history backend: %s\n", a.cfg.History.Backend)

	if !skipConfig {
		if err := writeConfigTemplate(w, configPath); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "next steps:")
	if owner, err := a.resolveOwner(); err != nil {
		fmt.Fprintln(w, "  export RESLOT_OWNER=<your-id>")
	} else {
		fmt.Fprintf(w, "  export RESLOT_OWNER=%s\n", owner)
	}
	fmt.Fprintln(w, "  rs book \"Standup\" --start 2025-01-15T09:00 --duration 15m")
	fmt.Fprintln(w, "  rs list")
	return nil
}

// writeConfigTemplate creates path with the starter config unless it
// already exists.
func writeConfigTemplate(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  kept existing %s\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "  wrote %s\n", path)
	return nil
}
