package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"

	"github.com/daviddao/reslot/pkg/clock"
	"github.com/daviddao/reslot/pkg/config"
	"github.com/daviddao/reslot/pkg/learnlog"
	"github.com/daviddao/reslot/pkg/logging"
	"github.com/daviddao/reslot/pkg/model"
	"github.com/daviddao/reslot/pkg/resolve"
	"github.com/daviddao/reslot/pkg/scan"
	"github.com/daviddao/reslot/pkg/store"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	logger  *slog.Logger
	store   *store.Store
	history learnlog.Log
	engine  *resolve.Engine
	redis   *redis.Client

	// Global flags, rebound on every command tree.
	ownerFlag string
	jsonOut   bool
}

// open loads configuration from cfgPath (or the default search path) and
// wires the store, resolution log and engine. It is a no-op once open.
func (a *app) open(cfgPath string) error {
	if a.store != nil {
		return nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	return a.setup(cfg)
}

func (a *app) setup(cfg *config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cfg, a.loc = cfg, loc
	a.logger = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	a.store = s

	backend, err := a.openHistory()
	if err != nil {
		a.Close()
		return err
	}
	guarded := learnlog.NewGuarded("resolution-log", backend, learnlog.BreakerSettings{
		Failures: cfg.History.BreakerFailures,
		Cooldown: cfg.History.BreakerCooldown,
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn("resolution log breaker", "name", name, "from", from.String(), "to", to.String())
		},
	})
	cached, err := learnlog.NewCached(guarded, cfg.History.CacheSize)
	if err != nil {
		a.Close()
		return fmt.Errorf("history cache: %w", err)
	}
	a.history = cached

	a.engine = resolve.New(
		scan.New(s, clock.New(loc)),
		cached,
		resolve.WithLogger(a.logger),
		resolve.WithRecordTimeout(cfg.History.RecordTimeout),
	)
	return nil
}

// openStore opens the configured database. For SQLite the parent
// directory is created if needed.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Driver == config.DriverPostgres {
		s, err := store.Open(store.DriverPostgres, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("cannot open database: %w", err)
		}
		return s, nil
	}
	if dir := filepath.Dir(cfg.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	s, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", cfg.DB, err)
	}
	return s, nil
}

// openHistory returns the configured resolution-log backend.
func (a *app) openHistory() (learnlog.Log, error) {
	switch a.cfg.History.Backend {
	case config.BackendFile:
		return learnlog.NewFileLog(a.cfg.History.Dir), nil
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		return learnlog.NewRedisLog(a.redis, a.cfg.Redis.Key), nil
	default:
		return a.store, nil
	}
}

// Close waits for pending log writes and releases connections.
func (a *app) Close() {
	if a.engine != nil {
		a.engine.Wait()
	}
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// resolveOwner returns the owner from --owner, falling back to the
// configured owner (RESLOT_OWNER).
func (a *app) resolveOwner() (string, error) {
	if a.ownerFlag != "" {
		return a.ownerFlag, nil
	}
	if a.cfg != nil && a.cfg.Owner != "" {
		return a.cfg.Owner, nil
	}
	return "", fmt.Errorf("no owner: pass --owner or set RESLOT_OWNER")
}

// timeLayouts are tried in order when parsing --start/--end values.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime reads s in the configured timezone unless it carries an offset.
func (a *app) parseTime(s string) (time.Time, error) {
	loc := a.loc
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use YYYY-MM-DDTHH:MM)", s)
}

// slotFlags are the --start/--end/--duration flags shared by book and
// resolve.
type slotFlags struct {
	start    string
	end      string
	duration time.Duration
}

func (f *slotFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.start, "start", "", "start time (YYYY-MM-DDTHH:MM)")
	fs.StringVar(&f.end, "end", "", "end time (YYYY-MM-DDTHH:MM)")
	fs.DurationVar(&f.duration, "duration", 0, "length, instead of --end (e.g. 45m)")
}

// interval parses the flags into a non-empty interval.
func (a *app) interval(f slotFlags) (model.Interval, error) {
	if f.start == "" {
		return model.Interval{}, fmt.Errorf("--start is required")
	}
	start, err := a.parseTime(f.start)
	if err != nil {
		return model.Interval{}, err
	}
	var end time.Time
	switch {
	case f.end != "":
		if end, err = a.parseTime(f.end); err != nil {
			return model.Interval{}, err
		}
	case f.duration > 0:
		end = start.Add(f.duration)
	default:
		return model.Interval{}, fmt.Errorf("--end or --duration is required")
	}
	if !end.After(start) {
		return model.Interval{}, fmt.Errorf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return model.Interval{Start: start, End: end}, nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
