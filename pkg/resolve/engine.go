// Package resolve turns a conflicting booking request into ranked
// alternatives.
//
// One Resolve call:
//
//  1. classifies the request against its conflicts (package overlap),
//  2. scans forward from the requested end and backward from the requested
//     start for a free slot of the same length (concurrently),
//  3. runs the suggestion rules, stable-sorts by confidence and keeps the
//     top MaxSuggestions,
//  4. asks the resolution log for the owner's recent patterns, and
//  5. records the outcome in the background.
//
// Only step 2 can fail the call. The log is best-effort in both directions:
// a failed read yields learnlog.NoHistory and a failed write is logged at
// warn level. Suggested slots are advisory; the booking path must re-check
// for overlaps before writing.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daviddao/reslot/pkg/learnlog"
	"github.com/daviddao/reslot/pkg/model"
	"github.com/daviddao/reslot/pkg/overlap"
)

// ErrStore marks a resolution that failed because the appointment store
// could not be read.
var ErrStore = errors.New("appointment store unavailable")

// DefaultRecordTimeout bounds a background log write.
const DefaultRecordTimeout = 5 * time.Second

// SlotFinder runs the availability scans. *scan.Scanner satisfies it.
type SlotFinder interface {
	FindNextSlot(ctx context.Context, ownerID string, d time.Duration, after time.Time) (*model.Interval, error)
	FindSlotBefore(ctx context.Context, ownerID string, d time.Duration, before time.Time) (*model.Interval, error)
}

// ResolutionLog is the best-effort sink the engine reads history from and
// records outcomes to. Every learnlog backend and *store.Store satisfy it.
type ResolutionLog interface {
	LoadContext(ctx context.Context, ownerID string) (string, error)
	Record(ctx context.Context, e model.LogEntry) error
}

// Engine resolves scheduling conflicts. It is safe for concurrent use.
type Engine struct {
	slots         SlotFinder
	log           ResolutionLog
	logger        *slog.Logger
	recordTimeout time.Duration
	now           func() time.Time

	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for swallowed log failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecordTimeout overrides DefaultRecordTimeout.
func WithRecordTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.recordTimeout = d
		}
	}
}

// WithClock sets the source of log entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an Engine. A nil log disables history and recording.
func New(slots SlotFinder, log ResolutionLog, opts ...Option) *Engine {
	if log == nil {
		log = nopLog{}
	}
	e := &Engine{
		slots:         slots,
		log:           log,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		recordTimeout: DefaultRecordTimeout,
		now:           time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Resolve computes suggestions for req. The request is not validated:
// callers guarantee RequestedEnd > RequestedStart.
func (e *Engine) Resolve(ctx context.Context, req model.ResolutionRequest) (*model.ResolutionResult, error) {
	pattern := overlap.Classify(req.RequestedStart, req.RequestedEnd, req.Conflicts)
	d := req.RequestedEnd.Sub(req.RequestedStart)

	var next, earlier *model.Interval
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		next, err = e.slots.FindNextSlot(gctx, req.OwnerID, d, req.RequestedEnd)
		return err
	})
	g.Go(func() error {
		var err error
		earlier, err = e.slots.FindSlotBefore(gctx, req.OwnerID, d, req.RequestedStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve for %s: %w: %w", req.OwnerID, ErrStore, err)
	}

	all := Suggest(req, next, earlier)

	history, err := e.log.LoadContext(ctx, req.OwnerID)
	if err != nil {
		e.logger.Warn("load resolution history", "owner", req.OwnerID, "err", err)
		history = learnlog.NoHistory
	}

	e.record(ctx, entryFor(req, pattern, all, e.now().UTC()))

	return &model.ResolutionResult{
		Suggestions:       top(all, MaxSuggestions),
		Pattern:           pattern,
		HistoricalContext: history,
	}, nil
}

// Wait blocks until background log writes started by Resolve finish.
func (e *Engine) Wait() { e.wg.Wait() }

// record writes entry without blocking the caller. The write outlives ctx
// cancellation but is bounded by recordTimeout.
func (e *Engine) record(ctx context.Context, entry model.LogEntry) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.recordTimeout)
		defer cancel()
		if err := e.log.Record(rctx, entry); err != nil {
			e.logger.Warn("record resolution",
				"owner", entry.OwnerID,
				"pattern", string(entry.Pattern),
				"err", err,
			)
		}
	}()
}

// entryFor describes the full candidate list, before truncation.
func entryFor(req model.ResolutionRequest, p model.ConflictPattern, all []model.ConflictSuggestion, now time.Time) model.LogEntry {
	topType := model.NoSuggestion
	if len(all) > 0 {
		topType = string(all[0].Type)
	}
	return model.LogEntry{
		Timestamp:       now,
		OwnerID:         req.OwnerID,
		RequestedStart:  req.RequestedStart,
		RequestedEnd:    req.RequestedEnd,
		Title:           req.Title,
		Pattern:         p,
		TopSuggestion:   topType,
		SuggestionCount: len(all),
	}
}

type nopLog struct{}

func (nopLog) LoadContext(context.Context, string) (string, error) { return learnlog.NoHistory, nil }
func (nopLog) Record(context.Context, model.LogEntry) error        { return nil }
