// Package learnlog provides resolution-log backends and decorators.
//
// A resolution log is a best-effort analytics sink: every resolution is
// appended as a model.LogEntry, the log keeps only the newest Retention
// entries, and callers can ask for a one-line summary of an owner's recent
// conflict patterns. Nothing in the resolver depends on the log for
// correctness; every backend may fail and the resolver carries on.
//
// Backends: FileLog (a JSON array on disk), RedisLog (a capped Redis list)
// and the SQL table in package store. Decorators: Cached (per-owner LRU of
// summaries) and Guarded (circuit breaker).
package learnlog

import (
	"context"
	"strings"

	"github.com/daviddao/reslot/pkg/model"
)

// NoHistory is the summary returned when an owner has no usable history.
const NoHistory = "No historical data yet"

// Retention is the number of entries a log keeps across all owners.
const Retention = 100

// ContextSize is how many recent patterns a summary lists.
const ContextSize = 5

// Log is implemented by every resolution-log backend.
type Log interface {
	LoadContext(ctx context.Context, ownerID string) (string, error)
	Record(ctx context.Context, e model.LogEntry) error
	Statistics(ctx context.Context, ownerID string) (model.Statistics, error)
}

// Summarize renders "Recent patterns: a, b, ..." from the last ContextSize
// entries (given oldest first), or NoHistory when entries is empty.
func Summarize(entries []model.LogEntry) string {
	if len(entries) == 0 {
		return NoHistory
	}
	if len(entries) > ContextSize {
		entries = entries[len(entries)-ContextSize:]
	}
	patterns := make([]string, len(entries))
	for i, e := range entries {
		patterns[i] = string(e.Pattern)
	}
	return "Recent patterns: " + strings.Join(patterns, ", ")
}

// Tally counts entries into a Statistics value.
func Tally(entries []model.LogEntry) model.Statistics {
	st := model.NewStatistics()
	for _, e := range entries {
		st.Add(e)
	}
	return st
}

// ForOwner filters entries down to one owner, preserving order.
func ForOwner(entries []model.LogEntry, ownerID string) []model.LogEntry {
	var out []model.LogEntry
	for _, e := range entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out
}

// trim keeps the newest Retention entries of an oldest-first slice.
func trim(entries []model.LogEntry) []model.LogEntry {
	if len(entries) > Retention {
		return entries[len(entries)-Retention:]
	}
	return entries
}
