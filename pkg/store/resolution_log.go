package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daviddao/reslot/pkg/learnlog"
	"github.com/daviddao/reslot/pkg/model"
)

const logColumns = `id, owner_id, recorded_ns, requested_start_ns, requested_end_ns, title, pattern, top_suggestion, suggestion_count`

type logRow struct {
	ID               string `db:"id"`
	OwnerID          string `db:"owner_id"`
	RecordedNS       int64  `db:"recorded_ns"`
	RequestedStartNS int64  `db:"requested_start_ns"`
	RequestedEndNS   int64  `db:"requested_end_ns"`
	Title            string `db:"title"`
	Pattern          string `db:"pattern"`
	TopSuggestion    string `db:"top_suggestion"`
	SuggestionCount  int    `db:"suggestion_count"`
}

func (r logRow) toModel() model.LogEntry {
	return model.LogEntry{
		ID:              r.ID,
		Timestamp:       fromNS(r.RecordedNS),
		OwnerID:         r.OwnerID,
		RequestedStart:  fromNS(r.RequestedStartNS),
		RequestedEnd:    fromNS(r.RequestedEndNS),
		Title:           r.Title,
		Pattern:         model.ConflictPattern(r.Pattern),
		TopSuggestion:   r.TopSuggestion,
		SuggestionCount: r.SuggestionCount,
	}
}

// Record appends an entry to the resolution log and trims the table to the
// newest learnlog.Retention rows. Insert and trim commit together.
func (s *Store) Record(ctx context.Context, e model.LogEntry) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("record resolution: %w", err)
		}
		e.ID = id.String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	insert := s.db.Rebind(`INSERT INTO resolution_log (` + logColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	trim := s.db.Rebind(`DELETE FROM resolution_log WHERE id NOT IN (
		SELECT id FROM resolution_log ORDER BY recorded_ns DESC, id DESC LIMIT ?)`)

	err := s.retryOnContention(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.ExecContext(ctx, insert,
			e.ID, e.OwnerID, e.Timestamp.UnixNano(),
			e.RequestedStart.UnixNano(), e.RequestedEnd.UnixNano(),
			e.Title, string(e.Pattern), e.TopSuggestion, e.SuggestionCount,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, trim, learnlog.Retention); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("record resolution for %s: %w", e.OwnerID, err)
	}
	return nil
}

// ListLogEntries returns the owner's newest entries (at most limit),
// oldest first. limit <= 0 means all retained entries.
func (s *Store) ListLogEntries(ctx context.Context, ownerID string, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = learnlog.Retention
	}
	var rows []logRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT `+logColumns+` FROM resolution_log WHERE owner_id = ?
		 ORDER BY recorded_ns DESC, id DESC LIMIT ?`), ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list resolution log for %s: %w", ownerID, err)
	}
	entries := make([]model.LogEntry, len(rows))
	for i, r := range rows {
		entries[len(rows)-1-i] = r.toModel()
	}
	return entries, nil
}

// LoadContext summarizes the owner's last few conflict patterns.
func (s *Store) LoadContext(ctx context.Context, ownerID string) (string, error) {
	entries, err := s.ListLogEntries(ctx, ownerID, learnlog.ContextSize)
	if err != nil {
		return learnlog.NoHistory, err
	}
	return learnlog.Summarize(entries), nil
}

// Statistics tallies the owner's retained resolution history.
func (s *Store) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	entries, err := s.ListLogEntries(ctx, ownerID, 0)
	if err != nil {
		return model.NewStatistics(), err
	}
	return learnlog.Tally(entries), nil
}
