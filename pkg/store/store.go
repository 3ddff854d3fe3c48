// Package store manages all SQL persistence for reslot.
//
// Two tables live here: appointments (the owner's bookings, soft-deleted
// rather than removed) and resolution_log (the append-only history of
// conflict resolutions, trimmed to the newest 100 rows). Instants are stored
// as Unix nanoseconds so window queries compare integers on every driver.
//
// SQLite (modernc.org/sqlite, WAL mode) is the default backend; Postgres
// (lib/pq) is selected by driver name. Queries are written with '?' and
// rebound per driver by sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/daviddao/reslot/pkg/model"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when an appointment does not exist or is deleted.
var ErrNotFound = errors.New("appointment not found")

// Store manages all SQL operations for appointments and the resolution log.
type Store struct {
	db    *sqlx.DB
	retry retryConfig
}

// New opens (or creates) the SQLite database at path and initializes the
// schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	return Open(DriverSQLite, dsn)
}

// Open connects with the given driver and DSN and initializes the schema.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	s := FromDB(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// FromDB wraps an existing connection without running migrations.
func FromDB(db *sqlx.DB) *Store {
	return &Store{db: db, retry: defaultRetryConfig}
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the store's config.
// All write operations go through it.
func (s *Store) retryOnContention(ctx context.Context, fn func() error) error {
	return retryOp(ctx, s.retry, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS appointments (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_ns    BIGINT NOT NULL,
		end_ns      BIGINT NOT NULL,
		created_ns  BIGINT NOT NULL,
		updated_ns  BIGINT NOT NULL,
		deleted_ns  BIGINT
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_owner_start ON appointments(owner_id, start_ns);
	CREATE INDEX IF NOT EXISTS idx_appointments_owner_end ON appointments(owner_id, end_ns);

	CREATE TABLE IF NOT EXISTS resolution_log (
		id                 TEXT PRIMARY KEY,
		owner_id           TEXT NOT NULL,
		recorded_ns        BIGINT NOT NULL,
		requested_start_ns BIGINT NOT NULL,
		requested_end_ns   BIGINT NOT NULL,
		title              TEXT NOT NULL DEFAULT '',
		pattern            TEXT NOT NULL,
		top_suggestion     TEXT NOT NULL,
		suggestion_count   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resolution_log_owner ON resolution_log(owner_id, recorded_ns);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

const appointmentColumns = `id, owner_id, title, description, start_ns, end_ns, created_ns, updated_ns, deleted_ns`

type appointmentRow struct {
	ID          string        `db:"id"`
	OwnerID     string        `db:"owner_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	StartNS     int64         `db:"start_ns"`
	EndNS       int64         `db:"end_ns"`
	CreatedNS   int64         `db:"created_ns"`
	UpdatedNS   int64         `db:"updated_ns"`
	DeletedNS   sql.NullInt64 `db:"deleted_ns"`
}

func (r appointmentRow) toModel() model.Appointment {
	a := model.Appointment{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Start:       fromNS(r.StartNS),
		End:         fromNS(r.EndNS),
		CreatedAt:   fromNS(r.CreatedNS),
		UpdatedAt:   fromNS(r.UpdatedNS),
	}
	if r.DeletedNS.Valid {
		d := fromNS(r.DeletedNS.Int64)
		a.DeletedAt = &d
	}
	return a
}

func toModels(rows []appointmentRow) []model.Appointment {
	out := make([]model.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

// InsertAppointment stores a new appointment. An empty ID is filled with a
// fresh UUID; CreatedAt and UpdatedAt are set to now.
func (s *Store) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	q := s.db.Rebind(`INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`)
	return s.retryOnContention(ctx, func() error {
		_, err := s.db.ExecContext(ctx, q,
			a.ID, a.OwnerID, a.Title, a.Description,
			a.Start.UnixNano(), a.End.UnixNano(), now.UnixNano(), now.UnixNano(),
		)
		return err
	})
}

// GetAppointment retrieves a non-deleted appointment by ID.
func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var row appointmentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ? AND deleted_ns IS NULL`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	a := row.toModel()
	return &a, nil
}

// DeleteAppointment soft-deletes an appointment. Deleting a missing or
// already deleted appointment returns ErrNotFound.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	now := time.Now().UTC().UnixNano()
	q := s.db.Rebind(`UPDATE appointments SET deleted_ns = ?, updated_ns = ? WHERE id = ? AND deleted_ns IS NULL`)
	var affected int64
	err := s.retryOnContention(ctx, func() error {
		res, err := s.db.ExecContext(ctx, q, now, now, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListByOwnerInWindow returns the owner's non-deleted appointments in a
// search window:
//
//	OrderByStartAsc: from <= start < to, ordered by start ascending
//	OrderByEndDesc:  end <= to AND start >= from, ordered by end descending
func (s *Store) ListByOwnerInWindow(ctx context.Context, ownerID string, from, to time.Time, order model.WindowOrder) ([]model.Appointment, error) {
	var q string
	var args []any
	switch order {
	case model.OrderByStartAsc:
		q = `SELECT ` + appointmentColumns + ` FROM appointments
			WHERE owner_id = ? AND deleted_ns IS NULL AND start_ns >= ? AND start_ns < ?
			ORDER BY start_ns ASC, id ASC`
		args = []any{ownerID, from.UnixNano(), to.UnixNano()}
	case model.OrderByEndDesc:
		q = `SELECT ` + appointmentColumns + ` FROM appointments
			WHERE owner_id = ? AND deleted_ns IS NULL AND end_ns <= ? AND start_ns >= ?
			ORDER BY end_ns DESC, id ASC`
		args = []any{ownerID, to.UnixNano(), from.UnixNano()}
	default:
		return nil, fmt.Errorf("list appointments: unknown order %d", order)
	}

	var rows []appointmentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", ownerID, err)
	}
	return toModels(rows), nil
}

// FindConflicts returns the owner's non-deleted appointments overlapping
// [start, end), ordered by start. A non-empty excludeID skips that
// appointment (used when moving an existing booking).
func (s *Store) FindConflicts(ctx context.Context, ownerID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE owner_id = ? AND deleted_ns IS NULL AND start_ns < ? AND end_ns > ?`
	args := []any{ownerID, end.UnixNano(), start.UnixNano()}
	if excludeID != "" {
		q += ` AND id != ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY start_ns ASC, id ASC`

	var rows []appointmentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("find conflicts for %s: %w", ownerID, err)
	}
	return toModels(rows), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fromNS(ns int64) time.Time { return time.Unix(0, ns).UTC() }
