// iface.go defines the StoreInterface for dependency injection and testing.
//
// The concrete *Store type satisfies this interface. Code that depends on
// the store (the cmd layer, the slot scanner, the resolver's log) can accept
// StoreInterface, or the narrower interfaces declared by those packages,
// instead of *Store, enabling mock injection in tests.
package store

import (
	"context"
	"time"

	"github.com/daviddao/reslot/pkg/model"
)

// StoreInterface defines the full set of store operations.
// The concrete *Store type implements this interface.
type StoreInterface interface {
	// Close closes the database connection.
	Close() error

	// --- Appointments ---

	// InsertAppointment stores a new appointment, assigning an ID if empty.
	InsertAppointment(ctx context.Context, a *model.Appointment) error

	// GetAppointment retrieves a non-deleted appointment by ID.
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)

	// DeleteAppointment soft-deletes an appointment.
	DeleteAppointment(ctx context.Context, id string) error

	// ListByOwnerInWindow returns the owner's appointments in a search window.
	ListByOwnerInWindow(ctx context.Context, ownerID string, from, to time.Time, order model.WindowOrder) ([]model.Appointment, error)

	// FindConflicts returns the owner's appointments overlapping [start, end).
	FindConflicts(ctx context.Context, ownerID string, start, end time.Time, excludeID string) ([]model.Appointment, error)

	// --- Resolution log ---

	// Record appends a resolution log entry.
	Record(ctx context.Context, e model.LogEntry) error

	// ListLogEntries returns the owner's newest entries, oldest first.
	ListLogEntries(ctx context.Context, ownerID string, limit int) ([]model.LogEntry, error)

	// LoadContext summarizes the owner's recent conflict patterns.
	LoadContext(ctx context.Context, ownerID string) (string, error)

	// Statistics tallies the owner's resolution history.
	Statistics(ctx context.Context, ownerID string) (model.Statistics, error)
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
