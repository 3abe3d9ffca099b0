package repositories

import (
	"context"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// QueueFilter holds filtering options for listing queue entries
type QueueFilter struct {
	Statuses []entities.QueueStatus
	Limit    int
	Offset   int
}

// QueueRepository defines the interface for queue entry persistence
type QueueRepository interface {
	// Create inserts a new queue entry. No entry is considered created
	// unless the insert is acknowledged.
	Create(ctx context.Context, entry *entities.QueueEntry) error

	// GetByID retrieves a queue entry by ID
	GetByID(ctx context.Context, id string) (*entities.QueueEntry, error)

	// UpdateStatus transitions an entry to the given status, restricted to
	// entries currently in one of fromStatuses. Returns the number of rows
	// updated so callers can distinguish missing entries from invalid
	// transitions.
	UpdateStatus(ctx context.Context, id string, status entities.QueueStatus, fromStatuses ...entities.QueueStatus) (int64, error)

	// CheckIn transitions an entry to checked_in, gated on the stored
	// check-in code matching. Returns the number of rows updated; zero
	// means wrong code, unknown entry, or an entry no longer active.
	CheckIn(ctx context.Context, id, code string) (int64, error)

	// CountWaiting counts waiting entries at a hospital, used for
	// best-effort position estimation.
	CountWaiting(ctx context.Context, hospitalID string) (int, error)

	// ListByUser retrieves a user's entries, newest first
	ListByUser(ctx context.Context, userID string, filter QueueFilter) ([]*entities.QueueEntry, error)
}
