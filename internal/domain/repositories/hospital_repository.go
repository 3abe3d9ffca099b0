package repositories

import (
	"context"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// HospitalFilter holds filtering options for listing hospitals
type HospitalFilter struct {
	Specialty string
	Limit     int
	Offset    int
}

// HospitalRepository defines the interface for hospital persistence
type HospitalRepository interface {
	// Create inserts a new hospital
	Create(ctx context.Context, hospital *entities.Hospital) error

	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)

	// GetByName retrieves a hospital by exact name match
	GetByName(ctx context.Context, name string) (*entities.Hospital, error)

	// List retrieves hospitals
	List(ctx context.Context, filter HospitalFilter) ([]*entities.Hospital, error)

	// UpdateWaitTime updates the baseline wait estimate and live queue length
	UpdateWaitTime(ctx context.Context, id string, waitMinutes, currentQueue int) error
}

// HospitalSearchRepository defines the interface for the hospital search index
type HospitalSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index indexes a hospital document
	Index(ctx context.Context, hospital *entities.Hospital) error

	// Delete removes a hospital from the index
	Delete(ctx context.Context, id string) error

	// SearchByName performs a fuzzy name search
	SearchByName(ctx context.Context, query string, limit int) ([]*entities.Hospital, error)

	// Suggest returns prefix suggestions for the search box
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}
