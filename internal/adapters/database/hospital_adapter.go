package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

// HospitalAdapter implements the HospitalRepository interface
type HospitalAdapter struct {
	client *postgres.Client
}

// NewHospitalAdapter creates a new hospital adapter
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRepository {
	return &HospitalAdapter{
		client: client,
	}
}

const hospitalSelectColumns = `
	id, name, address, latitude, longitude, phone_number,
	specialties, baseline_wait_min, current_queue, is_active,
	created_at, updated_at
`

// Create creates a new hospital
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	query := `
		INSERT INTO hospitals (
			id, name, address, latitude, longitude, phone_number,
			specialties, baseline_wait_min, current_queue, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		hospital.ID,
		hospital.Name,
		hospital.Address,
		hospital.Location.Latitude,
		hospital.Location.Longitude,
		hospital.PhoneNumber,
		pq.Array(hospital.Specialties),
		hospital.BaselineWaitMin,
		hospital.CurrentQueue,
		hospital.IsActive,
		hospital.CreatedAt,
		hospital.UpdatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}

	return nil
}

// GetByID retrieves an active hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query := `SELECT` + hospitalSelectColumns + `FROM hospitals WHERE id = $1 AND is_active = true`

	hospital, err := scanHospital(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}

	return hospital, nil
}

// GetByName retrieves an active hospital by exact name, case-insensitively
func (a *HospitalAdapter) GetByName(ctx context.Context, name string) (*entities.Hospital, error) {
	query := `SELECT` + hospitalSelectColumns + `FROM hospitals WHERE LOWER(name) = LOWER($1) AND is_active = true`

	hospital, err := scanHospital(a.client.DB().QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital named %q not found", name))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital by name", err)
	}

	return hospital, nil
}

// List retrieves active hospitals ordered by name
func (a *HospitalAdapter) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	query := `SELECT` + hospitalSelectColumns + `FROM hospitals WHERE is_active = true`
	args := []interface{}{}

	if filter.Specialty != "" {
		args = append(args, filter.Specialty)
		query += fmt.Sprintf(" AND $%d = ANY(specialties)", len(args))
	}

	query += " ORDER BY name ASC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list hospitals", err)
	}
	defer rows.Close()

	var hospitals []*entities.Hospital
	for rows.Next() {
		hospital, err := scanHospital(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan hospital", err)
		}
		hospitals = append(hospitals, hospital)
	}

	return hospitals, rows.Err()
}

// UpdateWaitTime updates a hospital's baseline wait and live queue length
func (a *HospitalAdapter) UpdateWaitTime(ctx context.Context, id string, waitMinutes, currentQueue int) error {
	query := `
		UPDATE hospitals
		SET baseline_wait_min = $2, current_queue = $3, updated_at = $4
		WHERE id = $1 AND is_active = true
	`

	result, err := a.client.DB().ExecContext(ctx, query, id, waitMinutes, currentQueue, time.Now())
	if err != nil {
		return apperrors.NewInternalError("failed to update hospital wait time", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}

	return nil
}

func scanHospital(row rowScanner) (*entities.Hospital, error) {
	hospital := &entities.Hospital{}
	var specialties pq.StringArray

	err := row.Scan(
		&hospital.ID,
		&hospital.Name,
		&hospital.Address,
		&hospital.Location.Latitude,
		&hospital.Location.Longitude,
		&hospital.PhoneNumber,
		&specialties,
		&hospital.BaselineWaitMin,
		&hospital.CurrentQueue,
		&hospital.IsActive,
		&hospital.CreatedAt,
		&hospital.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	hospital.Specialties = specialties
	return hospital, nil
}
