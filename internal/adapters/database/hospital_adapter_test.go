package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

func setupHospitalAdapter(t *testing.T) (repositories.HospitalRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHospitalAdapter(postgres.NewClientFromDB(db)), mock
}

func hospitalRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "address", "latitude", "longitude", "phone_number",
		"specialties", "baseline_wait_min", "current_queue", "is_active",
		"created_at", "updated_at",
	}).AddRow(
		"hosp-1", "Toronto General Hospital", "200 Elizabeth St, Toronto",
		43.6591, -79.3875, "(416) 340-4800",
		"{emergency,cardiology}", 45, 12, true, now, now,
	)
}

func TestHospitalAdapter_GetByID(t *testing.T) {
	adapter, mock := setupHospitalAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM hospitals WHERE id = \$1`).
		WithArgs("hosp-1").
		WillReturnRows(hospitalRows())

	hospital, err := adapter.GetByID(context.Background(), "hosp-1")
	require.NoError(t, err)
	assert.Equal(t, "Toronto General Hospital", hospital.Name)
	assert.Equal(t, []string{"emergency", "cardiology"}, hospital.Specialties)
	assert.Equal(t, 45, hospital.BaselineWaitMin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalAdapter_GetByName_NotFound(t *testing.T) {
	adapter, mock := setupHospitalAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM hospitals WHERE LOWER\(name\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	hospital, err := adapter.GetByName(context.Background(), "Nowhere Clinic")
	assert.Nil(t, hospital)

	errType, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, errType)
}

func TestHospitalAdapter_List_SpecialtyFilter(t *testing.T) {
	adapter, mock := setupHospitalAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM hospitals WHERE is_active = true AND \$1 = ANY\(specialties\) ORDER BY name ASC LIMIT \$2`).
		WithArgs("emergency", 10).
		WillReturnRows(hospitalRows())

	hospitals, err := adapter.List(context.Background(), repositories.HospitalFilter{
		Specialty: "emergency",
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, hospitals, 1)
	assert.Equal(t, "hosp-1", hospitals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalAdapter_UpdateWaitTime(t *testing.T) {
	t.Run("updates wait and queue length", func(t *testing.T) {
		adapter, mock := setupHospitalAdapter(t)

		mock.ExpectExec(`UPDATE hospitals`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.UpdateWaitTime(context.Background(), "hosp-1", 55, 14)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown hospital returns not found", func(t *testing.T) {
		adapter, mock := setupHospitalAdapter(t)

		mock.ExpectExec(`UPDATE hospitals`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.UpdateWaitTime(context.Background(), "missing", 55, 14)

		errType, ok := apperrors.TypeOf(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeNotFound, errType)
	})
}

func TestHospitalAdapter_Create(t *testing.T) {
	adapter, mock := setupHospitalAdapter(t)

	mock.ExpectExec(`INSERT INTO hospitals`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	err := adapter.Create(context.Background(), &entities.Hospital{
		ID:          "hosp-2",
		Name:        "St. Michael's Hospital",
		Address:     "30 Bond St, Toronto",
		Location:    entities.Location{Latitude: 43.6532, Longitude: -79.3792},
		Specialties: []string{"emergency", "trauma"},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
