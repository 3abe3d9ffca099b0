package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/domain/entities"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func notifiableEntry() *entities.QueueEntry {
	return &entities.QueueEntry{
		ID:                "entry-1",
		FullName:          "Jane Roe",
		PhoneNumber:       "+14165550100",
		PositionInQueue:   3,
		EstimatedWaitTime: 45,
		CheckInCode:       "ABC234",
		CheckInDeadline:   time.Date(2026, 8, 30, 14, 30, 0, 0, time.Local),
	}
}

func TestNotificationService_RenderTemplate(t *testing.T) {
	service := &NotificationService{}

	got := service.renderTemplate(
		"Hi {{patient_name}}, code {{check_in_code}} at {{hospital_name}} before {{deadline_clock}}",
		&NotificationContext{
			PatientName:   "Jane Roe",
			HospitalName:  "Toronto General",
			CheckInCode:   "ABC234",
			DeadlineClock: "2:30 PM",
		},
	)

	assert.Equal(t, "Hi Jane Roe, code ABC234 at Toronto General before 2:30 PM", got)
}

func TestNotificationService_SendForEntry(t *testing.T) {
	t.Run("records and sends a join confirmation", func(t *testing.T) {
		db, mock := setupMockDB(t)
		service := NewNotificationService(db, LogSMSSender{})

		mock.ExpectExec(`INSERT INTO queue_notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE queue_notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := service.SendForEntry(context.Background(), notifiableEntry(), "Toronto General", entities.NotificationJoinConfirmation)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips entries without a phone number", func(t *testing.T) {
		db, mock := setupMockDB(t)
		service := NewNotificationService(db, LogSMSSender{})

		entry := notifiableEntry()
		entry.PhoneNumber = ""

		err := service.SendForEntry(context.Background(), entry, "Toronto General", entities.NotificationCalled)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown notification type errors before touching the database", func(t *testing.T) {
		db, mock := setupMockDB(t)
		service := NewNotificationService(db, LogSMSSender{})

		err := service.SendForEntry(context.Background(), notifiableEntry(), "Toronto General", entities.NotificationType("bogus"))

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
