package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

var queueColumns = []interface{}{
	"id", "user_id", "hospital_id", "full_name", "health_card_number",
	"phone_number", "injury_type", "injury_description", "severity_level",
	"estimated_wait_time", "position_in_queue", "check_in_code",
	"check_in_deadline", "status", "created_at", "updated_at",
}

// QueueAdapter implements the QueueRepository interface
type QueueAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueueAdapter creates a new queue adapter
func NewQueueAdapter(client *postgres.Client) repositories.QueueRepository {
	return &QueueAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new queue entry
func (a *QueueAdapter) Create(ctx context.Context, entry *entities.QueueEntry) error {
	record := goqu.Record{
		"id":                  entry.ID,
		"user_id":             entry.UserID,
		"hospital_id":         entry.HospitalID,
		"full_name":           entry.FullName,
		"health_card_number":  entry.HealthCardNumber,
		"phone_number":        entry.PhoneNumber,
		"injury_type":         entry.InjuryType,
		"injury_description":  entry.InjuryDescription,
		"severity_level":      entry.SeverityLevel,
		"estimated_wait_time": entry.EstimatedWaitTime,
		"position_in_queue":   entry.PositionInQueue,
		"check_in_code":       entry.CheckInCode,
		"check_in_deadline":   entry.CheckInDeadline,
		"status":              entry.Status,
		"created_at":          entry.CreatedAt,
		"updated_at":          entry.UpdatedAt,
	}

	query, args, err := a.db.Insert("queue_entries").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create queue entry", err)
	}

	return nil
}

// GetByID retrieves a queue entry by ID
func (a *QueueAdapter) GetByID(ctx context.Context, id string) (*entities.QueueEntry, error) {
	query, args, err := a.db.Select(queueColumns...).
		From("queue_entries").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	entry, err := scanQueueEntry(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("queue entry with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queue entry", err)
	}

	return entry, nil
}

// UpdateStatus transitions an entry to the given status, restricted to rows
// currently in one of fromStatuses. The filter keeps stale client writes from
// clobbering transitions applied underneath them.
func (a *QueueAdapter) UpdateStatus(ctx context.Context, id string, status entities.QueueStatus, fromStatuses ...entities.QueueStatus) (int64, error) {
	ds := a.db.Update("queue_entries").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id})

	if len(fromStatuses) > 0 {
		from := make([]string, len(fromStatuses))
		for i, s := range fromStatuses {
			from[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(from))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to update queue entry status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}

// CheckIn transitions an entry to checked_in, gated on the stored check-in
// code. A zero row count covers wrong code, unknown entry, and entries that
// are no longer active; callers must not distinguish those cases.
func (a *QueueAdapter) CheckIn(ctx context.Context, id, code string) (int64, error) {
	query, args, err := a.db.Update("queue_entries").
		Set(goqu.Record{
			"status":     entities.QueueStatusCheckedIn,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{
			"id":            id,
			"check_in_code": code,
		}).
		Where(goqu.C("status").In([]string{
			string(entities.QueueStatusWaiting),
			string(entities.QueueStatusCalled),
		})).
		ToSQL()

	if err != nil {
		return 0, apperrors.NewInternalError("failed to build check-in query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to check in queue entry", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}

// CountWaiting counts waiting entries at a hospital
func (a *QueueAdapter) CountWaiting(ctx context.Context, hospitalID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("queue_entries").
		Where(goqu.Ex{
			"hospital_id": hospitalID,
			"status":      entities.QueueStatusWaiting,
		}).
		ToSQL()

	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count waiting entries", err)
	}

	return count, nil
}

// ListByUser retrieves a user's queue entries, newest first
func (a *QueueAdapter) ListByUser(ctx context.Context, userID string, filter repositories.QueueFilter) ([]*entities.QueueEntry, error) {
	ds := a.db.Select(queueColumns...).
		From("queue_entries").
		Where(goqu.Ex{"user_id": userID})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list queue entries", err)
	}
	defer rows.Close()

	var entries []*entities.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan queue entry", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueEntry(row rowScanner) (*entities.QueueEntry, error) {
	entry := &entities.QueueEntry{}
	var fullName, healthCard, phone, injuryType, description sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.HospitalID,
		&fullName,
		&healthCard,
		&phone,
		&injuryType,
		&description,
		&entry.SeverityLevel,
		&entry.EstimatedWaitTime,
		&entry.PositionInQueue,
		&entry.CheckInCode,
		&entry.CheckInDeadline,
		&entry.Status,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.FullName = fullName.String
	entry.HealthCardNumber = healthCard.String
	entry.PhoneNumber = phone.String
	entry.InjuryType = injuryType.String
	entry.InjuryDescription = description.String

	return entry, nil
}
