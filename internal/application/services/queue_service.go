package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/observability"
	"github.com/optimed-health/backend/pkg/config"
	apperrors "github.com/optimed-health/backend/pkg/errors"
	"github.com/optimed-health/backend/pkg/utils"
)

// checkInRejectedMessage is deliberately generic. Whether the entry is
// missing, the code is wrong, or the entry is no longer active must be
// indistinguishable to the caller.
const checkInRejectedMessage = "Invalid check-in code or entry not found"

// JoinQueueRequest carries the patient intake form for joining a queue.
// HospitalID takes precedence; HospitalName is resolved when no ID is given.
type JoinQueueRequest struct {
	UserID            string `json:"user_id"`
	HospitalID        string `json:"hospital_id"`
	HospitalName      string `json:"hospital_name"`
	FullName          string `json:"full_name"`
	HealthCardNumber  string `json:"health_card_number"`
	PhoneNumber       string `json:"phone_number"`
	InjuryType        string `json:"injury_type"`
	InjuryDescription string `json:"injury_description"`
	SeverityLevel     int    `json:"severity_level"`
}

// QueueService manages the lifecycle of queue entries: joining, check-in,
// cancellation, and the events each transition publishes.
type QueueService struct {
	queueRepo    repositories.QueueRepository
	hospitalRepo repositories.HospitalRepository
	searchRepo   repositories.HospitalSearchRepository
	estimator    providers.WaitEstimator
	eventBus     providers.EventBus
	metrics      *observability.Metrics
	queueCfg     config.QueueConfig
	notifier     QueueNotifier
	now          func() time.Time
}

// QueueNotifier delivers patient-facing messages for queue transitions
type QueueNotifier interface {
	SendForEntry(ctx context.Context, entry *entities.QueueEntry, hospitalName string, notifType entities.NotificationType) error
}

// NewQueueService creates a new queue service
func NewQueueService(
	queueRepo repositories.QueueRepository,
	hospitalRepo repositories.HospitalRepository,
	searchRepo repositories.HospitalSearchRepository,
	estimator providers.WaitEstimator,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	queueCfg config.QueueConfig,
) *QueueService {
	return &QueueService{
		queueRepo:    queueRepo,
		hospitalRepo: hospitalRepo,
		searchRepo:   searchRepo,
		estimator:    estimator,
		eventBus:     eventBus,
		metrics:      metrics,
		queueCfg:     queueCfg,
		now:          time.Now,
	}
}

// SetNotifier configures patient notifications for queue transitions
func (s *QueueService) SetNotifier(notifier QueueNotifier) {
	s.notifier = notifier
}

// notify sends the transition notification off the request path. Hospital
// name lookup and delivery are both best-effort.
func (s *QueueService) notify(entry *entities.QueueEntry, notifType entities.NotificationType) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hospitalName := entry.HospitalID
		if hospital, err := s.hospitalRepo.GetByID(ctx, entry.HospitalID); err == nil {
			hospitalName = hospital.Name
		}

		if err := s.notifier.SendForEntry(ctx, entry, hospitalName, notifType); err != nil {
			log.Warn().Err(err).Str("entry_id", entry.ID).Str("type", string(notifType)).
				Msg("Failed to send queue notification")
		}
	}()
}

// JoinQueue places a patient into a hospital's virtual queue. The entry gets
// a check-in code, a wait estimate, a position, and a check-in deadline of
// created time plus wait plus the grace window.
func (s *QueueService) JoinQueue(ctx context.Context, req *JoinQueueRequest) (*entities.QueueEntry, error) {
	if err := validateJoinRequest(req); err != nil {
		return nil, err
	}

	hospital, hospitalID, degraded := s.resolveHospital(ctx, req)

	code, err := utils.GenerateCheckInCode()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate check-in code", err)
	}

	waitingCount, err := s.queueRepo.CountWaiting(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	waitMinutes := s.estimator.EstimateWait(ctx, hospital)
	position := s.estimator.EstimatePosition(ctx, hospitalID, waitingCount)
	deadline := now.Add(time.Duration(waitMinutes+s.queueCfg.GraceWindowMinutes) * time.Minute)

	entry := &entities.QueueEntry{
		ID:                  uuid.New().String(),
		UserID:              req.UserID,
		HospitalID:          hospitalID,
		FullName:            req.FullName,
		HealthCardNumber:    req.HealthCardNumber,
		PhoneNumber:         req.PhoneNumber,
		InjuryType:          req.InjuryType,
		InjuryDescription:   req.InjuryDescription,
		SeverityLevel:       req.SeverityLevel,
		EstimatedWaitTime:   waitMinutes,
		PositionInQueue:     position,
		CheckInCode:         code,
		CheckInDeadline:     deadline,
		Status:              entities.QueueStatusWaiting,
		DegradedHospitalRef: degraded,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.queueRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.publishEntryEvent(ctx, entry, entities.QueueEventTypeJoined, map[string]interface{}{
		"status":              string(entry.Status),
		"position_in_queue":   entry.PositionInQueue,
		"estimated_wait_time": entry.EstimatedWaitTime,
	})
	s.recordMetric(ctx, entry.HospitalID, queueMetricJoin)
	s.notify(entry, entities.NotificationJoinConfirmation)

	log.Info().Str("entry_id", entry.ID).Str("hospital_id", entry.HospitalID).
		Int("position", entry.PositionInQueue).Bool("degraded_hospital_ref", degraded).
		Msg("Patient joined queue")

	return entry, nil
}

// CheckIn confirms a patient's arrival using their check-in code. Rejections
// are generic: a wrong code and a missing entry produce the same error.
func (s *QueueService) CheckIn(ctx context.Context, entryID, code string) (*entities.QueueEntry, error) {
	if entryID == "" || code == "" {
		return nil, apperrors.NewUnauthorizedError(checkInRejectedMessage)
	}

	affected, err := s.queueRepo.CheckIn(ctx, entryID, code)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, apperrors.NewUnauthorizedError(checkInRejectedMessage)
	}

	entry, err := s.queueRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	s.publishEntryEvent(ctx, entry, entities.QueueEventTypeCheckedIn, map[string]interface{}{
		"status": string(entities.QueueStatusCheckedIn),
	})
	s.recordMetric(ctx, entry.HospitalID, queueMetricCheckIn)
	s.notify(entry, entities.NotificationCheckInReceipt)

	log.Info().Str("entry_id", entry.ID).Str("hospital_id", entry.HospitalID).Msg("Patient checked in")
	return entry, nil
}

// Cancel withdraws a patient from the queue. Entries that have already
// checked in or been cancelled cannot be cancelled again.
func (s *QueueService) Cancel(ctx context.Context, entryID string) (*entities.QueueEntry, error) {
	entry, err := s.queueRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch entry.Status {
	case entities.QueueStatusCheckedIn:
		return nil, apperrors.NewConflictError("cannot cancel an entry that has already checked in")
	case entities.QueueStatusCancelled:
		return nil, apperrors.NewConflictError("entry is already cancelled")
	}

	affected, err := s.queueRepo.UpdateStatus(ctx, entryID, entities.QueueStatusCancelled,
		entities.QueueStatusWaiting, entities.QueueStatusCalled)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Entry transitioned underneath us between the read and the update
		return nil, apperrors.NewConflictError("entry is no longer active")
	}

	entry.Status = entities.QueueStatusCancelled
	entry.UpdatedAt = s.now()

	s.publishEntryEvent(ctx, entry, entities.QueueEventTypeCancelled, map[string]interface{}{
		"status": string(entities.QueueStatusCancelled),
	})
	s.recordMetric(ctx, entry.HospitalID, queueMetricCancel)
	s.notify(entry, entities.NotificationCancellation)

	log.Info().Str("entry_id", entry.ID).Str("hospital_id", entry.HospitalID).Msg("Queue entry cancelled")
	return entry, nil
}

// MarkCalled transitions a waiting entry to called. This is the staff-side
// transition signalling the patient should come to the desk.
func (s *QueueService) MarkCalled(ctx context.Context, entryID string) (*entities.QueueEntry, error) {
	affected, err := s.queueRepo.UpdateStatus(ctx, entryID, entities.QueueStatusCalled,
		entities.QueueStatusWaiting)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, apperrors.NewConflictError("entry is not waiting to be called")
	}

	entry, err := s.queueRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	s.publishEntryEvent(ctx, entry, entities.QueueEventTypeCalled, map[string]interface{}{
		"status": string(entities.QueueStatusCalled),
	})

	s.notify(entry, entities.NotificationCalled)

	log.Info().Str("entry_id", entry.ID).Str("hospital_id", entry.HospitalID).Msg("Queue entry called")
	return entry, nil
}

// GetEntry retrieves a single queue entry
func (s *QueueService) GetEntry(ctx context.Context, entryID string) (*entities.QueueEntry, error) {
	return s.queueRepo.GetByID(ctx, entryID)
}

// ListActive retrieves a user's active queue entries, newest first
func (s *QueueService) ListActive(ctx context.Context, userID string) ([]*entities.QueueEntry, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	return s.queueRepo.ListByUser(ctx, userID, repositories.QueueFilter{
		Statuses: []entities.QueueStatus{entities.QueueStatusWaiting, entities.QueueStatusCalled},
	})
}

// CountdownFor derives the display countdown for an entry at the current time
func (s *QueueService) CountdownFor(entry *entities.QueueEntry) entities.Countdown {
	window := time.Duration(s.queueCfg.ExpiringSoonMinutes) * time.Minute
	return entry.CountdownAt(s.now(), window)
}

// Subscribe returns the stream of queue events for a user. The channel is
// closed when ctx is cancelled.
func (s *QueueService) Subscribe(ctx context.Context, userID string) (<-chan *entities.QueueEvent, error) {
	return s.eventBus.Subscribe(ctx, providers.GetUserChannel(userID))
}

// resolveHospital turns the request's hospital reference into a hospital
// record. Resolution tries the ID, then exact name, then fuzzy search. If
// everything fails the raw reference is kept and the entry is flagged as
// degraded rather than rejecting the join: a patient in pain should never be
// blocked by a misspelled hospital name.
func (s *QueueService) resolveHospital(ctx context.Context, req *JoinQueueRequest) (*entities.Hospital, string, bool) {
	if req.HospitalID != "" {
		if hospital, err := s.hospitalRepo.GetByID(ctx, req.HospitalID); err == nil {
			return hospital, hospital.ID, false
		}
	}

	if req.HospitalName != "" {
		if hospital, err := s.hospitalRepo.GetByName(ctx, req.HospitalName); err == nil {
			return hospital, hospital.ID, false
		}

		if s.searchRepo != nil {
			if hits, err := s.searchRepo.SearchByName(ctx, req.HospitalName, 1); err == nil && len(hits) > 0 {
				if hospital, err := s.hospitalRepo.GetByID(ctx, hits[0].ID); err == nil {
					log.Info().Str("query", req.HospitalName).Str("resolved_id", hospital.ID).
						Msg("Resolved hospital via fuzzy search")
					return hospital, hospital.ID, false
				}
				return hits[0], hits[0].ID, false
			}
		}
	}

	ref := req.HospitalID
	if ref == "" {
		ref = req.HospitalName
	}
	log.Warn().Str("hospital_ref", ref).Msg("Hospital reference could not be resolved, joining degraded")
	return nil, ref, true
}

type queueMetricKind int

const (
	queueMetricJoin queueMetricKind = iota
	queueMetricCheckIn
	queueMetricCancel
)

func (s *QueueService) recordMetric(ctx context.Context, hospitalID string, kind queueMetricKind) {
	if s.metrics == nil {
		return
	}
	switch kind {
	case queueMetricJoin:
		observability.RecordQueueMetric(ctx, s.metrics.QueueJoinCount, hospitalID)
	case queueMetricCheckIn:
		observability.RecordQueueMetric(ctx, s.metrics.CheckInCount, hospitalID)
	case queueMetricCancel:
		observability.RecordQueueMetric(ctx, s.metrics.CancelCount, hospitalID)
	}
}

func (s *QueueService) publishEntryEvent(ctx context.Context, entry *entities.QueueEntry, eventType entities.QueueEventType, changed map[string]interface{}) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewQueueEvent(entry, eventType, changed)
	channels := []string{
		providers.EventChannelQueueUpdates,
		providers.GetUserChannel(entry.UserID),
		providers.GetHospitalChannel(entry.HospitalID),
	}

	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Str("event_type", string(eventType)).
				Msg("Failed to publish queue event")
		}
	}
}

func validateJoinRequest(req *JoinQueueRequest) error {
	if req == nil {
		return apperrors.NewValidationError("request body is required")
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id is required")
	}
	if req.FullName == "" {
		return apperrors.NewValidationError("full_name is required")
	}
	if req.HospitalID == "" && req.HospitalName == "" {
		return apperrors.NewValidationError("hospital_id or hospital_name is required")
	}
	if req.InjuryDescription == "" {
		return apperrors.NewValidationError("injury_description is required")
	}
	if req.SeverityLevel < 1 || req.SeverityLevel > 5 {
		return apperrors.NewValidationError(fmt.Sprintf("severity_level %d is out of range", req.SeverityLevel))
	}
	return nil
}
