package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// SMSSender delivers a rendered message to a phone number. The production
// wiring uses a logging sender until an SMS gateway account exists.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, body string) error
}

// LogSMSSender writes outbound messages to the log instead of a gateway
type LogSMSSender struct{}

// Send logs the message
func (LogSMSSender) Send(ctx context.Context, phoneNumber, body string) error {
	log.Info().Str("to", phoneNumber).Str("body", body).Msg("SMS (log sender)")
	return nil
}

// NotificationService renders and sends queue lifecycle notifications and
// records every attempt in the queue_notifications table.
type NotificationService struct {
	db     *sqlx.DB
	sender SMSSender
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *sqlx.DB, sender SMSSender) *NotificationService {
	if sender == nil {
		sender = LogSMSSender{}
	}
	return &NotificationService{
		db:     db,
		sender: sender,
	}
}

// NotificationContext contains the data notification templates render from
type NotificationContext struct {
	PatientName   string
	HospitalName  string
	CheckInCode   string
	Position      string
	WaitEstimate  string
	DeadlineClock string
}

var notificationTemplates = map[entities.NotificationType]string{
	entities.NotificationJoinConfirmation: "Hi {{patient_name}}, you're #{{position}} in line at {{hospital_name}}. " +
		"Estimated wait: {{wait_estimate}} min. Check in with code {{check_in_code}} before {{deadline_clock}}.",
	entities.NotificationCalled: "Hi {{patient_name}}, it's your turn at {{hospital_name}}. " +
		"Please come to the desk and check in with code {{check_in_code}}.",
	entities.NotificationCheckInReceipt: "Hi {{patient_name}}, you're checked in at {{hospital_name}}. " +
		"A staff member will be with you shortly.",
	entities.NotificationCancellation: "Hi {{patient_name}}, your spot in line at {{hospital_name}} has been cancelled.",
}

// SendForEntry renders and sends the notification for a queue transition.
// Delivery failures are recorded but never propagate: a queue transition must
// not roll back because a text message bounced.
func (n *NotificationService) SendForEntry(ctx context.Context, entry *entities.QueueEntry, hospitalName string, notifType entities.NotificationType) error {
	if entry.PhoneNumber == "" {
		return nil
	}

	notifCtx := &NotificationContext{
		PatientName:   entry.FullName,
		HospitalName:  hospitalName,
		CheckInCode:   entry.CheckInCode,
		Position:      fmt.Sprintf("%d", entry.PositionInQueue),
		WaitEstimate:  fmt.Sprintf("%d", entry.EstimatedWaitTime),
		DeadlineClock: entry.CheckInDeadline.Local().Format("3:04 PM"),
	}

	template, ok := notificationTemplates[notifType]
	if !ok {
		return fmt.Errorf("no template for notification type %s", notifType)
	}

	body := n.renderTemplate(template, notifCtx)
	notification := &entities.QueueNotification{
		ID:               uuid.New().String(),
		EntryID:          entry.ID,
		NotificationType: notifType,
		Channel:          entities.ChannelSMS,
		Recipient:        entry.PhoneNumber,
		Body:             body,
		Status:           entities.NotificationStatusPending,
		CreatedAt:        time.Now(),
	}

	if err := n.record(ctx, notification); err != nil {
		return err
	}

	if err := n.sender.Send(ctx, entry.PhoneNumber, body); err != nil {
		log.Warn().Err(err).Str("entry_id", entry.ID).Str("type", string(notifType)).
			Msg("Failed to send notification")
		n.markStatus(ctx, notification.ID, entities.NotificationStatusFailed, err.Error())
		return nil
	}

	n.markStatus(ctx, notification.ID, entities.NotificationStatusSent, "")
	return nil
}

// ListForEntry returns the notification history for a queue entry
func (n *NotificationService) ListForEntry(ctx context.Context, entryID string) ([]*entities.QueueNotification, error) {
	var notifications []*entities.QueueNotification
	err := n.db.SelectContext(ctx, &notifications, `
		SELECT id, entry_id, notification_type, channel, recipient, body,
		       status, sent_at, error_message, created_at
		FROM queue_notifications
		WHERE entry_id = $1
		ORDER BY created_at DESC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (n *NotificationService) record(ctx context.Context, notification *entities.QueueNotification) error {
	_, err := n.db.NamedExecContext(ctx, `
		INSERT INTO queue_notifications (
			id, entry_id, notification_type, channel, recipient, body, status, created_at
		) VALUES (
			:id, :entry_id, :notification_type, :channel, :recipient, :body, :status, :created_at
		)
	`, notification)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (n *NotificationService) markStatus(ctx context.Context, id string, status entities.NotificationStatus, errorMessage string) {
	var errMsg *string
	if errorMessage != "" {
		errMsg = &errorMessage
	}
	var sentAt *time.Time
	if status == entities.NotificationStatusSent {
		now := time.Now()
		sentAt = &now
	}

	_, err := n.db.ExecContext(ctx, `
		UPDATE queue_notifications
		SET status = $2, sent_at = $3, error_message = $4
		WHERE id = $1
	`, id, status, sentAt, errMsg)
	if err != nil {
		log.Warn().Err(err).Str("notification_id", id).Msg("Failed to update notification status")
	}
}

// renderTemplate substitutes {{placeholder}} tokens in a template
func (n *NotificationService) renderTemplate(template string, notifCtx *NotificationContext) string {
	replacements := map[string]string{
		"{{patient_name}}":   notifCtx.PatientName,
		"{{hospital_name}}":  notifCtx.HospitalName,
		"{{check_in_code}}":  notifCtx.CheckInCode,
		"{{position}}":       notifCtx.Position,
		"{{wait_estimate}}":  notifCtx.WaitEstimate,
		"{{deadline_clock}}": notifCtx.DeadlineClock,
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
