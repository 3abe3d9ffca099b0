package entities

import "time"

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationJoinConfirmation NotificationType = "join_confirmation"
	NotificationCalled           NotificationType = "called"
	NotificationCheckInReceipt   NotificationType = "check_in_receipt"
	NotificationCancellation     NotificationType = "cancellation"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// QueueNotification tracks notifications sent for a queue entry
type QueueNotification struct {
	ID               string              `json:"id" db:"id"`
	EntryID          string              `json:"entry_id" db:"entry_id"`
	NotificationType NotificationType    `json:"notification_type" db:"notification_type"`
	Channel          NotificationChannel `json:"channel" db:"channel"`
	Recipient        string              `json:"recipient" db:"recipient"`
	Body             string              `json:"body" db:"body"`
	Status           NotificationStatus  `json:"status" db:"status"`
	SentAt           *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage     *string             `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
}
