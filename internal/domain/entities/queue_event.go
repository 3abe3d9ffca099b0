package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// QueueEventType represents the type of queue event
type QueueEventType string

const (
	QueueEventTypeJoined         QueueEventType = "queue_joined"
	QueueEventTypeCalled         QueueEventType = "queue_called"
	QueueEventTypeCheckedIn      QueueEventType = "queue_checked_in"
	QueueEventTypeCancelled      QueueEventType = "queue_cancelled"
	QueueEventTypeWaitTimeUpdate QueueEventType = "wait_time_update"
)

// QueueEvent represents a real-time update for a queue entry or hospital,
// delivered to subscribed clients over the event bus.
type QueueEvent struct {
	ID            string                 `json:"id"`
	EntryID       string                 `json:"entry_id,omitempty"`
	UserID        string                 `json:"user_id,omitempty"`
	HospitalID    string                 `json:"hospital_id"`
	EventType     QueueEventType         `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewQueueEvent creates a new queue event
func NewQueueEvent(entry *QueueEntry, eventType QueueEventType, changedFields map[string]interface{}) *QueueEvent {
	return &QueueEvent{
		ID:            generateEventID(),
		EntryID:       entry.ID,
		UserID:        entry.UserID,
		HospitalID:    entry.HospitalID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}

// NewHospitalEvent creates a queue event scoped to a hospital rather than an
// individual entry.
func NewHospitalEvent(hospitalID string, eventType QueueEventType, changedFields map[string]interface{}) *QueueEvent {
	return &QueueEvent{
		ID:            generateEventID(),
		HospitalID:    hospitalID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
