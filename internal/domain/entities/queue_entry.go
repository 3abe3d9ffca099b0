package entities

import (
	"fmt"
	"time"
)

// QueueStatus represents the stored status of a queue entry
type QueueStatus string

const (
	QueueStatusWaiting   QueueStatus = "waiting"
	QueueStatusCalled    QueueStatus = "called"
	QueueStatusCheckedIn QueueStatus = "checked_in"
	QueueStatusCancelled QueueStatus = "cancelled"
)

// QueueEntry represents a patient's claim to a position in a hospital's
// virtual waiting line. Entries are never hard-deleted, only
// status-transitioned.
type QueueEntry struct {
	ID                string      `json:"id" db:"id"`
	UserID            string      `json:"user_id" db:"user_id"`
	HospitalID        string      `json:"hospital_id" db:"hospital_id"`
	FullName          string      `json:"full_name" db:"full_name"`
	HealthCardNumber  string      `json:"health_card_number" db:"health_card_number"`
	PhoneNumber       string      `json:"phone_number" db:"phone_number"`
	InjuryType        string      `json:"injury_type" db:"injury_type"`
	InjuryDescription string      `json:"injury_description" db:"injury_description"`
	SeverityLevel     int         `json:"severity_level" db:"severity_level"`
	EstimatedWaitTime int         `json:"estimated_wait_time" db:"estimated_wait_time"`
	PositionInQueue   int         `json:"position_in_queue" db:"position_in_queue"`
	CheckInCode       string      `json:"check_in_code" db:"check_in_code"`
	CheckInDeadline   time.Time   `json:"check_in_deadline" db:"check_in_deadline"`
	Status            QueueStatus `json:"status" db:"status"`
	// DegradedHospitalRef is set when the hospital reference could not be
	// resolved and a placeholder was persisted instead. Surfaced to the
	// caller, never silent.
	DegradedHospitalRef bool      `json:"degraded_hospital_ref,omitempty" db:"-"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the entry still occupies a queue slot.
func (e *QueueEntry) IsActive() bool {
	return e.Status == QueueStatusWaiting || e.Status == QueueStatusCalled
}

// IsExpired reports whether the check-in deadline has passed while the entry
// is still active. Expiry is advisory; the stored status is not changed by
// the clock.
func (e *QueueEntry) IsExpired(now time.Time) bool {
	return e.IsActive() && now.After(e.CheckInDeadline)
}

// Countdown is the derived, display-only view of an entry's timers. It is
// recomputed from the clock and never written back to the store.
type Countdown struct {
	TimeToCall     time.Duration `json:"time_to_call"`
	TimeToDeadline time.Duration `json:"time_to_deadline"`
	DeadlineClock  string        `json:"deadline_clock"`
	ExpiringSoon   bool          `json:"expiring_soon"`
	Expired        bool          `json:"expired"`
}

// CountdownAt derives the countdown state for the entry at the given time.
// expiringSoonWindow is the span before the deadline in which ExpiringSoon
// turns on; past-deadline entries are Expired, not ExpiringSoon.
func (e *QueueEntry) CountdownAt(now time.Time, expiringSoonWindow time.Duration) Countdown {
	expectedCall := e.CreatedAt.Add(time.Duration(e.EstimatedWaitTime) * time.Minute)
	toDeadline := e.CheckInDeadline.Sub(now)

	return Countdown{
		TimeToCall:     expectedCall.Sub(now),
		TimeToDeadline: toDeadline,
		DeadlineClock:  e.CheckInDeadline.Local().Format("3:04 PM"),
		ExpiringSoon:   toDeadline > 0 && toDeadline < expiringSoonWindow,
		Expired:        e.IsExpired(now),
	}
}

// FormatTimeRemaining renders a remaining duration the way the queue cards
// display it.
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}

	minutes := int(d.Minutes())
	hours := minutes / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, minutes%60)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}
