package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitingEntry(createdAt time.Time, waitMinutes int) *QueueEntry {
	return &QueueEntry{
		ID:                "entry-1",
		UserID:            "user-1",
		HospitalID:        "hospital-1",
		EstimatedWaitTime: waitMinutes,
		CheckInDeadline:   createdAt.Add(time.Duration(waitMinutes+15) * time.Minute),
		Status:            QueueStatusWaiting,
		CreatedAt:         createdAt,
	}
}

func TestCountdownAt_FreshEntry(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entry := waitingEntry(created, 45)

	cd := entry.CountdownAt(created, 30*time.Minute)

	assert.Equal(t, 45*time.Minute, cd.TimeToCall)
	assert.Equal(t, 60*time.Minute, cd.TimeToDeadline)
	assert.False(t, cd.ExpiringSoon)
	assert.False(t, cd.Expired)
}

func TestCountdownAt_ExpiringSoonWindow(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entry := waitingEntry(created, 45)

	cases := []struct {
		name         string
		at           time.Time
		expiringSoon bool
		expired      bool
	}{
		{"well before window", created.Add(20 * time.Minute), false, false},
		{"just inside window", created.Add(31 * time.Minute), true, false},
		{"one minute left", created.Add(59 * time.Minute), true, false},
		{"exactly at deadline", created.Add(60 * time.Minute), false, false},
		{"past deadline", created.Add(61 * time.Minute), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cd := entry.CountdownAt(tc.at, 30*time.Minute)
			assert.Equal(t, tc.expiringSoon, cd.ExpiringSoon)
			assert.Equal(t, tc.expired, cd.Expired)
		})
	}
}

func TestCountdownAt_PastDeadlineStatusUnchanged(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entry := waitingEntry(created, 45)

	// 61 minutes in: expected call time (45m) has passed and so has the
	// deadline (60m), yet the stored status is still waiting.
	cd := entry.CountdownAt(created.Add(61*time.Minute), 30*time.Minute)

	assert.True(t, cd.Expired)
	assert.Negative(t, cd.TimeToCall)
	assert.Equal(t, QueueStatusWaiting, entry.Status)
}

func TestIsExpired_OnlyWhileActive(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entry := waitingEntry(created, 45)
	past := created.Add(2 * time.Hour)

	assert.True(t, entry.IsExpired(past))

	entry.Status = QueueStatusCalled
	assert.True(t, entry.IsExpired(past))

	entry.Status = QueueStatusCheckedIn
	assert.False(t, entry.IsExpired(past))

	entry.Status = QueueStatusCancelled
	assert.False(t, entry.IsExpired(past))
}

func TestFormatTimeRemaining(t *testing.T) {
	assert.Equal(t, "Expired", FormatTimeRemaining(0))
	assert.Equal(t, "Expired", FormatTimeRemaining(-5*time.Minute))
	assert.Equal(t, "42m remaining", FormatTimeRemaining(42*time.Minute))
	assert.Equal(t, "1h 20m remaining", FormatTimeRemaining(80*time.Minute))
}

func TestHospitalStatus(t *testing.T) {
	assert.Equal(t, HospitalStatusLow, (&Hospital{BaselineWaitMin: 25}).Status())
	assert.Equal(t, HospitalStatusModerate, (&Hospital{BaselineWaitMin: 45}).Status())
	assert.Equal(t, HospitalStatusHigh, (&Hospital{BaselineWaitMin: 80}).Status())
}
