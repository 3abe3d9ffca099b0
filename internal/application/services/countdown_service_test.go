package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
)

func activeEntry(created time.Time, waitMinutes int, deadline time.Time) *entities.QueueEntry {
	return &entities.QueueEntry{
		ID:                "entry-1",
		UserID:            "user-1",
		HospitalID:        "hosp-1",
		EstimatedWaitTime: waitMinutes,
		CheckInDeadline:   deadline,
		Status:            entities.QueueStatusWaiting,
		CreatedAt:         created,
	}
}

func TestCountdownService_Snapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	queueRepo := new(MockQueueRepository)
	service := services.NewCountdownService(queueRepo, time.Minute, testQueueConfig())

	queueRepo.On("ListByUser", mock.Anything, "user-1", mock.Anything).
		Return([]*entities.QueueEntry{
			activeEntry(now, 45, now.Add(60*time.Minute)),
		}, nil)

	snapshot, err := service.Snapshot(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	update := snapshot[0]
	assert.False(t, update.Countdown.Expired)
	assert.False(t, update.Countdown.ExpiringSoon)
	assert.InDelta(t, 60, update.Countdown.TimeToDeadline.Minutes(), 1)
	assert.Contains(t, update.TimeRemaining, "remaining")
}

func TestCountdownService_SnapshotFlagsExpiringSoon(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	queueRepo := new(MockQueueRepository)
	service := services.NewCountdownService(queueRepo, time.Minute, testQueueConfig())

	queueRepo.On("ListByUser", mock.Anything, "user-1", mock.Anything).
		Return([]*entities.QueueEntry{
			activeEntry(now.Add(-50*time.Minute), 45, now.Add(10*time.Minute)),
		}, nil)

	snapshot, err := service.Snapshot(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot[0].Countdown.ExpiringSoon)
	assert.False(t, snapshot[0].Countdown.Expired)
}

func TestCountdownService_WatchEmitsAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	queueRepo := new(MockQueueRepository)
	service := services.NewCountdownService(queueRepo, 10*time.Millisecond, testQueueConfig())

	queueRepo.On("ListByUser", mock.Anything, "user-1", mock.Anything).
		Return([]*entities.QueueEntry{
			activeEntry(now, 30, now.Add(45*time.Minute)),
		}, nil)

	updates := service.Watch(ctx, "user-1")

	// Immediate snapshot plus at least one tick
	first, ok := <-updates
	require.True(t, ok)
	require.Len(t, first, 1)

	select {
	case _, ok := <-updates:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected a ticked snapshot")
	}

	cancel()

	select {
	case _, ok := <-updates:
		for ok {
			_, ok = <-updates
		}
	case <-time.After(time.Second):
		t.Fatal("expected channel to close after cancel")
	}
}
