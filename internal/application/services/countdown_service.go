package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/pkg/config"
)

// CountdownUpdate pairs an active entry with its freshly derived timers
type CountdownUpdate struct {
	Entry         *entities.QueueEntry `json:"entry"`
	Countdown     entities.Countdown   `json:"countdown"`
	TimeRemaining string               `json:"time_remaining"`
}

// CountdownService periodically rederives countdown state for a user's
// active entries. Timers are always computed from the stored deadline and the
// clock; nothing here writes back to the queue, so a missed tick costs
// nothing but display freshness.
type CountdownService struct {
	queueRepo repositories.QueueRepository
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

// NewCountdownService creates a new countdown service ticking at the given
// interval.
func NewCountdownService(queueRepo repositories.QueueRepository, interval time.Duration, queueCfg config.QueueConfig) *CountdownService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CountdownService{
		queueRepo: queueRepo,
		interval:  interval,
		window:    time.Duration(queueCfg.ExpiringSoonMinutes) * time.Minute,
		now:       time.Now,
	}
}

// Watch emits countdown snapshots for the user's active entries, first
// immediately and then on every tick, until ctx is cancelled. The returned
// channel is closed on cancellation.
func (s *CountdownService) Watch(ctx context.Context, userID string) <-chan []CountdownUpdate {
	updates := make(chan []CountdownUpdate, 1)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.emit(ctx, userID, updates)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.emit(ctx, userID, updates)
			}
		}
	}()

	return updates
}

// Snapshot derives the current countdown state for the user's active entries
func (s *CountdownService) Snapshot(ctx context.Context, userID string) ([]CountdownUpdate, error) {
	entries, err := s.queueRepo.ListByUser(ctx, userID, repositories.QueueFilter{
		Statuses: []entities.QueueStatus{entities.QueueStatusWaiting, entities.QueueStatusCalled},
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshot := make([]CountdownUpdate, 0, len(entries))
	for _, entry := range entries {
		countdown := entry.CountdownAt(now, s.window)
		snapshot = append(snapshot, CountdownUpdate{
			Entry:         entry,
			Countdown:     countdown,
			TimeRemaining: entities.FormatTimeRemaining(countdown.TimeToDeadline),
		})
	}

	return snapshot, nil
}

func (s *CountdownService) emit(ctx context.Context, userID string, updates chan<- []CountdownUpdate) {
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to derive countdown snapshot")
		return
	}

	select {
	case updates <- snapshot:
	case <-ctx.Done():
	default:
		// Consumer is behind; the next tick supersedes this snapshot anyway
	}
}
