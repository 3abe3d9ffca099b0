package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
)

// CacheInvalidationService invalidates hospital caches in response to queue
// events flowing over the bus. Because events are also published by other
// instances of this process, this keeps a multi-node deployment's caches
// converging without coordination.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating caches
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelQueueUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to queue updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.QueueEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates only what the event makes stale. Queue joins and
// transitions leave hospital records untouched, so only wait_time_update
// events drop the hospital caches; the rest age out on TTL.
func (s *CacheInvalidationService) handleEvent(event *entities.QueueEvent) {
	if event.EventType != entities.QueueEventTypeWaitTimeUpdate {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	patterns := []string{
		fmt.Sprintf("hospital:%s", event.HospitalID),
		"hospitals:list:*",
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Str("hospital_id", event.HospitalID).
				Msg("Failed to invalidate cache")
		}
	}

	log.Debug().Str("hospital_id", event.HospitalID).Msg("Invalidated hospital caches after wait update")
}
