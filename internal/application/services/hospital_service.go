package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/domain/repositories"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

// HospitalService manages hospital records, the search index that mirrors
// them, and the wait-time updates broadcast to subscribed clients.
type HospitalService struct {
	hospitalRepo repositories.HospitalRepository
	searchRepo   repositories.HospitalSearchRepository
	eventBus     providers.EventBus
}

// NewHospitalService creates a new hospital service
func NewHospitalService(
	hospitalRepo repositories.HospitalRepository,
	searchRepo repositories.HospitalSearchRepository,
	eventBus providers.EventBus,
) *HospitalService {
	return &HospitalService{
		hospitalRepo: hospitalRepo,
		searchRepo:   searchRepo,
		eventBus:     eventBus,
	}
}

// Create registers a new hospital and indexes it for search
func (s *HospitalService) Create(ctx context.Context, hospital *entities.Hospital) error {
	if hospital.Name == "" {
		return apperrors.NewValidationError("hospital name is required")
	}
	if hospital.ID == "" {
		hospital.ID = uuid.New().String()
	}
	hospital.IsActive = true

	if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hospital); err != nil {
			// The database row is authoritative; a failed index write is
			// recoverable by the reindexer.
			log.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("Failed to index hospital")
		}
	}

	return nil
}

// Get retrieves a hospital by ID
func (s *HospitalService) Get(ctx context.Context, id string) (*entities.Hospital, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("hospital id is required")
	}
	return s.hospitalRepo.GetByID(ctx, id)
}

// List retrieves hospitals matching the filter
func (s *HospitalService) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	return s.hospitalRepo.List(ctx, filter)
}

// Search performs a fuzzy name search over the index, falling back to an
// exact database lookup when the index is unavailable.
func (s *HospitalService) Search(ctx context.Context, query string, limit int) ([]*entities.Hospital, error) {
	if query == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}

	if s.searchRepo != nil {
		hospitals, err := s.searchRepo.SearchByName(ctx, query, limit)
		if err == nil {
			return hospitals, nil
		}
		log.Warn().Err(err).Str("query", query).Msg("Search index unavailable, falling back to exact lookup")
	}

	hospital, err := s.hospitalRepo.GetByName(ctx, query)
	if err != nil {
		return []*entities.Hospital{}, nil
	}
	return []*entities.Hospital{hospital}, nil
}

// Suggest returns hospital name suggestions for a prefix
func (s *HospitalService) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if prefix == "" || s.searchRepo == nil {
		return []string{}, nil
	}
	return s.searchRepo.Suggest(ctx, prefix, limit)
}

// UpdateWaitTime updates a hospital's wait data, refreshes the search index,
// and broadcasts a wait_time_update event to the hospital's channel.
func (s *HospitalService) UpdateWaitTime(ctx context.Context, id string, waitMinutes, currentQueue int) (*entities.Hospital, error) {
	if waitMinutes < 0 || currentQueue < 0 {
		return nil, apperrors.NewValidationError("wait time and queue length must not be negative")
	}

	if err := s.hospitalRepo.UpdateWaitTime(ctx, id, waitMinutes, currentQueue); err != nil {
		return nil, err
	}

	hospital, err := s.hospitalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hospital); err != nil {
			log.Warn().Err(err).Str("hospital_id", id).Msg("Failed to reindex hospital after wait update")
		}
	}

	if s.eventBus != nil {
		event := entities.NewHospitalEvent(id, entities.QueueEventTypeWaitTimeUpdate, map[string]interface{}{
			"baseline_wait_min": waitMinutes,
			"current_queue":     currentQueue,
			"status":            string(hospital.Status()),
		})
		channels := []string{
			providers.EventChannelQueueUpdates,
			providers.GetHospitalChannel(id),
		}
		for _, channel := range channels {
			if err := s.eventBus.Publish(ctx, channel, event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish wait time update")
			}
		}
	}

	return hospital, nil
}

// Reindex rebuilds the search index from the database. Used by the indexer
// command and after search schema changes.
func (s *HospitalService) Reindex(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, apperrors.NewInternalError("search index is not configured", nil)
	}

	if err := s.searchRepo.InitSchema(ctx); err != nil {
		return 0, err
	}

	hospitals, err := s.hospitalRepo.List(ctx, repositories.HospitalFilter{})
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, hospital := range hospitals {
		if err := s.searchRepo.Index(ctx, hospital); err != nil {
			log.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("Failed to index hospital during reindex")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(hospitals)).Msg("Hospital reindex complete")
	return indexed, nil
}
