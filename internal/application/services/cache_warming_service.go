package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/domain/repositories"
)

// CacheWarmingService pre-populates hospital caches so the first wave of
// patients after a cold start doesn't all hit the database at once.
type CacheWarmingService struct {
	hospitalRepo repositories.HospitalRepository
	cache        providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(hospitalRepo repositories.HospitalRepository, cache providers.CacheProvider) *CacheWarmingService {
	return &CacheWarmingService{
		hospitalRepo: hospitalRepo,
		cache:        cache,
	}
}

// WarmCache loads active hospitals into the cache
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	hospitals, err := s.hospitalRepo.List(ctx, repositories.HospitalFilter{Limit: 100})
	if err != nil {
		return fmt.Errorf("failed to fetch hospitals for warming: %w", err)
	}

	warmed := 0
	for _, hospital := range hospitals {
		data, err := json.Marshal(hospital)
		if err != nil {
			log.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("Failed to marshal hospital for warming")
			continue
		}
		key := fmt.Sprintf("hospital:%s", hospital.ID)
		if err := s.cache.Set(ctx, key, data, 300); err != nil {
			log.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("Failed to warm hospital cache")
			continue
		}
		warmed++
	}

	log.Info().Int("warmed", warmed).Int("total", len(hospitals)).Msg("Hospital cache warming completed")
	return nil
}

// StartPeriodicWarming warms the cache immediately and then on the given
// interval until ctx is cancelled.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.WarmCache(ctx); err != nil {
				log.Warn().Err(err).Msg("Periodic cache warming failed")
			}
		}
	}
}
