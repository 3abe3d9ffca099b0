package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/domain/repositories"
)

// CachedHospitalAdapter wraps HospitalAdapter with caching
type CachedHospitalAdapter struct {
	adapter repositories.HospitalRepository
	cache   providers.CacheProvider
}

// NewCachedHospitalAdapter creates a new cached hospital adapter
func NewCachedHospitalAdapter(adapter repositories.HospitalRepository, cache providers.CacheProvider) repositories.HospitalRepository {
	return &CachedHospitalAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	hospitalByIDTTL   = 300 // 5 minutes for single hospital
	hospitalsListTTL  = 180 // 3 minutes for lists
	hospitalByNameTTL = 300
)

func hospitalCacheKey(id string) string {
	return fmt.Sprintf("hospital:%s", id)
}

func hospitalNameCacheKey(name string) string {
	return fmt.Sprintf("hospital:name:%s", name)
}

func hospitalsListCacheKey(filter repositories.HospitalFilter) string {
	return fmt.Sprintf("hospitals:list:%s:%d:%d", filter.Specialty, filter.Limit, filter.Offset)
}

// GetByID retrieves a hospital by ID with caching
func (a *CachedHospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	cacheKey := hospitalCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hospital entities.Hospital
		if err := json.Unmarshal(cached, &hospital); err == nil {
			return &hospital, nil
		}
		log.Warn().Err(err).Str("hospital_id", id).Msg("Failed to unmarshal cached hospital")
	}

	hospital, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hospital); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hospitalByIDTTL); err != nil {
				log.Warn().Err(err).Str("hospital_id", id).Msg("Failed to cache hospital")
			}
		}
	}()

	return hospital, nil
}

// GetByName retrieves a hospital by exact name with caching
func (a *CachedHospitalAdapter) GetByName(ctx context.Context, name string) (*entities.Hospital, error) {
	cacheKey := hospitalNameCacheKey(name)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hospital entities.Hospital
		if err := json.Unmarshal(cached, &hospital); err == nil {
			return &hospital, nil
		}
	}

	hospital, err := a.adapter.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hospital); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hospitalByNameTTL); err != nil {
				log.Warn().Err(err).Str("name", name).Msg("Failed to cache hospital by name")
			}
		}
	}()

	return hospital, nil
}

// List retrieves hospitals with caching
func (a *CachedHospitalAdapter) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	cacheKey := hospitalsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hospitals []*entities.Hospital
		if err := json.Unmarshal(cached, &hospitals); err == nil {
			return hospitals, nil
		}
		log.Warn().Err(err).Msg("Failed to unmarshal cached hospitals list")
	}

	hospitals, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hospitals); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hospitalsListTTL); err != nil {
				log.Warn().Err(err).Msg("Failed to cache hospitals list")
			}
		}
	}()

	return hospitals, nil
}

// Create creates a hospital and invalidates list caches
func (a *CachedHospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	if err := a.adapter.Create(ctx, hospital); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.DeletePattern(bgCtx, "hospitals:list:*"); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate hospitals list cache")
		}
	}()

	return nil
}

// UpdateWaitTime updates wait data and invalidates the hospital's caches.
// Wait times feed countdown math on clients, so invalidation here is
// synchronous rather than fire-and-forget.
func (a *CachedHospitalAdapter) UpdateWaitTime(ctx context.Context, id string, waitMinutes, currentQueue int) error {
	if err := a.adapter.UpdateWaitTime(ctx, id, waitMinutes, currentQueue); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, hospitalCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("hospital_id", id).Msg("Failed to invalidate hospital cache")
	}
	if err := a.cache.DeletePattern(ctx, "hospitals:list:*"); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate hospitals list cache")
	}
	if err := a.cache.DeletePattern(ctx, "hospital:name:*"); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate hospital name cache")
	}

	return nil
}
