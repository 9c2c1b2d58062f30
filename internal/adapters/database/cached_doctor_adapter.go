package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
)

const doctorByIDTTL = 300 // 5 minutes

func doctorCacheKey(id string) string {
	return fmt.Sprintf("doctor:%s", id)
}

// CachedDoctorAdapter caches doctor profiles, which change rarely.
type CachedDoctorAdapter struct {
	adapter repositories.DoctorRepository
	cache   providers.CacheProvider
}

// NewCachedDoctorAdapter creates a cached doctor adapter
func NewCachedDoctorAdapter(adapter repositories.DoctorRepository, cache providers.CacheProvider) repositories.DoctorRepository {
	return &CachedDoctorAdapter{adapter: adapter, cache: cache}
}

// GetByID retrieves a profile, from cache when present.
func (a *CachedDoctorAdapter) GetByID(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	cacheKey := doctorCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var profile entities.DoctorProfile
		if err := json.Unmarshal(cached, &profile); err == nil {
			return &profile, nil
		}
	}

	profile, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(profile); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, doctorByIDTTL); err != nil {
				log.Warn().Err(err).Str("doctor_id", id).Msg("failed to cache doctor profile")
			}
		}
	}()

	return profile, nil
}
