package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/internal/domain/repositories"
	"github.com/zatekoja/clinicleads/internal/quiz"
)

// CachedLandingContentAdapter wraps a LandingContentRepository with a
// read-through cache of ListByKey results. Every write invalidates the key it
// touches.
type CachedLandingContentAdapter struct {
	adapter repositories.LandingContentRepository
	cache   providers.CacheProvider
	ttl     int
}

// NewCachedLandingContentAdapter creates a cached adapter. ttlSeconds <= 0
// uses the default.
func NewCachedLandingContentAdapter(adapter repositories.LandingContentRepository, cache providers.CacheProvider, ttlSeconds int) repositories.LandingContentRepository {
	if ttlSeconds <= 0 {
		ttlSeconds = landingContentListTTL
	}
	return &CachedLandingContentAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttlSeconds,
	}
}

// Cache TTLs (in seconds)
const (
	landingContentListTTL = 600 // 10 minutes
)

// Cache key generators
func landingContentCacheKey(doctorID string, quizType quiz.Type) string {
	return fmt.Sprintf("landing:list:%s:%s", doctorID, quizType)
}

// landingContentOwnerKey maps a record id to its list key so deletes by id
// can invalidate.
func landingContentOwnerKey(id string) string {
	return fmt.Sprintf("landing:owner:%s", id)
}

// ListByKey returns the records for a key, from cache when present.
func (a *CachedLandingContentAdapter) ListByKey(ctx context.Context, doctorID string, quizType quiz.Type) ([]*entities.LandingContent, error) {
	cacheKey := landingContentCacheKey(doctorID, quizType)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var records []*entities.LandingContent
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
		log.Warn().Err(err).Str("key", cacheKey).Msg("failed to unmarshal cached landing content")
	}

	records, err := a.adapter.ListByKey(ctx, doctorID, quizType)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, a.ttl); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache landing content")
		}
		for _, record := range records {
			_ = a.cache.Set(ctx, landingContentOwnerKey(record.ID), []byte(cacheKey), a.ttl)
		}
	}

	return records, nil
}

// Insert stores a record and invalidates its key.
func (a *CachedLandingContentAdapter) Insert(ctx context.Context, content *entities.LandingContent) error {
	if err := a.adapter.Insert(ctx, content); err != nil {
		return err
	}
	a.invalidate(ctx, landingContentCacheKey(content.DoctorID, content.QuizType))
	return nil
}

// Update overwrites a record and invalidates its key.
func (a *CachedLandingContentAdapter) Update(ctx context.Context, content *entities.LandingContent) error {
	if err := a.adapter.Update(ctx, content); err != nil {
		return err
	}
	a.invalidate(ctx, landingContentCacheKey(content.DoctorID, content.QuizType))
	return nil
}

// DeleteByIDs removes records and invalidates every key they were listed under.
func (a *CachedLandingContentAdapter) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	removed, err := a.adapter.DeleteByIDs(ctx, ids)
	if err != nil {
		return removed, err
	}
	for _, id := range ids {
		ownerKey := landingContentOwnerKey(id)
		if listKey, err := a.cache.Get(ctx, ownerKey); err == nil {
			a.invalidate(ctx, string(listKey))
		}
		a.invalidate(ctx, ownerKey)
	}
	return removed, nil
}

// DeleteByKey removes every record for a key and invalidates it.
func (a *CachedLandingContentAdapter) DeleteByKey(ctx context.Context, doctorID string, quizType quiz.Type) (int, error) {
	removed, err := a.adapter.DeleteByKey(ctx, doctorID, quizType)
	if err != nil {
		return removed, err
	}
	a.invalidate(ctx, landingContentCacheKey(doctorID, quizType))
	return removed, nil
}

func (a *CachedLandingContentAdapter) invalidate(ctx context.Context, key string) {
	if err := a.cache.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to invalidate cache")
	}
}
