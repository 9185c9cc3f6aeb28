package redis

import (
	"context"
	"errors"
	"time"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ProfileCache implements the learner.Cache interface using the generic Redis Cache.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{
		cache: cache,
	}
}

// Get gets a profile from cache. Returns learner.ErrProfileNotFound on miss.
func (p *ProfileCache) Get(ctx context.Context, userID learner.UserID) (*learner.Profile, error) {
	var profile learner.Profile
	key := ProfileKey(int64(userID))
	if err := p.cache.Get(ctx, key, &profile); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, learner.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Set stores a profile in cache with the given TTL.
func (p *ProfileCache) Set(ctx context.Context, profile *learner.Profile, ttl time.Duration) error {
	if profile == nil {
		return nil
	}
	key := ProfileKey(int64(profile.UserID))
	return p.cache.Set(ctx, key, profile, ttl)
}

// Delete removes a profile from cache.
func (p *ProfileCache) Delete(ctx context.Context, userID learner.UserID) error {
	return p.cache.Delete(ctx, ProfileKey(int64(userID)))
}
