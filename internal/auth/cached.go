package auth

import (
	"context"
	"errors"
	"time"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

const tokenCachePrefix = "auth:token:"

// CachedProvider remembers verified identities for a short TTL, keyed by a
// hash of the token. Rejections are not cached.
type CachedProvider struct {
	next   Provider
	cache  utils.Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewCachedProvider wraps next. A zero ttl disables caching.
func NewCachedProvider(next Provider, cache utils.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logging.GetGlobalLogger().WithField("component", "auth_cache"),
	}
}

func (p *CachedProvider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	return p.verify(ctx, token, p.next.VerifyToken)
}

func (p *CachedProvider) VerifySession(ctx context.Context, accessToken string) (Identity, error) {
	return p.verify(ctx, accessToken, p.next.VerifySession)
}

func (p *CachedProvider) verify(ctx context.Context, token string, verify func(context.Context, string) (Identity, error)) (Identity, error) {
	if p.ttl <= 0 || p.cache == nil || token == "" {
		return verify(ctx, token)
	}
	key := tokenCachePrefix + utils.HashToken(token)

	var cached Identity
	err := p.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil && cached.UserID != "":
		return cached, nil
	case err != nil && !errors.Is(err, utils.ErrCacheMiss):
		p.logger.Warn("Token cache lookup failed", map[string]interface{}{"error": err.Error()})
	}

	id, err := verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if err := p.cache.SetJSON(ctx, key, id, p.ttl); err != nil {
		p.logger.Warn("Token cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return id, nil
}
