package rules

import (
	"context"
	"slices"
	"time"

	"storefront/internal/model"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "rules"

// CachedSource keeps the result of another Source for a fixed TTL.
// Concurrent misses share one upstream read.
type CachedSource struct {
	source Source
	cache  *cache.Cache
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCachedSource wraps source with a TTL cache. A ttl of zero or less
// disables expiry, so only Invalidate refreshes the rules.
func NewCachedSource(source Source, ttl time.Duration, logger zerolog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, 2*max(ttl, time.Minute)),
		logger: logger.With().Str("component", "rule-cache").Logger(),
	}
}

// Rules returns the cached rules, reading through on a miss.
func (c *CachedSource) Rules(ctx context.Context) ([]model.DiscountRule, error) {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return slices.Clone(cached.([]model.DiscountRule)), nil
	}

	v, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		if cached, ok := c.cache.Get(cacheKey); ok {
			return cached, nil
		}
		// Shared by every waiter, so one caller going away must not fail the rest.
		rules, err := c.source.Rules(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(cacheKey, rules)
		c.logger.Debug().Int("rules", len(rules)).Msg("rule cache refreshed")
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.DiscountRule)), nil
}

// Invalidate drops the cached rules so the next read goes upstream.
func (c *CachedSource) Invalidate() {
	c.cache.Delete(cacheKey)
	c.logger.Debug().Msg("rule cache invalidated")
}
