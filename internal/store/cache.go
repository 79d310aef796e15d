package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"paygate/internal/model"
)

// MerchantCache is a read-through cache for API-key lookups on the gateway
// hot path.
type MerchantCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMerchantCache(rdb *redis.Client, ttl time.Duration) *MerchantCache {
	return &MerchantCache{rdb: rdb, ttl: ttl}
}

func merchantKey(apiKey string) string {
	return fmt.Sprintf("merchant:apikey:%s", apiKey)
}

// Get returns the cached merchant, or an error on miss.
func (c *MerchantCache) Get(ctx context.Context, apiKey string) (*model.Merchant, error) {
	raw, err := c.rdb.Get(ctx, merchantKey(apiKey)).Result()
	if err != nil {
		return nil, err
	}
	var m model.Merchant
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Put caches the merchant under its API key.
func (c *MerchantCache) Put(ctx context.Context, m *model.Merchant) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, merchantKey(m.APIKey), string(raw), c.ttl).Err()
}

// Invalidate drops the cache entry for an API key.
func (c *MerchantCache) Invalidate(ctx context.Context, apiKey string) error {
	return c.rdb.Del(ctx, merchantKey(apiKey)).Err()
}

// CachedStore wraps a backend with the merchant cache. API-key lookups read
// through; flipping a merchant's active flag evicts its entry, so gateway
// authorization never runs against a stale copy.
type CachedStore struct {
	Storage
	cache *MerchantCache
}

func NewCachedStore(inner Storage, cache *MerchantCache) *CachedStore {
	return &CachedStore{Storage: inner, cache: cache}
}

func (s *CachedStore) GetMerchantByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error) {
	if m, err := s.cache.Get(ctx, apiKey); err == nil {
		return m, nil
	}
	m, err := s.Storage.GetMerchantByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	// best effort; a failed write only costs the next lookup
	_ = s.cache.Put(ctx, m)
	return m, nil
}

func (s *CachedStore) SetMerchantActive(ctx context.Context, id uint64, active bool) error {
	m, err := s.Storage.GetMerchant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Storage.SetMerchantActive(ctx, id, active); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, m.APIKey)
}
