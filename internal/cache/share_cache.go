package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	shareKeyPrefix = "share:"
	scanBatchSize  = 100
)

type ShareCache interface {
	GetShare(ctx context.Context, id string) (*domain.Share, bool, error)
	SetShare(ctx context.Context, share *domain.Share) error
	InvalidateAll(ctx context.Context) error
}

type redisShareCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopShareCache struct{}

func NewShareCache(cfg config.CacheConfig) (ShareCache, error) {
	if !cfg.Enabled {
		return &noopShareCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisShareCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewRedisShareCache wraps an existing client.
func NewRedisShareCache(client *redis.Client, ttl time.Duration) ShareCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisShareCache{client: client, ttl: ttl}
}

func NewNoopShareCache() ShareCache {
	return &noopShareCache{}
}

func (c *redisShareCache) GetShare(ctx context.Context, id string) (*domain.Share, bool, error) {
	payload, err := c.client.Get(ctx, shareKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var share domain.Share
	if err := json.Unmarshal(payload, &share); err != nil {
		return nil, false, fmt.Errorf("decode share cache: %w", err)
	}

	return &share, true, nil
}

func (c *redisShareCache) SetShare(ctx context.Context, share *domain.Share) error {
	payload, err := json.Marshal(share)
	if err != nil {
		return fmt.Errorf("encode share cache: %w", err)
	}

	// Terminal shares never change again, so they can live longer.
	ttl := c.ttl
	if share.Status.Terminal() {
		ttl = 4 * c.ttl
	}

	if err := c.client.Set(ctx, shareKey(share.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisShareCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, shareKeyPrefix, scanBatchSize)
}

func (n *noopShareCache) GetShare(ctx context.Context, id string) (*domain.Share, bool, error) {
	return nil, false, nil
}

func (n *noopShareCache) SetShare(ctx context.Context, share *domain.Share) error {
	return nil
}

func (n *noopShareCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func shareKey(id string) string {
	return shareKeyPrefix + id
}
