package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
)

const (
	// CatalogKey holds the JSON snapshot of the whole tool list.
	CatalogKey = "toolkithub:catalog:tools"
	// GenerationKey is bumped by every invalidation.
	GenerationKey = "toolkithub:catalog:gen"
)

// CatalogCache keeps a snapshot of every tool so list requests skip the
// store. A miss is reported as (nil, false, nil).
//
// A filler reads Generation before loading the store and passes it to Set.
// Set drops the snapshot when an invalidation happened in between.
type CatalogCache interface {
	Get(ctx context.Context) ([]models.Tool, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, tools []models.Tool) error
	Invalidate(ctx context.Context) error
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (c *RedisCatalogCache) Get(ctx context.Context) ([]models.Tool, bool, error) {
	raw, err := c.client.Get(ctx, CatalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CatalogCacheRequestsTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		metrics.CatalogCacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var tools []models.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		metrics.CatalogCacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to decode catalog cache: %w", err)
	}
	metrics.CatalogCacheRequestsTotal.WithLabelValues("hit").Inc()
	return tools, true, nil
}

func (c *RedisCatalogCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read catalog generation: %w", err)
	}
	return gen, nil
}

// Set stores tools only while the generation still equals generation.
func (c *RedisCatalogCache) Set(ctx context.Context, generation int64, tools []models.Tool) error {
	raw, err := json.Marshal(tools)
	if err != nil {
		return fmt.Errorf("failed to encode catalog cache: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CatalogKey, raw, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		metrics.CatalogCacheRequestsTotal.WithLabelValues("stale").Inc()
		return nil
	default:
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
}

var errStaleSnapshot = errors.New("catalog changed while loading")

// Invalidate bumps the generation and drops the snapshot atomically.
func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, CatalogKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

// NoopCatalogCache is used when no Redis URL is configured. Every lookup misses.
type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(context.Context) ([]models.Tool, bool, error) { return nil, false, nil }
func (NoopCatalogCache) Generation(context.Context) (int64, error)        { return 0, nil }
func (NoopCatalogCache) Set(context.Context, int64, []models.Tool) error  { return nil }
func (NoopCatalogCache) Invalidate(context.Context) error                 { return nil }
