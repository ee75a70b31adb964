// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codag/internal/models"
)

// ErrCacheMiss is returned when no graph is cached under a key.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores finished workflow graphs in Redis keyed by request digest.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetGraph fetches a cached graph. ErrCacheMiss when absent.
func (c *Cache) GetGraph(ctx context.Context, key string) (*models.WorkflowGraph, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var graph models.WorkflowGraph
	if err := json.Unmarshal([]byte(raw), &graph); err != nil {
		// A corrupt entry behaves like a miss; the pipeline recomputes.
		return nil, ErrCacheMiss
	}
	return &graph, nil
}

// PutGraph stores a graph under key with the configured TTL.
func (c *Cache) PutGraph(ctx context.Context, key string, graph *models.WorkflowGraph) error {
	raw, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
