package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mapsync/server/internal/editor/state"
)

const cacheKeyPrefix = "mapsync:doc:"

// Cached wraps a Store with a cache-aside Redis layer. Loads hit the
// cache first; saves write through to the inner store and refresh the
// cached copy. Cache failures fall back to the inner store and never
// fail the operation.
type Cached struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewCached builds the cache wrapper and verifies the Redis connection.
func NewCached(ctx context.Context, inner Store, client *redis.Client, ttl time.Duration) (*Cached, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: ping redis: %w", err)
	}
	return &Cached{inner: inner, client: client, ttl: ttl}, nil
}

func (c *Cached) Load(ctx context.Context, room string) (state.DocumentSnapshot, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+room).Bytes()
	if err == nil {
		var snapshot state.DocumentSnapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot, nil
		}
		// Corrupt entry; drop it and fall through to the inner store.
		c.client.Del(ctx, cacheKeyPrefix+room)
	} else if !errors.Is(err, redis.Nil) {
		return c.inner.Load(ctx, room)
	}

	snapshot, err := c.inner.Load(ctx, room)
	if err != nil {
		return state.DocumentSnapshot{}, err
	}
	c.fill(ctx, room, snapshot)
	return snapshot, nil
}

func (c *Cached) Save(ctx context.Context, room string, snapshot state.DocumentSnapshot) error {
	if err := c.inner.Save(ctx, room, snapshot); err != nil {
		return err
	}
	c.fill(ctx, room, snapshot)
	return nil
}

func (c *Cached) fill(ctx context.Context, room string, snapshot state.DocumentSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKeyPrefix+room, raw, c.ttl)
}
