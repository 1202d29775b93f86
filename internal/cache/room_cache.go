package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pairdesk/internal/model"
)

// RoomCache handles Redis operations for room metadata served by the HTTP
// lookup endpoint. It is a read-through cache: a short TTL bounds staleness
// instead of invalidation on every document mutation.
type RoomCache interface {
	SetMeta(ctx context.Context, roomKey string, meta *model.RoomMeta) error
	GetMeta(ctx context.Context, roomKey string) (*model.RoomMeta, error)
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room metadata cache.
func NewRoomCache(client *redis.Client) RoomCache {
	return &roomCache{
		client: client,
		ttl:    30 * time.Second,
	}
}

func (c *roomCache) key(roomKey string) string {
	return fmt.Sprintf("room:%s", roomKey)
}

func (c *roomCache) SetMeta(ctx context.Context, roomKey string, meta *model.RoomMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(roomKey), data, c.ttl).Err()
}

func (c *roomCache) GetMeta(ctx context.Context, roomKey string) (*model.RoomMeta, error) {
	data, err := c.client.Get(ctx, c.key(roomKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.RoomMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
