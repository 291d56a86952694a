package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"spacehub/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSlotCache stores slot listings in one hash per (space, date), keyed by
// duration, so a booking change drops every duration with a single DEL.
type RedisSlotCache struct {
	client *redis.Client
}

func NewRedisSlotCache(client *redis.Client) *RedisSlotCache {
	return &RedisSlotCache{client: client}
}

func slotsKey(spaceID int64, date string) string {
	return fmt.Sprintf("slots:%d:%s", spaceID, date)
}

func (c *RedisSlotCache) GetSlots(ctx context.Context, spaceID int64, date string, duration int) ([]models.Slot, bool, error) {
	val, err := c.client.HGet(ctx, slotsKey(spaceID, date), strconv.Itoa(duration)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slots cache: %w", err)
	}

	var slots []models.Slot
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached slots: %w", err)
	}
	return slots, true, nil
}

func (c *RedisSlotCache) SetSlots(
	ctx context.Context,
	spaceID int64,
	date string,
	duration int,
	slots []models.Slot,
	ttl time.Duration,
) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode slots: %w", err)
	}
	key := slotsKey(spaceID, date)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(duration), data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write slots cache: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, spaceID int64, date string) error {
	if err := c.client.Del(ctx, slotsKey(spaceID, date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate slots cache: %w", err)
	}
	return nil
}

// InvalidateSpace drops cached listings of every date for the space.
func (c *RedisSlotCache) InvalidateSpace(ctx context.Context, spaceID int64) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("slots:%d:*", spaceID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan slots cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate slots cache: %w", err)
	}
	return nil
}
