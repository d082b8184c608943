package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/notekeeper/apiserver/config"
	"github.com/notekeeper/apiserver/types"
	"github.com/redis/go-redis/v9"
)

type RedisNoteCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisNoteCache(ctx context.Context, cfg config.RedisConfig) (*RedisNoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisNoteCache{client: client, ttl: cfg.NotesTTL}, nil
}

func (c *RedisNoteCache) GetNotes(ctx context.Context, userID string) ([]types.Note, bool, error) {
	data, err := c.client.Get(ctx, buildNotesKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var notes []types.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, buildNotesKey(userID)).Err()
		return nil, false, nil
	}
	return notes, true, nil
}

func (c *RedisNoteCache) SetNotes(ctx context.Context, userID string, notes []types.Note) error {
	data, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, buildNotesKey(userID), data, c.ttl).Err()
}

func (c *RedisNoteCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, buildNotesKey(userID)).Err()
}

func (c *RedisNoteCache) Close() error {
	return c.client.Close()
}

// Hash tags keep a user's keys on one cluster slot.
func buildNotesKey(userID string) string {
	return "notes:{" + userID + "}"
}
