package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
)

const briefKeyPrefix = "briefs:"

// RedisStore keeps each user's history as a redis list. RPUSH is
// atomic, so appends need no extra serialization.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.Addr(), err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) LoadHistory(ctx context.Context, userID string) ([]brief.FinalBrief, error) {
	values, err := r.client.LRange(ctx, briefKeyPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	briefs := make([]brief.FinalBrief, 0, len(values))
	for _, v := range values {
		var b brief.FinalBrief
		if err := json.Unmarshal([]byte(v), &b); err != nil {
			return nil, fmt.Errorf("decoding stored brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	return briefs, nil
}

func (r *RedisStore) AppendBrief(ctx context.Context, userID string, b brief.FinalBrief) error {
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling brief: %w", err)
	}
	return r.client.RPush(ctx, briefKeyPrefix+userID, payload).Err()
}
