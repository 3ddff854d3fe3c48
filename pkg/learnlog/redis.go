package learnlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/daviddao/reslot/pkg/model"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "reslot:resolution_log"

// RedisLog keeps the resolution log in one capped Redis list of JSON
// entries, oldest at the head.
type RedisLog struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLog wraps client. An empty key means DefaultRedisKey.
func NewRedisLog(client redis.UniversalClient, key string) *RedisLog {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key}
}

// Record pushes e and trims the list to the newest Retention entries in one
// MULTI/EXEC.
func (r *RedisLog) Record(ctx context.Context, e model.LogEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, r.key, data)
		p.LTrim(ctx, r.key, -Retention, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record: %w", err)
	}
	return nil
}

// LoadContext summarizes the owner's last patterns.
func (r *RedisLog) LoadContext(ctx context.Context, ownerID string) (string, error) {
	entries, err := r.entries(ctx)
	if err != nil {
		return NoHistory, err
	}
	return Summarize(ForOwner(entries, ownerID)), nil
}

// Statistics tallies the owner's retained entries.
func (r *RedisLog) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	entries, err := r.entries(ctx)
	if err != nil {
		return model.NewStatistics(), err
	}
	return Tally(ForOwner(entries, ownerID)), nil
}

func (r *RedisLog) entries(ctx context.Context) ([]model.LogEntry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", r.key, err)
	}
	entries := make([]model.LogEntry, 0, len(raw))
	for i, s := range raw {
		var e model.LogEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode log entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var _ Log = (*RedisLog)(nil)
