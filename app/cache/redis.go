package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmkenv/bluesky-auto/app/dedup"
)

const DefaultKey = "bluesky-auto:posted"

var _ dedup.Backend = (*RedisStore)(nil)

// RedisStore keeps published records in one Redis hash, one field per
// item id holding the JSON record.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// Connect opens a client from a redis:// URL and checks it with PING.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Load(ctx context.Context) (map[string]dedup.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	records := make(map[string]dedup.Record, len(fields))
	for id, raw := range fields {
		var record dedup.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			slog.Warn("Skipping unreadable record", "key", s.key, "id", id, "error", err)
			continue
		}
		records[id] = record
	}
	return records, nil
}

// Save upserts every record in a single MULTI/EXEC. Fields are never
// deleted.
func (s *RedisStore) Save(ctx context.Context, records map[string]dedup.Record) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]any, 0, len(records)*2)
	for id, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", id, err)
		}
		values = append(values, id, string(data))
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.key, err)
	}
	return int(n), nil
}
