// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuGH/appsettings/internal/config"
	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records in one hash: field = path, value = {"kind","value"} JSON.
type RedisStore struct {
	client *redis.Client
	key    string
}

type redisEntry struct {
	Kind  settings.Kind `json:"kind,omitempty"`
	Value string        `json:"value"`
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := applog.WithComponent("store")
	logger.Info().
		Str(applog.FieldBackend, config.BackendRedis).
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis")

	return NewRedisStore(client, cfg.Key), nil
}

// NewRedisStore wraps an existing client. An empty key uses "appsettings:values".
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "appsettings:values"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Backend() string { return config.BackendRedis }

func (s *RedisStore) Load(ctx context.Context) ([]Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(fields))
	for path, raw := range fields {
		var e redisEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out = append(out, Record{Path: path, Kind: e.Kind, Value: e.Value})
	}
	sortRecords(out)
	return out, nil
}

// Save replaces the hash in a MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, records []Record) error {
	values := make(map[string]any, len(records))
	for _, r := range records {
		buf, err := json.Marshal(redisEntry{Kind: r.Kind, Value: r.Value})
		if err != nil {
			return err
		}
		values[r.Path] = string(buf)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }
