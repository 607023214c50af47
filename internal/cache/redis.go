package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces cache keys in a shared Redis.
const RedisKeyPrefix = "pmidcite:pmid:"

// RedisStore keeps entries as JSON strings under RedisKeyPrefix+PMID.
type RedisStore struct {
	client *redis.Client
	addr   string
	ttl    time.Duration
}

// OpenRedis connects to addr and checks the connection. A positive ttl
// expires entries.
func OpenRedis(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: rc, addr: addr, ttl: ttl}, nil
}

func redisKey(pmid string) string {
	return RedisKeyPrefix + pmid
}

// Get returns the entry for pmid.
func (s *RedisStore) Get(ctx context.Context, pmid string) (Entry, bool, error) {
	b, err := s.client.Get(ctx, redisKey(pmid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", pmid, err)
	}

	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("unmarshaling entry for %s: %w", pmid, err)
	}
	return e, true, nil
}

// Put stores entries in one pipeline.
func (s *RedisStore) Put(ctx context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for pmid, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling entry for %s: %w", pmid, err)
		}
		pipe.Set(ctx, redisKey(pmid), data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// keys returns every cache key.
func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Len returns the number of cached entries.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	return len(keys), err
}

// Clear deletes every cache key.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Location returns the Redis address.
func (s *RedisStore) Location() string {
	return "redis://" + s.addr
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
