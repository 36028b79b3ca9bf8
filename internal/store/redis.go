// redis.go -- go-redis client for server-side session data.
//
// Stores SessionData as JSON under session:<id> with TTL matching session expiry.
// Expiry is handled entirely by Redis; a missing key is ErrSessionNotFound.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore wraps a Redis client for session backend operations.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore connects to Redis and returns a ready-to-use session backend.
// It pings Redis to verify connectivity before returning.
// Call once at startup from main.go...returned store is safe for concurrent use.
func NewRedisSessionStore(ctx context.Context, redisURL string) (*RedisSessionStore, error) {
	// Parse redisURL to get option values, if err return it
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisSessionStore{rdb}, nil
}

// Close shuts down the Redis client and releases all resources.
func (s *RedisSessionStore) Close() error {
	return s.rdb.Close()
}

// CheckHealth pings Redis.
func (s *RedisSessionStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// LoadSession retrieves session data by id.
// Returns ErrSessionNotFound on a miss; other errors are Redis failures.
func (s *RedisSessionStore) LoadSession(ctx context.Context, id string) (*SessionData, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetching session: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &data, nil
}

// SaveSession writes session data with the given TTL, replacing any previous value.
func (s *RedisSessionStore) SaveSession(ctx context.Context, id string, data *SessionData, ttl time.Duration) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(id), out, ttl).Err(); err != nil {
		return fmt.Errorf("caching session: %w", err)
	}
	return nil
}

// DeleteSession removes session data. Deleting a missing id is not an error.
func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
