// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AccelByte/extend-gamification-engine/pkg/rule"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL bounds how long idle rule state is retained (90 days).
	DefaultTTL = 90 * 24 * time.Hour
	// KeyPrefix is the prefix for all rule state keys.
	KeyPrefix = "gamify:rule_state:"
)

// RedisStoreConfig tunes the Redis-backed state store.
type RedisStoreConfig struct {
	// TTL for state records; zero uses DefaultTTL.
	TTL time.Duration
}

// RedisStore persists rule runtime state as JSON records in Redis, one key
// per (game, user, rule).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed rule state store.
func NewRedisStore(client *redis.Client, cfg RedisStoreConfig) *RedisStore {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func makeKey(key rule.StateKey) string {
	return fmt.Sprintf("%s%d:%d:%s", KeyPrefix, key.GameID, key.UserID, key.RuleID)
}

// Get retrieves the state record for a key, or nil if none exists yet.
func (s *RedisStore) Get(ctx context.Context, key rule.StateKey) (*rule.State, error) {
	data, err := s.client.Get(ctx, makeKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule state: %w", err)
	}

	var st rule.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		logrus.Errorf("failed to unmarshal rule state for game %d user %d rule %s: %v",
			key.GameID, key.UserID, key.RuleID, err)
		return nil, fmt.Errorf("failed to unmarshal rule state: %w", err)
	}
	return &st, nil
}

// Put stores the state record, refreshing its TTL.
func (s *RedisStore) Put(ctx context.Context, key rule.StateKey, st *rule.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal rule state: %w", err)
	}
	if err := s.client.Set(ctx, makeKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rule state: %w", err)
	}
	return nil
}

// Delete removes the state record.
func (s *RedisStore) Delete(ctx context.Context, key rule.StateKey) error {
	if err := s.client.Del(ctx, makeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete rule state: %w", err)
	}
	return nil
}
