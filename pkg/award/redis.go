package award

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultAwardStream = "gamify:awards"

// RedisStreamSink publishes notifications to a Redis stream so downstream
// consumers (leaderboards, history writers) can pick them up.
type RedisStreamSink struct {
	client *redis.Client
	stream string
}

// NewRedisStreamSink creates a sink writing to the given stream. An empty
// stream name uses the default.
func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	if stream == "" {
		stream = defaultAwardStream
	}
	return &RedisStreamSink{client: client, stream: stream}
}

func (s *RedisStreamSink) Push(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal award notification: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"payload": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish award notification: %w", err)
	}
	return nil
}
