package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultStreamPrefix = "gamify"
	defaultGroup        = "gamify-engine"
	defaultBlock        = 5 * time.Second
	defaultClaimMinIdle = 30 * time.Second
	readBatchSize       = 32
)

// RedisSourceConfig tunes the Redis Streams source.
type RedisSourceConfig struct {
	// Prefix for all stream keys ("gamify" -> "gamify:announcements",
	// "gamify:game:{id}").
	Prefix string
	// Group is the consumer group name shared by engine instances.
	Group string
	// Consumer is this instance's consumer name within the group.
	Consumer string
	// Block is the XREADGROUP block timeout; it doubles as the broker
	// health probe interval.
	Block time.Duration
	// ClaimMinIdle is how long a pending (nacked or abandoned) entry must
	// idle before it is reclaimed for redelivery.
	ClaimMinIdle time.Duration
}

func (c *RedisSourceConfig) fill() {
	if c.Prefix == "" {
		c.Prefix = defaultStreamPrefix
	}
	if c.Group == "" {
		c.Group = defaultGroup
	}
	if c.Consumer == "" {
		c.Consumer = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if c.Block == 0 {
		c.Block = defaultBlock
	}
	if c.ClaimMinIdle == 0 {
		c.ClaimMinIdle = defaultClaimMinIdle
	}
}

// RedisSource consumes broker channels backed by Redis Streams consumer
// groups. Un-acked entries stay in the group's pending list and are
// reclaimed after ClaimMinIdle, which is what gives nack-with-requeue and
// crash redelivery their at-least-once behavior.
type RedisSource struct {
	client *redis.Client
	cfg    RedisSourceConfig

	mu   sync.Mutex
	subs []*redisSubscription
}

// NewRedisSource creates a source over an established Redis client.
func NewRedisSource(client *redis.Client, cfg RedisSourceConfig) *RedisSource {
	cfg.fill()
	return &RedisSource{client: client, cfg: cfg}
}

func (s *RedisSource) Announcements(ctx context.Context) (Subscription, error) {
	return s.subscribe(ctx, fmt.Sprintf("%s:announcements", s.cfg.Prefix))
}

func (s *RedisSource) GameEvents(ctx context.Context, gameID int) (Subscription, error) {
	return s.subscribe(ctx, fmt.Sprintf("%s:game:%d", s.cfg.Prefix, gameID))
}

func (s *RedisSource) subscribe(ctx context.Context, streamKey string) (Subscription, error) {
	err := s.client.XGroupCreateMkStream(ctx, streamKey, s.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group on %s: %w", streamKey, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSubscription{
		client: s.client,
		cfg:    s.cfg,
		stream: streamKey,
		out:    make(chan Delivery, readBatchSize),
		cancel: cancel,
	}
	sub.wg.Add(1)
	go sub.run(subCtx)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	logrus.Infof("subscribed to stream %s (group=%s consumer=%s)", streamKey, s.cfg.Group, s.cfg.Consumer)
	return sub, nil
}

func (s *RedisSource) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			logrus.Errorf("failed to close subscription on %s: %v", sub.stream, err)
		}
	}
	return nil
}

type redisSubscription struct {
	client *redis.Client
	cfg    RedisSourceConfig
	stream string

	out    chan Delivery
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

func (s *redisSubscription) Deliveries() <-chan Delivery { return s.out }

func (s *redisSubscription) Ack(ctx context.Context, tag string) error {
	if err := s.client.XAck(ctx, s.stream, s.cfg.Group, tag).Err(); err != nil {
		return fmt.Errorf("failed to ack %s on %s: %w", tag, s.stream, err)
	}
	return nil
}

// Nack with requeue leaves the entry in the pending list so a later
// XAUTOCLAIM pass redelivers it; without requeue the entry is acked away.
func (s *redisSubscription) Nack(ctx context.Context, tag string, requeue bool) error {
	if requeue {
		return nil
	}
	return s.Ack(ctx, tag)
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		close(s.out)
	})
	return nil
}

func (s *redisSubscription) run(ctx context.Context) {
	defer s.wg.Done()

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0 // keep reconnecting until closed

	for {
		if ctx.Err() != nil {
			return
		}

		claimed := s.claimPending(ctx)
		fresh, err := s.readFresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := retry.NextBackOff()
			logrus.Warnf("read on stream %s failed: %v, retrying in %v", s.stream, err, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
			continue
		}
		retry.Reset()

		for _, msg := range append(claimed, fresh...) {
			body, ok := msg.Values["payload"].(string)
			if !ok {
				// Entry without a payload field cannot ever decode; drop it.
				logrus.Warnf("stream %s entry %s has no payload field, acking away", s.stream, msg.ID)
				if err := s.Ack(ctx, msg.ID); err != nil {
					logrus.Errorf("failed to drop malformed entry %s: %v", msg.ID, err)
				}
				continue
			}
			select {
			case s.out <- Delivery{Body: []byte(body), Tag: msg.ID}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// claimPending reclaims entries that idled past ClaimMinIdle: nacked
// deliveries and deliveries lost to a dead consumer.
func (s *redisSubscription) claimPending(ctx context.Context) []redis.XMessage {
	msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		MinIdle:  s.cfg.ClaimMinIdle,
		Start:    "0-0",
		Count:    readBatchSize,
	}).Result()
	if err != nil && err != redis.Nil {
		logrus.Warnf("failed to claim pending entries on %s: %v", s.stream, err)
		return nil
	}
	return msgs
}

func (s *redisSubscription) readFresh(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.stream, ">"},
		Count:    readBatchSize,
		Block:    s.cfg.Block,
	}).Result()
	if err == redis.Nil {
		return nil, nil // block timeout, no new entries
	}
	if err != nil {
		return nil, err
	}

	var msgs []redis.XMessage
	for _, st := range streams {
		msgs = append(msgs, st.Messages...)
	}
	return msgs, nil
}

// PublishEnvelope writes an envelope to a stream; producers and tests use
// this to feed the engine through the same wire format it consumes.
func PublishEnvelope(ctx context.Context, client *redis.Client, streamKey string, body []byte) error {
	err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{"payload": string(body)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", streamKey, err)
	}
	return nil
}
