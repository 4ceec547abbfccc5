// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-gamification-engine/internal/config"
	"github.com/AccelByte/extend-gamification-engine/internal/server"
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/dispatch"
	"github.com/AccelByte/extend-gamification-engine/pkg/rule"
	"github.com/AccelByte/extend-gamification-engine/pkg/state"
	"github.com/AccelByte/extend-gamification-engine/pkg/stream"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages their lifecycle.
//
// Components are initialized in dependency order: Redis, rule definitions,
// state store and sinks, supervisor, stream adapter, then the metrics
// server and telemetry.
type App struct {
	cfg               *config.Config
	redisClient       *redis.Client
	supervisor        *dispatch.Supervisor
	adapter           *stream.Adapter
	source            *stream.RedisSource
	metricsServer     *server.MetricsServer
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	provider, err := rule.LoadFileProvider(cfg.DefinitionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule definitions from %s: %w", cfg.DefinitionsPath, err)
	}
	logrus.Infof("loaded rule definitions from %s", cfg.DefinitionsPath)

	stateStore := state.NewRedisStore(app.redisClient, state.RedisStoreConfig{
		TTL: time.Duration(cfg.StateTTLHours) * time.Hour,
	})
	sink := award.NewRedisStreamSink(app.redisClient, cfg.AwardStream)

	app.source = stream.NewRedisSource(app.redisClient, stream.RedisSourceConfig{
		Prefix:       cfg.StreamPrefix,
		Group:        cfg.ConsumerGroup,
		Consumer:     cfg.ConsumerName,
		Block:        time.Duration(cfg.StreamBlockMs) * time.Millisecond,
		ClaimMinIdle: time.Duration(cfg.ClaimMinIdleMs) * time.Millisecond,
	})

	app.supervisor = dispatch.NewSupervisor(app.source, provider, stateStore, sink)
	app.adapter = stream.NewAdapter(app.source, app.supervisor)

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")
	return app, nil
}

// initRedis initializes the Redis client with retry.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
