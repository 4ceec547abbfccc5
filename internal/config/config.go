// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

// Config holds all application configuration loaded from environment
// variables via github.com/caarlos0/env struct tags.
type Config struct {
	// Server configuration
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"GamificationRuleEngine"`

	// Redis configuration (state store, event streams, award sink)
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// Stream ingestion configuration
	StreamPrefix     string `env:"STREAM_PREFIX" envDefault:"gamify"`
	ConsumerGroup    string `env:"CONSUMER_GROUP" envDefault:"gamify-engine"`
	ConsumerName     string `env:"CONSUMER_NAME"`
	StreamBlockMs    int    `env:"STREAM_BLOCK_MS" envDefault:"5000"`
	ClaimMinIdleMs   int    `env:"CLAIM_MIN_IDLE_MS" envDefault:"30000"`
	AwardStream      string `env:"AWARD_STREAM"`
	StateTTLHours    int    `env:"STATE_TTL_HOURS" envDefault:"2160"`
	DefinitionsPath  string `env:"DEFINITIONS_PATH" envDefault:"config/definitions.yaml"`

	// Telemetry configuration
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"gamification-rule-engine"`
}
