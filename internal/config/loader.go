// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables. It attempts to
// load a .env file first (for local development), then parses environment
// variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.StreamPrefix == "" {
		return fmt.Errorf("STREAM_PREFIX must not be empty")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP must not be empty")
	}

	if c.StreamBlockMs <= 0 {
		return fmt.Errorf("invalid STREAM_BLOCK_MS: %d (must be positive)", c.StreamBlockMs)
	}

	if c.ClaimMinIdleMs <= 0 {
		return fmt.Errorf("invalid CLAIM_MIN_IDLE_MS: %d (must be positive)", c.ClaimMinIdleMs)
	}

	if c.StateTTLHours <= 0 {
		return fmt.Errorf("invalid STATE_TTL_HOURS: %d (must be positive)", c.StateTTLHours)
	}

	if c.DefinitionsPath == "" {
		return fmt.Errorf("DEFINITIONS_PATH must not be empty")
	}

	return nil
}
