// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "testing"

func validConfig() *Config {
	return &Config{
		MetricsPort:     8080,
		StreamPrefix:    "gamify",
		ConsumerGroup:   "gamify-engine",
		StreamBlockMs:   5000,
		ClaimMinIdleMs:  30000,
		StateTTLHours:   2160,
		DefinitionsPath: "config/definitions.yaml",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.MetricsPort = 0 }},
		{"port too high", func(c *Config) { c.MetricsPort = 70000 }},
		{"empty prefix", func(c *Config) { c.StreamPrefix = "" }},
		{"empty group", func(c *Config) { c.ConsumerGroup = "" }},
		{"non-positive block", func(c *Config) { c.StreamBlockMs = 0 }},
		{"non-positive claim idle", func(c *Config) { c.ClaimMinIdleMs = -1 }},
		{"non-positive ttl", func(c *Config) { c.StateTTLHours = 0 }},
		{"empty definitions path", func(c *Config) { c.DefinitionsPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MetricsPort != 8080 {
		t.Errorf("MetricsPort = %d, want default 8080", cfg.MetricsPort)
	}
	if cfg.StreamPrefix != "gamify" {
		t.Errorf("StreamPrefix = %q, want default \"gamify\"", cfg.StreamPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
