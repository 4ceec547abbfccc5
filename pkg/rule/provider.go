package rule

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider supplies the declarative rule definitions for a game. The
// supervisor consults it on every START command.
type Provider interface {
	GameRules(ctx context.Context, gameID int) ([]Definition, error)
}

// DefinitionsFile is the on-disk definition layout.
type DefinitionsFile struct {
	Games []GameDefinitions `yaml:"games"`
}

// GameDefinitions groups the rule definitions of one game.
type GameDefinitions struct {
	GameID int          `yaml:"gameId"`
	Rules  []Definition `yaml:"rules"`
}

// FileProvider serves definitions loaded from a YAML file. Supports
// environment variable expansion in the form ${VAR} or ${VAR:default}.
type FileProvider struct {
	games map[int][]Definition
}

// LoadFileProvider reads and parses the definitions file.
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var file DefinitionsFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse definitions YAML: %w", err)
	}

	games := make(map[int][]Definition, len(file.Games))
	for _, g := range file.Games {
		if _, exists := games[g.GameID]; exists {
			return nil, fmt.Errorf("duplicate game id %d in definitions file", g.GameID)
		}
		names := make(map[string]bool, len(g.Rules))
		for _, def := range g.Rules {
			if def.Name == "" {
				return nil, fmt.Errorf("game %d has a rule with an empty name", g.GameID)
			}
			if names[def.Name] {
				return nil, fmt.Errorf("game %d has duplicate rule name %q", g.GameID, def.Name)
			}
			names[def.Name] = true
		}
		games[g.GameID] = g.Rules
	}

	return &FileProvider{games: games}, nil
}

// GameRules returns the definitions for a game. An unknown game id yields
// an empty set, not an error: a game with no rules is still startable.
func (p *FileProvider) GameRules(_ context.Context, gameID int) ([]Definition, error) {
	return p.games[gameID], nil
}

// StaticProvider serves a fixed in-memory definition set. Used in tests
// and embedded setups.
type StaticProvider map[int][]Definition

func (p StaticProvider) GameRules(_ context.Context, gameID int) ([]Definition, error) {
	return p[gameID], nil
}

// expandEnvVars expands ${VAR} or ${VAR:default} references.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
