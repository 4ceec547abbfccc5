package rule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "definitions.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write definitions file: %v", err)
	}
	return path
}

func TestLoadFileProvider(t *testing.T) {
	path := writeDefinitions(t, `
games:
  - gameId: 1
    rules:
      - name: first-login
        kind: FIRST_EVENT
        event: login
        attribute: 10
      - name: login-streaks
        kind: STREAK_N
        event: login
        streaks:
          - streak: 3
            attribute: 20
  - gameId: 2
    rules:
      - name: first-purchase
        kind: FIRST_EVENT
        event: purchase
        attribute: 5
`)

	p, err := LoadFileProvider(path)
	if err != nil {
		t.Fatalf("LoadFileProvider() error = %v", err)
	}

	ctx := context.Background()

	defs, err := p.GameRules(ctx, 1)
	if err != nil {
		t.Fatalf("GameRules(1) error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("game 1 has %d rules, want 2", len(defs))
	}
	if defs[0].Name != "first-login" || defs[0].Kind != KindFirstEvent {
		t.Errorf("unexpected first rule: %+v", defs[0])
	}
	if len(defs[1].Streaks) != 1 || defs[1].Streaks[0].Streak != 3 {
		t.Errorf("unexpected streak levels: %+v", defs[1].Streaks)
	}

	// Unknown game yields an empty set, not an error.
	defs, err = p.GameRules(ctx, 999)
	if err != nil {
		t.Fatalf("GameRules(999) error = %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("unknown game returned %d rules, want 0", len(defs))
	}
}

func TestLoadFileProviderEnvExpansion(t *testing.T) {
	t.Setenv("TEST_STREAK_EVENT", "login")

	path := writeDefinitions(t, `
games:
  - gameId: 1
    rules:
      - name: expanded
        kind: FIRST_EVENT
        event: ${TEST_STREAK_EVENT}
        attribute: ${TEST_MISSING_ATTR:10}
`)

	p, err := LoadFileProvider(path)
	if err != nil {
		t.Fatalf("LoadFileProvider() error = %v", err)
	}

	defs, _ := p.GameRules(context.Background(), 1)
	if len(defs) != 1 {
		t.Fatalf("got %d rules, want 1", len(defs))
	}
	if defs[0].Event != "login" {
		t.Errorf("Event = %q, want expanded value \"login\"", defs[0].Event)
	}
	if defs[0].Attribute != 10 {
		t.Errorf("Attribute = %d, want the default 10", defs[0].Attribute)
	}
}

func TestLoadFileProviderRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "duplicate game id",
			content: `
games:
  - gameId: 1
    rules:
      - name: a
        kind: FIRST_EVENT
        event: login
  - gameId: 1
    rules:
      - name: b
        kind: FIRST_EVENT
        event: login
`,
		},
		{
			name: "duplicate rule name",
			content: `
games:
  - gameId: 1
    rules:
      - name: a
        kind: FIRST_EVENT
        event: login
      - name: a
        kind: FIRST_EVENT
        event: logout
`,
		},
		{
			name: "empty rule name",
			content: `
games:
  - gameId: 1
    rules:
      - kind: FIRST_EVENT
        event: login
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFileProvider(writeDefinitions(t, tt.content)); err == nil {
				t.Error("expected load error")
			}
		})
	}
}

func TestLoadFileProviderMissingFile(t *testing.T) {
	if _, err := LoadFileProvider("does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStaticProvider(t *testing.T) {
	p := StaticProvider{
		1: {{Name: "a", Kind: KindFirstEvent, Event: "login"}},
	}

	defs, err := p.GameRules(context.Background(), 1)
	if err != nil || len(defs) != 1 {
		t.Fatalf("GameRules(1) = %v, %v", defs, err)
	}
	defs, err = p.GameRules(context.Background(), 2)
	if err != nil || len(defs) != 0 {
		t.Fatalf("GameRules(2) = %v, %v", defs, err)
	}
}
