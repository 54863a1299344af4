package sinks

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "sinks.yaml", `
sinks:
  - id: local
    type: sqlite
    sqlite:
      path: ./data/metadata.db
  - id: hook
    type: HTTP
    enabled: false
    http:
      url: " https://example.com/hook "
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "local" {
		t.Fatalf("expected only local enabled, got %#v", enabled)
	}
	if enabled[0].SQLite.Table != defaultTable {
		t.Fatalf("expected default table, got %q", enabled[0].SQLite.Table)
	}

	hook, ok := findSink(reg, "hook")
	if !ok {
		t.Fatalf("expected hook sink to be indexed")
	}
	if hook.Type != TypeHTTP || hook.HTTP.URL != "https://example.com/hook" || hook.HTTP.Method != "POST" {
		t.Fatalf("http sink not sanitized: %#v", hook.HTTP)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(reg.All()))
	}
}

func findSink(reg *ConfigRegistry, id string) (SinkConfig, bool) {
	for _, cfg := range reg.All() {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return SinkConfig{}, false
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "sinks.json", `{"sinks":[{"id":"q","type":"sqs","sqs":{"uri":"https://sqs.example.com/q","region":"ap-northeast-2"}}]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := findSink(reg, "q")
	if !ok || cfg.SQS.Region != "ap-northeast-2" {
		t.Fatalf("unexpected sqs config %#v", cfg)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"empty": `sinks: []`,
		"missing sqlite path": `
sinks:
  - id: local
    type: sqlite
    sqlite: {}
`,
		"bad table": `
sinks:
  - id: pg
    type: postgres
    postgres:
      dsn: postgres://localhost/db
      table: "reports; DROP TABLE x"
`,
		"duplicate": `
sinks:
  - id: a
    type: http
    http: {url: https://a}
  - id: a
    type: http
    http: {url: https://b}
`,
		"pubsub without topic": `
sinks:
  - id: ps
    type: pubsub
    pubsub: {project_id: p}
`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRegistry(writeFile(t, "sinks.yaml", raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadRegistry(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
