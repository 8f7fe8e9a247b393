package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Path != "medagent.db" {
		t.Errorf("storage.path = %q", cfg.Storage.Path)
	}
	if cfg.Session.MaxHistoryTokens != 2048 {
		t.Errorf("session.max_history_tokens = %d", cfg.Session.MaxHistoryTokens)
	}
	if cfg.Notify.Buffer != 16 {
		t.Errorf("notify.buffer = %d", cfg.Notify.Buffer)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDAGENT_SERVER__PORT", "9090")
	t.Setenv("MEDAGENT_LLM__API_KEY", "gsk_test")
	t.Setenv("MEDAGENT_LLM__MODEL", "test-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "gsk_test" {
		t.Errorf("llm.api_key = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("llm.model = %q", cfg.LLM.Model)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 7070
storage:
  path: /tmp/test.db
llm:
  model: from-file
session:
  max_history_tokens: 512
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("storage.path = %q", cfg.Storage.Path)
	}
	if cfg.Session.MaxHistoryTokens != 512 {
		t.Errorf("session.max_history_tokens = %d", cfg.Session.MaxHistoryTokens)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 7070\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("MEDAGENT_SERVER__PORT", "9091")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("server.port = %d, want env to win", cfg.Server.Port)
	}
}

func TestLoadExpandsAPIKeyReference(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("llm:\n  api_key: ${TEST_GROQ_KEY}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("TEST_GROQ_KEY", "gsk_expanded")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "gsk_expanded" {
		t.Errorf("llm.api_key = %q, want expanded value", cfg.LLM.APIKey)
	}
}
