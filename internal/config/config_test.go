package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	if cfg.AI.Generator != "ollama" {
		t.Errorf("expected generator 'ollama', got %q", cfg.AI.Generator)
	}
	if cfg.Clustering.DistanceThreshold != 1.2 {
		t.Errorf("expected distance threshold 1.2, got %v", cfg.Clustering.DistanceThreshold)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Schedule.Cron == "" {
		t.Error("expected a default cron expression")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
ai:
  generator: openai
  openai_model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.AI.Generator != "openai" {
		t.Errorf("expected generator 'openai', got %q", cfg.AI.Generator)
	}
	if cfg.AI.OpenAIModel != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", cfg.AI.OpenAIModel)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.AI.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.AI.OllamaURL)
	}
	if cfg.Clustering.DistanceThreshold != 1.2 {
		t.Errorf("expected default distance threshold, got %v", cfg.Clustering.DistanceThreshold)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEWSBRIEF_PORT", "9123")
	t.Setenv("NEWSBRIEF_LOG_LEVEL", "debug")
	t.Setenv("NEWSAPI_KEY", "test-key")

	cfg, err := parse(DefaultYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}
	if err := cfg.applyEnv(); err != nil {
		t.Fatalf("failed to apply environment: %v", err)
	}

	if cfg.Server.Port != 9123 {
		t.Errorf("expected env port 9123, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Secrets.NewsAPIKey != "test-key" {
		t.Errorf("expected NEWSAPI_KEY to be read, got %q", cfg.Secrets.NewsAPIKey)
	}
}

func TestEffectiveDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.EffectiveDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.DataDir = "/custom/path"
	if cfg.EffectiveDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.EffectiveDataDir())
	}
	if cfg.StorePath() != filepath.Join("/custom/path", "newsbrief.db") {
		t.Errorf("unexpected store path %q", cfg.StorePath())
	}
}
