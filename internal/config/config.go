// Package config loads the YAML configuration and overlays secrets and
// operational overrides from the environment.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultYAML []byte

// Config is the full tool configuration.
type Config struct {
	DataDir    string     `yaml:"data_dir"`
	Sources    Sources    `yaml:"sources"`
	AI         AI         `yaml:"ai"`
	Clustering Clustering `yaml:"clustering"`
	Server     Server     `yaml:"server"`
	Schedule   Schedule   `yaml:"schedule"`
	Logging    Logging    `yaml:"logging"`

	// Secrets come from the environment (optionally via .env), never from
	// the YAML file.
	Secrets Secrets `yaml:"-"`
}

// Sources configures where articles come from.
type Sources struct {
	Feeds   []Feed  `yaml:"feeds"`
	NewsAPI NewsAPI `yaml:"newsapi"`
}

// Feed is one RSS/Atom source.
type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// NewsAPI configures the keyword search source.
type NewsAPI struct {
	Enabled bool   `yaml:"enabled"`
	Query   string `yaml:"query"`
}

// AI selects the generation and embedding backends.
type AI struct {
	Generator      string `yaml:"generator"` // "ollama" or "openai"
	Embedder       string `yaml:"embedder"`  // "ollama", "openai" or "cohere"
	OllamaURL      string `yaml:"ollama_url"`
	OllamaModel    string `yaml:"ollama_model"`
	OpenAIModel    string `yaml:"openai_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	MaxTokens      int    `yaml:"max_tokens"`
}

// Clustering tunes the storyline grouper.
type Clustering struct {
	// DistanceThreshold is the dendrogram cut height. It is calibrated to
	// the configured embedding backend and needs re-tuning when that
	// backend changes.
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

// Server configures the local dashboard.
type Server struct {
	Port int `yaml:"port"`
}

// Schedule configures the cron-driven pipeline runner.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Logging configures the logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Secrets hold API keys and env-only overrides.
type Secrets struct {
	NewsAPIKey string `envconfig:"NEWSAPI_KEY"`
	OpenAIKey  string `envconfig:"OPENAI_API_KEY"`
	CohereKey  string `envconfig:"COHERE_API_KEY"`
	Port       int    `envconfig:"NEWSBRIEF_PORT"`
	LogLevel   string `envconfig:"NEWSBRIEF_LOG_LEVEL"`
	DataDir    string `envconfig:"NEWSBRIEF_DATA_DIR"`
}

// Dir returns the XDG config directory for newsbrief.
func Dir() string {
	return filepath.Join(home(), ".config", "newsbrief")
}

// DefaultDataDir returns the XDG data directory for newsbrief.
func DefaultDataDir() string {
	return filepath.Join(home(), ".local", "share", "newsbrief")
}

// ResolvePath finds the config file following priority:
// explicit path > ~/.config/newsbrief/config.yaml > ./config.yaml
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(Dir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsbrief init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			NewsAPI: NewsAPI{
				Enabled: true,
				Query:   "artificial intelligence software development",
			},
		},
		AI: AI{
			Generator:      "ollama",
			Embedder:       "ollama",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "qwen2.5:7b",
			OpenAIModel:    "gpt-4o-mini",
			EmbeddingModel: "nomic-embed-text",
			MaxTokens:      512,
		},
		Clustering: Clustering{DistanceThreshold: 1.2},
		Server:     Server{Port: 8000},
		Schedule:   Schedule{Cron: "0 7 * * *"},
		Logging:    Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// applyEnv loads .env if present and overlays environment values.
func (c *Config) applyEnv() error {
	_ = godotenv.Load()

	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	c.Secrets = s

	if s.Port != 0 {
		c.Server.Port = s.Port
	}
	if s.LogLevel != "" {
		c.Logging.Level = s.LogLevel
	}
	if s.DataDir != "" {
		c.DataDir = s.DataDir
	}
	return nil
}

// EffectiveDataDir returns the configured data directory or the XDG default.
func (c *Config) EffectiveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// StorePath returns the SQLite database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.EffectiveDataDir(), "newsbrief.db")
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}
