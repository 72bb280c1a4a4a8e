// Package ai provides the generation and embedding backends used by the
// triage, clustering and narration stages.
package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"newsbrief/internal/config"
)

// Generator produces free-form text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Available() bool
}

// Embedder maps texts to dense vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// NewGenerator builds the configured generator, falling back from Ollama
// to OpenAI when the local server is unreachable. Returns nil if nothing
// is usable.
func NewGenerator(cfg config.AI, secrets config.Secrets, log *zap.Logger) Generator {
	if strings.ToLower(cfg.Generator) == "ollama" {
		g := NewOllama(cfg.OllamaModel, cfg.OllamaURL)
		if g.Available() {
			log.Info("using ollama generator", zap.String("model", cfg.OllamaModel))
			return g
		}
		log.Warn("ollama not available, trying openai fallback")
	}

	g := NewOpenAI(cfg.OpenAIModel, secrets.OpenAIKey)
	if g.Available() {
		log.Info("using openai generator", zap.String("model", cfg.OpenAIModel))
		return g
	}

	log.Error("no generator available; start ollama or set OPENAI_API_KEY")
	return nil
}

// NewEmbedder builds the configured embedder. Returns nil if the backend
// is not usable with the available secrets.
func NewEmbedder(cfg config.AI, secrets config.Secrets, log *zap.Logger) Embedder {
	switch strings.ToLower(cfg.Embedder) {
	case "cohere":
		if secrets.CohereKey == "" {
			log.Error("cohere embedder selected but COHERE_API_KEY is not set")
			return nil
		}
		log.Info("using cohere embedder", zap.String("model", cfg.EmbeddingModel))
		return NewCohere(cfg.EmbeddingModel, secrets.CohereKey)
	case "openai":
		if secrets.OpenAIKey == "" {
			log.Error("openai embedder selected but OPENAI_API_KEY is not set")
			return nil
		}
		log.Info("using openai embedder", zap.String("model", cfg.EmbeddingModel))
		return NewOpenAIEmbedder(cfg.EmbeddingModel, secrets.OpenAIKey)
	default:
		log.Info("using ollama embedder", zap.String("model", cfg.EmbeddingModel))
		return NewOllamaEmbedder(cfg.EmbeddingModel, cfg.OllamaURL)
	}
}
