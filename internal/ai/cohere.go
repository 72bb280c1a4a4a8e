package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Cohere generates embeddings via the Cohere Embed v2 API.
type Cohere struct {
	Model  string
	client *cohereclient.Client
}

// NewCohere creates a Cohere embedder.
func NewCohere(model, apiKey string) *Cohere {
	if model == "" {
		model = "embed-english-v3.0"
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &Cohere{
		Model: model,
		client: cohereclient.NewClient(
			cohereclient.WithToken(apiKey),
			cohereclient.WithHTTPClient(httpClient),
		),
	}
}

// Embed returns one float vector per input text.
func (c *Cohere) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          c.Model,
		InputType:      cohere.EmbedInputTypeClustering,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, fmt.Errorf("cohere embed returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(floats), len(texts))
	}
	return floats, nil
}
