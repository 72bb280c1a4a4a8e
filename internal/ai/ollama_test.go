package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model 'test-model', got %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "hello back"},
		})
	}))
	defer srv.Close()

	g := NewOllama("test-model", srv.URL)
	got, err := g.Generate(context.Background(), "hello", 64)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got != "hello back" {
		t.Errorf("expected 'hello back', got %q", got)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewOllama("test-model", srv.URL)
	if _, err := g.Generate(context.Background(), "hello", 64); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float64{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("embed-model", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.3 {
		t.Errorf("unexpected embeddings %v", vecs)
	}
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float64{{0.1}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("embed-model", srv.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on count mismatch")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "reply"}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAI("gpt-test", "test-key")
	g.baseURL = srv.URL
	got, err := g.Generate(context.Background(), "prompt", 64)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got != "reply" {
		t.Errorf("expected 'reply', got %q", got)
	}
}

func TestOpenAIEmbedOrderedByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Deliberately out of order; Embed must restore input order.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{2}, "index": 1},
				{"embedding": []float64{1}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("embed-test", "test-key")
	e.baseURL = srv.URL
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("expected order restored by index, got %v", vecs)
	}
}

func TestGeneratorUnavailableWithoutKey(t *testing.T) {
	g := NewOpenAI("gpt-test", "")
	if g.Available() {
		t.Error("expected unavailable without API key")
	}
	if _, err := g.Generate(context.Background(), "p", 10); err == nil {
		t.Error("expected error generating without API key")
	}
}
