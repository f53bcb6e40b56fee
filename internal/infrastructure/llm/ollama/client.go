// Package ollama implements the embedding and generation backends for
// locally hosted Ollama providers.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	maxTokens   int
	guard       *resilience.Executor
	httpClient  *http.Client
}

// New builds a client from one provider config. guard may be nil; then
// calls run unprotected.
func New(cfg domain.ProviderConfig, guard *resilience.Executor) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    cfg.Model,
		embedModel:  cfg.EmbeddingModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		guard:       guard,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.guarded(ctx, "ollama_embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	options := map[string]any{}
	if g.client.temperature > 0 {
		options["temperature"] = g.client.temperature
	}
	if g.client.maxTokens > 0 {
		options["num_predict"] = g.client.maxTokens
	}

	request := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	}
	if len(options) > 0 {
		request["options"] = options
	}

	var response struct {
		Response string `json:"response"`
	}
	err := g.client.guarded(ctx, "ollama_generate", func(ctx context.Context) error {
		return g.client.postJSON(ctx, "/api/generate", request, &response, "generate")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) guarded(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.guard == nil {
		return fn(ctx)
	}
	return c.guard.Execute(ctx, operation, fn, classifyBackendError)
}
