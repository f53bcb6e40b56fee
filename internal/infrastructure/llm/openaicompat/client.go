// Package openaicompat implements embedding and generation backends for
// providers speaking the OpenAI wire format: OpenAI itself, OpenRouter,
// Mistral, and Gemini's compatibility endpoint.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/resilience"
)

// defaultBaseURLs maps provider kinds to their public API roots. A config
// with an explicit BaseURL always wins.
var defaultBaseURLs = map[domain.ProviderKind]string{
	domain.KindOpenAI:     "https://api.openai.com/v1",
	domain.KindOpenRouter: "https://openrouter.ai/api/v1",
	domain.KindMistral:    "https://api.mistral.ai/v1",
	domain.KindGemini:     "https://generativelanguage.googleapis.com/v1beta/openai",
}

type Client struct {
	baseURL     string
	apiKey      string
	genModel    string
	embedModel  string
	temperature float64
	maxTokens   int
	guard       *resilience.Executor
	httpClient  *http.Client
}

func New(cfg domain.ProviderConfig, guard *resilience.Executor) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[cfg.Kind]
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base url for provider kind %q", cfg.Kind)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider kind %q requires an api key", cfg.Kind)
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      cfg.APIKey,
		genModel:    cfg.Model,
		embedModel:  cfg.EmbeddingModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		guard:       guard,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": []string{text},
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := c.guarded(ctx, "openaicompat_embed", func(ctx context.Context) error {
		return c.postJSON(ctx, "/embeddings", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model": c.genModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if c.temperature > 0 {
		request["temperature"] = c.temperature
	}
	if c.maxTokens > 0 {
		request["max_tokens"] = c.maxTokens
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.guarded(ctx, "openaicompat_generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/chat/completions", request, &response, "generate")
	})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion result")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) guarded(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.guard == nil {
		return fn(ctx)
	}
	return c.guard.Execute(ctx, operation, fn, classifyError)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openaicompat %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("openaicompat %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		recordable := statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
		return resilience.ErrorClassification{RecordFailure: recordable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
