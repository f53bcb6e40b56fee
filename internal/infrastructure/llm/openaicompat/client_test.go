package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

func mistralConfig(baseURL string) domain.ProviderConfig {
	return domain.ProviderConfig{
		ID:             "mistral-main",
		Kind:           domain.KindMistral,
		BaseURL:        baseURL,
		APIKey:         "sk-test",
		Model:          "mistral-small-latest",
		EmbeddingModel: "mistral-embed",
		Temperature:    0.3,
		MaxTokens:      1024,
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := mistralConfig("")
	cfg.APIKey = ""
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewDefaultBaseURLPerKind(t *testing.T) {
	cfg := domain.ProviderConfig{Kind: domain.KindOpenRouter, APIKey: "k", Model: "m", EmbeddingModel: "e"}
	client, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.baseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected default base url %q", client.baseURL)
	}
}

func TestGenerateChatCompletion(t *testing.T) {
	var body map[string]interface{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/chat/completions" {
			auth = r.Header.Get("Authorization")
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Theft is defined in Section 378. "}}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(mistralConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	text, err := client.Generate(context.Background(), "what is theft")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Theft is defined in Section 378." {
		t.Fatalf("unexpected text %q", text)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("missing bearer auth, got %q", auth)
	}
	if body["model"] != "mistral-small-latest" || body["max_tokens"].(float64) != 1024 {
		t.Fatalf("unexpected request body: %#v", body)
	}
}

func TestEmbedQueryDecodesDataArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/embeddings" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25]}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(mistralConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	vector, err := client.EmbedQuery(context.Background(), "bail")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 2 || vector[0] != 0.5 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestClassifyErrorRecordsRateLimitAndServerFaults(t *testing.T) {
	if !classifyError(&StatusError{StatusCode: http.StatusTooManyRequests}).RecordFailure {
		t.Fatal("429 must count as a breaker failure")
	}
	if classifyError(&StatusError{StatusCode: http.StatusUnauthorized}).RecordFailure {
		t.Fatal("auth errors must not trip the breaker")
	}
}
