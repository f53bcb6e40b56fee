package domain

// ProviderKind enumerates the supported LLM/embedding backend families.
type ProviderKind string

const (
	KindOllama     ProviderKind = "ollama"
	KindOpenAI     ProviderKind = "openai"
	KindOpenRouter ProviderKind = "openrouter"
	KindMistral    ProviderKind = "mistral"
	KindGemini     ProviderKind = "gemini"
)

// SingleProviderMode is the sentinel returned by Current when multi-provider
// support is disabled and the process runs on its bootstrap provider.
const SingleProviderMode = "default"

// ProviderConfig pairs a chat model with an embedding model under one
// switchable identity. Read by the registry at switch time; persisted and
// edited by external config management.
type ProviderConfig struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Kind           ProviderKind      `json:"kind"`
	Enabled        bool              `json:"enabled"`
	APIKey         string            `json:"api_key,omitempty"`
	BaseURL        string            `json:"base_url,omitempty"`
	Model          string            `json:"model"`
	EmbeddingModel string            `json:"embedding_model"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Dimensions     int               `json:"dimensions,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// ProviderInfo is the read-model returned by the registry's List operation.
type ProviderInfo struct {
	Name           string `json:"name"`
	Model          string `json:"model"`
	EmbeddingModel string `json:"embedding_model"`
	Active         bool   `json:"active"`
}
