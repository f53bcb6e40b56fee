package ports

import (
	"context"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

// Embedder builds a query vector in the active provider's embedding space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the final answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorSearcher queries one named collection of the vector database.
// An unreachable store surfaces as domain.ErrStoreUnavailable; callers treat
// that as zero results, never as fatal.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, queryVector []float32, topK int, scoreThreshold float64) ([]domain.RetrievalResult, error)
}

// ProviderConfigStore persists provider configurations.
type ProviderConfigStore interface {
	ListEnabled(ctx context.Context) ([]domain.ProviderConfig, error)
	GetByID(ctx context.Context, id string) (*domain.ProviderConfig, error)
	Save(ctx context.Context, cfg *domain.ProviderConfig) error
	Delete(ctx context.Context, id string) error
}

// ExchangeLog persists answered chat exchanges.
type ExchangeLog interface {
	Append(ctx context.Context, exchange domain.ChatExchange) error
	ListRecent(ctx context.Context, limit int) ([]domain.ChatExchange, error)
}

// SwitchBroadcaster propagates provider activations to peer replicas so
// every instance drops indices built in the previous embedding space.
type SwitchBroadcaster interface {
	PublishProviderSwitched(ctx context.Context, providerID string) error
	SubscribeProviderSwitched(ctx context.Context, handler func(context.Context, string) error) error
}
