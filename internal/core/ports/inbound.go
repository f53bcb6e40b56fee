package ports

import (
	"context"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

// ChatService is the inbound contract the routing layer calls.
type ChatService interface {
	Answer(ctx context.Context, query string, history []domain.ChatTurn, filter domain.SearchFilter) (*domain.Answer, error)
}

// ProviderAdmin exposes the registry to the external admin surface.
type ProviderAdmin interface {
	Activate(ctx context.Context, providerID string) error
	Current(ctx context.Context) (domain.ProviderInfo, error)
	List(ctx context.Context) ([]domain.ProviderInfo, error)
}

// CorpusReader is the inbound read model over the knowledge corpus.
type CorpusReader interface {
	Stats() domain.CorpusStats
	SearchByAct(actType string, limit int) []domain.CorpusEntry
}
