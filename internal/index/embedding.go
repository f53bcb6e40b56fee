package index

import (
	"context"

	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
)

// maxMemoEntries bounds one provider's query-embedding memo. A full memo is
// replaced wholesale and repopulated by query traffic.
const maxMemoEntries = 512

// EmbeddingCache memoizes query embeddings per provider. Vectors computed in
// one provider's embedding space are never served for another, and the whole
// cache is cleared on every provider switch.
type EmbeddingCache struct {
	cache *Cache[map[string][]float32]
}

func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{cache: NewCache[map[string][]float32]()}
}

// Clear drops every memoized vector. The provider registry calls this before
// a new provider becomes visible to requests.
func (e *EmbeddingCache) Clear() { e.cache.Clear() }

// Invalidate drops one provider's memo.
func (e *EmbeddingCache) Invalidate(providerID string) { e.cache.Invalidate(providerID) }

// Embedder wraps base with the memo bound to providerID. base may be nil;
// then nil is returned and the caller degrades as usual.
func (e *EmbeddingCache) Embedder(providerID string, base ports.Embedder) ports.Embedder {
	if base == nil {
		return nil
	}
	return &cachingEmbedder{cache: e.cache, providerID: providerID, base: base}
}

type cachingEmbedder struct {
	cache      *Cache[map[string][]float32]
	providerID string
	base       ports.Embedder
}

// EmbedQuery serves a memoized vector when present, otherwise embeds through
// the backend and stores the result. The store is conditional on the cache
// generation observed before the network call, so a vector embedded under an
// outgoing provider is discarded instead of surviving the switch.
func (c *cachingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if memo, ok := c.cache.Get(c.providerID); ok {
		if vector, ok := memo[text]; ok {
			return vector, nil
		}
	}

	snapshot := c.cache.Generation()
	vector, err := c.base.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	memo, _ := c.cache.Get(c.providerID)
	next := make(map[string][]float32, len(memo)+1)
	if len(memo) < maxMemoEntries {
		for k, v := range memo {
			next[k] = v
		}
	}
	next[text] = vector
	c.cache.PutIfGeneration(c.providerID, next, snapshot)
	return vector, nil
}
