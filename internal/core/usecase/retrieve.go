package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/legal-ai-assistant/internal/corpus"
)

// directWeight keeps a direct section hit ahead of any possible vector
// sum: 2.0 * 1.0 exceeds legal+general at full similarity.
const directWeight = 2.0

// LocalIndex is the in-process corpus index used for direct lookup and
// keyword fallback.
type LocalIndex interface {
	DirectLookup(query string) (domain.RetrievalResult, bool)
	KeywordSearch(query string, topK int, weights corpus.KeywordWeights) []domain.RetrievalResult
}

// RetrievalConfig tunes the hybrid pipeline.
type RetrievalConfig struct {
	LegalCollection   string
	GeneralCollection string
	TopK              int
	ScoreThreshold    float64
	LegalWeight       float64
	GeneralWeight     float64
	KeywordWeights    corpus.KeywordWeights
}

func (c RetrievalConfig) normalized() RetrievalConfig {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = 0.5
	}
	if c.LegalWeight <= 0 {
		c.LegalWeight = 0.6
	}
	if c.GeneralWeight <= 0 {
		c.GeneralWeight = 0.4
	}
	return c
}

// RetrievalEngine runs the tiered pipeline: direct lookup, dual-collection
// vector search, weighted merge, keyword fallback. Tiers degrade
// independently; the engine returns an error only when every tier failed
// outright.
type RetrievalEngine struct {
	local         LocalIndex
	vectors       ports.VectorSearcher
	cfg           RetrievalConfig
	log           *slog.Logger
	onTierFailure func(tier string)
}

func NewRetrievalEngine(local LocalIndex, vectors ports.VectorSearcher, cfg RetrievalConfig, log *slog.Logger) *RetrievalEngine {
	return &RetrievalEngine{
		local:   local,
		vectors: vectors,
		cfg:     cfg.normalized(),
		log:     log,
	}
}

// OnTierFailure registers a hook called with the tier name each time a
// retrieval tier degrades. Set once at wiring time.
func (e *RetrievalEngine) OnTierFailure(hook func(tier string)) {
	e.onTierFailure = hook
}

func (e *RetrievalEngine) tierFailed(tier string) {
	if e.onTierFailure != nil {
		e.onTierFailure(tier)
	}
}

func (e *RetrievalEngine) Retrieve(
	ctx context.Context,
	query string,
	embedder ports.Embedder,
	filter domain.SearchFilter,
) (*domain.MergedContext, error) {
	lists := make([][]domain.RetrievalResult, 0, 3)

	if direct, ok := e.local.DirectLookup(query); ok {
		lists = append(lists, []domain.RetrievalResult{direct})
	}

	legal, general := e.searchCollections(ctx, query, embedder)
	if len(legal) > 0 {
		lists = append(lists, legal)
	}
	if len(general) > 0 {
		lists = append(lists, general)
	}

	merged := mergeWeighted(lists, map[domain.RetrievalSource]float64{
		domain.SourceDirect:        directWeight,
		domain.SourceVectorLegal:   e.cfg.LegalWeight,
		domain.SourceVectorGeneral: e.cfg.GeneralWeight,
	})
	merged.Results = applyFilter(merged.Results, filter)

	if len(merged.Results) == 0 {
		keyword := e.local.KeywordSearch(query, e.cfg.TopK, e.cfg.KeywordWeights)
		keyword = applyFilter(keyword, filter)
		if len(keyword) > 0 {
			return &domain.MergedContext{Results: keyword, Source: domain.SourceKeyword}, nil
		}
		return &domain.MergedContext{Source: domain.SourceError}, nil
	}

	if len(merged.Results) > e.cfg.TopK {
		merged.Results = merged.Results[:e.cfg.TopK]
	}
	return merged, nil
}

// searchCollections embeds once and queries both collections. Any failure
// along the way degrades that tier to zero results.
func (e *RetrievalEngine) searchCollections(ctx context.Context, query string, embedder ports.Embedder) (legal, general []domain.RetrievalResult) {
	if embedder == nil {
		return nil, nil
	}
	queryVector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		e.log.Warn("embedding failed, skipping vector tiers", "error", err)
		e.tierFailed("embedding")
		return nil, nil
	}

	legal = e.searchOne(ctx, e.cfg.LegalCollection, queryVector, domain.SourceVectorLegal)
	general = e.searchOne(ctx, e.cfg.GeneralCollection, queryVector, domain.SourceVectorGeneral)
	return legal, general
}

func (e *RetrievalEngine) searchOne(ctx context.Context, collection string, queryVector []float32, source domain.RetrievalSource) []domain.RetrievalResult {
	results, err := e.vectors.Search(ctx, collection, queryVector, e.cfg.TopK, e.cfg.ScoreThreshold)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			e.log.Warn("vector store unavailable", "collection", collection)
		} else {
			e.log.Error("vector search failed", "collection", collection, "error", err)
		}
		e.tierFailed(collection)
		return nil
	}
	for i := range results {
		results[i].Source = source
	}
	return results
}

func applyFilter(results []domain.RetrievalResult, filter domain.SearchFilter) []domain.RetrievalResult {
	if filter.ActType == "" {
		return results
	}
	out := make([]domain.RetrievalResult, 0, len(results))
	for _, r := range results {
		if r.Metadata["act_type"] == "" || strings.EqualFold(r.Metadata["act_type"], filter.ActType) {
			out = append(out, r)
		}
	}
	return out
}
