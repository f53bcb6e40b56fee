package usecase

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

type mergedCandidate struct {
	result domain.RetrievalResult
	// perSource keeps the best weighted score seen from each tier; the
	// final score sums these, so repeats within a tier never inflate a
	// passage while agreement across tiers does.
	perSource map[domain.RetrievalSource]float64
}

// mergeWeighted combines per-tier result lists into one ranked context.
// Weighted scores are summed across tiers and maxed within a tier.
func mergeWeighted(lists [][]domain.RetrievalResult, weights map[domain.RetrievalSource]float64) *domain.MergedContext {
	acc := make(map[string]*mergedCandidate)
	order := make([]string, 0)

	for _, list := range lists {
		for _, result := range list {
			key := resultKey(result)
			candidate, ok := acc[key]
			if !ok {
				candidate = &mergedCandidate{
					result:    result,
					perSource: make(map[domain.RetrievalSource]float64, 2),
				}
				acc[key] = candidate
				order = append(order, key)
			}
			weighted := result.Score * weightFor(weights, result.Source)
			if weighted > candidate.perSource[result.Source] {
				candidate.perSource[result.Source] = weighted
			}
			if candidate.result.Text == "" && result.Text != "" {
				candidate.result.Text = result.Text
			}
		}
	}

	tiers := make(map[domain.RetrievalSource]struct{}, 2)
	out := make([]domain.RetrievalResult, 0, len(acc))
	for _, key := range order {
		candidate := acc[key]
		merged := candidate.result
		merged.Score = 0
		for source, score := range candidate.perSource {
			merged.Score += score
			tiers[source] = struct{}{}
		}
		if len(candidate.perSource) > 1 {
			merged.Source = domain.SourceHybrid
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return &domain.MergedContext{
		Results: out,
		Source:  provenance(tiers),
	}
}

func provenance(tiers map[domain.RetrievalSource]struct{}) domain.RetrievalSource {
	if len(tiers) == 0 {
		return domain.SourceError
	}
	if len(tiers) > 1 {
		return domain.SourceHybrid
	}
	for source := range tiers {
		return source
	}
	return domain.SourceHybrid
}

func weightFor(weights map[domain.RetrievalSource]float64, source domain.RetrievalSource) float64 {
	if w, ok := weights[source]; ok {
		return w
	}
	return 1.0
}

// resultKey identifies a passage across tiers: the explicit ID when the
// tier assigned one, otherwise a hash of the text.
func resultKey(result domain.RetrievalResult) string {
	if result.ID != "" {
		return result.ID
	}
	h := fnv.New64a()
	h.Write([]byte(result.Text))
	return fmt.Sprintf("t:%x", h.Sum64())
}
