package corpus

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

// KeywordWeights are the per-field match weights. Title and category hits
// count more than body hits; these are tuning defaults, not contract.
type KeywordWeights struct {
	Title int
	Body  int
}

func (w KeywordWeights) normalized() KeywordWeights {
	if w.Title <= 0 {
		w.Title = 2
	}
	if w.Body <= 0 {
		w.Body = 1
	}
	return w
}

// KeywordSearch scores every corpus entry by literal token overlap with the
// query and returns the top-K, ties broken by corpus order. Used only when
// the vector tiers are unavailable or empty.
func (idx *Index) KeywordSearch(query string, topK int, weights KeywordWeights) []domain.RetrievalResult {
	if topK <= 0 {
		topK = 5
	}
	weights = weights.normalized()

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		entry domain.RetrievalResult
		score int
	}

	candidates := make([]scored, 0, 16)
	for _, entry := range idx.ordered {
		title := strings.ToLower(entry.Title)
		body := strings.ToLower(entry.Body)
		act := strings.ToLower(entry.ActType)

		score := 0
		for _, token := range tokens {
			if strings.Contains(title, token) {
				score += weights.Title
			}
			if strings.Contains(act, token) {
				score += weights.Title
			}
			if strings.Contains(body, token) {
				score += weights.Body
			}
		}
		if score == 0 {
			continue
		}

		candidates = append(candidates, scored{
			entry: domain.RetrievalResult{
				ID:     entry.ID,
				Text:   entry.Title + "\n" + truncate(entry.Body, 500),
				Score:  float64(score),
				Source: domain.SourceKeyword,
				Metadata: map[string]string{
					"section":  sectionNumber(entry.ID),
					"title":    entry.Title,
					"act_type": entry.ActType,
				},
			},
			score: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]domain.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.entry)
	}
	return out
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
