package corpus

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

var sectionRefPattern = regexp.MustCompile(`\bsection\s*(\d+)\b`)

// ExtractSectionNumber pulls a structured section reference out of free
// text, e.g. "punishment under Section 379" -> "379".
func ExtractSectionNumber(query string) (string, bool) {
	match := sectionRefPattern.FindStringSubmatch(strings.ToLower(query))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// sectionNumber extracts the bare number from a corpus key such as
// "section379". Keys without a numeric section part yield "".
func sectionNumber(id string) string {
	rest, ok := strings.CutPrefix(strings.ToLower(id), "section")
	if !ok || rest == "" {
		return ""
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return rest
}

// DirectLookup resolves an exact section reference embedded in the query.
// Exact references are unambiguous, so this tier runs before vector search
// and its result carries maximal weight in the merge.
func (idx *Index) DirectLookup(query string) (domain.RetrievalResult, bool) {
	number, ok := ExtractSectionNumber(query)
	if !ok {
		return domain.RetrievalResult{}, false
	}

	key := "section" + number
	entry, ok := idx.byID[key]
	if !ok {
		return domain.RetrievalResult{}, false
	}

	return domain.RetrievalResult{
		ID:     entry.ID,
		Text:   fmt.Sprintf("Section %s: %s\n%s", number, entry.Title, entry.Body),
		Score:  1.0,
		Source: domain.SourceDirect,
		Metadata: map[string]string{
			"section":  number,
			"title":    entry.Title,
			"act_type": entry.ActType,
			"origin":   "direct lookup",
		},
	}, true
}
