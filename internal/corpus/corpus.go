// Package corpus loads the structured legal knowledge table and serves the
// two non-vector retrieval tiers over it: exact section lookup and scored
// keyword matching.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

type rawSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Index is the in-memory knowledge table. Loaded once at startup and
// read-only afterwards, so it is safe for concurrent use without locking.
type Index struct {
	byID    map[string]domain.CorpusEntry
	ordered []domain.CorpusEntry
}

// Load reads a corpus file shaped as act -> section key -> {title, content},
// e.g. {"IPC": {"section379": {"title": "Theft", "content": "..."}}}.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return Parse(data)
}

// Parse builds an Index from raw corpus JSON. Entries are ordered by act
// name, then section key, so keyword-tier tie-breaks are deterministic.
func Parse(data []byte) (*Index, error) {
	var raw map[string]map[string]rawSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode corpus json: %w", err)
	}

	acts := make([]string, 0, len(raw))
	for act := range raw {
		acts = append(acts, act)
	}
	sort.Strings(acts)

	idx := &Index{byID: make(map[string]domain.CorpusEntry)}
	for _, act := range acts {
		keys := make([]string, 0, len(raw[act]))
		for key := range raw[act] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			section := raw[act][key]
			entry := domain.CorpusEntry{
				ID:      key,
				Title:   section.Title,
				Body:    section.Content,
				ActType: act,
			}
			// First act wins for duplicate section keys across acts.
			if _, exists := idx.byID[key]; !exists {
				idx.byID[key] = entry
			}
			idx.ordered = append(idx.ordered, entry)
		}
	}
	return idx, nil
}

// Get returns the entry for an exact identifier.
func (idx *Index) Get(id string) (domain.CorpusEntry, bool) {
	entry, ok := idx.byID[id]
	return entry, ok
}

// Len reports the number of loaded entries.
func (idx *Index) Len() int {
	return len(idx.ordered)
}

// Stats summarizes the corpus for the admin/status surface.
func (idx *Index) Stats() domain.CorpusStats {
	byAct := make(map[string]int)
	for _, entry := range idx.ordered {
		byAct[entry.ActType]++
	}
	return domain.CorpusStats{
		Entries: len(idx.ordered),
		ByAct:   byAct,
	}
}

// SearchByAct lists entries of one act type in corpus order.
func (idx *Index) SearchByAct(actType string, limit int) []domain.CorpusEntry {
	if limit <= 0 {
		limit = 5
	}
	out := make([]domain.CorpusEntry, 0, limit)
	for _, entry := range idx.ordered {
		if !strings.EqualFold(entry.ActType, actType) {
			continue
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out
}
