package corpus

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

const testCorpusJSON = `{
	"IPC": {
		"section378": {"title": "Theft", "content": "Whoever, intending to take dishonestly any movable property..."},
		"section379": {"title": "Punishment for theft", "content": "Whoever commits theft shall be punished with imprisonment of either description for a term which may extend to three years, or with fine, or with both."},
		"section420": {"title": "Cheating and dishonestly inducing delivery of property", "content": "Whoever cheats and thereby dishonestly induces the person deceived..."}
	},
	"CrPC": {
		"section154": {"title": "Information in cognizable cases", "content": "Every information relating to the commission of a cognizable offence..."}
	}
}`

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Parse([]byte(testCorpusJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return idx
}

func TestParseLoadsAllActs(t *testing.T) {
	idx := newTestIndex(t)
	if idx.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", idx.Len())
	}

	stats := idx.Stats()
	if stats.ByAct["IPC"] != 3 {
		t.Fatalf("expected 3 IPC entries, got %d", stats.ByAct["IPC"])
	}
	if stats.ByAct["CrPC"] != 1 {
		t.Fatalf("expected 1 CrPC entry, got %d", stats.ByAct["CrPC"])
	}
}

func TestDirectLookupResolvesSectionReference(t *testing.T) {
	idx := newTestIndex(t)

	result, ok := idx.DirectLookup("What is the punishment for theft under section 379?")
	if !ok {
		t.Fatalf("expected direct lookup hit")
	}
	if result.Source != domain.SourceDirect {
		t.Fatalf("expected DIRECT source, got %s", result.Source)
	}
	if result.ID != "section379" {
		t.Fatalf("expected section379, got %s", result.ID)
	}
	if result.Score != 1.0 {
		t.Fatalf("expected maximal score 1.0, got %f", result.Score)
	}
	if result.Metadata["section"] != "379" {
		t.Fatalf("section metadata must be the bare number, got %q", result.Metadata["section"])
	}
}

func TestKeywordSearchSectionMetadataIsBareNumber(t *testing.T) {
	idx := newTestIndex(t)

	results := idx.KeywordSearch("theft", 5, KeywordWeights{})
	if len(results) == 0 {
		t.Fatalf("expected keyword hits for theft")
	}
	for _, r := range results {
		if strings.HasPrefix(r.Metadata["section"], "section") {
			t.Fatalf("section metadata carries the corpus key %q", r.Metadata["section"])
		}
	}
}

func TestDirectLookupMissesWithoutReference(t *testing.T) {
	idx := newTestIndex(t)

	if _, ok := idx.DirectLookup("what is theft"); ok {
		t.Fatalf("expected no hit without a section reference")
	}
	if _, ok := idx.DirectLookup("section 999 does not exist"); ok {
		t.Fatalf("expected no hit for unknown section")
	}
}

func TestExtractSectionNumberAllowsMissingSpace(t *testing.T) {
	number, ok := ExtractSectionNumber("tell me about Section420 please")
	if !ok || number != "420" {
		t.Fatalf("expected 420, got %q ok=%v", number, ok)
	}
}

func TestKeywordSearchWeightsTitleOverBody(t *testing.T) {
	idx := newTestIndex(t)

	results := idx.KeywordSearch("theft", 5, KeywordWeights{})
	if len(results) == 0 {
		t.Fatalf("expected keyword hits")
	}
	// "Theft" is the title of section378; section379 only mentions theft in
	// title and body, so 378 and 379 must outrank body-only matches.
	if results[0].ID != "section378" && results[0].ID != "section379" {
		t.Fatalf("expected a title match first, got %s", results[0].ID)
	}
	for _, r := range results {
		if r.Source != domain.SourceKeyword {
			t.Fatalf("expected KEYWORD source, got %s", r.Source)
		}
	}
}

func TestKeywordSearchStableOrderOnTies(t *testing.T) {
	idx := newTestIndex(t)

	// "whoever" appears in every IPC body with equal score; corpus order
	// (sorted section keys) must be preserved.
	results := idx.KeywordSearch("whoever", 5, KeywordWeights{})
	if len(results) < 3 {
		t.Fatalf("expected at least 3 results, got %d", len(results))
	}
	if results[0].ID != "section378" || results[1].ID != "section379" {
		t.Fatalf("expected stable corpus order, got %s, %s", results[0].ID, results[1].ID)
	}
}

func TestKeywordSearchTopKTruncation(t *testing.T) {
	idx := newTestIndex(t)

	results := idx.KeywordSearch("whoever", 2, KeywordWeights{})
	if len(results) != 2 {
		t.Fatalf("expected topK=2, got %d", len(results))
	}
}

func TestSearchByActFiltersAndLimits(t *testing.T) {
	idx := newTestIndex(t)

	entries := idx.SearchByAct("ipc", 2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 IPC entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ActType != "IPC" {
			t.Fatalf("expected IPC entries only, got %s", e.ActType)
		}
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("धोखाधड़ी ", 40)

	got := truncate(long, 500)
	if len(got) > 503 {
		t.Fatalf("truncate exceeded limit: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune: %q", got[len(got)-8:])
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got[len(got)-8:])
	}

	if short := truncate("छोटा", 500); short != "छोटा" {
		t.Fatalf("short string should pass through, got %q", short)
	}
}
