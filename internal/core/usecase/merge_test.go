package usecase

import (
	"testing"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

func TestMergeWeightedSumsAcrossTiers(t *testing.T) {
	legal := []domain.RetrievalResult{
		{ID: "ipc:section378", Text: "theft", Score: 0.9, Source: domain.SourceVectorLegal},
	}
	general := []domain.RetrievalResult{
		{ID: "ipc:section378", Text: "theft", Score: 0.8, Source: domain.SourceVectorGeneral},
	}

	merged := mergeWeighted([][]domain.RetrievalResult{legal, general}, map[domain.RetrievalSource]float64{
		domain.SourceVectorLegal:   0.6,
		domain.SourceVectorGeneral: 0.4,
	})

	if len(merged.Results) != 1 {
		t.Fatalf("expected one merged result, got %d", len(merged.Results))
	}
	want := 0.9*0.6 + 0.8*0.4
	if got := merged.Results[0].Score; got != want {
		t.Fatalf("expected summed score %v, got %v", want, got)
	}
	if merged.Results[0].Source != domain.SourceHybrid {
		t.Fatalf("cross-tier result should be tagged hybrid, got %s", merged.Results[0].Source)
	}
	if merged.Source != domain.SourceHybrid {
		t.Fatalf("context provenance should be hybrid, got %s", merged.Source)
	}
}

func TestMergeWeightedMaxWithinTier(t *testing.T) {
	legal := []domain.RetrievalResult{
		{ID: "a", Score: 0.9, Source: domain.SourceVectorLegal},
		{ID: "a", Score: 0.7, Source: domain.SourceVectorLegal},
	}

	merged := mergeWeighted([][]domain.RetrievalResult{legal}, map[domain.RetrievalSource]float64{
		domain.SourceVectorLegal: 1.0,
	})

	if len(merged.Results) != 1 {
		t.Fatalf("expected deduplication within tier, got %d results", len(merged.Results))
	}
	if got := merged.Results[0].Score; got != 0.9 {
		t.Fatalf("repeat within one tier must not accumulate: got %v", got)
	}
	if merged.Source != domain.SourceVectorLegal {
		t.Fatalf("single-tier provenance expected, got %s", merged.Source)
	}
}

func TestMergeWeightedIdentityFallsBackToText(t *testing.T) {
	a := []domain.RetrievalResult{{Text: "same passage", Score: 0.5, Source: domain.SourceVectorLegal}}
	b := []domain.RetrievalResult{{Text: "same passage", Score: 0.5, Source: domain.SourceVectorGeneral}}

	merged := mergeWeighted([][]domain.RetrievalResult{a, b}, nil)
	if len(merged.Results) != 1 {
		t.Fatalf("identical text without IDs should merge, got %d results", len(merged.Results))
	}
}

func TestMergeWeightedEmptyInput(t *testing.T) {
	merged := mergeWeighted(nil, nil)
	if len(merged.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(merged.Results))
	}
	if merged.Source != domain.SourceError {
		t.Fatalf("empty merge should carry error provenance, got %s", merged.Source)
	}
}

func TestMergeWeightedOrdering(t *testing.T) {
	lists := [][]domain.RetrievalResult{
		{
			{ID: "low", Score: 0.4, Source: domain.SourceVectorLegal},
			{ID: "high", Score: 0.95, Source: domain.SourceVectorLegal},
		},
	}
	merged := mergeWeighted(lists, nil)
	if merged.Results[0].ID != "high" || merged.Results[1].ID != "low" {
		t.Fatalf("expected descending score order, got %s then %s", merged.Results[0].ID, merged.Results[1].ID)
	}
}
