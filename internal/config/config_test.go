package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.LegalCollection != "legal_docs" || cfg.GeneralCollection != "general_docs" {
		t.Fatalf("collections = %q/%q", cfg.LegalCollection, cfg.GeneralCollection)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
	}
	if cfg.LegalWeight != 0.6 || cfg.GeneralWeight != 0.4 {
		t.Fatalf("weights = %v/%v, want 0.6/0.4", cfg.LegalWeight, cfg.GeneralWeight)
	}
	if cfg.KeywordTitleWeight != 2 || cfg.KeywordBodyWeight != 1 {
		t.Fatalf("keyword weights = %v/%v, want 2/1", cfg.KeywordTitleWeight, cfg.KeywordBodyWeight)
	}
	if cfg.MultiProviderEnabled {
		t.Fatal("MultiProviderEnabled should default to false")
	}
	if cfg.ProviderKind != "ollama" {
		t.Fatalf("ProviderKind = %q, want ollama", cfg.ProviderKind)
	}
	if cfg.NATSSubject != "providers.switched" {
		t.Fatalf("NATSSubject = %q", cfg.NATSSubject)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("LEGAL_WEIGHT", "0.7")
	t.Setenv("MULTI_PROVIDER_ENABLED", "true")
	t.Setenv("PROVIDER_KIND", "mistral")
	t.Setenv("PROVIDER_API_KEY", "sk-test")

	cfg := Load()

	if cfg.APIPort != "9090" {
		t.Fatalf("APIPort = %q, want 9090", cfg.APIPort)
	}
	if cfg.RetrievalTopK != 8 {
		t.Fatalf("RetrievalTopK = %d, want 8", cfg.RetrievalTopK)
	}
	if cfg.LegalWeight != 0.7 {
		t.Fatalf("LegalWeight = %v, want 0.7", cfg.LegalWeight)
	}
	if !cfg.MultiProviderEnabled {
		t.Fatal("MultiProviderEnabled should be true")
	}

	fallback := cfg.EnvProviderConfig()
	if fallback.Kind != "mistral" || fallback.APIKey != "sk-test" {
		t.Fatalf("env provider = %+v", fallback)
	}
	if !fallback.Enabled || fallback.ID != "env" {
		t.Fatalf("env provider identity = %+v", fallback)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "lots")
	t.Setenv("VECTOR_SCORE_THRESHOLD", "high")
	t.Setenv("MULTI_PROVIDER_ENABLED", "maybe")

	cfg := Load()

	if cfg.RetrievalTopK != 5 {
		t.Fatalf("RetrievalTopK = %d, want default 5", cfg.RetrievalTopK)
	}
	if cfg.VectorScoreThreshold != 0.5 {
		t.Fatalf("VectorScoreThreshold = %v, want default 0.5", cfg.VectorScoreThreshold)
	}
	if cfg.MultiProviderEnabled {
		t.Fatal("malformed bool should fall back to default")
	}
}
