package index

import (
	"context"
	"errors"
	"testing"
)

type embedderStub struct {
	calls  int
	vector []float32
	err    error
}

func (s *embedderStub) EmbedQuery(context.Context, string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

func TestEmbedderMemoizesPerProvider(t *testing.T) {
	cache := NewEmbeddingCache()
	stub := &embedderStub{vector: []float32{0.1, 0.2}}
	embedder := cache.Embedder("ollama-local", stub)

	for i := 0; i < 3; i++ {
		vector, err := embedder.EmbedQuery(context.Background(), "what is section 379")
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		if len(vector) != 2 {
			t.Fatalf("vector = %v", vector)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("backend called %d times, want 1", stub.calls)
	}

	other := &embedderStub{vector: []float32{0.9}}
	if _, err := cache.Embedder("mistral-eu", other).EmbedQuery(context.Background(), "what is section 379"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if other.calls != 1 {
		t.Fatal("a second provider must not see the first provider's vectors")
	}
}

func TestEmbedderClearDropsMemo(t *testing.T) {
	cache := NewEmbeddingCache()
	stub := &embedderStub{vector: []float32{1}}
	embedder := cache.Embedder("ollama-local", stub)

	if _, err := embedder.EmbedQuery(context.Background(), "bail conditions"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	cache.Clear()
	if _, err := embedder.EmbedQuery(context.Background(), "bail conditions"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("backend called %d times after clear, want 2", stub.calls)
	}
}

func TestEmbedderDiscardsVectorEmbeddedAcrossSwitch(t *testing.T) {
	cache := NewEmbeddingCache()
	cleared := false
	stub := &switchingEmbedder{cache: cache, cleared: &cleared}
	embedder := cache.Embedder("ollama-local", stub)

	if _, err := embedder.EmbedQuery(context.Background(), "fir procedure"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, ok := cache.cache.Get("ollama-local"); ok {
		t.Fatal("vector embedded before the switch must not be stored after it")
	}
}

func TestEmbedderErrorNotCached(t *testing.T) {
	cache := NewEmbeddingCache()
	stub := &embedderStub{err: errors.New("backend down")}
	embedder := cache.Embedder("ollama-local", stub)

	if _, err := embedder.EmbedQuery(context.Background(), "theft"); err == nil {
		t.Fatal("expected error")
	}
	stub.err = nil
	stub.vector = []float32{1}
	if _, err := embedder.EmbedQuery(context.Background(), "theft"); err != nil {
		t.Fatalf("embed after recovery: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("backend called %d times, want 2", stub.calls)
	}
}

func TestNilBackendStaysNil(t *testing.T) {
	if NewEmbeddingCache().Embedder("ollama-local", nil) != nil {
		t.Fatal("nil backend must wrap to nil")
	}
}

// switchingEmbedder simulates a provider switch racing an in-flight embed
// call by clearing the cache from inside the backend.
type switchingEmbedder struct {
	cache   *EmbeddingCache
	cleared *bool
}

func (s *switchingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if !*s.cleared {
		*s.cleared = true
		s.cache.Clear()
	}
	return []float32{0.5}, nil
}
