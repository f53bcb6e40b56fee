package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/observability/metrics"
)

type chatFake struct {
	answer *domain.Answer
	err    error
	query  string
}

func (f *chatFake) Answer(_ context.Context, query string, _ []domain.ChatTurn, _ domain.SearchFilter) (*domain.Answer, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type providerAdminFake struct {
	activated string
	err       error
	infos     []domain.ProviderInfo
}

func (f *providerAdminFake) Activate(_ context.Context, providerID string) error {
	if f.err != nil {
		return f.err
	}
	f.activated = providerID
	return nil
}

func (f *providerAdminFake) Current(context.Context) (domain.ProviderInfo, error) {
	if len(f.infos) == 0 {
		return domain.ProviderInfo{}, f.err
	}
	return f.infos[0], nil
}

func (f *providerAdminFake) List(context.Context) ([]domain.ProviderInfo, error) {
	return f.infos, nil
}

type corpusFake struct {
	stats   domain.CorpusStats
	entries []domain.CorpusEntry
}

func (f *corpusFake) Stats() domain.CorpusStats { return f.stats }
func (f *corpusFake) SearchByAct(string, int) []domain.CorpusEntry {
	return f.entries
}

func newTestRouter(chat *chatFake, providers *providerAdminFake, corpus *corpusFake, traffic TrafficConfig) http.Handler {
	return NewRouter(chat, providers, corpus, nil, metrics.NewHTTPServerMetrics("api-test"), traffic).Handler()
}

func TestChatEndpointReturnsAnswer(t *testing.T) {
	chat := &chatFake{answer: &domain.Answer{
		Text:   "Section 379 IPC prescribes up to three years imprisonment.",
		Source: domain.SourceDirect,
		Context: []domain.RetrievalResult{
			{ID: "ipc:section379", Text: "Section 379", Score: 2, Source: domain.SourceDirect},
		},
		FollowUps: []string{"What is the punishment under Section 379 of the IPC?"},
	}}
	handler := newTestRouter(chat, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	body := strings.NewReader(`{"query":"what is section 379","history":[{"user":"hi","assistant":"hello"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var answer domain.Answer
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.Source != domain.SourceDirect || len(answer.Context) != 1 {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if chat.query != "what is section 379" {
		t.Fatalf("query not forwarded, got %q", chat.query)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	handler := newTestRouter(&chatFake{}, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"query":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", res.Code)
	}
}

func TestChatEndpointMapsDomainErrors(t *testing.T) {
	chat := &chatFake{err: domain.WrapError(domain.ErrInvalidInput, "chat answer", context.DeadlineExceeded)}
	handler := newTestRouter(chat, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"query":"q"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid input, got %d", res.Code)
	}
}

func TestProviderActivateEndpoint(t *testing.T) {
	providers := &providerAdminFake{}
	handler := newTestRouter(&chatFake{}, providers, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/mistral-main/activate", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if providers.activated != "mistral-main" {
		t.Fatalf("provider id not forwarded, got %q", providers.activated)
	}
}

func TestProviderActivateUnknownReturns404(t *testing.T) {
	providers := &providerAdminFake{err: domain.WrapError(domain.ErrUnknownProvider, "activate provider", context.DeadlineExceeded)}
	handler := newTestRouter(&chatFake{}, providers, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/nope/activate", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", res.Code)
	}
}

func TestProviderListAndCurrent(t *testing.T) {
	providers := &providerAdminFake{infos: []domain.ProviderInfo{
		{Name: "ollama-main", Model: "llama3.1:8b", EmbeddingModel: "nomic-embed-text", Active: true},
		{Name: "mistral-main", Model: "mistral-small-latest", EmbeddingModel: "mistral-embed"},
	}}
	handler := newTestRouter(&chatFake{}, providers, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", res.Code)
	}
	var listResp struct {
		Providers []domain.ProviderInfo `json:"providers"`
	}
	if err := json.NewDecoder(res.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Providers) != 2 {
		t.Fatalf("expected two providers, got %d", len(listResp.Providers))
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/providers/current", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("current expected 200, got %d", res.Code)
	}
}

func TestCorpusStatsEndpoint(t *testing.T) {
	corpus := &corpusFake{stats: domain.CorpusStats{
		Entries: 3,
		ByAct:   map[string]int{"ipc": 2, "crpc": 1},
	}}
	handler := newTestRouter(&chatFake{}, &providerAdminFake{}, corpus, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/corpus/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var stats domain.CorpusStats
	if err := json.NewDecoder(res.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Entries != 3 || stats.ByAct["ipc"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCorpusSearchRequiresActType(t *testing.T) {
	handler := newTestRouter(&chatFake{}, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/corpus/search", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without act_type, got %d", res.Code)
	}
}

type exchangeLogFake struct {
	exchanges []domain.ChatExchange
	limit     int
}

func (f *exchangeLogFake) Append(_ context.Context, exchange domain.ChatExchange) error {
	f.exchanges = append(f.exchanges, exchange)
	return nil
}

func (f *exchangeLogFake) ListRecent(_ context.Context, limit int) ([]domain.ChatExchange, error) {
	f.limit = limit
	return f.exchanges, nil
}

func TestChatHistoryListsExchanges(t *testing.T) {
	log := &exchangeLogFake{exchanges: []domain.ChatExchange{
		{ID: "ex-1", Query: "what is fir", Answer: "An FIR is...", Source: domain.SourceDirect},
	}}
	handler := NewRouter(&chatFake{}, &providerAdminFake{}, &corpusFake{}, log,
		metrics.NewHTTPServerMetrics("api-test"), TrafficConfig{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/history?limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if log.limit != 5 {
		t.Fatalf("limit = %d, want 5", log.limit)
	}
	var body struct {
		Exchanges []domain.ChatExchange `json:"exchanges"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(body.Exchanges) != 1 || body.Exchanges[0].ID != "ex-1" {
		t.Fatalf("unexpected history: %+v", body.Exchanges)
	}
}

func TestChatHistoryDisabledWithoutLog(t *testing.T) {
	handler := newTestRouter(&chatFake{}, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/history", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when history is disabled, got %d", res.Code)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	handler := newTestRouter(&chatFake{}, &providerAdminFake{}, &corpusFake{}, TrafficConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id not echoed, got %q", res.Header().Get(requestIDHeader))
	}
}
