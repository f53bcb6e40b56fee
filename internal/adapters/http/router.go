// Package httpadapter exposes the chat, provider admin, and corpus
// endpoints over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/legal-ai-assistant/internal/observability/metrics"
)

const serviceName = "api"

type TrafficConfig struct {
	RateLimitRPS          float64
	RateLimitBurst        int
	MaxConcurrentRequests int
	BackpressureWait      time.Duration
}

type Router struct {
	chat      ports.ChatService
	providers ports.ProviderAdmin
	corpus    ports.CorpusReader
	exchanges ports.ExchangeLog
	metrics   *metrics.HTTPServerMetrics
	traffic   TrafficConfig
}

// NewRouter builds the API surface. exchanges may be nil; then the chat
// history endpoint reports the feature as disabled.
func NewRouter(
	chat ports.ChatService,
	providers ports.ProviderAdmin,
	corpus ports.CorpusReader,
	exchanges ports.ExchangeLog,
	m *metrics.HTTPServerMetrics,
	traffic TrafficConfig,
) *Router {
	return &Router{
		chat:      chat,
		providers: providers,
		corpus:    corpus,
		exchanges: exchanges,
		metrics:   m,
		traffic:   traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatAnswer)
	mux.HandleFunc("/v1/chat/history", rt.chatHistory)
	mux.HandleFunc("/v1/providers", rt.listProviders)
	mux.HandleFunc("/v1/providers/", rt.providerSubroutes)
	mux.HandleFunc("/v1/corpus/stats", rt.corpusStats)
	mux.HandleFunc("/v1/corpus/search", rt.corpusSearch)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrentRequests, rt.traffic.BackpressureWait)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return rt.metrics.Middleware(serviceName, handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chatAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query   string            `json:"query"`
		History []domain.ChatTurn `json:"history"`
		ActType string            `json:"act_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	answer, err := rt.chat.Answer(r.Context(), req.Query, req.History, domain.SearchFilter{
		ActType: req.ActType,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.metrics.RecordChatAnswer(serviceName, string(answer.Source), len(answer.Context), time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.exchanges == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chat history is not enabled"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	exchanges, err := rt.exchanges.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}

func (rt *Router) listProviders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		infos, err := rt.providers.List(r.Context())
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"providers": infos})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) providerSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/providers/")

	switch {
	case rest == "current" && r.Method == http.MethodGet:
		info, err := rt.providers.Current(r.Context())
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, info)
	case strings.HasSuffix(rest, "/activate") && r.Method == http.MethodPost:
		providerID := strings.TrimSuffix(rest, "/activate")
		if providerID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "provider id is required"})
			return
		}
		if err := rt.providers.Activate(r.Context(), providerID); err != nil {
			rt.metrics.RecordProviderSwitch(serviceName, "error")
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		rt.metrics.RecordProviderSwitch(serviceName, "ok")
		rt.metrics.RecordCacheInvalidation(serviceName, "activation")
		writeJSON(w, http.StatusOK, map[string]string{"status": "activated", "provider_id": providerID})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) corpusStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.corpus.Stats())
}

func (rt *Router) corpusSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	actType := strings.TrimSpace(r.URL.Query().Get("act_type"))
	if actType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "act_type is required"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries := rt.corpus.SearchByAct(actType, limit)
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
