package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/resilience"
)

// Client talks to one Qdrant instance. The collection is chosen per call,
// so a single client serves both the legal and the general collection.
type Client struct {
	baseURL    string
	guard      *resilience.Executor
	httpClient *http.Client
}

// New builds a client. guard may be nil; then searches run unprotected.
func New(baseURL string, guard *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		guard:      guard,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Search runs a similarity query against one collection. An unreachable
// store, a missing collection, or an open breaker maps to
// domain.ErrStoreUnavailable so the retrieval pipeline degrades instead of
// failing.
func (c *Client) Search(
	ctx context.Context,
	collection string,
	queryVector []float32,
	topK int,
	scoreThreshold float64,
) ([]domain.RetrievalResult, error) {
	if c.guard == nil {
		return c.search(ctx, collection, queryVector, topK, scoreThreshold)
	}

	var out []domain.RetrievalResult
	err := c.guard.Execute(ctx, "qdrant_search", func(ctx context.Context) error {
		results, err := c.search(ctx, collection, queryVector, topK, scoreThreshold)
		out = results
		return err
	}, classifySearchError)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrStoreUnavailable, "qdrant search", err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) search(
	ctx context.Context,
	collection string,
	queryVector []float32,
	topK int,
	scoreThreshold float64,
) ([]domain.RetrievalResult, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		reqBody["score_threshold"] = scoreThreshold
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return nil, domain.WrapError(domain.ErrStoreUnavailable, "qdrant search", err)
		}
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "qdrant search",
			fmt.Errorf("collection %s status: %s", collection, resp.Status))
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.RetrievalResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievalResult{
			ID:    pointID(r.ID, r.Payload),
			Text:  getStringPayload(r.Payload, "text"),
			Score: r.Score,
			Metadata: map[string]string{
				"section":  getStringPayload(r.Payload, "section"),
				"title":    getStringPayload(r.Payload, "title"),
				"act_type": getStringPayload(r.Payload, "act_type"),
			},
		})
	}
	return out, nil
}

// pointID prefers the stable payload entry ID over Qdrant's point ID so the
// same passage merges across collections.
func pointID(raw any, payload map[string]any) string {
	if entryID := getStringPayload(payload, "entry_id"); entryID != "" {
		return entryID
	}
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// classifySearchError trips the breaker only on availability failures.
// Decode errors and client-side status codes say nothing about the store.
func classifySearchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: false}
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || strings.Contains(err.Error(), "connection refused")
}

func getStringPayload(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
