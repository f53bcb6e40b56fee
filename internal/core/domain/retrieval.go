package domain

import "time"

// RetrievalSource identifies which retrieval tier produced a result.
type RetrievalSource string

const (
	SourceDirect        RetrievalSource = "DIRECT"
	SourceVectorLegal   RetrievalSource = "VECTOR_LEGAL"
	SourceVectorGeneral RetrievalSource = "VECTOR_GENERAL"
	SourceKeyword       RetrievalSource = "KEYWORD"
	SourceHybrid        RetrievalSource = "HYBRID"
	SourceRedirect      RetrievalSource = "DOMAIN_REDIRECT"
	SourceEasterEgg     RetrievalSource = "EASTER_EGG"
	SourceGeneral       RetrievalSource = "GEN"
	SourceError         RetrievalSource = "ERROR"
)

// RetrievalResult is one scored passage produced by a single retrieval tier.
// The score scale depends on the source; the merge step applies per-source
// weights before combining.
type RetrievalResult struct {
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Source   RetrievalSource   `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MergedContext is the ranked output of one retrieval pass. Source is the
// provenance tag: the single contributing tier, or HYBRID when two or more
// tiers contributed.
type MergedContext struct {
	Results []RetrievalResult `json:"results"`
	Source  RetrievalSource   `json:"source"`
}

// SearchFilter narrows retrieval; empty fields mean no constraint.
type SearchFilter struct {
	ActType string
}

// ChatTurn is one completed (user, assistant) exchange of prior history.
type ChatTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Answer is the chat orchestrator's response contract.
type Answer struct {
	Text      string            `json:"text"`
	Source    RetrievalSource   `json:"source"`
	Context   []RetrievalResult `json:"context,omitempty"`
	FollowUps []string          `json:"follow_ups,omitempty"`
}

// ChatExchange is one answered query persisted for later review.
type ChatExchange struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	Answer    string          `json:"answer"`
	Source    RetrievalSource `json:"source"`
	Provider  string          `json:"provider,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Classification is the query classifier verdict for one query.
type Classification struct {
	Trigger         bool
	InDomain        bool
	SuggestedExpert string
}
