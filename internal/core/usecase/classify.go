package usecase

import (
	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/rules"
)

// Classifier gates every query before retrieval runs.
type Classifier struct {
	rules *rules.Set
}

func NewClassifier(ruleSet *rules.Set) *Classifier {
	return &Classifier{rules: ruleSet}
}

// Classify runs the trigger check first; a trigger hit short-circuits the
// in-domain checks entirely.
func (c *Classifier) Classify(query string) domain.Classification {
	if c.rules.MatchesTrigger(query) {
		return domain.Classification{Trigger: true}
	}
	if c.rules.InDomain(query) {
		return domain.Classification{InDomain: true}
	}
	return domain.Classification{
		SuggestedExpert: c.rules.SuggestExpert(query),
	}
}
