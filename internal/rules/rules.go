// Package rules holds the query-classifier rule set: the domain lexicon,
// structured-reference patterns, citation abbreviations, question phrasings,
// the redirect expert table, and the trigger phrase. Compiled-in defaults
// can be overridden from a YAML file.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is one immutable classifier rule set.
type Set struct {
	TriggerPhrase  string            `yaml:"trigger_phrase"`
	DomainKeywords []string          `yaml:"domain_keywords"`
	Abbreviations  []string          `yaml:"abbreviations"`
	QuestionForms  []string          `yaml:"question_forms"`
	ExpertTable    map[string]string `yaml:"expert_table"`
	DefaultExpert  string            `yaml:"default_expert"`

	// expertOrder preserves lookup priority for the redirect table.
	expertOrder []string

	referencePattern    *regexp.Regexp
	abbreviationPattern *regexp.Regexp
	questionPatterns    []*regexp.Regexp
}

// Load reads a rule set override from path, falling back to defaults for
// any field the file leaves empty. A missing file returns pure defaults.
func Load(path string) (*Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("decode rules yaml: %w", err)
	}
	set.merge(&override)
	if err := set.compile(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) merge(override *Set) {
	if override.TriggerPhrase != "" {
		s.TriggerPhrase = override.TriggerPhrase
	}
	if len(override.DomainKeywords) > 0 {
		s.DomainKeywords = override.DomainKeywords
	}
	if len(override.Abbreviations) > 0 {
		s.Abbreviations = override.Abbreviations
	}
	if len(override.QuestionForms) > 0 {
		s.QuestionForms = override.QuestionForms
	}
	if len(override.ExpertTable) > 0 {
		s.ExpertTable = override.ExpertTable
		s.expertOrder = sortedKeys(override.ExpertTable)
	}
	if override.DefaultExpert != "" {
		s.DefaultExpert = override.DefaultExpert
	}
}

func (s *Set) compile() error {
	s.referencePattern = referencePattern

	pattern := fmt.Sprintf(`\b(%s)\b`, strings.Join(escapeAll(s.Abbreviations), "|"))
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile abbreviation pattern: %w", err)
	}
	s.abbreviationPattern = compiled

	s.questionPatterns = s.questionPatterns[:0]
	for _, form := range s.QuestionForms {
		q, err := regexp.Compile(form)
		if err != nil {
			return fmt.Errorf("compile question pattern %q: %w", form, err)
		}
		s.questionPatterns = append(s.questionPatterns, q)
	}
	return nil
}

// MatchesTrigger reports an exact (case-insensitive, trimmed) substring
// match against the secret phrase.
func (s *Set) MatchesTrigger(query string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(query)), s.TriggerPhrase)
}

// InDomain reports whether any of the four in-domain checks matches.
func (s *Set) InDomain(query string) bool {
	lowered := strings.ToLower(query)

	for _, keyword := range s.DomainKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	if s.referencePattern.MatchString(lowered) {
		return true
	}
	if s.abbreviationPattern.MatchString(lowered) {
		return true
	}
	for _, pattern := range s.questionPatterns {
		if pattern.MatchString(lowered) {
			return true
		}
	}
	return false
}

// SuggestExpert names the alternative expert role for an out-of-domain
// query, by first topic keyword hit, defaulting to a generic role.
func (s *Set) SuggestExpert(query string) string {
	lowered := strings.ToLower(query)
	for _, topic := range s.expertOrder {
		if strings.Contains(lowered, topic) {
			return s.ExpertTable[topic]
		}
	}
	return s.DefaultExpert
}

var referencePattern = regexp.MustCompile(`\b(section|article)\s*\d+\b`)

func escapeAll(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, regexp.QuoteMeta(strings.ToLower(p)))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Longest topic first so "mental health" wins over "health".
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			if len(keys[j]) > len(keys[j-1]) || (len(keys[j]) == len(keys[j-1]) && keys[j] < keys[j-1]) {
				keys[j], keys[j-1] = keys[j-1], keys[j]
			} else {
				break
			}
		}
	}
	return keys
}
