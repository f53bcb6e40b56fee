package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
)

const (
	historyWindow = 3
	maxFollowUps  = 3

	easterEggText = "Khul ja sim sim! The vault is open. Ask me anything about " +
		"Indian law - sections, procedures, rights - and I will dig out the answer."
	errorText = "I could not find an answer right now. The knowledge base and " +
		"language model are both unreachable. Please try again in a moment."
)

// ProviderResolver yields the active provider's materialized backends.
// Resolution failure means chat degrades to local retrieval only.
type ProviderResolver interface {
	Resolve(ctx context.Context) (ports.Embedder, ports.Generator, string, error)
}

// ChatUseCase answers user queries over the legal corpus: classify, retrieve,
// generate. Each stage degrades independently; the caller gets a tagged
// answer even when every backend is down.
type ChatUseCase struct {
	classifier *Classifier
	engine     *RetrievalEngine
	providers  ProviderResolver
	log        *slog.Logger
}

func NewChatUseCase(classifier *Classifier, engine *RetrievalEngine, providers ProviderResolver, log *slog.Logger) *ChatUseCase {
	return &ChatUseCase{
		classifier: classifier,
		engine:     engine,
		providers:  providers,
		log:        log,
	}
}

func (uc *ChatUseCase) Answer(
	ctx context.Context,
	query string,
	history []domain.ChatTurn,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat answer", fmt.Errorf("query is required"))
	}

	verdict := uc.classifier.Classify(query)
	if verdict.Trigger {
		return &domain.Answer{
			Text:   easterEggText,
			Source: domain.SourceEasterEgg,
		}, nil
	}
	if !verdict.InDomain {
		return &domain.Answer{
			Text: fmt.Sprintf("I specialise in Indian legal questions, so I am not the right "+
				"assistant for this one. You would be better served by a %s.", verdict.SuggestedExpert),
			Source: domain.SourceRedirect,
		}, nil
	}

	embedder, generator, providerName, err := uc.providers.Resolve(ctx)
	if err != nil {
		uc.log.Warn("no active provider, degrading to local retrieval", "error", err)
		embedder, generator = nil, nil
	}

	merged, err := uc.engine.Retrieve(ctx, query, embedder, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(merged.Results) == 0 && generator == nil {
		return &domain.Answer{Text: errorText, Source: domain.SourceError}, nil
	}

	text, source := uc.generate(ctx, query, history, merged, generator, providerName)
	return &domain.Answer{
		Text:      text,
		Source:    source,
		Context:   merged.Results,
		FollowUps: suggestFollowUps(merged.Results),
	}, nil
}

// generate produces the final text. With context but no working generator it
// falls back to quoting the best passage; with neither it reports failure.
func (uc *ChatUseCase) generate(
	ctx context.Context,
	query string,
	history []domain.ChatTurn,
	merged *domain.MergedContext,
	generator ports.Generator,
	providerName string,
) (string, domain.RetrievalSource) {
	source := merged.Source
	if len(merged.Results) == 0 {
		source = domain.SourceGeneral
	}

	if generator != nil {
		text, err := generator.Generate(ctx, buildChatPrompt(query, history, merged.Results))
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), source
		}
		uc.log.Error("generation failed", "provider", providerName, "error", err)
	}

	if len(merged.Results) > 0 {
		return extractiveAnswer(merged.Results[0]), source
	}
	return errorText, domain.SourceError
}

func extractiveAnswer(top domain.RetrievalResult) string {
	return fmt.Sprintf("Here is the most relevant provision I found:\n\n%s", top.Text)
}

func buildChatPrompt(query string, history []domain.ChatTurn, results []domain.RetrievalResult) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	historyLines := make([]string, 0, len(history)*2)
	for _, turn := range history {
		if strings.TrimSpace(turn.User) != "" {
			historyLines = append(historyLines, "User: "+strings.TrimSpace(turn.User))
		}
		if strings.TrimSpace(turn.Assistant) != "" {
			historyLines = append(historyLines, "Assistant: "+strings.TrimSpace(turn.Assistant))
		}
	}
	if len(historyLines) == 0 {
		historyLines = append(historyLines, "(none)")
	}

	contextLines := make([]string, 0, len(results))
	for i, result := range results {
		contextLines = append(contextLines, fmt.Sprintf("[%d] %s", i+1, strings.TrimSpace(result.Text)))
	}
	if len(contextLines) == 0 {
		contextLines = append(contextLines, "(no retrieved provisions; answer from general legal knowledge and say so)")
	}

	return fmt.Sprintf(`You are a legal assistant for Indian law. Answer using the provisions
below. Cite section numbers when they appear in the provisions. If the
provisions do not cover the question, say what is missing. Do not invent
sections.

Recent conversation:
%s

Relevant provisions:
%s

Question: %s
`, strings.Join(historyLines, "\n"), strings.Join(contextLines, "\n"), query)
}

// suggestFollowUps derives next questions from the retrieved provisions.
func suggestFollowUps(results []domain.RetrievalResult) []string {
	seen := make(map[string]struct{}, maxFollowUps)
	out := make([]string, 0, maxFollowUps)
	add := func(q string) {
		if len(out) >= maxFollowUps {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for _, result := range results {
		section := result.Metadata["section"]
		act := result.Metadata["act_type"]
		switch {
		case section != "" && act != "":
			add(fmt.Sprintf("What is the punishment under Section %s of the %s?", section, strings.ToUpper(act)))
		case section != "":
			add(fmt.Sprintf("What is the procedure under Section %s?", section))
		}
		if act != "" {
			add(fmt.Sprintf("Which other sections of the %s apply to situations like this?", strings.ToUpper(act)))
		}
	}
	add("What documents or evidence would I need for this?")
	return out
}
