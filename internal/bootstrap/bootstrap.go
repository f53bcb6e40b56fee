// Package bootstrap wires configuration, infrastructure clients, and use
// cases into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/legal-ai-assistant/internal/config"
	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/legal-ai-assistant/internal/core/usecase"
	"github.com/kirillkom/legal-ai-assistant/internal/corpus"
	"github.com/kirillkom/legal-ai-assistant/internal/index"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/legal-ai-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/legal-ai-assistant/internal/observability/logging"
	"github.com/kirillkom/legal-ai-assistant/internal/observability/metrics"
	"github.com/kirillkom/legal-ai-assistant/internal/provider"
	"github.com/kirillkom/legal-ai-assistant/internal/rules"
)

type App struct {
	Config config.Config

	Chat      ports.ChatService
	Providers ports.ProviderAdmin
	Corpus    ports.CorpusReader
	Exchanges ports.ExchangeLog
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	corpusIdx, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	log.Info("corpus loaded", "path", cfg.CorpusPath, "entries", corpusIdx.Len())

	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}

	guard := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenTimeout) * time.Second,
	})

	var (
		db        *sql.DB
		store     ports.ProviderConfigStore
		exchanges ports.ExchangeLog
	)
	if cfg.MultiProviderEnabled {
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewProviderRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo

		exchangeRepo := postgres.NewExchangeRepository(db)
		if err := exchangeRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure exchange schema: %w", err)
		}
		exchanges = exchangeRepo
	}

	var (
		bus         *nats.Bus
		broadcaster ports.SwitchBroadcaster
	)
	if cfg.MultiProviderEnabled {
		bus, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: guard,
		})
		if err != nil {
			log.Warn("message bus unavailable, provider switches stay local", "error", err)
		} else {
			broadcaster = bus
		}
	}

	embedCache := index.NewEmbeddingCache()

	registry := provider.NewRegistry(store, broadcaster, providerFactories(guard),
		embedCache, cfg.MultiProviderEnabled, logging.WithComponent(log, "provider-registry"))
	if err := registry.Bootstrap(ctx, provider.BootstrapConfig{
		DefaultProviderID: cfg.DefaultProviderID,
		EnvFallback:       cfg.EnvProviderConfig(),
	}, log); err != nil {
		// Retrieval keeps working without a provider; chat degrades until
		// a later activation succeeds.
		log.Error("no provider active after bootstrap", "error", err)
	}

	if bus != nil {
		go func() {
			err := bus.SubscribeProviderSwitched(ctx, func(ctx context.Context, providerID string) error {
				if providerID == registry.ActiveID() {
					return nil
				}
				registry.InvalidateFromPeer(providerID)
				return nil
			})
			if err != nil {
				log.Error("provider switch subscription ended", "error", err)
			}
		}()
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	engine := usecase.NewRetrievalEngine(corpusIdx, qdrant.New(cfg.QdrantURL, guard), usecase.RetrievalConfig{
		LegalCollection:   cfg.LegalCollection,
		GeneralCollection: cfg.GeneralCollection,
		TopK:              cfg.RetrievalTopK,
		ScoreThreshold:    cfg.VectorScoreThreshold,
		LegalWeight:       cfg.LegalWeight,
		GeneralWeight:     cfg.GeneralWeight,
		KeywordWeights: corpus.KeywordWeights{
			Title: cfg.KeywordTitleWeight,
			Body:  cfg.KeywordBodyWeight,
		},
	}, logging.WithComponent(log, "retrieval"))
	engine.OnTierFailure(func(tier string) {
		httpMetrics.RecordTierFailure("api", tier)
	})

	var chat ports.ChatService = usecase.NewChatUseCase(
		usecase.NewClassifier(ruleSet),
		engine,
		&cachingResolver{registry: registry, cache: embedCache},
		logging.WithComponent(log, "chat"),
	)
	if exchanges != nil {
		chat = &recordingChat{inner: chat, exchanges: exchanges, registry: registry, log: log}
	}

	return &App{
		Config: cfg,

		Chat:      chat,
		Providers: registry,
		Corpus:    corpusIdx,
		Exchanges: exchanges,
		Metrics:   httpMetrics,

		closeFn: func() {
			if bus != nil {
				bus.Close()
			}
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// providerFactories maps every supported provider kind to its client
// constructor. All remote kinds share one circuit-breaker executor.
func providerFactories(guard *resilience.Executor) provider.Factories {
	compat := func(cfg domain.ProviderConfig) (provider.Backends, error) {
		client, err := openaicompat.New(cfg, guard)
		if err != nil {
			return provider.Backends{}, err
		}
		return provider.Backends{Embedder: client, Generator: client}, nil
	}

	return provider.Factories{
		domain.KindOllama: func(cfg domain.ProviderConfig) (provider.Backends, error) {
			client := ollama.New(cfg, guard)
			return provider.Backends{
				Embedder:  ollama.NewEmbedder(client),
				Generator: ollama.NewGenerator(client),
			}, nil
		},
		domain.KindOpenAI:     compat,
		domain.KindOpenRouter: compat,
		domain.KindMistral:    compat,
		domain.KindGemini:     compat,
	}
}

// recordingChat persists each answered exchange after responding. The write
// is best-effort off the request path; a failed insert never fails the chat.
type recordingChat struct {
	inner     ports.ChatService
	exchanges ports.ExchangeLog
	registry  *provider.Registry
	log       *slog.Logger
}

func (r *recordingChat) Answer(ctx context.Context, query string, history []domain.ChatTurn, filter domain.SearchFilter) (*domain.Answer, error) {
	answer, err := r.inner.Answer(ctx, query, history, filter)
	if err != nil {
		return nil, err
	}

	exchange := domain.ChatExchange{
		Query:    query,
		Answer:   answer.Text,
		Source:   answer.Source,
		Provider: r.registry.ActiveID(),
	}
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.exchanges.Append(writeCtx, exchange); err != nil {
			r.log.Warn("exchange log write failed", "error", err)
		}
	}()
	return answer, nil
}

// cachingResolver interposes the per-provider embedding memo between the
// registry and the chat use case.
type cachingResolver struct {
	registry *provider.Registry
	cache    *index.EmbeddingCache
}

func (r *cachingResolver) Resolve(ctx context.Context) (ports.Embedder, ports.Generator, string, error) {
	embedder, generator, name, err := r.registry.Resolve(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	return r.cache.Embedder(name, embedder), generator, name, nil
}
