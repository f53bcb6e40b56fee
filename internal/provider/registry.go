// Package provider implements the switchable embedding/LLM provider
// registry: one provider is active at a time, switches serialize, and every
// activation clears cached retrieval state before the new provider becomes
// visible to requests.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
)

// Invalidator clears retrieval state bound to a provider's embedding space.
type Invalidator interface {
	Clear()
}

type active struct {
	cfg      domain.ProviderConfig
	backends Backends
}

// Registry tracks the active provider. Requests read the active pointer
// without locks; Activate serializes behind a mutex and publishes the new
// provider only after the cache invalidation completed.
type Registry struct {
	store       ports.ProviderConfigStore
	broadcaster ports.SwitchBroadcaster
	factories   Factories
	cache       Invalidator
	multi       bool
	log         *slog.Logger

	switchMu sync.Mutex
	current  atomic.Pointer[active]
}

// NewRegistry builds a registry. store and broadcaster may be nil in
// single-provider deployments.
func NewRegistry(
	store ports.ProviderConfigStore,
	broadcaster ports.SwitchBroadcaster,
	factories Factories,
	cache Invalidator,
	multi bool,
	log *slog.Logger,
) *Registry {
	return &Registry{
		store:       store,
		broadcaster: broadcaster,
		factories:   factories,
		cache:       cache,
		multi:       multi,
		log:         log,
	}
}

// Activate switches the process to the named provider. On any failure the
// previously active provider stays in place untouched.
func (r *Registry) Activate(ctx context.Context, providerID string) error {
	r.switchMu.Lock()
	defer r.switchMu.Unlock()

	cfg, err := r.loadConfig(ctx, providerID)
	if err != nil {
		return err
	}
	if err := r.activateLocked(*cfg); err != nil {
		return err
	}

	if r.broadcaster != nil {
		if err := r.broadcaster.PublishProviderSwitched(ctx, cfg.ID); err != nil {
			r.log.Error("provider switch broadcast failed", "provider_id", cfg.ID, "error", err)
		}
	}
	r.log.Info("provider activated", "provider_id", cfg.ID, "kind", cfg.Kind, "model", cfg.Model)
	return nil
}

// ActivateConfig activates an explicit config without consulting the store.
// Used for the one-time env bootstrap at startup.
func (r *Registry) ActivateConfig(cfg domain.ProviderConfig) error {
	r.switchMu.Lock()
	defer r.switchMu.Unlock()
	return r.activateLocked(cfg)
}

// activateLocked materializes, invalidates, then publishes, in that order.
// Publishing last guarantees no request can pair the new provider with
// retrieval state from the old embedding space.
func (r *Registry) activateLocked(cfg domain.ProviderConfig) error {
	backends, err := r.factories.materialize(cfg)
	if err != nil {
		return err
	}

	if r.cache != nil {
		r.cache.Clear()
	}
	r.current.Store(&active{cfg: cfg, backends: backends})
	return nil
}

// InvalidateFromPeer clears local cached state after a peer replica
// activated a provider. The local active provider is left alone; the next
// request rebuilds its cache entries.
func (r *Registry) InvalidateFromPeer(providerID string) {
	if r.cache != nil {
		r.cache.Clear()
	}
	r.log.Info("cache cleared after peer provider switch", "provider_id", providerID)
}

func (r *Registry) loadConfig(ctx context.Context, providerID string) (*domain.ProviderConfig, error) {
	if r.store == nil || !r.multi {
		cur := r.current.Load()
		if cur != nil && (providerID == cur.cfg.ID || providerID == domain.SingleProviderMode) {
			return &cur.cfg, nil
		}
		return nil, domain.WrapError(domain.ErrUnknownProvider, "activate provider",
			fmt.Errorf("provider %q not available in single-provider mode", providerID))
	}

	cfg, err := r.store.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			return nil, domain.WrapError(domain.ErrUnknownProvider, "activate provider", err)
		}
		return nil, fmt.Errorf("load provider config: %w", err)
	}
	if !cfg.Enabled {
		return nil, domain.WrapError(domain.ErrUnknownProvider, "activate provider",
			fmt.Errorf("provider %q is disabled", providerID))
	}
	return cfg, nil
}

// Current reports the active provider. In single-provider mode the sentinel
// name is returned instead of the bootstrap provider's identity.
func (r *Registry) Current(context.Context) (domain.ProviderInfo, error) {
	cur := r.current.Load()
	if cur == nil {
		return domain.ProviderInfo{}, domain.WrapError(domain.ErrUnknownProvider, "current provider",
			fmt.Errorf("no provider active"))
	}
	if !r.multi {
		return domain.ProviderInfo{
			Name:           domain.SingleProviderMode,
			Model:          cur.cfg.Model,
			EmbeddingModel: cur.cfg.EmbeddingModel,
			Active:         true,
		}, nil
	}
	return providerInfo(cur.cfg, true), nil
}

// List returns every enabled provider with the active one marked.
func (r *Registry) List(ctx context.Context) ([]domain.ProviderInfo, error) {
	cur := r.current.Load()

	if r.store == nil || !r.multi {
		if cur == nil {
			return nil, nil
		}
		info, _ := r.Current(ctx)
		return []domain.ProviderInfo{info}, nil
	}

	configs, err := r.store.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider configs: %w", err)
	}
	infos := make([]domain.ProviderInfo, 0, len(configs))
	for _, cfg := range configs {
		isActive := cur != nil && cur.cfg.ID == cfg.ID
		infos = append(infos, providerInfo(cfg, isActive))
	}
	return infos, nil
}

// Resolve yields the active provider's backends for one request.
func (r *Registry) Resolve(context.Context) (ports.Embedder, ports.Generator, string, error) {
	cur := r.current.Load()
	if cur == nil {
		return nil, nil, "", domain.WrapError(domain.ErrUnknownProvider, "resolve provider",
			fmt.Errorf("no provider active"))
	}
	return cur.backends.Embedder, cur.backends.Generator, cur.cfg.Name, nil
}

// ActiveID returns the active provider's ID, or empty when none is active.
func (r *Registry) ActiveID() string {
	cur := r.current.Load()
	if cur == nil {
		return ""
	}
	return cur.cfg.ID
}

func providerInfo(cfg domain.ProviderConfig, isActive bool) domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:           cfg.Name,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		Active:         isActive,
	}
}
