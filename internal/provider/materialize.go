package provider

import (
	"fmt"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/legal-ai-assistant/internal/core/ports"
)

// Backends is one materialized provider: live clients bound to a config.
type Backends struct {
	Embedder  ports.Embedder
	Generator ports.Generator
}

// Factory builds live clients for one provider kind.
type Factory func(cfg domain.ProviderConfig) (Backends, error)

// Factories maps provider kinds to their client constructors. Wired at
// bootstrap so the registry stays free of infrastructure imports.
type Factories map[domain.ProviderKind]Factory

func (f Factories) materialize(cfg domain.ProviderConfig) (Backends, error) {
	factory, ok := f[cfg.Kind]
	if !ok {
		return Backends{}, domain.WrapError(domain.ErrProviderInit, "materialize provider",
			fmt.Errorf("no factory for kind %q", cfg.Kind))
	}
	backends, err := factory(cfg)
	if err != nil {
		return Backends{}, domain.WrapError(domain.ErrProviderInit, "materialize provider", err)
	}
	if backends.Embedder == nil || backends.Generator == nil {
		return Backends{}, domain.WrapError(domain.ErrProviderInit, "materialize provider",
			fmt.Errorf("factory for kind %q returned incomplete backends", cfg.Kind))
	}
	return backends, nil
}
