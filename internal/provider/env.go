package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

// BootstrapConfig selects the provider activated at process start.
type BootstrapConfig struct {
	// DefaultProviderID names the stored config to activate when
	// multi-provider mode is on. Empty means env fallback only.
	DefaultProviderID string
	// EnvFallback is built from environment variables and used when no
	// stored provider can be activated.
	EnvFallback domain.ProviderConfig
}

// Bootstrap performs the one-time startup activation: the stored default
// provider first, the env fallback second. It is attempted exactly once;
// a dead backend at startup is surfaced, not retried.
func (r *Registry) Bootstrap(ctx context.Context, cfg BootstrapConfig, log *slog.Logger) error {
	if r.multi && r.store != nil && cfg.DefaultProviderID != "" {
		err := r.Activate(ctx, cfg.DefaultProviderID)
		if err == nil {
			return nil
		}
		log.Warn("default provider activation failed, trying env fallback",
			"provider_id", cfg.DefaultProviderID, "error", err)
	}

	if err := r.ActivateConfig(cfg.EnvFallback); err != nil {
		return fmt.Errorf("bootstrap provider: %w", err)
	}
	log.Info("env fallback provider activated",
		"kind", cfg.EnvFallback.Kind, "model", cfg.EnvFallback.Model)
	return nil
}
