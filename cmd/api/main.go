package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/legal-ai-assistant/internal/adapters/http"
	"github.com/kirillkom/legal-ai-assistant/internal/bootstrap"
	"github.com/kirillkom/legal-ai-assistant/internal/config"
	"github.com/kirillkom/legal-ai-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	log := logging.NewJSONLogger("legal-ai-assistant", cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.Chat, app.Providers, app.Corpus, app.Exchanges, app.Metrics, httpadapter.TrafficConfig{
		RateLimitRPS:          cfg.APIRateLimitRPS,
		RateLimitBurst:        cfg.APIRateLimitBurst,
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		BackpressureWait:      time.Duration(cfg.BackpressureWaitMS) * time.Millisecond,
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("api shutdown error", "error", err)
	}
}
