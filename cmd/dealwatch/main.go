package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/copperline/dealwatch/internal/api"
	"github.com/copperline/dealwatch/internal/cache"
	"github.com/copperline/dealwatch/internal/config"
	"github.com/copperline/dealwatch/internal/events"
	"github.com/copperline/dealwatch/internal/kommo"
	"github.com/copperline/dealwatch/internal/llm"
	"github.com/copperline/dealwatch/internal/processor"
	"github.com/copperline/dealwatch/internal/risk"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("dealwatch starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KommoBaseURL == "" || cfg.KommoAccessToken == "" {
		slog.Error("KOMMO_BASE_URL and KOMMO_ACCESS_TOKEN are required")
		os.Exit(1)
	}
	crm := kommo.NewClient(cfg.KommoBaseURL, cfg.KommoAccessToken, cfg.KommoPageLimit, slog.Default())
	slog.Info("kommo client ready", "base_url", cfg.KommoBaseURL)

	completions := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel,
		time.Duration(cfg.TimeoutSecs)*time.Second, cfg.MaxRetries)
	slog.Info("completion client ready", "model", cfg.LLMModel)

	assessor := risk.NewAssessor(completions, cache.NewMemory(), slog.Default())

	// Events are optional — without NATS the service just serves the API.
	var publisher processor.Publisher
	if cfg.NatsURL != "" {
		ev, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer ev.Close()
		publisher = ev
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without event emission")
	}

	runner := processor.NewRunner(crm, assessor, publisher, cfg.LeadLimit, cfg.SLADays, slog.Default())

	// Warm the dashboard before serving; a failed first run is not fatal.
	if _, err := runner.Run(ctx); err != nil {
		slog.Warn("initial assessment run failed", "error", err)
	}

	srv := api.NewServer(cfg.Port, api.Deps{
		Runs:    runner,
		Tasks:   crm,
		Drafter: completions,
		Model:   cfg.LLMModel,
	})
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("dealwatch ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("dealwatch stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
