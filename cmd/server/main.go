package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding-bot/internal/config"
	"onboarding-bot/internal/handlers"
	"onboarding-bot/internal/mailer"
	"onboarding-bot/internal/onboarding"
	"onboarding-bot/internal/repository"
	"onboarding-bot/internal/slack"
	"onboarding-bot/internal/smartsheet"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env (ignore error in production, env vars are set directly)
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fatal("invalid configuration", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// ---- Clients ----
	upstreamHTTP := &http.Client{Timeout: cfg.UpstreamTimeout}

	sheets, err := smartsheet.NewClient(cfg.SmartsheetToken,
		smartsheet.WithBaseURL(cfg.SmartsheetAPIURL),
		smartsheet.WithHTTPClient(upstreamHTTP),
		smartsheet.WithMaxRetries(cfg.SmartsheetRetries),
		smartsheet.WithMatchPolicy(cfg.SearchMatchPolicy),
	)
	if err != nil {
		fatal("failed to create smartsheet client", err)
	}

	chat, err := slack.NewClient(cfg.SlackToken,
		slack.WithAPIURL(cfg.SlackAPIURL),
		slack.WithHTTPClient(upstreamHTTP),
		slack.WithTimeout(cfg.UpstreamTimeout),
	)
	if err != nil {
		fatal("failed to create slack client", err)
	}

	// Resolve joiner-sheet column ids that were configured by name only.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = cfg.ResolveJoinerColumns(ctx, sheets)
	cancel()
	if err != nil {
		fatal("failed to resolve joiner sheet columns", err)
	}

	joiners, err := repository.NewJoinerRepo(sheets, cfg.JoinerSheetID, cfg.Columns)
	if err != nil {
		fatal("failed to create joiner repository", err)
	}

	// ---- Workflow + handlers ----
	svc, err := onboarding.NewService(chat, chat, joiners, mailer.New(cfg.ResendAPIKey, cfg.FromEmail), cfg.UpstreamTimeout)
	if err != nil {
		fatal("failed to create onboarding service", err)
	}

	slackHandler, err := handlers.NewSlackHandler(svc, cfg.OnboardingChannelID)
	if err != nil {
		fatal("failed to create slack handler", err)
	}

	// The events handler waits for the whole lookup, fetch and post chain
	// before acknowledging, so the write timeout covers every upstream step.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(slackHandler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      6*cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("onboarding bot starting", "port", cfg.Port, "channel", cfg.OnboardingChannelID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-stop
	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
