package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/voicebridge/internal/api"
	"github.com/snarg/voicebridge/internal/config"
	"github.com/snarg/voicebridge/internal/dispatch"
	"github.com/snarg/voicebridge/internal/soniox"
	"github.com/snarg/voicebridge/internal/telegram"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("voicebridge starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One connection-pooled HTTP client shared by both API clients.
	httpClient := &http.Client{Timeout: cfg.Soniox.RequestTimeout}

	// Soniox workflow
	sonioxLog := log.With().Str("component", "soniox").Logger()
	stt := soniox.NewClient(cfg.Soniox.BaseURL, cfg.Soniox.Token, cfg.Soniox.Model, cfg.Soniox.LanguageHints, httpClient, sonioxLog)
	poller := soniox.NewPoller(stt, cfg.Soniox.PollMaxAttempts, cfg.Soniox.PollDelay, sonioxLog)
	workflow := soniox.NewWorkflow(stt, poller, cfg.Soniox.CleanupTimeout, sonioxLog)

	// Telegram
	tgLog := log.With().Str("component", "telegram").Logger()
	tg := telegram.NewClient(cfg.TelegramURL, cfg.TelegramToken, httpClient, tgLog)

	// Dispatcher
	dispatcher := dispatch.New(tg, workflow, log.With().Str("component", "dispatch").Logger())

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, tg, dispatcher, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("voicebridge stopped")
}
