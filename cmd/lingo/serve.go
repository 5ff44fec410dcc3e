package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/api"
	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/events"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
	"github.com/MikeSquared-Agency/lingo/internal/speech"
	"github.com/MikeSquared-Agency/lingo/internal/store"
	"github.com/MikeSquared-Agency/lingo/internal/telemetry"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()
	logger.Info("lingo starting", "port", cfg.Port, "version", version)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, version, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Database
	if migrateOnStart {
		if err := store.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	// Generation provider
	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		return err
	}

	// NATS (optional)
	var publisher events.Publisher = events.Nop{}
	var eventsConnected func() bool
	if cfg.NatsURL != "" {
		nc, err := events.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		publisher = nc
		eventsConnected = nc.Connected
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, events disabled")
	}

	chatSvc := chat.NewService(db, provider, publisher, chat.Options{
		UserWritePolicy: cfg.UserWritePolicy,
		HistoryBudget:   cfg.HistoryTokenBudget,
		CountTokens:     llm.NewTokenCounter(logger),
	}, logger)

	if cfg.ElevenLabsAPIKey == "" {
		logger.Warn("ELEVENLABS_API_KEY not set, /speak will fail")
	}
	speechClient := speech.NewClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL, cfg.ElevenLabsVoiceID)

	srv := api.NewServer(cfg.Port, cfg.APIToken, api.Deps{
		Chat:            chatSvc,
		Speech:          speechClient,
		Store:           db,
		EventsConnected: eventsConnected,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("lingo ready", "port", cfg.Port, "provider", provider.Name())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("HTTP server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	logger.Info("lingo stopped")
	return nil
}
