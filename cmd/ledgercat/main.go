package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgercat/internal/amqp"
	"ledgercat/internal/bot"
	"ledgercat/internal/config"
	apphttp "ledgercat/internal/http"
	"ledgercat/internal/ledger"
	gsheet "ledgercat/internal/ledger/google"
	mem "ledgercat/internal/ledger/memory"
	"ledgercat/internal/line"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.LineChannelSecret == "" || cfg.LineChannelAccessToken == "" {
		logger.Error("LINE credentials are required for the webhook server")
		os.Exit(1)
	}

	// Choose the row store backend (default: memory).
	var store ledger.RowStore
	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err, "backend", cfg.DataBackend)
			os.Exit(1)
		}
		// Sheet scans are slow and quota-bound; cache them per owner.
		store = ledger.NewCachedStore(cli, 100, 5*time.Minute)
		logger.Info("Initialized Google Sheets backend", "backend", cfg.DataBackend)
	default:
		store = mem.New()
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	}

	// Optional AMQP publisher feeding the mirror worker.
	opts := []bot.Option{}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, bot.WithEvents(amqp.NewPublisher(amqpClient)))
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	b := bot.New(store, opts...)
	replier := line.NewClient(cfg.LineChannelAccessToken)
	srv := apphttp.NewServer(":"+cfg.Port, b, replier, cfg.LineChannelSecret)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting ledgercat server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
