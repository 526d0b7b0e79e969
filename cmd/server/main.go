package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmeier/occuboard/backend/internal/api"
	"github.com/tmeier/occuboard/backend/internal/auth"
	"github.com/tmeier/occuboard/backend/internal/cache"
	"github.com/tmeier/occuboard/backend/internal/config"
	"github.com/tmeier/occuboard/backend/internal/feed"
	"github.com/tmeier/occuboard/backend/internal/metrics"
	"github.com/tmeier/occuboard/backend/internal/report"
	"github.com/tmeier/occuboard/backend/internal/storage"
	"github.com/tmeier/occuboard/backend/internal/ticker"
	"github.com/tmeier/occuboard/backend/internal/timeutil"
	"github.com/tmeier/occuboard/backend/internal/websocket"
	"github.com/tmeier/occuboard/backend/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("timezone", cfg.ReportTimezone).
		Dur("slot_alignment", cfg.SlotAlignment).
		Str("log_level", cfg.LogLevel).
		Msg("starting occuboard backend server")

	// Report timezone for parsing/formatting window bounds
	zone, err := timeutil.NewZone(cfg.ReportTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load report timezone")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keepalive ticker for subscribed dashboards
	tickerService := ticker.NewTicker(hub, 30*time.Second, log.Logger)
	go tickerService.Start(ctx)

	// Metrics registry
	m := metrics.New()

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, m, log.Logger)

	// Create run-history store (DynamoDB or noop, depending on DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Upstream feed client
	feedClient := feed.NewClient(cfg.FeedBaseURL, cfg.FeedToken, cfg.FeedTimeout, log.Logger)

	// Report engine
	assembler := report.NewAssembler(log.Logger)
	reportCache := cache.NewReportCache(cfg.CacheTTL)

	// Handlers
	reportHandler := api.NewReportHandler(feedClient, assembler, reportCache, store, hub, m, zone, cfg.SlotAlignment, log.Logger)
	historyHandler := api.NewReportHistoryHandler(store, log.Logger)
	adminHandler := api.NewAdminHandler(store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", m.Handler())

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/api/report", reportHandler.GetReport)
		r.Get("/api/reports", historyHandler.GetRuns)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Admin-only maintenance routes
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(api.RequireAdmin)
			r.Delete("/history", adminHandler.WipeHistory)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Cancel ticker context
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"occuboard-backend"}`)
}
