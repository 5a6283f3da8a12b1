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

	"github.com/tripdesk/backend/internal/aggregator"
	"github.com/tripdesk/backend/internal/api"
	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/config"
	"github.com/tripdesk/backend/internal/ingest"
	"github.com/tripdesk/backend/internal/metrics"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/websocket"
	"github.com/tripdesk/backend/pkg/middleware"
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
		Str("log_level", cfg.LogLevel).
		Dur("snapshot_interval", cfg.SnapshotInterval).
		Str("timezone", cfg.Timezone).
		Msg("starting tripdesk backend server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	opts := aggregator.SnapshotOptions{TrendDays: cfg.TrendDays, Location: cfg.Location}
	aggregatorService := aggregator.NewAggregator(store, hub, cfg.SnapshotInterval, opts, log.Logger)
	go aggregatorService.Start(ctx)

	r := newRouter(cfg, store, hub, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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

	// Stop the snapshot loop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newRouter builds the HTTP routes around an existing store and hub
func newRouter(cfg *config.Config, store storage.Store, hub *websocket.Hub, logger zerolog.Logger) http.Handler {
	m := metrics.Get()
	authenticator := auth.New(cfg.Auth(), logger)
	receiver := ingest.NewReceiver(store, logger)
	wsHandler := websocket.NewHandler(hub, cfg, logger)

	handlers := api.Handlers{
		Leads:      api.NewLeadHandler(store, cfg.Location, logger),
		Dashboard:  api.NewDashboardHandler(store, aggregator.SnapshotOptions{TrendDays: cfg.TrendDays, Location: cfg.Location}, logger),
		Attendance: api.NewAttendanceHandler(store, logger),
		Admin:      api.NewAdminHandler(store, hub, logger),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(m.Middleware)

	// Public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", m.Handler())

	// Internal routes (no auth - fed by the CRM sync and the seeder)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/leads", receiver.HandleLeads)
		r.Post("/engagements", receiver.HandleEngagements)
		r.Post("/attendance", receiver.HandleAttendance)
		r.Get("/ingest/stats", receiver.GetStats)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)
		handlers.Mount(r)
	})

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"tripdesk-backend"}`)
}
