package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aulatrack/class-tracker/internal/config"
	"github.com/aulatrack/class-tracker/internal/database"
	"github.com/aulatrack/class-tracker/internal/handler"
	"github.com/aulatrack/class-tracker/internal/jobs"
	"github.com/aulatrack/class-tracker/internal/middleware"
	"github.com/aulatrack/class-tracker/internal/redis"
	"github.com/aulatrack/class-tracker/internal/repository"
	"github.com/aulatrack/class-tracker/internal/service"
	"github.com/aulatrack/class-tracker/internal/zoom"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	zoomClient := zoom.NewClient(zoom.Config{
		AccountID:    cfg.ZoomAccountID,
		ClientID:     cfg.ZoomClientID,
		ClientSecret: cfg.ZoomClientSecret,
	})

	classRepo := repository.NewClassRepository(db.DB)

	matcher := service.NewMatcher(classRepo)
	reconciler := service.NewReconciler(db, classRepo, matcher, zoomClient)
	resolver := service.NewRecordingResolver(classRepo, zoomClient)
	classService := service.NewClassService(classRepo, resolver, cfg.RecordingGuard())
	adminService := service.NewAdminService(classRepo, zoomClient)
	healthService := service.NewHealthService(db, redisClient, zoomClient)

	zoomSignatureMiddleware := middleware.NewZoomSignatureMiddleware(cfg.ZoomWebhookSecret)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.APIRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	webhookHandler := handler.NewWebhookHandler(reconciler, cfg.ZoomWebhookSecret)
	classHandler := handler.NewClassHandler(classService)
	adminHandler := handler.NewAdminHandler(adminService, cfg.AdminPasswordHash)
	healthHandler := handler.NewHealthHandler(healthService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", healthHandler.Health)

	r.Route("/webhook", func(r chi.Router) {
		r.Use(zoomSignatureMiddleware.Handler)
		r.Post("/", webhookHandler.Webhook)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", classHandler.Routes())
	})

	r.Route("/admin", func(r chi.Router) {
		r.Mount("/", adminHandler.Routes())
	})

	backfillJob := jobs.NewBackfillJob(
		classRepo, resolver,
		cfg.BackfillInterval(), cfg.RecordingGuard(), cfg.BackfillLimit, cfg.BackfillItemDelay(),
	)
	backfillJob.Start()
	defer backfillJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
