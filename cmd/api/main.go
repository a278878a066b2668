package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"carekorea/internal/bootstrap"
	"carekorea/internal/http/handlers"
	httpapi "carekorea/internal/http/httpapi"
	"carekorea/internal/infra"
	"carekorea/internal/queue"
)

func main() {
	// .env files are optional; real environment variables win.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: startup failed")
	}
	defer svc.Close()

	if cfg.AdminJWTSecret == "" {
		if !cfg.IsDevelopment() {
			logger.Fatal().Msg("api: ADMIN_JWT_SECRET is required outside development")
		}
		logger.Warn().Msg("api: admin auth disabled")
	}

	app := handlers.NewApp(svc.Keywords, svc.Orchestrator, svc.Worker, svc.Pool, queue.StreamLimits{
		MaxIterations: cfg.SSEMaxIterations,
		PollInterval:  cfg.SSEPollInterval,
		MaxDuration:   cfg.SSEMaxDuration,
	}, infra.Component(logger, "http"))

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AdminJWTSecret:  cfg.AdminJWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       svc.StoragePath,
	})
	server := infra.NewHTTPServer(ctx, cfg, router)
	errc := server.Serve()
	logger.Info().Str("addr", server.Addr()).Msg("API listening")

	select {
	case err := <-errc:
		if err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
