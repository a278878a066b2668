package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"carekorea/internal/bootstrap"
	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/progress"
	"carekorea/internal/scheduler"
)

func main() {
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
		logger.Fatal().Err(err).Msg("worker: startup failed")
	}
	defer svc.Close()

	if n, err := svc.Jobs.FailStale(ctx, cfg.StaleGeneratingAfter); err != nil {
		logger.Error().Err(err).Msg("worker: stale job reset failed")
	} else if n > 0 {
		logger.Warn().Int64("count", n).Msg("worker: failed abandoned running jobs")
	}
	if n, err := svc.Keywords.ResetStale(ctx, cfg.StaleGeneratingAfter); err != nil {
		logger.Error().Err(err).Msg("worker: stale reset failed")
	} else if n > 0 {
		logger.Warn().Int64("count", n).Msg("worker: released stale generating keywords")
	}

	if cfg.ResubmitCron != "" {
		resubmitter, err := scheduler.NewResubmitter(scheduler.Options{
			Keywords:   svc.Keywords,
			Jobs:       svc.Jobs,
			Queue:      svc.Worker,
			Limit:      cfg.ResubmitLimit,
			StaleAfter: cfg.StaleGeneratingAfter,
			RunOptions: domain.DefaultRunOptions(),
			Logger:     infra.Component(logger, "scheduler"),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: scheduler setup failed")
		}
		if err := resubmitter.Start(ctx, cfg.ResubmitCron); err != nil {
			logger.Fatal().Err(err).Msg("worker: scheduler start failed")
		}
		defer resubmitter.Stop()
	}

	reporter := progress.LogReporter{Logger: infra.Component(logger, "progress")}
	if err := svc.Worker.Run(ctx, cfg.WorkerPollInterval, reporter); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
