package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	"github.com/tractorbid/tractorbid-backend/internal/bids"
	"github.com/tractorbid/tractorbid-backend/internal/cron"
	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/db"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/metrics"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
	"github.com/tractorbid/tractorbid-backend/pkg/redis"
)

const lockKeyFormat = "tb:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	auctionRepo := auctions.NewRepository(dbClient.DB())
	bidRepo := bids.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)

	approvalDeadline := time.Duration(cfg.Approval.DeadlineDays) * 24 * time.Hour
	sweeper, err := auctions.NewSweeper(auctionRepo, bidRepo, dbClient, outboxSvc, logg, approvalDeadline)
	if err != nil {
		logg.Error(context.Background(), "failed to create auction sweeper", err)
		os.Exit(1)
	}

	statusJob, err := cron.NewAuctionStatusJob(sweeper, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auction status job", err)
		os.Exit(1)
	}
	reminderJob, err := cron.NewApprovalReminderJob(cron.ApprovalReminderJobParams{
		Logger:       logg,
		DB:           dbClient,
		AuctionRepo:  auctionRepo,
		Outbox:       outboxSvc,
		UrgentWindow: cfg.Approval.UrgentWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create approval reminder job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(outboxRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(statusJob, reminderJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
