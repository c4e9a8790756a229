package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tractorbid/tractorbid-backend/api/routes"
	"github.com/tractorbid/tractorbid-backend/internal/auctions"
	"github.com/tractorbid/tractorbid-backend/internal/bids"
	"github.com/tractorbid/tractorbid-backend/internal/emd"
	"github.com/tractorbid/tractorbid-backend/internal/memberships"
	"github.com/tractorbid/tractorbid-backend/internal/notifications"
	"github.com/tractorbid/tractorbid-backend/internal/purchases"
	"github.com/tractorbid/tractorbid-backend/internal/settlement"
	"github.com/tractorbid/tractorbid-backend/internal/users"
	"github.com/tractorbid/tractorbid-backend/internal/vehicles"
	"github.com/tractorbid/tractorbid-backend/internal/watchlist"
	razorpaywebhook "github.com/tractorbid/tractorbid-backend/internal/webhooks/razorpay"
	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/db"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/migrate"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
	"github.com/tractorbid/tractorbid-backend/pkg/razorpay"
	"github.com/tractorbid/tractorbid-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	vehicleRepo := vehicles.NewRepository(dbClient.DB())
	auctionRepo := auctions.NewRepository(dbClient.DB())
	bidRepo := bids.NewRepository(dbClient.DB())
	emdRepo := emd.NewRepository(dbClient.DB())
	purchaseRepo := purchases.NewRepository(dbClient.DB())
	watchlistRepo := watchlist.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	userService, err := users.NewService(userRepo, redisClient, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}
	vehicleService, err := vehicles.NewService(vehicleRepo)
	if err != nil {
		logg.Error(ctx, "failed to create vehicle service", err)
		os.Exit(1)
	}
	auctionService, err := auctions.NewService(auctionRepo, vehicleRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create auction service", err)
		os.Exit(1)
	}
	bidService, err := bids.NewService(bidRepo, auctionRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create bid service", err)
		os.Exit(1)
	}
	emdService, err := emd.NewService(emdRepo, auctionRepo, gateway, cfg.FeatureFlags.TestMode)
	if err != nil {
		logg.Error(ctx, "failed to create emd service", err)
		os.Exit(1)
	}
	settlementService, err := settlement.NewService(
		auctionRepo, bidRepo, emdRepo, purchaseRepo, vehicleRepo,
		dbClient, outboxSvc, cfg.Fees,
	)
	if err != nil {
		logg.Error(ctx, "failed to create settlement service", err)
		os.Exit(1)
	}
	purchaseService, err := purchases.NewService(purchaseRepo, gateway)
	if err != nil {
		logg.Error(ctx, "failed to create purchase service", err)
		os.Exit(1)
	}
	membershipService, err := memberships.NewService(userRepo, gateway)
	if err != nil {
		logg.Error(ctx, "failed to create membership service", err)
		os.Exit(1)
	}
	watchlistService, err := watchlist.NewService(watchlistRepo)
	if err != nil {
		logg.Error(ctx, "failed to create watchlist service", err)
		os.Exit(1)
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(ctx, "failed to create notification service", err)
		os.Exit(1)
	}
	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		EMDRepo:       emdRepo,
		PurchaseRepo:  purchaseRepo,
		UserRepo:      userRepo,
		Idempotency:   redisClient,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	approvalDeadline := time.Duration(cfg.Approval.DeadlineDays) * 24 * time.Hour
	sweeper, err := auctions.NewSweeper(auctionRepo, bidRepo, dbClient, outboxSvc, logg, approvalDeadline)
	if err != nil {
		logg.Error(ctx, "failed to create auction sweeper", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:              cfg,
			Logger:              logg,
			DBPinger:            dbClient,
			RedisClient:         redisClient,
			UserService:         userService,
			VehicleService:      vehicleService,
			AuctionService:      auctionService,
			BidService:          bidService,
			EMDService:          emdService,
			SettlementService:   settlementService,
			PurchaseService:     purchaseService,
			MembershipService:   membershipService,
			WatchlistService:    watchlistService,
			NotificationService: notificationService,
			WebhookService:      webhookService,
			Sweeper:             sweeper,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}
