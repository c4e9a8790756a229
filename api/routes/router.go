package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tractorbid/tractorbid-backend/api/controllers"
	"github.com/tractorbid/tractorbid-backend/api/middleware"
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
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisClient *redis.Client

	UserService         users.Service
	VehicleService      vehicles.Service
	AuctionService      auctions.Service
	BidService          bids.Service
	EMDService          emd.Service
	SettlementService   settlement.Service
	PurchaseService     purchases.Service
	MembershipService   memberships.Service
	WatchlistService    watchlist.Service
	NotificationService notifications.Service
	WebhookService      *razorpaywebhook.Service
	Sweeper             *auctions.Sweeper
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DBPinger,
			"redis":    p.RedisClient,
		}))
	})

	authLimit := middleware.RateLimit("auth", cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, p.RedisClient, logg)

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/register", controllers.AuthRegister(p.UserService, logg))
		r.With(authLimit).Post("/login", controllers.AuthLogin(p.UserService, logg))
		r.With(authLimit).Post("/refresh", controllers.AuthRefresh(p.UserService, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(p.UserService, logg))
			r.Get("/me", controllers.AuthMe(p.UserService, logg))
		})
	})

	// Gateway callbacks authenticate by signature, not bearer token.
	r.Post("/membership/webhook", controllers.PaymentWebhook(p.WebhookService, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.CronSecret(cfg, logg))
		r.Get("/cron/auction-status", controllers.CronAuctionStatus(p.Sweeper, logg))
		r.Post("/cron/auction-status", controllers.CronAuctionStatus(p.Sweeper, logg))
		// Legacy path kept for schedulers configured before the /cron prefix.
		r.Post("/auctions/update-status", controllers.CronAuctionStatus(p.Sweeper, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		bidLimit := middleware.RateLimit("bid", cfg.RateLimit.BidLimit, cfg.RateLimit.BidWindow, p.RedisClient, logg)

		r.Route("/auctions", func(r chi.Router) {
			r.Get("/", controllers.AuctionList(p.AuctionService, logg))
			r.Get("/{auctionId}", controllers.AuctionGet(p.AuctionService, logg))
			r.Get("/{auctionId}/bids", controllers.AuctionBids(p.BidService, logg))
			r.With(bidLimit).Post("/{auctionId}/bids", controllers.AuctionPlaceBid(p.BidService, logg))
			r.Get("/{auctionId}/emd", controllers.AuctionEMDStatus(p.EMDService, logg))
			r.Post("/{auctionId}/emd", controllers.AuctionEMDInitiate(p.EMDService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleSeller.String(), enums.UserRoleAdmin.String())).
				Post("/{auctionId}/approve", controllers.AuctionApprove(p.SettlementService, logg))
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", controllers.VehicleSubmit(p.VehicleService, logg))
			r.Get("/mine", controllers.VehicleMine(p.VehicleService, logg))
			r.Get("/{vehicleId}", controllers.VehicleGet(p.VehicleService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/mine", controllers.PurchaseMine(p.PurchaseService, logg))
			r.Post("/{purchaseId}/balance-payment", controllers.PurchaseBalancePayment(p.PurchaseService, logg))
			r.Post("/{purchaseId}/transaction-fee", controllers.PurchaseTransactionFee(p.PurchaseService, logg))
		})

		r.Route("/membership", func(r chi.Router) {
			r.Post("/order", controllers.MembershipOrder(p.MembershipService, logg))
			r.Post("/registration-fee", controllers.RegistrationFeeOrder(p.MembershipService, logg))
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", controllers.WatchlistList(p.WatchlistService, logg))
			r.Post("/", controllers.WatchlistAdd(p.WatchlistService, logg))
			r.Delete("/", controllers.WatchlistRemove(p.WatchlistService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.NotificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.NotificationService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
			r.Post("/auctions/{auctionId}/confirm-winner", controllers.AdminConfirmWinner(p.SettlementService, logg))
			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/pending", controllers.AdminVehicleListPending(p.VehicleService, logg))
				r.Post("/{vehicleId}/review", controllers.AdminVehicleReview(p.VehicleService, logg))
				r.Post("/{vehicleId}/schedule-auction", controllers.AdminScheduleAuction(p.AuctionService, logg))
			})
		})
	})

	return r
}
