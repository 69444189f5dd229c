package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riezafm/levelpos-backend/api/controllers"
	"github.com/riezafm/levelpos-backend/api/middleware"
	"github.com/riezafm/levelpos-backend/internal/catalog"
	"github.com/riezafm/levelpos-backend/internal/resellers"
	"github.com/riezafm/levelpos-backend/internal/settlement"
	"github.com/riezafm/levelpos-backend/pkg/config"
	"github.com/riezafm/levelpos-backend/pkg/db"
	"github.com/riezafm/levelpos-backend/pkg/logger"
	pkgredis "github.com/riezafm/levelpos-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	settlementService *settlement.Service,
	catalogService *catalog.Service,
	resellerService *resellers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if cfg.Metrics.Enabled && registry != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/transactions", func(r chi.Router) {
			policy := middleware.NewRateLimitPolicy("transactions", cfg.RateLimit.Window, cfg.RateLimit.TransactionsLimit)
			r.Use(middleware.RateLimit(policy, redisClient, logg))

			r.Post("/", controllers.TransactionCreate(settlementService, logg))
			r.Post("/settle", controllers.TransactionSettle(settlementService, logg))
			r.Get("/{transactionId}", controllers.TransactionGet(settlementService, logg))
			r.Post("/{transactionId}/complete", controllers.TransactionComplete(settlementService, logg))
			r.Post("/{transactionId}/cancel", controllers.TransactionCancel(settlementService, logg))
			r.Post("/{transactionId}/refund", controllers.TransactionRefund(settlementService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.CategoryCreate(catalogService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(catalogService, logg))
			r.Post("/{productId}/reseller-prices", controllers.ProductSetResellerPrice(catalogService, logg))
			r.Post("/{productId}/restock", controllers.ProductRestock(catalogService, logg))
		})

		r.Route("/resellers", func(r chi.Router) {
			r.Post("/", controllers.ResellerCreate(resellerService, logg))
			r.Post("/{resellerId}/reparent", controllers.ResellerReparent(resellerService, logg))
			r.Post("/{resellerId}/commission-rate", controllers.ResellerSetCommissionRate(resellerService, logg))
			r.Post("/{resellerId}/audit-totals", controllers.ResellerAuditTotals(resellerService, logg))
		})
	})

	return r
}
