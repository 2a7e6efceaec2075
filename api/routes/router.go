package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/caskettrack/api/controllers"
	ordercontrollers "github.com/angelmondragon/caskettrack/api/controllers/orders"
	"github.com/angelmondragon/caskettrack/api/middleware"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	"github.com/angelmondragon/caskettrack/internal/orders"
	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/db"
	"github.com/angelmondragon/caskettrack/pkg/logger"
	"github.com/angelmondragon/caskettrack/pkg/metrics"
	"github.com/angelmondragon/caskettrack/pkg/redis"
)

// Deps carries the collaborators the HTTP surface needs. Redis and Registry
// are optional.
type Deps struct {
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Inventory inventory.Service
	Orders    orders.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
	)
	if deps.Redis != nil {
		redisPinger = deps.Redis
		idemStore = deps.Redis
	}

	threshold := cfg.Inventory.LowStockThreshold

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})
	if deps.Registry != nil {
		r.Handle("/metrics", metrics.Handler(deps.Registry))
	}

	r.Post("/scan", controllers.Scan(deps.Inventory, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/scan", controllers.Scan(deps.Inventory, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(deps.Inventory, threshold, logg))
			r.Post("/", controllers.InventoryCreate(deps.Inventory, threshold, logg))
			r.Post("/add-quantity", controllers.InventoryAddQuantity(deps.Inventory, threshold, logg))
			r.Get("/alerts", controllers.InventoryAlerts(deps.Inventory, threshold, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Place(deps.Orders, logg))
			r.Post("/summary", ordercontrollers.Summary(deps.Orders, logg))
			r.Get("/{orderRef}/slip", ordercontrollers.Slip(deps.Orders, logg))
		})

		r.Get("/purchases", ordercontrollers.Purchases(deps.Orders, cfg.Inventory.RecentPurchaseDays, logg))
	})

	return r
}
