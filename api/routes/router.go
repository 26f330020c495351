package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/devicehub-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/devicehub-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/devicehub-backend/api/controllers/orders"
	"github.com/angelmondragon/devicehub-backend/api/middleware"
	"github.com/angelmondragon/devicehub-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/devicehub-backend/internal/checkout"
	"github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

// RequestStore backs idempotent replays and rate limiting.
type RequestStore interface {
	middleware.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the HTTP surface is wired to.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Health   map[string]controllers.Pinger
	Store    RequestStore
	Tokens   middleware.TokenParser
	Metrics  http.Handler
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Reports  orders.ReportService
	Bulk     orders.BulkMutator
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	promoPolicy := middleware.NewRateLimitPolicy(
		"promo",
		cfg.RateLimit.PromoWindow,
		cfg.RateLimit.PromoIPLimit,
		cfg.RateLimit.PromoSessionLimit,
	)
	checkoutOnce := middleware.Idempotency(deps.Store, middleware.CheckoutReplayTTL, logg)
	bulkOnce := middleware.Idempotency(deps.Store, middleware.BulkReplayTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SessionID(logg))
		r.Get("/ping", controllers.PublicPing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Post("/open", cartcontrollers.CartOpen(deps.Cart, logg))
			r.Post("/close", cartcontrollers.CartClose(deps.Cart, logg))
			r.With(middleware.RateLimit(promoPolicy, deps.Store, logg)).
				Post("/promotion", cartcontrollers.CartApplyPromotion(deps.Cart, logg))
			r.Delete("/promotion", cartcontrollers.CartRemovePromotion(deps.Cart, logg))
		})

		r.With(checkoutOnce).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/checkout/status", controllers.CheckoutStatus(deps.Checkout, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.OperatorAuth(deps.Tokens, logg))
		r.Get("/ping", controllers.OperatorPing())

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.OperatorRoleOperator, enums.OperatorRoleViewer))
				r.Get("/", ordercontrollers.List(deps.Reports, logg))
				r.Get("/report", ordercontrollers.Report(deps.Reports, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.OperatorRoleOperator))
				r.With(bulkOnce).Post("/bulk/status", ordercontrollers.BulkStatus(deps.Bulk, logg))
				r.With(bulkOnce).Post("/bulk/delete", ordercontrollers.BulkDelete(deps.Bulk, logg))
			})
		})
	})

	return r
}
