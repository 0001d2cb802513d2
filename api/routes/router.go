package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmoralesp/giftshop-backend/api/controllers"
	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	authsvc "github.com/rmoralesp/giftshop-backend/internal/auth"
	cartsvc "github.com/rmoralesp/giftshop-backend/internal/cart"
	checkoutsvc "github.com/rmoralesp/giftshop-backend/internal/checkout"
	discountsvc "github.com/rmoralesp/giftshop-backend/internal/discounts"
	ordersvc "github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/auth/session"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/metrics"
	pkgredis "github.com/rmoralesp/giftshop-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Sessions        session.SessionChecker
	Redis           *pkgredis.Client
	Ready           controllers.ReadyDeps
	AuthService     authsvc.Service
	CartService     cartsvc.Service
	DiscountService discountsvc.Service
	CheckoutService checkoutsvc.Service
	OrderService    ordersvc.Service
	CheckoutMetrics *metrics.CheckoutMetrics
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	relay := responses.NewSessionRelay(cfg.Cookie)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Ready, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.Login(deps.AuthService, relay, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, cfg.Cookie, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Post("/auth/logout", controllers.Logout(deps.AuthService, relay, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/active/{clientId}", controllers.CartActive(deps.CartService, relay, logg))
				r.Post("/addItem", controllers.CartAddItem(deps.CartService, relay, logg))
				r.Put("/updateQuantity", controllers.CartUpdateQuantity(deps.CartService, relay, logg))
				r.Delete("/removeItem", controllers.CartRemoveItem(deps.CartService, relay, logg))
				r.Route("/{cartId}", func(r chi.Router) {
					r.Put("/pendingDiscount", controllers.ApplyPendingDiscount(deps.DiscountService, relay, logg))
					r.Delete("/pendingDiscount", controllers.RemovePendingDiscount(deps.DiscountService, relay, logg))
					r.Post("/confirmDiscount", controllers.ConfirmDiscount(deps.DiscountService, relay, logg))
					r.Post("/clearAfterPurchase", controllers.CartClearAfterPurchase(deps.CartService, relay, logg))
				})
			})

			r.Post("/sales", controllers.CreateSale(deps.CheckoutService, relay, logg))
			r.Get("/sales", controllers.ListSales(deps.OrderService, logg))
			r.Get("/sales/{saleId}", controllers.GetSale(deps.OrderService, logg))

			r.Post("/admin/carts/cleanup", controllers.CartsCleanup(deps.CartService, deps.CheckoutMetrics, logg))
		})
	})

	return r
}
