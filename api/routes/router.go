package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marsos-sa/marketplace-backend/api/controllers"
	"github.com/marsos-sa/marketplace-backend/api/middleware"
	"github.com/marsos-sa/marketplace-backend/internal/cart"
	checkoutsvc "github.com/marsos-sa/marketplace-backend/internal/checkout"
	"github.com/marsos-sa/marketplace-backend/internal/notifications"
	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/config"
	"github.com/marsos-sa/marketplace-backend/pkg/db"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
	pkgredis "github.com/marsos-sa/marketplace-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
	)

	// A nil concrete client stored in an interface would dodge the nil
	// checks inside the middleware, so the conversion happens here.
	var (
		idemStore pkgredis.IdempotencyStore
		redisDep  interface{ Ping(context.Context) error }
		limiter   interface {
			FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
		}
	)
	if redisClient != nil {
		idemStore = redisClient
		redisDep = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisDep))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, limiter, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/quote", controllers.CartQuote(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{itemID}/quantity", controllers.CartUpdateItemQuantity(cartService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/sadad", controllers.CheckoutSadad(checkoutService, logg))
			r.Post("/card", controllers.CheckoutCard(checkoutService, logg))
			r.Post("/card/verify", controllers.CheckoutCardVerify(checkoutService, logg))
			r.Post("/wallet", controllers.CheckoutUnsupported(enums.PaymentMethodWallet, logg))
			r.Post("/bnpl", controllers.CheckoutUnsupported(enums.PaymentMethodBNPL, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/sadad/{billNumber}", controllers.OrderSadadDetail(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderDetail(ordersService, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Post("/orders/{orderID}/decision", controllers.AdminOrderDecision(ordersService, logg))
		})
	})

	return r
}
