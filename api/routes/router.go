package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mensahkwame/bookmarket-backend/api/controllers"
	"github.com/mensahkwame/bookmarket-backend/api/middleware"
	cartsvc "github.com/mensahkwame/bookmarket-backend/internal/cart"
	checkoutsvc "github.com/mensahkwame/bookmarket-backend/internal/checkout"
	ordersvc "github.com/mensahkwame/bookmarket-backend/internal/orders"
	paymentsvc "github.com/mensahkwame/bookmarket-backend/internal/payments"
	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
	"github.com/mensahkwame/bookmarket-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	paymentService paymentsvc.Service,
	orderService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbP,
			"redis":    redisClient,
		}))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutCommit(checkoutService, logg))
			r.Post("/validate", controllers.CheckoutValidate(checkoutService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", controllers.PaymentInitiate(paymentService, logg))
			r.Get("/verify/{reference}", controllers.PaymentVerify(paymentService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/bought", controllers.OrdersListBought(orderService, logg))
			r.Get("/sold", controllers.OrdersListSold(orderService, logg))
			r.Get("/{orderID}", controllers.OrderGet(orderService, logg))
		})
		r.Get("/batches/{batchID}", controllers.BatchGet(orderService, logg))
	})

	return r
}
