package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarquezg/storefront-backend/api/controllers"
	"github.com/dmarquezg/storefront-backend/api/middleware"
	authsvc "github.com/dmarquezg/storefront-backend/internal/auth"
	"github.com/dmarquezg/storefront-backend/internal/cart"
	"github.com/dmarquezg/storefront-backend/internal/categories"
	checkoutsvc "github.com/dmarquezg/storefront-backend/internal/checkout"
	"github.com/dmarquezg/storefront-backend/internal/orders"
	"github.com/dmarquezg/storefront-backend/internal/payments"
	"github.com/dmarquezg/storefront-backend/internal/products"
	"github.com/dmarquezg/storefront-backend/internal/sessions"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	"github.com/dmarquezg/storefront-backend/pkg/config"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/metrics"
	"github.com/dmarquezg/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	sessionProvider *sessions.Provider,
	authService authsvc.Service,
	storeService stores.Service,
	categoryService categories.Service,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	orderService orders.Service,
	reconciler payments.Reconciler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(authService, logg))
	})

	r.Route("/api/storefront/{slug}", func(r chi.Router) {
		r.Use(middleware.Session(sessionProvider, logg))

		r.Get("/", controllers.StorefrontSnapshot(storeService, logg))
		r.Get("/products", controllers.StorefrontProducts(storeService, productService, logg))
		r.Get("/products/{productID}", controllers.StorefrontProduct(storeService, productService, logg))
		r.Get("/categories", controllers.StorefrontCategories(storeService, categoryService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(storeService, cartService, logg))
			r.Post("/items", controllers.CartAddItem(storeService, cartService, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(storeService, cartService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(storeService, cartService, logg))
			r.Post("/clear", controllers.CartClear(storeService, cartService, logg))
			r.Put("/delivery-method", controllers.CartSetDeliveryMethod(storeService, cartService, logg))
		})

		r.With(middleware.Idempotency(redisClient, logg)).
			Post("/checkout", controllers.CheckoutPlaceOrder(storeService, checkoutService, logg))
	})

	r.Get("/api/payments/return", controllers.PaymentReturn(reconciler, logg))

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.AdminStoreCreate(storeService, logg))
			r.Get("/", controllers.AdminStoreList(storeService, logg))
			r.Get("/{storeID}", controllers.AdminStoreGet(storeService, logg))
			r.Patch("/{storeID}", controllers.AdminStoreUpdate(storeService, logg))

			r.Post("/{storeID}/categories", controllers.AdminCategoryCreate(categoryService, logg))
			r.Post("/{storeID}/products", controllers.AdminProductCreate(productService, logg))
			r.Get("/{storeID}/products", controllers.AdminProductList(storeService, productService, logg))
			r.Get("/{storeID}/orders", controllers.AdminOrderList(orderService, logg))
		})

		r.Patch("/categories/{categoryID}", controllers.AdminCategoryUpdate(categoryService, logg))
		r.Delete("/categories/{categoryID}", controllers.AdminCategoryDelete(categoryService, logg))

		r.Patch("/products/{productID}", controllers.AdminProductUpdate(productService, logg))
		r.Delete("/products/{productID}", controllers.AdminProductDelete(productService, logg))

		r.Get("/orders/{orderID}", controllers.AdminOrderGet(orderService, logg))
		r.Patch("/orders/{orderID}/status", controllers.AdminOrderUpdateStatus(orderService, logg))
	})

	return r
}
