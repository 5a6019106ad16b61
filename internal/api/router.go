package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/metrics"
)

// RouterConfig carries what the router needs besides the handlers
type RouterConfig struct {
	Validator    middleware.TokenValidator // nil disables authentication
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	CORSOrigins  []string
	SecureCookie bool
}

func NewRouter(handlers *Handlers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Instrument(cfg.Metrics, pattern, h))
	}

	// Catalog
	handle("GET /products", handlers.ListProducts)
	handle("GET /products/{id}", handlers.GetProduct)
	handle("GET /catalog/{kind}", handlers.ListEntities)

	// Cart
	handle("GET /cart", handlers.GetCart)
	handle("DELETE /cart", handlers.ClearCart)
	handle("POST /cart/items", handlers.AddToCart)
	handle("DELETE /cart/items/{id}", handlers.RemoveFromCart)
	handle("POST /cart/items/{id}/increment", handlers.IncrementQuantity)
	handle("POST /cart/items/{id}/decrement", handlers.DecrementQuantity)
	handle("POST /cart/coupon", handlers.ApplyCoupon)
	handle("DELETE /cart/coupon", handlers.RemoveCoupon)

	// Orders
	handle("POST /orders", handlers.PlaceOrder)
	handle("GET /orders", handlers.ListOrders)
	handle("GET /orders/{id}", handlers.GetOrder)

	// Admin
	mux.Handle("POST /admin/catalog/refresh",
		middleware.RequireRole(auth.RoleAdmin)(middleware.Instrument(cfg.Metrics, "POST /admin/catalog/refresh", http.HandlerFunc(handlers.RefreshCatalog))))

	// Ops
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = middleware.GuestSession(cfg.SecureCookie)(handler)
	handler = middleware.OptionalAuthMiddleware(cfg.Validator)(handler)
	handler = middleware.AccessLog(handler)
	handler = middleware.RequestID(handler)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(handler)
}
