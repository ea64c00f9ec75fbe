package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/NYTimes/gziphandler"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Handlers groups the API handlers mounted by the router.
type Handlers struct {
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	Discounts  *handler.DiscountHandler
	Rules      *handler.RuleHandler
	Orders     *handler.OrderHandler
}

// Options configures the middleware chain.
type Options struct {
	APIKey      string
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	mux.HandleFunc("GET /api/products", h.Products.GetAll)
	mux.HandleFunc("POST /api/products", h.Products.Create)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("PUT /api/products/{id}", h.Products.Update)
	mux.HandleFunc("DELETE /api/products/{id}", h.Products.Delete)

	mux.HandleFunc("GET /api/categories", h.Categories.GetAll)
	mux.HandleFunc("POST /api/categories", h.Categories.Create)
	mux.HandleFunc("GET /api/categories/{id}", h.Categories.GetByID)
	mux.HandleFunc("PUT /api/categories/{id}", h.Categories.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", h.Categories.Delete)

	mux.HandleFunc("POST /api/discounts/calculate", h.Discounts.Calculate)
	mux.HandleFunc("POST /api/discounts/available", h.Discounts.Available)
	mux.HandleFunc("GET /api/discounts/items", h.Discounts.ItemOffers)

	mux.HandleFunc("GET /api/rules", h.Rules.List)
	mux.HandleFunc("POST /api/rules", h.Rules.Create)
	mux.HandleFunc("GET /api/rules/suggestions", h.Rules.Suggestions)
	mux.HandleFunc("GET /api/rules/{id}", h.Rules.GetByID)
	mux.HandleFunc("PUT /api/rules/{id}", h.Rules.Update)
	mux.HandleFunc("DELETE /api/rules/{id}", h.Rules.Delete)

	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)

	// Apply middleware in order: Recovery -> Logging -> Metrics -> Gzip -> CORS -> RateLimit -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(opts.APIKey, logger)(handler)
	if opts.RateLimiter != nil {
		handler = opts.RateLimiter.Middleware(handler)
	}
	handler = middleware.CORS(handler)
	handler = gziphandler.GzipHandler(handler)
	handler = middleware.Metrics(opts.Metrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
