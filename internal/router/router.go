package router

import (
	"net/http"

	"rentwheels/internal/handler"
	"rentwheels/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// A nil limiter disables rate limiting.
func New(
	pricingHandler *handler.PricingHandler,
	redemptionHandler *handler.RedemptionHandler,
	couponHandler *handler.CouponHandler,
	apiKey string,
	limiter *middleware.ClientRateLimiter,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Request ID first so that every log line and error body can carry it.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Rate limiting runs first so that requests with a bad key are throttled too.
		r.Use(middleware.RateLimit(limiter, logger))
		r.Use(middleware.APIKeyAuth(apiKey, logger))

		r.Post("/pricing/quote", pricingHandler.Quote)
		r.Get("/coupons/applicable", pricingHandler.Applicable)

		r.Post("/redemptions", redemptionHandler.Redeem)
		r.Get("/redemptions/{code}/{bookingId}", redemptionHandler.Lookup)

		r.Route("/admin/coupons", func(r chi.Router) {
			r.Get("/", couponHandler.List)
			r.Post("/", couponHandler.Create)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", couponHandler.Get)
				r.Put("/", couponHandler.Update)
				r.Delete("/", couponHandler.Delete)
				r.Patch("/active", couponHandler.SetActive)
				r.Get("/redemptions", couponHandler.ListRedemptions)
			})
		})
	})

	return r
}
