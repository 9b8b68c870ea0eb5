package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	RequestTimeout      time.Duration
	SessionTTL          time.Duration
	SessionCookieSecure bool
}

// NewRouter mounts the storefront API. metrics may be nil.
func NewRouter(h *StorefrontHandler, metrics http.Handler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(LimitBody)
		r.Use(SessionMiddleware(cfg.SessionTTL, cfg.SessionCookieSecure))

		r.Post("/session", h.BindCustomer)
		r.Delete("/session", h.EndSession)
		r.Get("/products", h.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items/{product_id}", h.AddItem)
			r.Delete("/items/{product_id}", h.RemoveItem)
		})
		r.Get("/checkout", h.GetCheckout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.PlaceOrder)
		})
		r.Get("/customer", h.GetCustomer)
	})

	return r
}
