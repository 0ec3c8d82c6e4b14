package transport

import (
	"net/http"

	"snackhub-be/internal/logger"
	"snackhub-be/internal/metrics"
	"snackhub-be/internal/middleware"
	"snackhub-be/internal/payment"
	"snackhub-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

// NewRouter assembles the HTTP surface with the shared middleware chain.
func NewRouter(h *Handler, webhook *payment.Handler, counters *metrics.OrderCounters) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.CORS)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	r.Get("/products", h.GetProducts)

	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.SubmitOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)

		r.With(middleware.RequireStaff).Post("/{orderID}/status", h.UpdateStatus)
	})

	r.Post("/webhook/payment", webhook.WebhookHandler)

	if counters != nil {
		r.Get("/debug/ordercounts", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteJSON(w, counters.Snapshot(), http.StatusOK)
		})
	}

	return r
}
