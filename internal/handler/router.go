// Package handler is the HTTP surface. Handlers decode, call one service
// method and encode; all rules live in the services.
package handler

import (
	"net/http"

	"couture-be/internal/admin"
	"couture-be/internal/customorder"
	"couture-be/internal/logger"
	"couture-be/internal/metrics"
	"couture-be/internal/middleware"
	"couture-be/internal/order"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Deps struct {
	Orders       order.Service
	CustomOrders customorder.Service
	Admin        admin.Service
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	JWTSecret    []byte
	InternalKey  string
}

func NewRouter(d Deps) http.Handler {
	orders := NewOrderHandler(d.Orders)
	customOrders := NewCustomOrderHandler(d.CustomOrders)
	adminH := NewAdminHandler(d.Admin)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(d.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.JWTSecret))
		r.Use(middleware.RateLimit(d.InternalKey))
		r.Use(requirePrincipal)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", orders.GetCart)
			r.Post("/items", orders.AddItem)
			r.Delete("/items/{productID}", orders.RemoveItem)
			r.Post("/checkout", orders.Checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.List)
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", orders.Get)
				r.Patch("/", orders.Update)
				r.Get("/audit", orders.Audit)
				r.Post("/link-custom-order", orders.LinkCustomOrder)
			})
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Get("/", adminH.ListOrders)
			r.Get("/summary", adminH.Summary)
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", adminH.GetOrder)
				r.Patch("/", adminH.UpdateOrder)
				r.Get("/audit", adminH.AuditTrail)
			})
		})

		r.Route("/custom-orders", func(r chi.Router) {
			r.Post("/", customOrders.Create)
			r.Get("/", customOrders.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", customOrders.Get)
				r.Post("/respond", customOrders.Respond)
				r.Patch("/status", customOrders.UpdateStatus)
				r.Post("/assets", customOrders.AttachAssets)
			})
		})
	})

	return r
}
