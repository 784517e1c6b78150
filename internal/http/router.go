package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter wires all routes. Everything under /api/v1 requires a bearer
// token carrying the business id; /healthz stays open for probes.
func NewRouter(h *Handler, logger *logrus.Logger, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireBusiness(jwtSecret))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.AddProduct)
			r.Get("/{id}", h.GetProduct)
			r.Patch("/{id}/price", h.UpdatePrice)
			r.Post("/{id}/stock", h.AdjustStock)
		})

		r.Post("/checkout", h.Checkout)

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Get("/receipt", h.OrderReceipt)
			r.Delete("/{id}", h.DeleteSale)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.RecordExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Get("/export", h.ExportReport)
		})

		r.Route("/business", func(r chi.Router) {
			r.Get("/", h.GetBusiness)
			r.Put("/", h.UpdateBusiness)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.AddStaff)
			r.Patch("/{id}/status", h.ToggleStaffStatus)
			r.Delete("/{id}", h.DeleteStaff)
		})

		r.Get("/dashboard", h.DashboardSummary)
	})

	return r
}
