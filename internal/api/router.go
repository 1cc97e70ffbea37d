package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gigboard/internal/models"
)

// NewRouter assembles the full route tree. The webhook endpoint stays
// outside the auth group: the processor authenticates with its signature,
// not a bearer token.
func NewRouter(h *Handler, jwtSecret string, users UserDirectory) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/webhooks/stripe", h.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret, users))

		r.Route("/api/jobs", func(r chi.Router) {
			r.Post("/", h.CreateJob)
			r.Get("/", h.ListMyJobs)
			r.Get("/{id}", h.GetJob)
			r.Post("/{id}/pay", h.PayJob)
			r.Post("/{id}/accept", h.AcceptApplication)
			r.Post("/{id}/complete", h.CompleteJob)
			r.Post("/{id}/cancel", h.CancelJob)
		})

		r.Post("/api/tasks/{id}/complete", h.CompleteTask)
		r.Get("/api/payments", h.ListMyPayments)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleWorker))
			r.Get("/api/earnings", h.ListMyEarnings)
			r.Get("/api/earnings/report", h.EarningsReport)
			r.Route("/api/payout-account", func(r chi.Router) {
				r.Get("/", h.GetPayoutAccount)
				r.Post("/", h.CreatePayoutAccount)
				r.Get("/qr", h.PayoutAccountQR)
			})
		})
	})

	return r
}
