package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/invoice-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса счетов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(chimw.RequestSize(maxBodyBytes))
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/me", h.Me)
			r.Get("/company", h.GetCompany)
			r.Put("/company", h.UpdateCompany)
			r.Put("/account", h.UpdateAccount)
		})
	})

	r.Route("/api/drafts", func(r chi.Router) {
		r.Use(custommiddleware.DraftSession)

		r.Get("/new", h.NewDraft)
		r.Put("/pending", h.MirrorDraft)
		r.Delete("/pending", h.DiscardDraft)
	})

	r.Route("/api/invoices", func(r chi.Router) {
		r.Post("/totals", h.Totals)
		r.Post("/preview", h.Preview)
		r.Post("/pdf", h.CandidatePDF)

		r.With(custommiddleware.DraftSession, h.authMiddleware.Optional).Post("/", h.CreateInvoice)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.ListInvoices)
			r.Get("/{id}", h.GetInvoice)
			r.Put("/{id}", h.UpdateInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
			r.Patch("/{id}/status", h.UpdateInvoiceStatus)
			r.Get("/{id}/pdf", h.InvoicePDF)
		})
	})

	r.With(h.authMiddleware.Middleware).Get("/api/dashboard", h.Dashboard)

	r.Route("/api/clients", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.With(h.rateLimiter.Middleware).Get("/", h.ListClients)
		r.Get("/all", h.AllClients)
		r.Post("/", h.CreateClient)
		r.Get("/{id}", h.GetClient)
		r.Put("/{id}", h.UpdateClient)
		r.Delete("/{id}", h.DeleteClient)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
