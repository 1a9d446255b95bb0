package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
)

type Router struct {
	Leads       *LeadHandler
	Users       *UserHandler
	Health      *HealthHandler
	Auth        *middleware.Authenticator
	Limiter     *middleware.RateLimiter
	CORSOrigins []string
	// RequestLog enables the chi request logger.
	RequestLog bool
}

func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()
	if rt.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	if rt.Health != nil {
		r.Get("/health", rt.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rt.Limiter != nil {
			r.Use(rt.Limiter.Limit)
		}

		r.Post("/users", rt.Users.Register)

		r.Group(func(r chi.Router) {
			r.Use(rt.Auth.Require)

			r.Get("/me", rt.Users.Me)
			r.Get("/users/sales", rt.Users.ListSales)
			r.Post("/users/{id}/repair-role", rt.Users.RepairRole)

			r.Route("/leads", func(r chi.Router) {
				r.Post("/", rt.Leads.Create)
				r.Get("/", rt.Leads.List)
				r.Get("/phone-check", rt.Leads.CheckPhone)
				r.Get("/{id}", rt.Leads.Get)
				r.Delete("/{id}", rt.Leads.Delete)
				r.Post("/{id}/assign", rt.Leads.Assign)
				r.Post("/{id}/call", rt.Leads.MarkCalled)
				r.Post("/{id}/interest", rt.Leads.UpdateInterest)
				r.Post("/{id}/close", rt.Leads.Close)
				r.Post("/{id}/notes", rt.Leads.AddNote)
				r.Post("/{id}/restore", rt.Leads.Restore)
			})
		})
	})

	return r
}
