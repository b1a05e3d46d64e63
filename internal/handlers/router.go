package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/motor-insurance/internal/metrics"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Auth     *AuthHandler
	Quotes   *QuoteHandler
	Vehicles *VehicleHandler
	Payments *PaymentHandler
	Stats    *StatsHandler
	Meta     *MetaHandler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimitMiddleware
	Metrics        *metrics.Metrics
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool
	// Gatherer backs /metrics. It is skipped when nil.
	Gatherer prometheus.Gatherer
	// Ping reports storage health for /health. It is skipped when nil.
	Ping func(r *http.Request) error
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, respond.CodeBadRequest, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r); err != nil {
				respond.Error(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	authz := cfg.AuthMiddleware
	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.RateLimit)
		}
		r.Use(authz.Authenticate)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", cfg.Auth.Login)
			r.With(authz.RequirePermission(models.ActionManageUsers)).Post("/register", cfg.Auth.Register)
			r.Get("/me", cfg.Auth.GetProfile)
		})

		r.Route("/insurance", func(r chi.Router) {
			r.Use(authz.RequirePermission(models.ActionCalculateQuote))
			r.Post("/calculate", cfg.Quotes.Calculate)
			r.Get("/options", cfg.Quotes.Options)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.With(authz.RequirePermission(models.ActionViewVehicles)).Get("/", cfg.Vehicles.List)
			r.With(authz.RequirePermission(models.ActionManageVehicles)).Post("/", cfg.Vehicles.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(authz.RequirePermission(models.ActionViewVehicles)).Get("/", cfg.Vehicles.Get)
				r.With(authz.RequirePermission(models.ActionManageVehicles)).Put("/", cfg.Vehicles.Update)
				r.With(authz.RequirePermission(models.ActionDeleteVehicles)).Delete("/", cfg.Vehicles.Delete)
				r.With(authz.RequirePermission(models.ActionPriceVehicles)).Put("/pricing", cfg.Vehicles.Price)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(authz.RequirePermission(models.ActionViewPayments)).Get("/", cfg.Payments.List)
			r.With(authz.RequirePermission(models.ActionRecordPayments)).Post("/", cfg.Payments.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(authz.RequirePermission(models.ActionViewPayments))
				r.Get("/", cfg.Payments.Get)
				r.Get("/policy", cfg.Payments.Policy)
				r.Get("/certificate", cfg.Payments.Certificate)
			})
		})

		r.With(authz.RequirePermission(models.ActionViewStats)).Get("/stats/records", cfg.Stats.Records)

		r.Route("/meta", func(r chi.Router) {
			r.Use(authz.RequirePermission(models.ActionViewVehicles))
			r.Get("/makes", cfg.Meta.Makes)
			r.Get("/models", cfg.Meta.Models)
			r.Get("/colors", cfg.Meta.Colors)
		})
	})

	return r
}
