package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearcart/pricing-engine/api/controllers"
	"github.com/clearcart/pricing-engine/api/middleware"
	"github.com/clearcart/pricing-engine/internal/quotes"
	"github.com/clearcart/pricing-engine/internal/rules"
	"github.com/clearcart/pricing-engine/pkg/config"
	"github.com/clearcart/pricing-engine/pkg/db"
	"github.com/clearcart/pricing-engine/pkg/logger"
	"github.com/clearcart/pricing-engine/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	rulesService rules.Service,
	quotesService quotes.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/rules", func(r chi.Router) {
			r.Post("/", controllers.CreateRule(logg, rulesService))
			r.Get("/", controllers.ListRules(logg, rulesService))
			r.Get("/{sku}", controllers.GetRule(logg, rulesService))
			r.Delete("/{sku}", controllers.DeleteRule(logg, rulesService))
		})
		r.Post("/quotes", controllers.CreateQuote(logg, quotesService))
	})

	return r
}
