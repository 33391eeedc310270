package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaflow/mesaflow-backend/api/controllers"
	webhookcontrollers "github.com/mesaflow/mesaflow-backend/api/controllers/webhooks"
	"github.com/mesaflow/mesaflow-backend/api/middleware"
	"github.com/mesaflow/mesaflow-backend/pkg/config"
	"github.com/mesaflow/mesaflow-backend/pkg/db"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
	"github.com/mesaflow/mesaflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	proc webhookcontrollers.MessageProcessor,
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

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Get("/whatsapp", webhookcontrollers.VerifyWhatsApp(cfg.WhatsApp.VerifyToken, logg))
		r.Post("/whatsapp", webhookcontrollers.WhatsAppWebhook(proc, cfg.WhatsApp.AppSecret, logg))
	})

	if !cfg.App.IsProd() {
		r.Post("/api/v1/dev/simulate", controllers.SimulateInbound(proc, logg))
	}

	return r
}
