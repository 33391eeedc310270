package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesaflow/mesaflow-backend/api/routes"
	"github.com/mesaflow/mesaflow-backend/internal/customers"
	"github.com/mesaflow/mesaflow-backend/internal/engine"
	"github.com/mesaflow/mesaflow-backend/internal/menu"
	"github.com/mesaflow/mesaflow-backend/internal/orders"
	"github.com/mesaflow/mesaflow-backend/internal/processor"
	"github.com/mesaflow/mesaflow-backend/internal/tenants"
	"github.com/mesaflow/mesaflow-backend/internal/transcript"
	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	"github.com/mesaflow/mesaflow-backend/pkg/config"
	"github.com/mesaflow/mesaflow-backend/pkg/db"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
	"github.com/mesaflow/mesaflow-backend/pkg/metrics"
	"github.com/mesaflow/mesaflow-backend/pkg/migrate"
	"github.com/mesaflow/mesaflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tenantRepo := tenants.NewRepository(dbClient.DB())
	customerRepo := customers.NewRepository(dbClient.DB())
	menuRepo := menu.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	transcriptRepo := transcript.NewRepository(dbClient.DB())

	eng, err := engine.New(menuRepo, orderRepo, cfg.Bot.HistoryLimit, cfg.Bot.MaxQuantity)
	if err != nil {
		logg.Error(context.Background(), "failed to create conversation engine", err)
		os.Exit(1)
	}

	waClient, err := whatsapp.NewClient(cfg.WhatsApp.APIToken, whatsapp.WithBaseURL(cfg.WhatsApp.GraphBaseURL))
	if err != nil {
		logg.Error(context.Background(), "failed to create whatsapp client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	proc, err := processor.New(
		tenantRepo,
		customerRepo,
		orderRepo,
		transcriptRepo,
		eng,
		waClient,
		redisClient,
		dbClient,
		logg,
		webhookMetrics,
		processor.Options{
			EventDedupTTL: cfg.WhatsApp.EventDedupTTL,
			SendTimeout:   cfg.WhatsApp.SendTimeout,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create message processor", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, proc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
