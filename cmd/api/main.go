package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/tavolaeats/tavola/internal/analytics"
	"github.com/tavolaeats/tavola/internal/catalog"
	"github.com/tavolaeats/tavola/internal/messaging"
	"github.com/tavolaeats/tavola/internal/orders"
	"github.com/tavolaeats/tavola/internal/payment"
	"github.com/tavolaeats/tavola/internal/promo"
	"github.com/tavolaeats/tavola/internal/storage/memory"
	"github.com/tavolaeats/tavola/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "tavola-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("tavola-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	// The store backend is an explicit startup decision, never a runtime
	// fallback on database errors.
	var (
		store           orders.Store
		serviceCatalog  orders.Catalog
		catalogProvider catalog.Provider
		analyticsRepo   *analytics.Repository
	)

	switch os.Getenv("STORE") {
	case "", "postgres":
		postgresURL := os.Getenv("POSTGRES_URL")
		if postgresURL == "" {
			logger.Error("POSTGRES_URL environment variable is required (or set STORE=memory)")
			os.Exit(1)
		}

		db, err := telemetry.OpenDB("postgres", postgresURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}

		store = orders.NewRepository(db)
		catalogRepo := catalog.NewRepository(db)
		serviceCatalog = catalogRepo
		catalogProvider = catalogRepo
		analyticsRepo = analytics.NewRepository(db)

	case "memory":
		mem := memory.NewStore()
		store = mem
		serviceCatalog = mem
		catalogProvider = mem
		logger.Info("using in-memory store")

	default:
		logger.Error("unknown STORE value", "store", os.Getenv("STORE"))
		os.Exit(1)
	}

	serviceCfg := orders.ServiceConfig{
		Store:   store,
		Catalog: serviceCatalog,
		Promos:  promo.NewEngine(store, logger),
		Payments: payment.NewClient(
			envOr("SQUARE_API_URL", "https://connect.squareupsandbox.com"),
			os.Getenv("SQUARE_ACCESS_TOKEN"),
			payment.DefaultHTTPClient(),
		),
		HashSecret: envOr("HASH_SECRET", "dev-secret-change-in-production"),
		Logger:     logger,
	}

	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		events := messaging.NewOrderEvents(strings.Split(kafkaBrokers, ","))
		defer func() { _ = events.Close() }()
		serviceCfg.Events = events
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		serviceCfg.Redis = rdb
	}

	orderService := orders.NewService(serviceCfg)
	orderHandler := orders.NewHandler(orderService, logger)
	promoHandler := promo.NewHandler(serviceCfg.Promos, logger)
	catalogHandler := catalog.NewHandler(catalogProvider, logger)
	analyticsHandler := analytics.NewHandler(analyticsRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /menu", telemetry.WithHTTPRoute(catalogHandler.HandleMenu))
	mux.HandleFunc("GET /categories", telemetry.WithHTTPRoute(catalogHandler.HandleCategories))
	mux.HandleFunc("GET /menu/{categoryID}", telemetry.WithHTTPRoute(catalogHandler.HandleMenuByCategory))

	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(orderHandler.HandleUpdateStatus))

	mux.HandleFunc("POST /promo/validate", telemetry.WithHTTPRoute(promoHandler.HandleValidate))

	mux.HandleFunc("GET /analytics/business", telemetry.WithHTTPRoute(analyticsHandler.HandleBusiness))
	mux.HandleFunc("GET /analytics/export", telemetry.WithHTTPRoute(analyticsHandler.HandleExport))

	port := envOr("PORT", "8080")

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "tavola-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
