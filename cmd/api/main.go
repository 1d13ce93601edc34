package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/skinstore/internal/audit"
	"github.com/dejobratic/skinstore/internal/auth"
	"github.com/dejobratic/skinstore/internal/config"
	"github.com/dejobratic/skinstore/internal/database"
	"github.com/dejobratic/skinstore/internal/idempotency"
	"github.com/dejobratic/skinstore/internal/kafka"
	"github.com/dejobratic/skinstore/internal/orders/adapters"
	httpadapter "github.com/dejobratic/skinstore/internal/orders/adapters/http"
	orderspostgres "github.com/dejobratic/skinstore/internal/orders/adapters/postgres"
	"github.com/dejobratic/skinstore/internal/orders/adapters/stripe"
	ordersapp "github.com/dejobratic/skinstore/internal/orders/app"
	ordersmetrics "github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/telemetry"
	"github.com/dejobratic/skinstore/internal/webhook"
)

const maxRequestBody = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	meter := tel.Meter("github.com/dejobratic/skinstore")
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}
	eventMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	idemStore, closeIdem, err := idempotency.Open(ctx, cfg, pool)
	if err != nil {
		logger.Error("failed to create idempotency store", "backend", cfg.Idempotency.Backend, "error", err)
		os.Exit(1)
	}
	defer closeIdem()

	auditLog, closeAudit, err := audit.Open(ctx, cfg.Mongo)
	if err != nil {
		logger.Error("failed to create audit log", "error", err)
		os.Exit(1)
	}
	defer closeAudit()

	gateway := stripe.NewGateway(stripe.Config{
		SecretKey: cfg.Payments.StripeSecretKey,
		APIURL:    cfg.Payments.StripeAPIURL,
		BaseURL:   cfg.Payments.BaseURL,
	})

	service := ordersapp.NewService(ordersapp.Dependencies{
		Store:       adapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics),
		Catalog:     adapters.NewObservableCatalog(orderspostgres.NewCatalog(pool), dbMetrics),
		Gateway:     adapters.NewObservableGateway(gateway, logger, orderMetrics),
		Events:      adapters.NewObservableEventBus(kafka.NewNoopEventBus(logger), eventMetrics),
		Audit:       auditLog,
		AuditReader: auditLog,
		Idempotency: idemStore,
		Logger:      logger,
		Metrics:     orderMetrics,
	}, ordersapp.Options{
		Currency:                cfg.Payments.Currency,
		PriceToleranceCents:     cfg.Payments.PriceToleranceCents,
		SynthesizeMissingOrders: cfg.Webhook.SynthesizeMissingOrders,
	})

	limiter := httpadapter.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, httpMetrics)
	go limiter.Run(ctx, 5*time.Minute)

	gate := auth.NewGate(cfg.Auth.AdminJWTSecret)
	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.Tolerance)
	ordersHandler := httpadapter.NewHandler(service, verifier, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(withRecovery(logger))
	router.Use(withLogging(logger))
	router.Use(func(next http.Handler) http.Handler { return httpadapter.WithMetrics(next, httpMetrics) })
	router.Use(httpadapter.WithMaxBodySize(maxRequestBody))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckReady(r.Context(), pool); err != nil {
			logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	ordersHandler.Routes(router, gate.RequireAdmin, limiter.Middleware)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(router, cfg.Service.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "idempotency_backend", cfg.Idempotency.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func withRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic recovered",
						"error", rec,
						"request_id", middleware.GetReqID(r.Context()),
					)
					respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
