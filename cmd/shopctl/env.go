package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dejobratic/skinstore/internal/audit"
	"github.com/dejobratic/skinstore/internal/config"
	"github.com/dejobratic/skinstore/internal/database"
	idempotencymemory "github.com/dejobratic/skinstore/internal/idempotency/memory"
	"github.com/dejobratic/skinstore/internal/kafka"
	orderspostgres "github.com/dejobratic/skinstore/internal/orders/adapters/postgres"
	"github.com/dejobratic/skinstore/internal/orders/adapters/stripe"
	ordersapp "github.com/dejobratic/skinstore/internal/orders/app"
	ordersmetrics "github.com/dejobratic/skinstore/internal/orders/metrics"
	"github.com/dejobratic/skinstore/internal/telemetry"
)

// env holds the connections a command opened. close releases them in reverse order.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	service *ordersapp.Service
	closers []func()
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{
		cfg:    cfg,
		logger: telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(cfg.Telemetry.LogLevel)),
	}, nil
}

// openService connects to postgres and the audit trail and builds the same
// order service the API runs, without telemetry export.
func openService(ctx context.Context) (*env, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPool(ctx, e.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	e.closers = append(e.closers, pool.Close)

	trail, closeTrail, err := audit.Open(ctx, e.cfg.Mongo)
	if err != nil {
		e.close()
		return nil, err
	}
	e.closers = append(e.closers, closeTrail)

	orderMetrics, err := ordersmetrics.NewMetrics(noop.NewMeterProvider().Meter("shopctl"))
	if err != nil {
		e.close()
		return nil, err
	}

	e.service = ordersapp.NewService(ordersapp.Dependencies{
		Store:   orderspostgres.NewRepository(pool),
		Catalog: orderspostgres.NewCatalog(pool),
		Gateway: stripe.NewGateway(stripe.Config{
			SecretKey: e.cfg.Payments.StripeSecretKey,
			APIURL:    e.cfg.Payments.StripeAPIURL,
			BaseURL:   e.cfg.Payments.BaseURL,
		}),
		Events:      kafka.NewNoopEventBus(e.logger),
		Audit:       trail,
		AuditReader: trail,
		Idempotency: idempotencymemory.NewStore(0),
		Logger:      e.logger,
		Metrics:     orderMetrics,
	}, ordersapp.Options{
		Currency:                e.cfg.Payments.Currency,
		PriceToleranceCents:     e.cfg.Payments.PriceToleranceCents,
		SynthesizeMissingOrders: e.cfg.Webhook.SynthesizeMissingOrders,
	})

	return e, nil
}

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
