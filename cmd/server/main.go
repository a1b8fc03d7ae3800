package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couture-be/internal/admin"
	"couture-be/internal/audit"
	"couture-be/internal/config"
	"couture-be/internal/customorder"
	"couture-be/internal/db"
	"couture-be/internal/events"
	"couture-be/internal/handler"
	"couture-be/internal/logger"
	"couture-be/internal/metrics"
	"couture-be/internal/money"
	"couture-be/internal/order"
	"couture-be/internal/payment"
	"couture-be/internal/product"
	"couture-be/internal/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Replaced in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, cleanup, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L().Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, ":"+cfg.AppPort, router)
}

// newServer wires every repository and service onto one router. cleanup
// flushes the tracer provider and releases the event publisher.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Options{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: %w", err)
	}
	closeTracing := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.L().Warn("failed to flush traces", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	currencies := money.DefaultRegistry(cfg.BaseCurrency)

	payments := payment.Disabled()
	if cfg.StripeSecretKey != "" {
		stripeGateway, err := payment.NewStripeGateway(payment.StripeConfig{APIKey: cfg.StripeSecretKey})
		if err != nil {
			closeTracing()
			return nil, nil, fmt.Errorf("stripe: %w", err)
		}
		payments = stripeGateway
	}

	publisher := events.Noop()
	cleanup := closeTracing
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		if err != nil {
			closeTracing()
			return nil, nil, err
		}
		publisher = kafkaPublisher
		cleanup = func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.L().Warn("failed to close kafka writer", zap.Error(err))
			}
			closeTracing()
		}
	}

	txRunner := db.NewTxRunner(database)

	auditRecorder := audit.NewRecorder(audit.NewRepository(database), audit.WithMetrics(m))
	catalog := product.NewService(product.NewRepository(database))

	customOrderRepo := customorder.NewRepository(database)
	customOrderSvc := customorder.NewService(customorder.Deps{
		Repo:       customOrderRepo,
		Tx:         txRunner,
		Events:     publisher,
		Metrics:    m,
		Currencies: currencies,
	})

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(order.Deps{
		Repo:        orderRepo,
		Tx:          txRunner,
		Audit:       auditRecorder,
		Catalog:     catalog,
		Payments:    payments,
		Commissions: customorder.NewCommissionLookup(customOrderRepo),
		Events:      publisher,
		Metrics:     m,
		Currencies:  currencies,
	})

	adminSvc := admin.NewService(orderSvc, orderRepo)

	router := handler.NewRouter(handler.Deps{
		Orders:       orderSvc,
		CustomOrders: customOrderSvc,
		Admin:        adminSvc,
		Metrics:      m,
		Gatherer:     reg,
		JWTSecret:    []byte(cfg.JWTSecret),
		InternalKey:  cfg.InternalSecretKey,
	})
	return router, cleanup, nil
}

func startServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
