package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/commercegate/ipg-service/internal/adapters/logging"
	"github.com/commercegate/ipg-service/internal/adapters/postgres"
	"github.com/commercegate/ipg-service/internal/adapters/rabbitmq"
	"github.com/commercegate/ipg-service/internal/config"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	paymentHandler "github.com/commercegate/ipg-service/internal/handlers/payment"
	"github.com/commercegate/ipg-service/internal/ipg"
	paymentService "github.com/commercegate/ipg-service/internal/services/payment"
	pkghttp "github.com/commercegate/ipg-service/pkg/http"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("starting ipg service",
		zap.String("gateway", cfg.Gateway.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	db := postgres.NewDBExecutor(pool)
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}
	orderStore := postgres.NewOrderRepository(db)

	var publisher ports.EventPublisher
	if cfg.Events.URL != "" {
		conn, err := amqp.Dial(cfg.Events.URL)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		pub, err := rabbitmq.NewPublisher(conn)
		if err != nil {
			logger.Fatal("failed to open rabbitmq channel", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		logger.Info("payment event publishing enabled")
	}

	svcLogger := logging.NewZapLogger(logger)
	clock := ports.ClockFunc(func() time.Time { return time.Now().UTC() })

	httpClient := pkghttp.NewClient(pkghttp.GatewayClientConfig(), cfg.Gateway.Timeout)
	gateway := ipg.NewClient(ipg.Credentials{
		TerminalID: cfg.Gateway.TerminalID,
		Password:   cfg.Gateway.Password,
		Secret:     cfg.Gateway.Secret,
	}, cfg.Gateway.BaseURL, httpClient, svcLogger)

	svc := paymentService.NewService(
		orderStore,
		gateway,
		ipg.NewThreeDSBuilder(clock),
		publisher,
		clock,
		svcLogger,
		paymentService.Options{
			DefaultLanguage: cfg.Gateway.DefaultLanguage,
			ThreeDSEnabled:  cfg.Gateway.ThreeDSEnabled,
			StaleAfter:      cfg.Gateway.StaleAfter,
		},
	)

	checkout := paymentHandler.NewCheckoutHandler(svc, logger)
	notification := paymentHandler.NewNotificationHandler(svc, logger)
	browserReturn := paymentHandler.NewReturnHandler(svc, logger)
	admin := paymentHandler.NewAdminHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/payments/initiate", checkout.Initiate)
	mux.HandleFunc("/api/v1/payments/refund", admin.Refund)
	mux.HandleFunc("/api/v1/payments/status", admin.Status)
	mux.HandleFunc("/ipg/notification", notification.Handle)
	mux.HandleFunc("/ipg/return", browserReturn.Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	// Periodic sweep for orders abandoned on the hosted payment page.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := svc.ExpireStale(ctx)
				if err != nil {
					logger.Error("stale session sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("stale sessions cancelled", zap.Int("count", n))
				}
			}
		}
	}()

	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", zap.Error(err))
	}
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("database", cfg.Database.Database),
	)
	return pool, nil
}
