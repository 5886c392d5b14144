package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/infrastructure/idempotency"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
	"github.com/pagopay/transactions-service/internal/infrastructure/persistence/postgres"
	"github.com/pagopay/transactions-service/internal/infrastructure/queue"
	"github.com/pagopay/transactions-service/internal/interfaces/rest/handlers"
	"github.com/pagopay/transactions-service/internal/interfaces/rest/middleware"
	"github.com/pagopay/transactions-service/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting transactions service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventStore := postgres.NewEventStore(db)
	viewRepo := postgres.NewViewRepository(db)

	redisClient := idempotency.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	paymentRequestCache := idempotency.NewRedisStore(redisClient, cfg.Redis.PaymentRequestTTL)
	sessionRegistry := idempotency.NewSessionRegistry(redisClient, cfg.Redis.WalletSessionTTL)

	publisher := queue.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.RefundTopic, cfg.Kafka.EventsTopic)
	defer publisher.Close()

	nodoClient := nodo.NewBreakerClient(nodo.NewClient(cfg.Nodo), cfg.Breaker)

	// Gateway families in dispatch priority order.
	gateways := []gateway.Client{
		gateway.NewBreakerClient(gateway.NewXPayClient(cfg.Gateways.XPay), cfg.Breaker),
		gateway.NewBreakerClient(gateway.NewVPosClient(cfg.Gateways.VPos), cfg.Breaker),
		gateway.NewBreakerClient(gateway.NewRedirectClient(cfg.Gateways.Redirect, cfg.Gateways.RedirectPaymentTypes), cfg.Breaker),
		gateway.NewBreakerClient(gateway.NewNPGClient(cfg.Gateways.NPG), cfg.Breaker),
	}

	keyGen, err := services.NewIdempotencyKeyGenerator(cfg.Nodo.PspFiscalCode)
	if err != nil {
		logger.Error("failed to build idempotency key generator", "error", err)
		os.Exit(1)
	}

	activationService := services.NewActivationService(
		eventStore, viewRepo, paymentRequestCache, nodoClient, keyGen, cfg.Nodo, logger)
	authorizationService := services.NewAuthorizationService(
		eventStore, viewRepo, sessionRegistry, gateways, cfg.Nodo,
		cfg.Gateways.AuthorizationTimeout, logger)
	updateService := services.NewUpdateAuthorizationService(
		eventStore, viewRepo, cfg.Gateways.AuthorizationTimeout, logger)
	closureService := services.NewClosureService(
		eventStore, viewRepo, nodoClient, publisher, logger)
	cancellationService := services.NewCancellationService(eventStore, viewRepo, logger)
	receiptService := services.NewUserReceiptService(eventStore, viewRepo, logger)
	queryService := services.NewQueryService(eventStore)

	h := handlers.NewHandlers(
		activationService,
		authorizationService,
		updateService,
		closureService,
		cancellationService,
		receiptService,
		queryService,
		sessionRegistry,
		logger,
	)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	expirationWorker := worker.NewExpirationWorker(eventStore, viewRepo, publisher, cfg.Worker, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go expirationWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
