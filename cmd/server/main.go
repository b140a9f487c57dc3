package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taxi24/internal/app"
	"taxi24/internal/config"
	"taxi24/internal/events"
	"taxi24/internal/handler"
	internalRedis "taxi24/internal/redis"
	"taxi24/internal/repository"
	"taxi24/internal/repository/memory"
	"taxi24/internal/repository/postgres"
	"taxi24/internal/service"
	"taxi24/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database and Redis are instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	var db *sql.DB
	if cfg.Storage == config.StoragePostgres {
		var err error
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	} else {
		logger.Warn("using in-memory storage; data is lost on restart")
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	publisher, err := app.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("connect event publisher: %w", err)
	}
	defer publisher.Close()

	server, directory := wireServer(db, redisClient, publisher, nrApp, cfg, logger)

	if n, err := directory.RebuildIndex(ctx); err != nil {
		logger.Warn("failed to rebuild driver geo index", zap.Error(err))
	} else if redisClient != nil {
		logger.Info("driver geo index rebuilt", zap.Int("drivers", n))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

type repositories struct {
	drivers    repository.DriverRepository
	passengers repository.PassengerRepository
	trips      repository.TripRepository
	invoices   repository.InvoiceRepository
}

func newRepositories(db *sql.DB) repositories {
	if db == nil {
		return repositories{
			drivers:    memory.NewDriverRepository(),
			passengers: memory.NewPassengerRepository(),
			trips:      memory.NewTripRepository(),
			invoices:   memory.NewInvoiceRepository(),
		}
	}
	return repositories{
		drivers:    postgres.NewDriverRepository(db),
		passengers: postgres.NewPassengerRepository(db),
		trips:      postgres.NewTripRepository(db),
		invoices:   postgres.NewInvoiceRepository(db),
	}
}

func newFarePolicy(cfg config.FareConfig) service.FarePolicy {
	if cfg.Policy == config.FareDistance {
		return service.DistanceFare{Base: cfg.Base, PerKm: cfg.PerKm, Minimum: cfg.Minimum}
	}
	return service.FlatFare{Amount: cfg.FlatAmount}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher events.Publisher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) (*http.Server, *service.DriverDirectory) {
	// Redis stores are optional; nil interfaces fall back to scans and in-process locks.
	var (
		locationStore internalRedis.LocationStoreInterface
		lockStore     internalRedis.LockStoreInterface
		cacheStore    internalRedis.InvoiceCacheInterface
	)
	if redisClient != nil {
		locationStore = internalRedis.NewLocationStore(redisClient)
		lockStore = internalRedis.NewLockStore(redisClient)
		cacheStore = internalRedis.NewCacheStore(redisClient)
	}

	repos := newRepositories(db)
	hub := ws.NewHub(logger.Named("ws"))

	notificationService := service.NewNotificationService(publisher, hub, logger.Named("notification"))
	driverDirectory := service.NewDriverDirectory(repos.drivers, locationStore, logger.Named("drivers"))
	passengerService := service.NewPassengerService(repos.passengers)
	invoiceService := service.NewInvoiceService(repos.invoices, repos.trips, cacheStore, notificationService, logger.Named("invoices"))
	tripService := service.NewTripService(repos.trips, invoiceService, newFarePolicy(cfg.Fare), notificationService, logger.Named("trips"))
	dispatchService := service.NewDispatchService(
		repos.passengers,
		driverDirectory,
		tripService,
		lockStore,
		service.DispatchConfig{RadiusKm: cfg.Dispatch.RadiusKm, MaxResults: cfg.Dispatch.MaxResults},
		logger.Named("dispatch"),
	)

	router := app.NewRouter(app.RouterDeps{
		HealthHandler:    handler.NewHealthHandler(),
		DriverHandler:    handler.NewDriverHandler(driverDirectory),
		PassengerHandler: handler.NewPassengerHandler(passengerService, dispatchService),
		TripHandler:      handler.NewTripHandler(dispatchService, tripService),
		InvoiceHandler:   handler.NewInvoiceHandler(invoiceService),
		WSHandler:        handler.NewWSHandler(hub, logger.Named("ws")),
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
		Logger:           logger.Named("http"),
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, driverDirectory
}
