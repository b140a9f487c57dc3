package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taxi24/internal/handler"
	"taxi24/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	HealthHandler    *handler.HealthHandler
	DriverHandler    *handler.DriverHandler
	PassengerHandler *handler.PassengerHandler
	TripHandler      *handler.TripHandler
	InvoiceHandler   *handler.InvoiceHandler
	WSHandler        *handler.WSHandler
	RedisClient      *redis.Client // Optional; enables idempotent replays
	NewRelicApp      *newrelic.Application
	Logger           *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(deps.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient, deps.Logger))

	router.GET("/health", deps.HealthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		drivers := v1.Group("/drivers")
		{
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/available", deps.DriverHandler.GetAvailable)
			drivers.GET("/nearby", deps.DriverHandler.Nearby)
			drivers.GET("/:id", deps.DriverHandler.Get)
			drivers.POST("", deps.DriverHandler.Save)
			drivers.PUT("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.PUT("/:id/availability", deps.DriverHandler.SetAvailability)
		}

		passengers := v1.Group("/passengers")
		{
			passengers.GET("", deps.PassengerHandler.GetAll)
			passengers.GET("/:id", deps.PassengerHandler.Get)
			passengers.POST("", deps.PassengerHandler.Save)
			passengers.GET("/:id/nearby-drivers", deps.PassengerHandler.NearbyDrivers)
		}

		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/active", deps.TripHandler.GetActive)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("", deps.TripHandler.RequestTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.GET("", deps.InvoiceHandler.GetAll)
			invoices.GET("/:id", deps.InvoiceHandler.Get)
			invoices.GET("/trip/:tripId", deps.InvoiceHandler.GetByTrip)
			invoices.GET("/passenger/:passengerId", deps.InvoiceHandler.GetByPassenger)
			invoices.GET("/driver/:driverId", deps.InvoiceHandler.GetByDriver)
		}

		v1.GET("/ws/:subscriberId", deps.WSHandler.Subscribe)
	}

	return router
}
