package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"motodispatch/internal/handler"
	"motodispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler   *handler.RideHandler
	DriverHandler *handler.DriverHandler
	FareHandler   *handler.FareHandler
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
	AuthSecret    string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check and Prometheus metrics.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes, all authenticated.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.AuthSecret))
	{
		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/status", deps.RideHandler.UpdateStatus)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.RegisterDriver)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/status", deps.DriverHandler.SetAvailability)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id/rides", deps.DriverHandler.GetRides)
		}

		// Fare routes.
		v1.POST("/fare/estimate", deps.FareHandler.EstimateFare)
	}

	return router
}
