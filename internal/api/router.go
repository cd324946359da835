package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tracklab/midikit/internal/api/handlers"
	"github.com/tracklab/midikit/internal/api/middleware"
	"github.com/tracklab/midikit/internal/config"
	"github.com/tracklab/midikit/internal/metrics"
	"github.com/tracklab/midikit/internal/services"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, cloudwatch *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(middleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(middleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(middleware.RequestTracking())

	// CORS middleware
	router.Use(middleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.Health)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	compositionService := services.NewCompositionService(db)
	sentryMetrics := metrics.NewSentryMetrics()
	compositionsHandler := handlers.NewCompositionsHandler(compositionService, cfg, cloudwatch, sentryMetrics)

	// Protected API routes v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg))
	{
		v1.POST("/compositions", compositionsHandler.Build)
		v1.POST("/compositions/import", compositionsHandler.Import)
		v1.GET("/compositions", compositionsHandler.List)
		v1.GET("/compositions/:id", compositionsHandler.Get)
		v1.GET("/compositions/:id/tracks/:index/events", compositionsHandler.TrackEvents)
		v1.GET("/compositions/:id/download", compositionsHandler.Download)
		v1.POST("/compositions/:id/merge", compositionsHandler.Merge)
		v1.DELETE("/compositions/:id", compositionsHandler.Delete)
	}

	return router
}
