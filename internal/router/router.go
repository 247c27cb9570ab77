package router

import (
	"github.com/gin-gonic/gin"

	"oshikake/internal/handler"
	"oshikake/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	ingestH *handler.IngestHandler,
	orderH *handler.OrderHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	files := v1.Group("/files")
	files.POST("/upload", ingestH.Upload)

	ingest := v1.Group("/ingest")
	ingest.POST("/events", ingestH.Events)

	orders := v1.Group("/orders")
	orders.GET("", orderH.List)
	orders.GET("/stats", orderH.Stats)
	orders.GET("/export", orderH.Export)
	orders.GET("/:id", orderH.Get)
	orders.GET("/:id/document", orderH.DocumentURL)
	orders.DELETE("/:id", orderH.Delete)

	return r
}
