package router

import (
	"github.com/gin-gonic/gin"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"parsearena/internal/handler"
	"parsearena/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	parseH *handler.ParseHandler,
	docH *handler.DocumentHandler,
	battleH *handler.BattleHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))

	v1 := r.Group("/api/v1")

	// Comparison routes
	parse := v1.Group("/parse")
	parse.POST("/compare", parseH.Compare)
	parse.POST("/compare/stream", parseH.CompareStream)
	parse.POST("/cost", parseH.Cost)
	v1.GET("/providers", parseH.Providers)

	// Document routes
	docs := v1.Group("/documents")
	docs.POST("", docH.Upload)
	docs.GET("/:ref", docH.GetByRef)

	// Battle routes
	battles := v1.Group("/battles")
	battles.POST("", battleH.Create)
	battles.GET("", battleH.List)
	battles.GET("/export", battleH.Export)
	battles.GET("/:id", battleH.GetByID)
	battles.POST("/:id/feedback", battleH.SubmitFeedback)

	return r
}
