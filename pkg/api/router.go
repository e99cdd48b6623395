package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/airsync/pkg/api/handlers"
	"github.com/urmzd/airsync/pkg/engine"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine  *gin.Engine
	monitor engine.Monitor
	backend string
	metrics http.Handler
}

// NewRouter creates the API router. backend is reported by /health ("" when
// offline); metrics may be nil.
func NewRouter(monitor engine.Monitor, backend string, metrics http.Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	g := gin.New()
	SetupMiddleware(g)

	router := &Router{
		engine:  g,
		monitor: monitor,
		backend: backend,
		metrics: metrics,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.backend)
	r.engine.GET("/health", healthHandler.Health)

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		stateHandler := handlers.NewStateHandler(r.monitor)
		v1.GET("/state", stateHandler.GetState)
		v1.GET("/state/events", stateHandler.Events)
		v1.GET("/devices", stateHandler.ListDevices)

		controlHandler := handlers.NewControlHandler(r.monitor)
		v1.PUT("/selection", controlHandler.SelectDevice)
		v1.POST("/fan/toggle", controlHandler.ToggleFan)
		v1.GET("/aqi", controlHandler.ClassifyAQI)
	}
}

// Handler exposes the router as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}
