package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/server/handlers"
)

// Handlers bundles the HTTP adapters served under /api/v1.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Outflow   *handlers.OutflowHandler
	Settings  *handlers.SettingsHandler
	Listing   *handlers.ListingHandler
}

// New wires the Gin engine with required routes and middlewares. authenticate
// guards every /api/v1 route; metrics is served on /metrics.
func New(h Handlers, authenticate gin.HandlerFunc, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api/v1", authenticate)
	api.GET("/me", h.Inventory.Me)

	inflow := api.Group("/inflow")
	inflow.POST("", h.Inventory.Create)
	inflow.GET("", h.Inventory.ListInflow)
	inflow.GET("/search", h.Inventory.Search)
	inflow.GET("/:id", h.Inventory.Get)
	inflow.PUT("/:id", h.Inventory.Update)
	inflow.DELETE("/:id", h.Inventory.Delete)
	inflow.GET("/:id/quote", h.Outflow.Quote)

	out := api.Group("/outflow")
	out.POST("", h.Outflow.Start)
	out.GET("", h.Inventory.ListOutflow)
	out.GET("/export.xlsx", h.Outflow.Export)
	api.GET("/workflows/:id", h.Outflow.Workflow)

	settings := api.Group("/settings")
	settings.GET("/storage-areas", h.Settings.ListStorageAreas)
	settings.POST("/storage-areas", h.Settings.AddStorageArea)
	settings.DELETE("/storage-areas/:id", h.Settings.DeleteStorageArea)
	settings.GET("/item-types", h.Settings.ListItemTypes)
	settings.POST("/item-types", h.Settings.AddItemType)
	settings.DELETE("/item-types/:id", h.Settings.DeleteItemType)

	listings := api.Group("/listings")
	listings.POST("", h.Listing.Open)
	listings.GET("/:id", h.Listing.Get)
	listings.POST("/:id/near-end", h.Listing.NearEnd)
	listings.DELETE("/:id", h.Listing.Close)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
