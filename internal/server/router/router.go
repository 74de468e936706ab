package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/cache"
	"github.com/mamadbah2/palmier/internal/metrics"
	"github.com/mamadbah2/palmier/internal/server/handlers"
)

// Deps groups what the router serves. Metrics, Idempotency and Health are optional.
type Deps struct {
	Plantations *handlers.PlantationHandler
	Operations  *handlers.OperationHandler
	Productions *handlers.ProductionHandler
	Ventes      *handlers.VenteHandler
	Cash        *handlers.CashHandler
	Reports     *handlers.ReportHandler
	Webhook     *handlers.WebhookHandler

	Metrics     *metrics.Registry
	Idempotency cache.IdempotencyStore
	Health      func(ctx context.Context) error
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Deps, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Webhook != nil {
		r.GET("/webhook", deps.Webhook.Verify)
		r.POST("/webhook", deps.Webhook.Receive)
		r.POST("/send-message", deps.Webhook.SendMessage)
	}

	api := r.Group("/api")

	if h := deps.Plantations; h != nil {
		g := api.Group("/plantations")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.GET("/:id/stats", h.Stats)
	}

	if h := deps.Operations; h != nil {
		g := api.Group("/operations")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/monthly-stats", h.MonthlyStats)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Productions; h != nil {
		g := api.Group("/productions")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/stats", h.Stats)
		g.GET("/stock-alerts", h.StockAlerts)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Ventes; h != nil {
		g := api.Group("/ventes")
		g.GET("", h.List)
		if deps.Idempotency != nil {
			g.POST("", idempotencyMiddleware(deps.Idempotency, logger), h.Create)
		} else {
			g.POST("", h.Create)
		}
		g.GET("/stats", h.Stats)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Replace)
		g.PATCH("/:id", h.Patch)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Cash; h != nil {
		g := api.Group("/cash-movements")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/balance", h.Balance)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Reports; h != nil {
		g := api.Group("/reports")
		g.GET("/weekly", h.Weekly)
		g.GET("/weekly/history", h.History)
	}

	logger.Info("router initialized")
	return r
}
