package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.BreedingHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/farms/:farm_id/animals/:animal_id/events", handler.RecordEvent)
	r.GET("/farms/:farm_id/animals/:animal_id/phase", handler.Phase)
	r.POST("/farms/:farm_id/animals/:animal_id/phase/recompute", handler.RecomputePhase)
	r.GET("/farms/:farm_id/events", handler.ListEvents)
	r.GET("/farms/:farm_id/breeding-summary", handler.Summary)
	r.PATCH("/events/:event_id", handler.UpdateEvent)
	r.DELETE("/events/:event_id", handler.DeleteEvent)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

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

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
