package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"menud/internal/common"
)

// NewRouter wires the HTTP surface. Recovery is gin's; request logging goes
// through slog so handler logs and access logs share one stream.
func NewRouter(h *Handlers, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/menus/upload", h.UploadMenu)
		api.GET("/menus/export", h.ExportMenus)
		api.GET("/analytics", h.Analytics)
	}

	return router
}

// requestLogger tags each request with an id and logs one line on completion.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := uuid.New().String()
		c.Request = c.Request.WithContext(
			common.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-ID", rid)

		start := time.Now()
		c.Next()

		logger.Info("http.request",
			"req_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
