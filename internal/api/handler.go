package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ExportReader serves serialized unified exports
type ExportReader interface {
	ProductsJSON(ctx context.Context) ([]byte, error)
	OrdersJSON(ctx context.Context) ([]byte, error)
}

// StatsReader reports mirrored row counts
type StatsReader interface {
	GetStats(ctx context.Context) (*store.Stats, error)
}

// Handler contains HTTP handlers
type Handler struct {
	reader ExportReader
	stats  StatsReader
}

// NewHandler creates a new HTTP handler
func NewHandler(reader ExportReader, stats StatsReader) *Handler {
	return &Handler{
		reader: reader,
		stats:  stats,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/orders", h.listOrders)
		v1.GET("/stats", h.getStats)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if _, err := h.stats.GetStats(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	h.writeExport(c, "products", h.reader.ProductsJSON)
}

func (h *Handler) listOrders(c *gin.Context) {
	h.writeExport(c, "orders", h.reader.OrdersJSON)
}

func (h *Handler) writeExport(c *gin.Context, resource string, load func(context.Context) ([]byte, error)) {
	data, err := load(c.Request.Context())
	if err != nil {
		util.GetLogger().Error("Failed to read export", zap.String("resource", resource), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read " + resource,
			"details": err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read stats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
