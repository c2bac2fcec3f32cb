package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"menud/internal/common"
	"menud/internal/export"
	"menud/internal/pipeline"
	"menud/internal/repository"
)

type Handlers struct {
	processor *pipeline.Processor
	analytics repository.AnalyticsRepository
	exporter  *export.Service
	pool      *pgxpool.Pool
	maxUpload int64
	logger    *slog.Logger
}

func NewHandlers(
	processor *pipeline.Processor,
	analytics repository.AnalyticsRepository,
	exporter *export.Service,
	pool *pgxpool.Pool,
	maxUpload int64,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		processor: processor,
		analytics: analytics,
		exporter:  exporter,
		pool:      pool,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Health reports liveness plus a database ping.
func (h *Handlers) Health(c *gin.Context) {
	if h.pool != nil {
		if err := h.pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadMenu accepts a multipart form with a "menu_file" part and runs the
// full ingestion pipeline synchronously. The response status follows the
// error taxonomy: bad documents are the caller's problem, storage failures
// are ours.
func (h *Handlers) UploadMenu(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	file, header, err := c.Request.FormFile("menu_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "menu_file is required",
		})
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("file exceeds %d bytes", h.maxUpload),
		})
		return
	}

	result, err := h.processor.Process(c.Request.Context(), pipeline.Upload{
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		status := common.HTTPStatus(err)
		h.logger.Warn("upload.failed",
			"filename", header.Filename,
			"stage", result.Stage,
			"http_status", status,
			"error", err,
		)
		c.JSON(status, gin.H{
			"status":  "error",
			"message": err.Error(),
			"stage":   result.Stage,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":            "success",
		"message":           "menu processed and stored",
		"menu_id":           result.MenuID,
		"extraction_method": result.ExtractionMethod,
		"pages":             result.Pages,
		"warnings":          result.Warnings,
		"elapsed_ms":        result.Duration.Milliseconds(),
	})
}

// Analytics returns the three reporting views in one payload.
func (h *Handlers) Analytics(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.analytics.ItemsPerRestaurant(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "analytics query failed"})
		return
	}
	dietary, err := h.analytics.DietaryBreakdown(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "analytics query failed"})
		return
	}
	prices, err := h.analytics.PriceAnalysisPerRestaurant(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "analytics query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items_per_restaurant":          items,
		"dietary_distribution":          dietary,
		"price_analysis_per_restaurant": prices,
	})
}

// ExportMenus streams all stored menu items as an XLSX workbook.
func (h *Handlers) ExportMenus(c *gin.Context) {
	data, err := h.exporter.ExportMenusXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "export failed"})
		return
	}

	filename := fmt.Sprintf("menus-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
