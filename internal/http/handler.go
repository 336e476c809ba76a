package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/service"
)

const maxImageSize = 10 << 20

type Handler struct {
	scanService *service.ScanService
	log         zerolog.Logger
}

func NewHandler(scanService *service.ScanService, log zerolog.Logger) *Handler {
	return &Handler{
		scanService: scanService,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	{
		api.POST("/scans", h.createScan)
		api.GET("/scans", h.listScans)
		api.GET("/scans/:id", h.getScan)
		api.DELETE("/scans/:id", h.deleteScan)
		api.POST("/analyze", h.analyze)
		api.GET("/stats", h.stats)
		api.GET("/diseases", h.listDiseases)
		api.GET("/diseases/:key", h.getDisease)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"detector": h.scanService.DetectorName(),
	})
}

func (h *Handler) createScan(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("image file is required"))
		return
	}
	if file.Size > maxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("image is too large"))
		return
	}

	threshold, err := parseOptionalFloat(c.PostForm("threshold"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("threshold must be a number"))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.handleError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		h.handleError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	record, err := h.scanService.ProcessImage(c.Request.Context(), data, file.Filename, threshold)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) analyze(c *gin.Context) {
	var req scan.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.scanService.Analyze(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listScans(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	scans, err := h.scanService.ListScans(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(scans))
}

func (h *Handler) getScan(c *gin.Context) {
	record, err := h.scanService.GetScan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) deleteScan(c *gin.Context) {
	if err := h.scanService.DeleteScan(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.scanService.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) listDiseases(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.scanService.ListDiseases()))
}

func (h *Handler) getDisease(c *gin.Context) {
	disease, err := h.scanService.GetDisease(c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(disease))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDetectorUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
