package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/resilience"
	"github.com/posturestack/posture-engine/internal/services"
)

// Handler exposes the posture service over HTTP.
type Handler struct {
	service *services.PostureService
	health  *resilience.HealthMonitor
	logger  *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(service *services.PostureService, health *resilience.HealthMonitor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, health: health, logger: logger}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.healthCheck)

	v1 := router.Group("/api/v1")
	v1.POST("/evaluate", h.evaluateFleet)
	v1.POST("/recommendations/generate", h.generateRecommendations)
	v1.GET("/overview", h.overview)
	v1.GET("/services/:id/score", h.serviceScore)
	v1.GET("/services/:id/compliance", h.serviceCompliance)
	v1.GET("/services/:id/trend", h.serviceTrend)
	v1.GET("/services/:id/recommendations", h.serviceRecommendations)
}

func (h *Handler) healthCheck(c *gin.Context) {
	report := h.health.CheckAll(c.Request.Context())
	status := http.StatusOK
	if report.Status == resilience.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *Handler) evaluateFleet(c *gin.Context) {
	result, err := h.service.EvaluateFleet(c.Request.Context())
	if err != nil {
		h.respondError(c, "fleet evaluation failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) generateRecommendations(c *gin.Context) {
	recs, err := h.service.GenerateRecommendations(c.Request.Context())
	if err != nil {
		h.respondError(c, "recommendation generation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *Handler) overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.respondError(c, "overview failed", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) serviceScore(c *gin.Context) {
	snapshot, err := h.service.LatestScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "score lookup failed", err)
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no score snapshot for service"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) serviceCompliance(c *gin.Context) {
	result, err := h.service.Compliance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "compliance evaluation failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) serviceTrend(c *gin.Context) {
	result, err := h.service.Trend(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "trend analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) serviceRecommendations(c *gin.Context) {
	recs, err := h.service.Recommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "recommendation lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		h.logger.Error(msg, slog.Any("error", err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cfgErr.Error()})
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
