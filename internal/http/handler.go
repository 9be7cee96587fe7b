package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-analytics-service/internal/http/middleware"
	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/period"
	"fleet-analytics-service/internal/scope"
	"fleet-analytics-service/internal/service"
)

type Handler struct {
	reports *service.ReportService
	log     zerolog.Logger
}

func NewHandler(reports *service.ReportService, log zerolog.Logger) *Handler {
	return &Handler{reports: reports, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/reports")
	protected.Use(authMiddleware)

	protected.GET("/insight", h.getInsight)
	protected.GET("/drill/:dataset", h.getDrill)
	protected.GET("/distribution/:dataset", h.getDistribution)
	protected.GET("/kpis", h.getDerivedKpis)
	protected.GET("/fleet/insight", h.getFleetInsight)
	protected.GET("/users/insight", h.getUserInsight)
}

func (h *Handler) getInsight(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	target, ok := parseTargetOwner(c)
	if !ok {
		return
	}

	report, err := h.reports.GetInsight(c.Request.Context(), principal, target)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) getDrill(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	dataset := model.Dataset(strings.TrimSpace(c.Param("dataset")))
	level := model.DrillLevel(strings.TrimSpace(c.DefaultQuery("level", string(model.LevelYear))))
	parent := strings.TrimSpace(c.Query("value"))
	target, ok := parseTargetOwner(c)
	if !ok {
		return
	}

	buckets, err := h.reports.GetDrill(c.Request.Context(), principal, dataset, level, parent, target)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(buckets))
}

func (h *Handler) getDistribution(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	dataset := model.Dataset(strings.TrimSpace(c.Param("dataset")))
	dimension := strings.TrimSpace(c.Query("dimension"))
	target, ok := parseTargetOwner(c)
	if !ok {
		return
	}

	entries, err := h.reports.GetDistribution(c.Request.Context(), principal, dataset, dimension, target)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entries))
}

func (h *Handler) getDerivedKpis(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	target, ok := parseTargetOwner(c)
	if !ok {
		return
	}

	metrics, err := h.reports.GetDerivedKpis(c.Request.Context(), principal, target)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(metrics))
}

func (h *Handler) getFleetInsight(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	insight, err := h.reports.GetFleetInsight(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(insight))
}

func (h *Handler) getUserInsight(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	insight, err := h.reports.GetUserInsight(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(insight))
}

// parseTargetOwner reads the optional driver filter. A present but
// unparsable value is rejected rather than ignored: dropping it would
// silently widen the query back to the caller's whole scope.
func parseTargetOwner(c *gin.Context) (*uuid.UUID, bool) {
	driverStr := strings.TrimSpace(c.Query("driver"))
	if driverStr == "" {
		return nil, true
	}
	id, err := uuid.Parse(driverStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return nil, false
	}
	return &id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, period.ErrInvalidLevel),
		errors.Is(err, period.ErrInvalidParent),
		errors.Is(err, scope.ErrInvalidScope),
		errors.Is(err, service.ErrInvalidDataset),
		errors.Is(err, service.ErrInvalidDimension):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, scope.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(service.ErrUpstreamUnavailable.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
