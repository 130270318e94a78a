package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/snowops-costcontrol/internal/costengine"
	"github.com/nurpe/snowops-costcontrol/internal/http/middleware"
	"github.com/nurpe/snowops-costcontrol/internal/model"
	"github.com/nurpe/snowops-costcontrol/internal/service"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

type CostService interface {
	ComputeSummary(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.Summary, error)
	ComputeDashboard(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.Dashboard, error)
	ComputeHealth(ctx context.Context, tenantID, projectID uuid.UUID) (*costengine.HealthReport, error)
	ComputeAlerts(ctx context.Context, tenantID, projectID uuid.UUID, thresholdDays int) (*costengine.AlertReport, error)
	ComputeFlowStatus(ctx context.Context, tenantID, projectID uuid.UUID, thresholdDays int) (*costengine.FlowReport, error)
	AttemptTransition(ctx context.Context, input service.TransitionInput) (*workflow.Result, error)
	ListHistory(ctx context.Context, principal model.Principal, projectID uuid.UUID, kind model.EntityKind, entityID uuid.UUID) ([]model.AuditFact, error)
	ExportDashboard(ctx context.Context, tenantID, projectID uuid.UUID) (*service.ExportResult, error)
	ExportReport(ctx context.Context, tenantID, projectID uuid.UUID) (*service.ExportResult, error)
}

type Handler struct {
	cost CostService
	log  zerolog.Logger
}

func NewHandler(cost CostService, log zerolog.Logger) *Handler {
	return &Handler{cost: cost, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/projects/:project_id")
	protected.Use(authMiddleware)

	cost := protected.Group("/cost")
	cost.GET("/summary", h.summary)
	cost.GET("/dashboard", h.dashboard)
	cost.GET("/dashboard/export", h.exportDashboard)
	cost.GET("/report", h.exportReport)
	cost.GET("/health", h.health)
	cost.GET("/alerts", h.alerts)
	cost.GET("/flow-status", h.flowStatus)

	protected.POST("/change-orders/:id/:action", h.transition(model.EntityChangeOrder))
	protected.POST("/certificates/:id/:action", h.transition(model.EntityPaymentCertificate))
	protected.POST("/payments/:id/:action", h.transition(model.EntityActualPayment))

	protected.GET("/change-orders/:id/history", h.history(model.EntityChangeOrder))
	protected.GET("/certificates/:id/history", h.history(model.EntityPaymentCertificate))
	protected.GET("/payments/:id/history", h.history(model.EntityActualPayment))
}

func (h *Handler) summary(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.cost.ComputeSummary(c.Request.Context(), principal.TenantID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) dashboard(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.cost.ComputeDashboard(c.Request.Context(), principal.TenantID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) health(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.cost.ComputeHealth(c.Request.Context(), principal.TenantID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) alerts(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	days, err := parseThresholdDays(c.Query("threshold_days"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	result, err := h.cost.ComputeAlerts(c.Request.Context(), principal.TenantID, projectID, days)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) flowStatus(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	days, err := parseThresholdDays(c.Query("threshold_days"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	result, err := h.cost.ComputeFlowStatus(c.Request.Context(), principal.TenantID, projectID, days)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) exportDashboard(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.cost.ExportDashboard(c.Request.Context(), principal.TenantID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) exportReport(c *gin.Context) {
	principal, projectID, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.cost.ExportReport(c.Request.Context(), principal.TenantID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) transition(kind model.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, projectID, ok := h.scope(c)
		if !ok {
			return
		}
		entityID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": "invalid_input"})
			return
		}
		action, err := model.ParseAction(c.Param("action"))
		if err != nil {
			h.handleError(c, fmt.Errorf("%w: %v", workflow.ErrUnsupportedAction, err))
			return
		}

		result, err := h.cost.AttemptTransition(c.Request.Context(), service.TransitionInput{
			Principal: principal,
			ProjectID: projectID,
			Kind:      kind,
			EntityID:  entityID,
			Action:    action,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h *Handler) history(kind model.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, projectID, ok := h.scope(c)
		if !ok {
			return
		}
		entityID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": "invalid_input"})
			return
		}
		facts, err := h.cost.ListHistory(c.Request.Context(), principal, projectID, kind, entityID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": facts})
	}
}

func (h *Handler) scope(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal", "code": "unauthorized"})
		return model.Principal{}, uuid.Nil, false
	}
	projectID, err := uuid.Parse(strings.TrimSpace(c.Param("project_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id", "code": "invalid_input"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, projectID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_paid"})
	case errors.Is(err, workflow.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_status_transition"})
	case errors.Is(err, workflow.ErrDualApprovalSameUser):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "dual_approval_same_user"})
	case errors.Is(err, workflow.ErrUnsupportedAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unsupported_action"})
	case errors.Is(err, workflow.ErrEntityNotFound), errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "permission_denied"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("cost request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}

func parseThresholdDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, service.ErrInvalidInput
	}
	return days, nil
}
