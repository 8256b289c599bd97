package handlers

import (
	"errors"
	"net/http"

	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
)

// AutomationHandler is the rule authoring surface: tenant-scoped CRUD over
// automation rules. Evaluation itself happens inside the record services.
type AutomationHandler struct {
	service *services.RuleService
}

func NewAutomationHandler(service *services.RuleService) *AutomationHandler {
	return &AutomationHandler{service: service}
}

func (h *AutomationHandler) ListRules(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context(), OrgID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list rules", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *AutomationHandler) GetRule(c *gin.Context) {
	rule, err := h.service.Get(c.Request.Context(), OrgID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get rule", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AutomationHandler) CreateRule(c *gin.Context) {
	var req services.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	rule, err := h.service.Create(c.Request.Context(), OrgID(c), UserID(c), &req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateRuleName) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Rule name already in use"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create rule", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *AutomationHandler) UpdateRule(c *gin.Context) {
	var req services.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	rule, err := h.service.Update(c.Request.Context(), OrgID(c), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
		case errors.Is(err, services.ErrDuplicateRuleName):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Rule name already in use"})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to update rule", Message: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AutomationHandler) DeleteRule(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), OrgID(c), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete rule", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func RegisterAutomationRoutes(r *gin.RouterGroup, handler *AutomationHandler) {
	auto := r.Group("/automations")
	{
		auto.GET("", handler.ListRules)
		auto.POST("", handler.CreateRule)
		auto.GET(":id", handler.GetRule)
		auto.PUT(":id", handler.UpdateRule)
		auto.DELETE(":id", handler.DeleteRule)
	}
}
