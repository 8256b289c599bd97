package handlers

import (
	"errors"
	"net/http"

	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	activities, err := h.service.List(c.Request.Context(), OrgID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list activities", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (h *ActivityHandler) GetActivity(c *gin.Context) {
	activity, err := h.service.Get(c.Request.Context(), OrgID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get activity", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req services.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	activity, err := h.service.Create(c.Request.Context(), OrgID(c), UserID(c), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create activity", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	var req services.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	activity, err := h.service.Update(c.Request.Context(), OrgID(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Activity not found"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to update activity", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), OrgID(c), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Activity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete activity", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func RegisterActivityRoutes(r *gin.RouterGroup, handler *ActivityHandler) {
	activities := r.Group("/activities")
	{
		activities.GET("", handler.ListActivities)
		activities.POST("", handler.CreateActivity)
		activities.GET(":id", handler.GetActivity)
		activities.PUT(":id", handler.UpdateActivity)
		activities.DELETE(":id", handler.DeleteActivity)
	}
}
