package handlers

import (
	"errors"
	"net/http"

	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *services.NotificationService
	hub     *services.NotificationHub
}

func NewNotificationHandler(service *services.NotificationService, hub *services.NotificationHub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.List(c.Request.Context(), OrgID(c), UserID(c), unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list notifications", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.service.MarkRead(c.Request.Context(), OrgID(c), UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to mark read", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "read"})
}

// Subscribe upgrades to a websocket bound to the authenticated user and
// streams notifications as they are created.
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	h.hub.HandleWebSocket(c, UserID(c))
}

func RegisterNotificationRoutes(r *gin.RouterGroup, handler *NotificationHandler) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", handler.ListNotifications)
		notifications.PUT(":id/read", handler.MarkRead)
		notifications.GET("/ws", handler.Subscribe)
	}
}
