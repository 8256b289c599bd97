package handlers

import (
	"net/http"
	"time"

	"nexcrm/internal/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Ready checks the database connection before reporting ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// MetricsHandler exposes the automation counters.
type MetricsHandler struct {
	hub connectionCounter
}

type connectionCounter interface {
	ConnectedUsers() int
}

func NewMetricsHandler(hub connectionCounter) *MetricsHandler {
	return &MetricsHandler{hub: hub}
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	payload := gin.H{
		"automation": metrics.AutomationSnapshot(),
	}
	if h.hub != nil {
		payload["notification_clients"] = h.hub.ConnectedUsers()
	}
	c.JSON(http.StatusOK, payload)
}
