package handlers

import (
	"errors"
	"net/http"

	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
)

type DealHandler struct {
	service *services.DealService
}

func NewDealHandler(service *services.DealService) *DealHandler {
	return &DealHandler{service: service}
}

func (h *DealHandler) ListDeals(c *gin.Context) {
	deals, err := h.service.List(c.Request.Context(), OrgID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list deals", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, deals)
}

func (h *DealHandler) GetDeal(c *gin.Context) {
	deal, err := h.service.Get(c.Request.Context(), OrgID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get deal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) CreateDeal(c *gin.Context) {
	var req services.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	deal, err := h.service.Create(c.Request.Context(), OrgID(c), UserID(c), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create deal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *DealHandler) UpdateDeal(c *gin.Context) {
	var req services.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	deal, err := h.service.Update(c.Request.Context(), OrgID(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Deal not found"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to update deal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) DeleteDeal(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), OrgID(c), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete deal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func RegisterDealRoutes(r *gin.RouterGroup, handler *DealHandler) {
	deals := r.Group("/deals")
	{
		deals.GET("", handler.ListDeals)
		deals.POST("", handler.CreateDeal)
		deals.GET(":id", handler.GetDeal)
		deals.PUT(":id", handler.UpdateDeal)
		deals.DELETE(":id", handler.DeleteDeal)
	}
}
