package handler

import (
	"net/http"
	"strconv"

	"inventory-api/internal/query"
	"inventory-api/internal/service"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/pagination"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("/alerts", h.GetAlerts)
		inventory.PUT("/:id/quantity", h.UpdateQuantity)
		inventory.GET("/:id/movements", h.ListMovements)
	}
}

// GetAlerts
// @Summary      Expiry and low stock alerts
// @Description  Expiry buckets are keyed "<n>Month" and list available units expiring within n months
// @Tags         inventory
// @Produce      json
// @Param        type       query     string  false  "expiry or lowStock, both when omitted"
// @Param        months     query     string  false  "Comma separated horizons, default 1,3,6"
// @Param        threshold  query     int     false  "Low stock threshold"
// @Success      200        {object}  response.Response{data=object}
// @Failure      422        {object}  response.Response
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) GetAlerts(c *gin.Context) {
	months, err := query.ParseMonths(c.Query("months"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	req := service.AlertsRequest{Type: c.Query("type"), Months: months}
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperror.Validation("Invalid threshold value: " + raw))
			return
		}
		req.Threshold = &threshold
	}

	alerts, err := h.inventoryService.GetAlerts(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, alerts))
}

// UpdateQuantity
// @Summary      Set the stock counter of a bulk product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Product ID"
// @Param        payload  body      service.UpdateQuantityRequest  true  "New quantity"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/{id}/quantity [put]
func (h *InventoryHandler) UpdateQuantity(c *gin.Context) {
	var req service.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid quantity value."))
		return
	}

	product, err := h.inventoryService.UpdateQuantity(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"product": product}))
}

// ListMovements
// @Summary      Stock movement history of a product
// @Tags         inventory
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      404    {object}  response.Response
// @Router       /api/inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page := pagination.Parse(c)

	movements, meta, err := h.inventoryService.ListMovements(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"movements":  movements,
		"pagination": meta,
	}))
}
