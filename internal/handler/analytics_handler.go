package handler

import (
	"net/http"

	"inventory-api/internal/query"
	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("/sales", h.GetSales)
		analytics.GET("/dashboard", h.GetDashboard)
	}
}

// GetSales
// @Summary      Monthly sales rollup
// @Description  period=month&value=YYYY-MM or period=year&value=YYYY, sorted by revenue descending
// @Tags         analytics
// @Produce      json
// @Param        period  query     string  false  "month or year"
// @Param        value   query     string  false  "YYYY-MM or YYYY"
// @Success      200     {object}  response.Response{data=object}
// @Failure      422     {object}  response.Response
// @Router       /api/analytics/sales [get]
func (h *AnalyticsHandler) GetSales(c *gin.Context) {
	filter, err := query.ParseSalesFilter(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	sales, err := h.analyticsService.GetSales(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"salesData": sales}))
}

// GetDashboard
// @Summary      Dashboard counters
// @Description  Product totals, stock alerts, current month revenue, top products and recent orders
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
