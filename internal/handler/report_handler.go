package handler

import (
	"net/http"
	"time"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/sales", middleware.RequireRole(model.RoleAdmin), h.Sales)
		reports.GET("/inventory", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.Inventory)
	}
}

// Sales returns revenue, cost and profit rollups for a date range
// @Summary      Sales report
// @Description  Aggregates completed orders between from and to (YYYY-MM-DD, defaults to the last 30 days)
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Range start (YYYY-MM-DD)"
// @Param        to    query     string  false  "Range end (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=service.SalesReport}
// @Failure      400   {object}  response.Response
// @Router       /api/reports/sales [get]
func (h *ReportHandler) Sales(c *gin.Context) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day.
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	report, err := h.reportService.Sales(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Inventory returns stock levels and valuation
// @Summary      Inventory report
// @Description  Total stock, low and out-of-stock products and inventory value; cost valuation is admin-only
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InventoryReport}
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) Inventory(c *gin.Context) {
	role := c.GetString("userRole")

	report, err := h.reportService.Inventory(c.Request.Context(), role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
