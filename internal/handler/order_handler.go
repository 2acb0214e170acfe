package handler

import (
	"net/http"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/pagination"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// orderSortColumns whitelists the order-by values accepted on order listing.
var orderSortColumns = map[string]string{
	"order_date":  "order_date",
	"total_price": "total_price",
	"status":      "status",
}

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	orders.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.PUT("/:id", h.Update)
		orders.DELETE("/:id", h.Delete)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/paid", h.MarkPaid)
		orders.POST("/:id/coupon", h.ApplyCoupon)
	}
}

// CreateOrderPayload is a tagged request body: exactly one of sale,
// purchase, personal must be present, matching transaction_type.
type CreateOrderPayload struct {
	TransactionType string                 `json:"transaction_type" binding:"required,oneof=sale purchase personal"`
	PaymentMode     string                 `json:"payment_mode" binding:"required,oneof=cash online"`
	Sale            *service.SaleOrder     `json:"sale"`
	Purchase        *service.PurchaseOrder `json:"purchase"`
	Personal        *service.PersonalOrder `json:"personal"`
}

// bodyMatchesType reports whether the variant body present is exactly the
// one the declared transaction_type names.
func (p *CreateOrderPayload) bodyMatchesType() bool {
	switch p.TransactionType {
	case model.TxTypeSale:
		return p.Sale != nil && p.Purchase == nil && p.Personal == nil
	case model.TxTypePurchase:
		return p.Purchase != nil && p.Sale == nil && p.Personal == nil
	case model.TxTypePersonal:
		return p.Personal != nil && p.Sale == nil && p.Purchase == nil
	}
	return false
}

type ApplyCouponPayload struct {
	CouponCode string          `json:"coupon_code" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total" binding:"required"`
}

// Create books a sale, purchase or personal order
// @Summary      Create order
// @Description  Atomically creates an order, adjusts stock and writes the paired ledger transaction
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.CreateOrderPayload  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.CreateOrderResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var payload CreateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if !payload.bodyMatchesType() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Request body must carry exactly the "+payload.TransactionType+" variant"))
		return
	}

	req := service.CreateOrderRequest{
		UserID:      c.GetString("userID"),
		PaymentMode: payload.PaymentMode,
		Sale:        payload.Sale,
		Purchase:    payload.Purchase,
		Personal:    payload.Personal,
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// List returns orders with status counters
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Param        sort   query     string  false  "Sort column"
// @Success      200    {object}  response.Response{data=service.OrderListResult}
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	sort := pagination.ParseSort(c, orderSortColumns, "order_date DESC")

	result, err := h.orderService.ListOrders(c.Request.Context(), params.Page, params.Limit, sort)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Get returns one order with its line items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Update replaces a sale order's line items
// @Summary      Update order
// @Description  Restores the old items' stock, applies the new item set and reprices the order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.CreateOrderResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.orderService.UpdateOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Delete removes an order and restores its stock
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "order deleted"))
}

// Cancel moves a pending order to canceled and restores sale stock
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	if err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "order canceled"))
}

// MarkPaid completes a pending order
// @Summary      Mark order paid
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	if err := h.orderService.MarkPaid(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "order completed"))
}

// ApplyCoupon re-prices an order's transaction against a coupon
// @Summary      Apply coupon
// @Description  Evaluates the coupon against the pre-discount total and records the new discount on the order's transaction
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      handler.ApplyCouponPayload  true  "Apply Coupon Payload"
// @Success      200      {object}  response.Response{data=service.ApplyCouponResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/coupon [post]
func (h *OrderHandler) ApplyCoupon(c *gin.Context) {
	var payload ApplyCouponPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.orderService.ApplyCoupon(c.Request.Context(), c.Param("id"), payload.CouponCode, payload.OrderTotal)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
