package handler

import (
	"net/http"
	"strconv"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	transactionService service.TransactionService
}

func NewTransactionHandler(transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/api/transactions")
	{
		transactions.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.List)
		transactions.POST("/pay", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.Pay)
		transactions.POST("/:id/rollback", middleware.RequireRole(model.RoleAdmin), h.Rollback)
	}
	// Gateway callback authenticates by signature, not by user token.
	router.POST("/api/payments/callback", h.GatewayCallback)
}

// GatewayCallbackPayload mirrors what the payment gateway posts back.
type GatewayCallbackPayload struct {
	OrderID string `json:"order_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// List returns the latest transactions; admins also get income rollups
// @Summary      List transactions
// @Description  Returns the most recent ledger entries. Admin responses include net cash/online income and profit rollups
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (default 50)"
// @Success      200    {object}  response.Response{data=service.TransactionReport}
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	role := c.GetString("userRole")

	report, err := h.transactionService.List(c.Request.Context(), role, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Pay settles a pending order
// @Summary      Pay order
// @Description  Validates the paid amount against the order total, records the payment mode and completes the order
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PayOrderRequest  true  "Pay Order Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/pay [post]
func (h *TransactionHandler) Pay(c *gin.Context) {
	var req service.PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	txID, err := h.transactionService.Pay(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"transaction_id": txID}))
}

// Rollback refunds a transaction
// @Summary      Rollback transaction
// @Description  Appends a refund entry and reverts the order to pending. Stock is not restored
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transactions/{id}/rollback [post]
func (h *TransactionHandler) Rollback(c *gin.Context) {
	refundID, err := h.transactionService.Rollback(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"refund_id": refundID}))
}

// GatewayCallback receives the asynchronous payment confirmation
// @Summary      Payment gateway callback
// @Description  Settles the order when the gateway reports SUCCESS; every callback is acknowledged
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.GatewayCallbackPayload  true  "Gateway Callback Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/payments/callback [post]
func (h *TransactionHandler) GatewayCallback(c *gin.Context) {
	var payload GatewayCallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.transactionService.ConfirmGatewayPayment(c.Request.Context(), payload.OrderID, payload.Status); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "acknowledged"))
}
