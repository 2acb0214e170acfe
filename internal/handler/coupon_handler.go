package handler

import (
	"net/http"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	couponService service.CouponService
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

func (h *CouponHandler) RegisterRoutes(router *gin.RouterGroup) {
	coupons := router.Group("/api/coupons")
	coupons.Use(middleware.RequireRole(model.RoleAdmin))
	{
		coupons.GET("", h.List)
		coupons.POST("", h.Create)
		coupons.PATCH("/:code/active", h.SetActive)
	}
}

type SetCouponActivePayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// List returns all coupons
// @Summary      List coupons
// @Tags         coupons
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Coupon}
// @Router       /api/coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, coupons))
}

// Create registers a new coupon
// @Summary      Create coupon
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCouponRequest  true  "Create Coupon Payload"
// @Success      201      {object}  response.Response{data=model.Coupon}
// @Failure      400      {object}  response.Response
// @Router       /api/coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var req service.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	coupon, err := h.couponService.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, coupon))
}

// SetActive toggles a coupon on or off
// @Summary      Toggle coupon
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        code     path      string                          true  "Coupon Code"
// @Param        payload  body      handler.SetCouponActivePayload  true  "Toggle Payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/coupons/{code}/active [patch]
func (h *CouponHandler) SetActive(c *gin.Context) {
	var payload SetCouponActivePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.couponService.SetActive(c.Request.Context(), c.Param("code"), *payload.IsActive); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "coupon updated"))
}
