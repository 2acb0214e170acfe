package handler

import (
	"net/http"

	"inventory-api/internal/middleware"
	"inventory-api/internal/model"
	"inventory-api/internal/service"
	"inventory-api/pkg/pagination"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
	orderService   service.OrderService
}

func NewProductHandler(productService service.ProductService, orderService service.OrderService) *ProductHandler {
	return &ProductHandler{productService: productService, orderService: orderService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.List)
		products.GET("/search", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.Search)
		products.GET("/categories", middleware.RequireRole(model.RoleAdmin, model.RoleUser), h.Categories)
		products.POST("", middleware.RequireRole(model.RoleAdmin), h.Add)
		products.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.Update)
		products.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.Delete)
	}
}

// List returns the paginated product catalog
// @Summary      List products
// @Description  Retrieves a paginated product list; cost price is included for admins only
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Param        sort   query     string  false  "Sort column (name, company, category, stock_quantity, selling_price)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	role := c.GetString("userRole")

	products, total, err := h.productService.List(c.Request.Context(), role, params.Page, params.Limit, c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// Search finds products by name
// @Summary      Search products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        name  query     string  true  "Product name fragment"
// @Success      200   {object}  response.Response{data=[]service.ProductResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	role := c.GetString("userRole")

	products, err := h.productService.Search(c.Request.Context(), role, c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// Categories lists the distinct product categories
// @Summary      List categories
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /api/products/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.orderService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// Add creates a product or restocks an existing one
// @Summary      Add product
// @Description  Creates a product; when name and company already exist, increments stock and overwrites prices
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddProductRequest  true  "Add Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) Add(c *gin.Context) {
	var req service.AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role := c.GetString("userRole")
	product, err := h.productService.AddProduct(c.Request.Context(), role, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// Update overwrites a product's prices and stock
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role := c.GetString("userRole")
	product, err := h.productService.UpdateProduct(c.Request.Context(), role, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// Delete soft-deletes a product
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "product deleted"))
}
