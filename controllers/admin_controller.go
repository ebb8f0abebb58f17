package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"
)

// AdminController serves the order desk. Routes are guarded by AdminOnly.
type AdminController struct {
	orderService   services.OrderService
	productService services.ProductService
}

func NewAdminController(orderService services.OrderService, productService services.ProductService) *AdminController {
	return &AdminController{orderService: orderService, productService: productService}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAllOrders returns paginated orders for all users, optionally by status
func (ac *AdminController) GetAllOrders(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))

	result, err := ac.orderService.ListOrders(c.Request.Context(), status, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	order, err := ac.orderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// InvalidateProductCache drops cached catalog pages after edits made directly in the database
func (ac *AdminController) InvalidateProductCache(c *gin.Context) {
	if err := ac.productService.InvalidateCache(c.Request.Context(), c.Query("productId")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product cache invalidated"})
}
