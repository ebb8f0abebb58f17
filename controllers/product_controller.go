package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "storefront-service/common/errors"
	"storefront-service/repository"
	"storefront-service/services"
)

type ProductController struct {
	productService services.ProductService
}

func NewProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// GetProducts lists active products, newest first
func (pc *ProductController) GetProducts(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	filter := repository.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		Limit:    limit,
	}

	list, err := pc.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
