package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "storefront-service/common/errors"
	"storefront-service/controllers"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"
)

func TestProductController(t *testing.T) {
	svc := new(MockProductService)
	pc := controllers.NewProductController(svc)
	r := gin.New()
	r.GET("/api/products", pc.GetProducts)
	r.GET("/api/products/:id", pc.GetProduct)

	svc.On("ListProducts", mock.Anything, repository.ProductFilter{Category: "tops", Search: "noir", Page: 3, Limit: 12}).
		Return(&services.ProductList{Products: []models.Product{{Name: "Noir Tee"}}}, nil).Once()
	w := doJSON(r, http.MethodGet, "/api/products?category=tops&search=%20noir%20&page=3&limit=12", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Noir Tee")

	svc.On("GetProduct", mock.Anything, "missing").Return(nil, apperrors.NotFound("Product not found")).Once()
	w = doJSON(r, http.MethodGet, "/api/products/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.AssertExpectations(t)
}

func cartRouter(svc services.CartService, userID string) *gin.Engine {
	cc := controllers.NewCartController(svc)
	r := gin.New()
	r.Use(asUser(userID, "authenticated"))
	r.GET("/api/cart", cc.GetCart)
	r.POST("/api/cart/items", cc.AddItem)
	r.PUT("/api/cart/items/:itemId", cc.UpdateItem)
	r.DELETE("/api/cart/items/:itemId", cc.RemoveItem)
	r.DELETE("/api/cart", cc.ClearCart)
	return r
}

func TestCartController(t *testing.T) {
	productID := primitive.NewObjectID().Hex()

	t.Run("add item", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("AddItem", mock.Anything, "user-1", &services.AddCartItemRequest{ProductID: productID, VariantID: "NT-BLK-M", Quantity: 2}).
			Return(&models.Cart{UserID: "user-1", Items: []models.CartItem{{VariantID: "NT-BLK-M", Quantity: 2}}}, nil).Once()

		w := doJSON(cartRouter(svc, "user-1"), http.MethodPost, "/api/cart/items",
			`{"productId":"`+productID+`","variantId":"NT-BLK-M","quantity":2}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("add item rejects zero quantity", func(t *testing.T) {
		svc := new(MockCartService)
		w := doJSON(cartRouter(svc, "user-1"), http.MethodPost, "/api/cart/items",
			`{"productId":"`+productID+`","variantId":"NT-BLK-M","quantity":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("update and remove", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("UpdateItem", mock.Anything, "user-1", "item-1", 4).Return(&models.Cart{UserID: "user-1"}, nil).Once()
		svc.On("RemoveItem", mock.Anything, "user-1", "item-1").Return(nil, apperrors.NotFound("Cart item not found")).Once()
		svc.On("ClearCart", mock.Anything, "user-1").Return(nil).Once()
		r := cartRouter(svc, "user-1")

		assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/api/cart/items/item-1", `{"quantity":4}`).Code)
		assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/api/cart/items/item-1", "").Code)
		assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/api/cart", "").Code)
		svc.AssertExpectations(t)
	})

	t.Run("anonymous - 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doJSON(cartRouter(new(MockCartService), ""), http.MethodGet, "/api/cart", "").Code)
	})
}

func TestAdminController(t *testing.T) {
	orders := new(MockOrderService)
	products := new(MockProductService)
	ac := controllers.NewAdminController(orders, products)
	r := gin.New()
	r.Use(asUser("admin-1", middleware.AdminRole))
	r.GET("/api/admin/orders", ac.GetAllOrders)
	r.PATCH("/api/admin/orders/:id/status", ac.UpdateOrderStatus)
	r.DELETE("/api/admin/cache/products", ac.InvalidateProductCache)

	id := primitive.NewObjectID().Hex()

	orders.On("ListOrders", mock.Anything, models.OrderStatusPaid, 1, 10).
		Return(&services.OrderList{Orders: []models.Order{}}, nil).Once()
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/admin/orders?status=paid", "").Code)

	orders.On("UpdateOrderStatus", mock.Anything, id, models.OrderStatusShipped).
		Return(&models.Order{Status: models.OrderStatusShipped}, nil).Once()
	w := doJSON(r, http.MethodPatch, "/api/admin/orders/"+id+"/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"SHIPPED"`)

	orders.On("UpdateOrderStatus", mock.Anything, id, models.OrderStatus("LOST")).
		Return(nil, apperrors.BadRequest("Invalid order status")).Once()
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, "/api/admin/orders/"+id+"/status", `{"status":"lost"}`).Code)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, "/api/admin/orders/"+id+"/status", `{}`).Code)

	products.On("InvalidateCache", mock.Anything, "").Return(nil).Once()
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/api/admin/cache/products", "").Code)

	orders.AssertExpectations(t)
	products.AssertExpectations(t)
}
