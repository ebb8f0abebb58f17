package routes

import (
	"github.com/gin-gonic/gin"

	"storefront-service/controllers"
	"storefront-service/middleware"
)

// Controllers groups the handlers the router wires up
type Controllers struct {
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Admin    *controllers.AdminController
}

func RegisterRoutes(r *gin.Engine, h Controllers, verifier middleware.TokenParser) {
	api := r.Group("/api")

	products := api.Group("/products")
	products.GET("", h.Products.GetProducts)
	products.GET("/:id", h.Products.GetProduct)

	orders := api.Group("/orders")
	orders.POST("/create", middleware.OptionalAuth(verifier), h.Orders.CreateOrder) // guest checkout allowed
	orders.GET("/my", middleware.RequireAuth(verifier), h.Orders.GetMyOrders)
	orders.GET("/:id", middleware.RequireAuth(verifier), h.Orders.GetOrderByID)

	// Gateway callbacks and the payment page are reachable without a session
	payment := api.Group("/payment")
	payment.POST("/webhook", h.Payments.PayHereNotify)
	payment.POST("/cod", h.Payments.ConfirmCOD)
	payment.POST("/payhere/checkout", h.Payments.PayHereCheckout)
	payment.POST("/stripe/intent", h.Payments.CreateStripeIntent)
	payment.POST("/stripe/webhook", h.Payments.StripeWebhook)
	payment.GET("/:orderId", h.Payments.GetPaymentStatus)

	cart := api.Group("/cart")
	cart.Use(middleware.RequireAuth(verifier))
	cart.GET("", h.Cart.GetCart)
	cart.DELETE("", h.Cart.ClearCart)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:itemId", h.Cart.UpdateItem)
	cart.DELETE("/items/:itemId", h.Cart.RemoveItem)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(verifier), middleware.AdminOnly())
	admin.GET("/orders", h.Admin.GetAllOrders)
	admin.PATCH("/orders/:id/status", h.Admin.UpdateOrderStatus)
	admin.DELETE("/cache/products", h.Admin.InvalidateProductCache)
}
