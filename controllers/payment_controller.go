package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/services"
)

// maxWebhookBody bounds what is read from a gateway callback
const maxWebhookBody = int64(65536)

type PaymentController struct {
	paymentService services.PaymentService
	logger         *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, log *zap.Logger) *PaymentController {
	return &PaymentController{paymentService: paymentService, logger: log}
}

type orderRefRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// PayHereNotify receives PayHere's server-to-server notification. Once the
// signature checks out the gateway always gets a plain OK.
func (pc *PaymentController) PayHereNotify(c *gin.Context) {
	var n services.PayHereNotification
	if err := c.ShouldBind(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification", "details": err.Error()})
		return
	}

	pc.logger.Info("Processing PayHere notification",
		zap.String("order_id", n.OrderID),
		zap.String("status_code", n.StatusCode),
		logger.RequestField(c),
	)

	if err := pc.paymentService.HandlePayHereNotification(c.Request.Context(), n); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.String(http.StatusOK, "OK")
}

// StripeWebhook receives Stripe events; the raw body is needed for signature checks
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to read request body"})
		return
	}

	if err := pc.paymentService.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// ConfirmCOD switches an order to cash on delivery
func (pc *PaymentController) ConfirmCOD(c *gin.Context) {
	var req orderRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	order, err := pc.paymentService.ConfirmCOD(c.Request.Context(), req.OrderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cash on delivery confirmed", "order": order})
}

func (pc *PaymentController) GetPaymentStatus(c *gin.Context) {
	status, err := pc.paymentService.GetPaymentStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (pc *PaymentController) PayHereCheckout(c *gin.Context) {
	var req orderRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	checkout, err := pc.paymentService.PayHereCheckout(c.Request.Context(), req.OrderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

func (pc *PaymentController) CreateStripeIntent(c *gin.Context) {
	var req orderRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	intent, err := pc.paymentService.CreateStripeIntent(c.Request.Context(), req.OrderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}
