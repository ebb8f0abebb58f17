package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/controllers"
	"storefront-service/models"
	"storefront-service/services"
)

func paymentRouter(svc services.PaymentService) *gin.Engine {
	pc := controllers.NewPaymentController(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/payment/webhook", pc.PayHereNotify)
	r.POST("/api/payment/cod", pc.ConfirmCOD)
	r.POST("/api/payment/payhere/checkout", pc.PayHereCheckout)
	r.POST("/api/payment/stripe/intent", pc.CreateStripeIntent)
	r.POST("/api/payment/stripe/webhook", pc.StripeWebhook)
	r.GET("/api/payment/:orderId", pc.GetPaymentStatus)
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func payhereForm() url.Values {
	return url.Values{
		"merchant_id":      {"1211149"},
		"order_id":         {"64b7f0c2a1b2c3d4e5f60718"},
		"payment_id":       {"320025071"},
		"payhere_amount":   {"9870.00"},
		"payhere_currency": {"LKR"},
		"status_code":      {"2"},
		"status_message":   {"Successfully completed the payment."},
		"method":           {"VISA"},
		"md5sig":           {"A1B2C3"},
	}
}

func TestPayHereNotifyController(t *testing.T) {
	t.Run("verified - plain OK", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandlePayHereNotification", mock.Anything, services.PayHereNotification{
			MerchantID:    "1211149",
			OrderID:       "64b7f0c2a1b2c3d4e5f60718",
			PaymentID:     "320025071",
			Amount:        "9870.00",
			Currency:      "LKR",
			StatusCode:    "2",
			StatusMessage: "Successfully completed the payment.",
			Method:        "VISA",
			MD5Sig:        "A1B2C3",
		}).Return(nil).Once()

		w := postForm(paymentRouter(svc), "/api/payment/webhook", payhereForm())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("signature mismatch - 400 JSON", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("HandlePayHereNotification", mock.Anything, mock.Anything).
			Return(apperrors.BadRequest("Invalid signature")).Once()

		w := postForm(paymentRouter(svc), "/api/payment/webhook", payhereForm())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, w.Body.String())
	})
}

func TestStripeWebhookController(t *testing.T) {
	svc := new(MockPaymentService)
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	svc.On("HandleStripeWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").Return(nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/payment/stripe/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	paymentRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestConfirmCODController(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("success - 200 with order", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ConfirmCOD", mock.Anything, id.Hex()).Return(&models.Order{
			ID:            id,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			PaymentMethod: models.PaymentMethodCOD,
		}, nil).Once()

		w := doJSON(paymentRouter(svc), http.MethodPost, "/api/payment/cod", `{"orderId":"`+id.Hex()+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"paymentMethod":"COD"`)
		svc.AssertExpectations(t)
	})

	t.Run("missing orderId - 400", func(t *testing.T) {
		svc := new(MockPaymentService)
		w := doJSON(paymentRouter(svc), http.MethodPost, "/api/payment/cod", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ConfirmCOD", mock.Anything, mock.Anything)
	})

	t.Run("unknown order - 404", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ConfirmCOD", mock.Anything, id.Hex()).Return(nil, apperrors.NotFound("Order not found")).Once()

		w := doJSON(paymentRouter(svc), http.MethodPost, "/api/payment/cod", `{"orderId":"`+id.Hex()+`"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetPaymentStatusController(t *testing.T) {
	id := primitive.NewObjectID()
	svc := new(MockPaymentService)
	svc.On("GetPaymentStatus", mock.Anything, id.Hex()).Return(&services.PaymentStatusResponse{
		OrderID:       id.Hex(),
		Status:        models.OrderStatusPaid,
		PaymentStatus: models.PaymentStatusCompleted,
		PaymentMethod: models.PaymentMethodPayHere,
		TransactionID: "320025071",
	}, nil).Once()

	w := doJSON(paymentRouter(svc), http.MethodGet, "/api/payment/"+id.Hex(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)
	assert.Contains(t, w.Body.String(), `"transactionId":"320025071"`)
	svc.AssertExpectations(t)
}

func TestGatewayCheckoutControllers(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	t.Run("payhere checkout", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("PayHereCheckout", mock.Anything, id).
			Return(&services.PayHereCheckout{OrderID: id, Amount: "9870.00", Hash: "ABC"}, nil).Once()

		w := doJSON(paymentRouter(svc), http.MethodPost, "/api/payment/payhere/checkout", `{"orderId":"`+id+`"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"hash":"ABC"`)
	})

	t.Run("stripe intent conflict", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("CreateStripeIntent", mock.Anything, id).
			Return(nil, apperrors.Conflict("Order is no longer awaiting payment")).Once()

		w := doJSON(paymentRouter(svc), http.MethodPost, "/api/payment/stripe/intent", `{"orderId":"`+id+`"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
