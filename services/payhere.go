package services

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PayHereStatusSuccess = "2"
	PayHereStatusFailed  = "-2"
)

// PayHereNotification is the form body PayHere posts to the notify URL
type PayHereNotification struct {
	MerchantID    string `form:"merchant_id"`
	OrderID       string `form:"order_id"`
	PaymentID     string `form:"payment_id"`
	Amount        string `form:"payhere_amount"`
	Currency      string `form:"payhere_currency"`
	StatusCode    string `form:"status_code"`
	StatusMessage string `form:"status_message"`
	Method        string `form:"method"`
	MD5Sig        string `form:"md5sig"`
}

// PayHereSigner computes the MD5 signatures of the PayHere checkout and
// notification schemes.
type PayHereSigner struct {
	merchantID string
	secretHash string
}

func NewPayHereSigner(merchantID, merchantSecret string) *PayHereSigner {
	return &PayHereSigner{
		merchantID: merchantID,
		secretHash: upperMD5(merchantSecret),
	}
}

func (s *PayHereSigner) MerchantID() string {
	return s.merchantID
}

// NotificationSignature is UPPER(MD5(merchant_id + order_id + amount + currency + status_code + UPPER(MD5(secret))))
func (s *PayHereSigner) NotificationSignature(merchantID, orderID, amount, currency, statusCode string) string {
	return upperMD5(merchantID + orderID + amount + currency + statusCode + s.secretHash)
}

// CheckoutHash signs a checkout request. The amount is always formatted with two decimals.
func (s *PayHereSigner) CheckoutHash(orderID string, amount decimal.Decimal, currency string) string {
	return upperMD5(s.merchantID + orderID + FormatAmount(amount) + currency + s.secretHash)
}

// Verify compares the notification's md5sig with the expected signature.
// The comparison is exact.
func (s *PayHereSigner) Verify(n PayHereNotification) bool {
	if n.MD5Sig == "" {
		return false
	}
	return n.MD5Sig == s.NotificationSignature(n.MerchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode)
}

func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
