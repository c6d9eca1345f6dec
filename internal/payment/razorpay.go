// Package payment integrates the Razorpay order/checkout flow: the
// backend creates an order for the payable fare, the client completes
// checkout, and the backend verifies the returned signature before
// treating the payment as settled.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Order is a payment order created at the gateway. Amount is in the
// currency's smallest unit (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the payment provider contract used by the application
// services.
type Gateway interface {
	CreateOrder(ctx context.Context, amountRupees int64, currency, receipt string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayGateway talks to the Razorpay Orders API with basic-auth
// key credentials.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	logger    *zap.Logger
}

// NewRazorpayGateway creates a gateway client.
func NewRazorpayGateway(baseURL, keyID, keySecret string, logger *zap.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// CreateOrder creates a gateway order for the given fare. The rupee
// amount is converted to paise on the wire.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountRupees int64, currency, receipt string) (Order, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amountRupees * 100,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, err
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("order creation failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return Order{}, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return Order{}, fmt.Errorf("failed to decode order response: %w", err)
	}
	return order, nil
}

// VerifySignature checks the checkout callback signature: an
// HMAC-SHA256 of "orderID|paymentID" under the key secret.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
