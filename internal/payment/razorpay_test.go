package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateOrderConvertsRupeesToPaise(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		user, _, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":36000,"currency":"INR","receipt":"BP-XYZ123","status":"created"}`))
	}))
	t.Cleanup(srv.Close)

	g := NewRazorpayGateway(srv.URL, "key_test", "secret_test", zap.NewNop())
	order, err := g.CreateOrder(context.Background(), 360, "INR", "BP-XYZ123")
	require.NoError(t, err)

	assert.Equal(t, float64(36000), gotBody["amount"], "rupees are sent as paise")
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(36000), order.Amount)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"description":"bad key"}}`))
	}))
	t.Cleanup(srv.Close)

	g := NewRazorpayGateway(srv.URL, "key_test", "wrong", zap.NewNop())
	_, err := g.CreateOrder(context.Background(), 100, "INR", "r1")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	g := NewRazorpayGateway("http://unused", "key_test", "secret_test", zap.NewNop())

	mac := hmac.New(sha256.New, []byte("secret_test"))
	mac.Write([]byte("order_abc|pay_def"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, g.VerifySignature("order_abc", "pay_def", valid))
	assert.False(t, g.VerifySignature("order_abc", "pay_def", "tampered"))
	assert.False(t, g.VerifySignature("order_abc", "pay_other", valid))
}
