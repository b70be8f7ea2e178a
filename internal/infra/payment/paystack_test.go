package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"

	"clustercart/config"
	"clustercart/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayForTest(t *testing.T, secretKey string) service.PaymentGateway {
	gateway, err := NewPaystackGateway(Params{
		Config: &config.Config{
			Paystack: &config.PaystackConfig{SecretKey: secretKey, EmailDomain: "pay.clustercart.ng"},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return gateway
}

func signBody(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackGateway_VerifyWebhookSignature(t *testing.T) {
	gateway := newGatewayForTest(t, "sk_test_secret")
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)

	assert.True(t, gateway.VerifyWebhookSignature(body, signBody("sk_test_secret", body)))
}

func TestPaystackGateway_VerifyWebhookSignature_RejectsWrongKey(t *testing.T) {
	gateway := newGatewayForTest(t, "sk_test_secret")
	body := []byte(`{"event":"charge.success"}`)

	assert.False(t, gateway.VerifyWebhookSignature(body, signBody("sk_other_secret", body)))
}

func TestPaystackGateway_VerifyWebhookSignature_RejectsTamperedBody(t *testing.T) {
	gateway := newGatewayForTest(t, "sk_test_secret")
	body := []byte(`{"event":"charge.success","data":{"amount":5000}}`)
	signature := signBody("sk_test_secret", body)
	tampered := []byte(`{"event":"charge.success","data":{"amount":9000}}`)

	assert.False(t, gateway.VerifyWebhookSignature(tampered, signature))
}

func TestPaystackGateway_VerifyWebhookSignature_RejectsEmptySignature(t *testing.T) {
	gateway := newGatewayForTest(t, "sk_test_secret")

	assert.False(t, gateway.VerifyWebhookSignature([]byte(`{}`), ""))
}

func TestNewPaystackGateway_RequiresSecretKey(t *testing.T) {
	_, err := NewPaystackGateway(Params{
		Config: &config.Config{Paystack: &config.PaystackConfig{}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Error(t, err)
}
