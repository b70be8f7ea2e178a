// Package payment implements the PaymentGateway on the Paystack REST API.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"clustercart/config"
	"clustercart/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	initializeURL = "https://api.paystack.co/transaction/initialize"
	verifyURL     = "https://api.paystack.co/transaction/verify/"
)

// Params defines the dependencies for the Paystack gateway.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type paystackGateway struct {
	secretKey string
	client    *http.Client
	logger    *slog.Logger
}

// NewPaystackGateway is the constructor for paystackGateway.
func NewPaystackGateway(params Params) (service.PaymentGateway, error) {
	cfg := params.Config.Paystack
	if cfg == nil || cfg.SecretKey == "" {
		return nil, errors.New("paystack secret key is required")
	}

	return &paystackGateway{
		secretKey: cfg.SecretKey,
		client:    &http.Client{},
		logger:    params.Logger,
	}, nil
}

type transactionData struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
}

type paystackResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    transactionData `json:"data"`
}

// InitializeTransaction creates a payment session. The amount is in kobo, as
// Paystack expects, and the metadata is round-tripped back via the webhook.
func (g *paystackGateway) InitializeTransaction(ctx context.Context, email string, amountKobo int64, metadata map[string]any) (*service.Transaction, error) {
	payload := map[string]any{
		"email":  email,
		"amount": amountKobo,
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal initialize payload")
	}

	data, err := g.call(ctx, http.MethodPost, initializeURL, body)
	if err != nil {
		return nil, err
	}

	return &service.Transaction{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
		Status:           data.Status,
		AmountKobo:       data.Amount,
	}, nil
}

// VerifyTransaction fetches the settled state of a reference.
func (g *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (*service.Transaction, error) {
	data, err := g.call(ctx, http.MethodGet, verifyURL+reference, nil)
	if err != nil {
		return nil, err
	}

	return &service.Transaction{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
		Status:           data.Status,
		AmountKobo:       data.Amount,
	}, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header, an
// HMAC-SHA512 of the raw body keyed with the secret key. Comparison is
// constant-time.
func (g *paystackGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *paystackGateway) call(ctx context.Context, method, endpoint string, body []byte) (*transactionData, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "paystack request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read paystack response")
	}

	var parsed paystackResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to decode paystack response (%d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Status {
		return nil, errors.Errorf("paystack error (%d): %s", resp.StatusCode, parsed.Message)
	}

	return &parsed.Data, nil
}
