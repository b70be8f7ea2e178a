package service

import "context"

// Transaction is the gateway's view of an initialized or verified payment.
type Transaction struct {
	AuthorizationURL string
	Reference        string
	Status           string
	AmountKobo       int64
}

// PaymentGateway abstracts the payment provider used for membership and
// order payments.
type PaymentGateway interface {
	// InitializeTransaction creates a payment session and returns the
	// authorization URL the member should open. Metadata is round-tripped
	// back through the provider's webhook.
	InitializeTransaction(ctx context.Context, email string, amountKobo int64, metadata map[string]any) (*Transaction, error)

	// VerifyTransaction fetches the settled state of a reference.
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)

	// VerifyWebhookSignature checks the provider's signature over the raw
	// webhook body using a constant-time comparison.
	VerifyWebhookSignature(body []byte, signature string) bool
}
