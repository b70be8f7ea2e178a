package usecase

import "context"

// WebhookEvent is the parsed body of a payment provider webhook call.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the transaction fields the reconciler consumes.
// Metadata arrives either as an object or as a JSON-encoded string depending
// on how the transaction was initialized; the reconciler re-parses it.
type WebhookData struct {
	Reference  string `json:"reference"`
	AmountKobo int64  `json:"amount"`
	Metadata   any    `json:"metadata"`
	Customer   struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// PaymentUsecase reconciles provider webhook events against members and
// orders. Processing is idempotent: replaying a delivery never changes
// financial state twice.
type PaymentUsecase interface {
	// HandleEvent dispatches a verified webhook event. Unknown event types
	// and unknown references are logged and dropped, not errors.
	HandleEvent(ctx context.Context, event *WebhookEvent) error
}
