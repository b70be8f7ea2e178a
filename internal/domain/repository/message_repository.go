package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrMessageContextNotFound is returned when no product card maps to a
// quoted-reply message SID.
var ErrMessageContextNotFound = errors.New("message context not found")

// MessageRepository defines persistence for the conversation transcript.
type MessageRepository interface {
	// Log appends a transcript entry. Failures must not block replies.
	Log(ctx context.Context, message *entity.MessageLog) error

	// LogStatus appends a provider delivery-status callback entry.
	LogStatus(ctx context.Context, status *entity.MessageStatus) error
}

// MessageContextRepository maps outbound message SIDs to the product they
// carried so quoted replies can resolve a candidate deterministically.
type MessageContextRepository interface {
	// Save records the SID to SKU binding for an outbound product card.
	Save(ctx context.Context, messageContext *entity.MessageContext) error

	// FindBySID retrieves the binding for a quoted-reply SID.
	FindBySID(ctx context.Context, sid string) (*entity.MessageContext, error)
}
