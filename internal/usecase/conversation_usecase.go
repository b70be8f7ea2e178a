package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// IncomingMessage is one inbound WhatsApp message after transport decoding.
type IncomingMessage struct {
	Phone         string // Sender phone in E.164 form, whatsapp: prefix stripped.
	Body          string
	MediaURL      string // First media attachment, if any.
	ButtonPayload string // Payload of a tapped quick-reply button.
	ReplyToSID    string // SID of the quoted message on a contextual reply.
}

// Reply is the bot's answer to one inbound message plus the transition it
// caused, recorded in the transcript.
type Reply struct {
	Text        string
	MediaURL    string
	Intent      entity.Intent
	StateBefore entity.ConversationState
	StateAfter  entity.ConversationState
	AIUsed      bool
}

// ConversationUsecase is the conversation state machine. Process is total:
// upstream failures degrade to a reply, never an error to the transport.
type ConversationUsecase interface {
	// Process handles one inbound message and returns the reply to send.
	Process(ctx context.Context, msg *IncomingMessage) (*Reply, error)

	// RecordDeliveryStatus persists a provider delivery-status callback for
	// an outbound message.
	RecordDeliveryStatus(ctx context.Context, status *entity.MessageStatus) error
}
