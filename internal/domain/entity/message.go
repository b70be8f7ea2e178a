// Package entity contains the core business objects of the project.
package entity

import "time"

// MessageDirection indicates whether a logged message was received or sent.
type MessageDirection string

const (
	// DirectionIn marks an inbound member message.
	DirectionIn MessageDirection = "in"
	// DirectionOut marks an outbound bot reply.
	DirectionOut MessageDirection = "out"
)

// MessageLog is one transcript entry. Inbound entries carry the state
// transition and intent label the message produced.
type MessageLog struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Phone       string           `json:"phone" bson:"phone"`
	Direction   MessageDirection `json:"direction" bson:"direction"`
	Body        string           `json:"body" bson:"body"`
	Intent      string           `json:"intent,omitempty" bson:"intent,omitempty"`
	StateBefore string           `json:"state_before,omitempty" bson:"state_before,omitempty"`
	StateAfter  string           `json:"state_after,omitempty" bson:"state_after,omitempty"`
	AIUsed      bool             `json:"ai_used" bson:"ai_used"`
	MediaURL    string           `json:"media_url,omitempty" bson:"media_url,omitempty"`
	Timestamp   time.Time        `json:"ts" bson:"ts"`
}

// MessageStatus is one provider delivery-status callback for an outbound
// message (queued, sent, delivered, failed).
type MessageStatus struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	MessageSID   string    `json:"message_sid" bson:"message_sid"`
	Status       string    `json:"status" bson:"status"`
	To           string    `json:"to,omitempty" bson:"to,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty" bson:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Timestamp    time.Time `json:"ts" bson:"ts"`
}

// MessageContext maps an outbound message SID to the product it carried, so a
// quoted reply to a product card can be resolved deterministically.
type MessageContext struct {
	MessageSID string    `json:"message_sid" bson:"_id"`
	Phone      string    `json:"phone" bson:"phone"`
	SKU        string    `json:"sku" bson:"sku"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
