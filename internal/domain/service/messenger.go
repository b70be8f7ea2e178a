package service

import "context"

// Messenger sends outbound WhatsApp messages.
type Messenger interface {
	// Send delivers a message to the phone, optionally with a media URL, and
	// returns the provider's message SID. Implementations retry text-only
	// when the media attachment is rejected.
	Send(ctx context.Context, phone string, body string, mediaURL string) (string, error)
}
