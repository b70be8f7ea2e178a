// Package entity contains the core business objects of the project.
package entity

import "errors"

// ErrUnknownConversationState is returned when a stored state string is not a
// member of the closed ConversationState set.
var ErrUnknownConversationState = errors.New("unknown conversation state")
