package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// BroadcastResult summarizes a broadcast fan-out.
type BroadcastResult struct {
	Sent   int
	Failed int
}

// AdminUsecase covers the phone allow-list commands and the dashboard API.
type AdminUsecase interface {
	// IsAdmin reports whether the phone is on the admin allow-list.
	IsAdmin(phone string) bool

	// HandleCommand executes a slash command from an admin phone and returns
	// the reply text. Unknown commands return usage help.
	HandleCommand(ctx context.Context, phone string, command string) (string, error)

	// Login exchanges the dashboard password for a session token.
	Login(ctx context.Context, password string) (string, error)

	// Broadcast sends the message to every member, collecting failures.
	Broadcast(ctx context.Context, message string) (*BroadcastResult, error)

	// ListMembers retrieves members for the dashboard.
	ListMembers(ctx context.Context, limit int) ([]entity.Member, error)

	// ListNotifications retrieves the newest event feed entries.
	ListNotifications(ctx context.Context, limit int) ([]entity.Notification, error)
}
