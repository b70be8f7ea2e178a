package repository

import (
	"context"

	"clustercart/internal/domain/entity"
)

// NotificationRepository defines persistence for the admin event feed.
type NotificationRepository interface {
	// Create persists a new notification entry.
	Create(ctx context.Context, notification *entity.Notification) error

	// ListRecent retrieves the newest entries for the dashboard.
	ListRecent(ctx context.Context, limit int) ([]entity.Notification, error)
}
