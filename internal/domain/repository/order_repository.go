package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrOrderNotFound is a domain-specific error returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the standard operations for order persistence.
type OrderRepository interface {
	// Create persists a new order and returns its assigned id.
	Create(ctx context.Context, order *entity.Order) (string, error)

	// FindBySlug retrieves a single order by its human-readable slug.
	FindBySlug(ctx context.Context, slug string) (*entity.Order, error)

	// Update modifies an existing order entity in the storage.
	Update(ctx context.Context, order *entity.Order) error

	// SetStatusBySlug updates only the status field of the order.
	SetStatusBySlug(ctx context.Context, slug string, status entity.OrderStatus) error

	// UpsertClusterPayment overwrites the payment entry for the phone inside
	// cluster_payments, or appends it when no entry exists. Replays of the
	// same confirmation therefore never duplicate entries.
	UpsertClusterPayment(ctx context.Context, slug string, payment entity.ClusterPayment) error

	// SetClusterPaidAmount stores the recomputed sum of PAID entries.
	SetClusterPaidAmount(ctx context.Context, slug string, amountKobo int64) error

	// CountPaidByMember returns how many PAID orders the member has.
	CountPaidByMember(ctx context.Context, phone string) (int64, error)

	// ListRecent retrieves the newest orders for the admin views.
	ListRecent(ctx context.Context, limit int) ([]entity.Order, error)
}
