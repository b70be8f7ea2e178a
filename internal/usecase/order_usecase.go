package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// ShareLink is one cluster member's payment link for their share.
type ShareLink struct {
	Phone            string
	AmountKobo       int64
	AuthorizationURL string
	Err              error // set when the link could not be initialized
}

// CheckoutResult is the outcome of turning a cart into an order.
type CheckoutResult struct {
	Order *entity.Order

	// Personal checkout: the single payment link for the member.
	PaymentURL string

	// Cluster checkout: one link per member, failures collected per entry.
	ShareLinks []ShareLink
}

// OrderUsecase defines checkout and order management operations.
type OrderUsecase interface {
	// CreateOrderFromCart turns the member's active cart into an order,
	// assigns a slug, clears the source cart and issues payment links.
	// Cluster carts can only be checked out by the owner.
	CreateOrderFromCart(ctx context.Context, member *entity.Member) (*CheckoutResult, error)

	// CreateOrderFromText captures a free-text item list ("Rice 5kg x2,
	// Beans 1kg") as an order awaiting a price confirmation. No payment
	// link is issued; totals are settled by the team afterwards.
	CreateOrderFromText(ctx context.Context, member *entity.Member, text string) (*entity.Order, error)

	// GetOrder retrieves an order by slug.
	GetOrder(ctx context.Context, slug string) (*entity.Order, error)

	// MarkPaid sets the order PAID, used by the admin mark-paid command.
	MarkPaid(ctx context.Context, slug string) error

	// ListRecent retrieves the newest orders for the admin views.
	ListRecent(ctx context.Context, limit int) ([]entity.Order, error)
}
