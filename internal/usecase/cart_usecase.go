// Package usecase defines the application-layer interfaces of the bot.
package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// ActiveCart is the resolved cart a member is currently operating on. For a
// member with an active cluster this is the cluster's shared item list, for
// everyone else their personal cart.
type ActiveCart struct {
	Items     []entity.LineItem
	Cluster   *entity.Cluster // nil for a personal cart
	IsCluster bool
}

// SubtotalKobo returns the sum of all line subtotals.
func (c *ActiveCart) SubtotalKobo() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalKobo()
	}

	return total
}

// RemoveResult reports how a remove query resolved. Exactly one of Removed
// and Candidates is set: an ambiguous query surfaces candidates instead of
// guessing.
type RemoveResult struct {
	Removed    *entity.LineItem
	Candidates []entity.LineItem
}

// CartUsecase defines cart operations over the member's active cart.
type CartUsecase interface {
	// GetActiveCart resolves the cart the member is operating on. Set
	// forcePersonal to bypass the cluster cart.
	GetActiveCart(ctx context.Context, member *entity.Member, forcePersonal bool) (*ActiveCart, error)

	// AddItem merges the product into the active cart, accumulating qty by SKU.
	AddItem(ctx context.Context, member *entity.Member, product *entity.Product, qty int) (*ActiveCart, error)

	// RemoveItem removes the line matching the query. Exact name matches win,
	// a unique substring match removes, and ambiguity returns candidates.
	RemoveItem(ctx context.Context, member *entity.Member, query string) (*RemoveResult, error)

	// ClearActiveCart empties the cart the member is operating on.
	ClearActiveCart(ctx context.Context, member *entity.Member) error
}
