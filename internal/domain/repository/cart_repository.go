package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrCartNotFound is a domain-specific error returned when a cart is not found.
var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines persistence for personal carts keyed by phone.
type CartRepository interface {
	// FindByPhone retrieves the member's personal cart.
	FindByPhone(ctx context.Context, phone string) (*entity.Cart, error)

	// Save upserts the member's personal cart.
	Save(ctx context.Context, cart *entity.Cart) error

	// Clear removes all lines from the member's personal cart.
	Clear(ctx context.Context, phone string) error
}
