package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrCommissionExists is returned when a commission for the same referred
// member and order slug was already recorded.
var ErrCommissionExists = errors.New("commission already recorded")

// CommissionRepository defines the standard operations for commission persistence.
// A unique index on (referred_phone, order_slug) backs the idempotency guard.
type CommissionRepository interface {
	// Create persists a new commission. Returns ErrCommissionExists when the
	// (referred_phone, order_slug) pair already has one.
	Create(ctx context.Context, commission *entity.Commission) error

	// CountByReferredPhone returns how many commissions name the phone as the
	// referred member.
	CountByReferredPhone(ctx context.Context, phone string) (int64, error)
}
