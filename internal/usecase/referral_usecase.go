package usecase

import (
	"context"

	"clustercart/internal/domain/entity"
)

// ReferralUsecase awards referral commissions on first paid orders.
type ReferralUsecase interface {
	// AwardIfEligible records a commission for the order's referrer when the
	// referred member is on their first paid order, the referrer is a paid
	// member, and no commission exists for the (referred, slug) pair yet.
	// Ineligibility is not an error; the call is simply a no-op.
	AwardIfEligible(ctx context.Context, order *entity.Order) error
}
