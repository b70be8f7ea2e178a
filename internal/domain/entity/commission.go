// Package entity contains the core business objects of the project.
package entity

import "time"

// CommissionStatus represents the payout state of a referral commission.
type CommissionStatus string

const (
	// CommissionPending means the commission is recorded but not yet paid out.
	CommissionPending CommissionStatus = "pending"
	// CommissionPaid means the commission has been paid to the referrer.
	CommissionPaid CommissionStatus = "paid"
)

// Commission records a referral reward. At most one commission exists per
// referred member; the (ReferredPhone, OrderSlug) pair is unique in the store
// so webhook replays cannot double-award.
type Commission struct {
	ID            string           `json:"id" bson:"_id,omitempty"`
	ReferrerPhone string           `json:"referrer_phone" bson:"referrer_phone"`
	ReferredPhone string           `json:"referred_phone" bson:"referred_phone"`
	OrderSlug     string           `json:"order_slug" bson:"order_slug"`
	AmountKobo    int64            `json:"amount_kobo" bson:"amount_kobo"`
	Status        CommissionStatus `json:"status" bson:"status"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
}
