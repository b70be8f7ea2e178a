// Package entity contains the core business objects of the project.
package entity

import "time"

// NotificationType labels events surfaced on the admin dashboard feed.
type NotificationType string

const (
	// NotificationNewOrder is recorded when a member checks out.
	NotificationNewOrder NotificationType = "new_order"
	// NotificationOrderPaid is recorded when an order is reconciled as paid.
	NotificationOrderPaid NotificationType = "order_paid"
	// NotificationMembershipPaid is recorded when a membership payment lands.
	NotificationMembershipPaid NotificationType = "membership_paid"
	// NotificationPaymentProof is recorded when a member uploads a proof image.
	NotificationPaymentProof NotificationType = "payment_proof"
	// NotificationCommission is recorded when a referral commission is awarded.
	NotificationCommission NotificationType = "commission"
)

// Notification is an admin-facing event feed entry.
type Notification struct {
	ID        string           `json:"id" bson:"_id,omitempty"`
	Type      NotificationType `json:"type" bson:"type"`
	Message   string           `json:"message" bson:"message"`
	Metadata  map[string]any   `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
